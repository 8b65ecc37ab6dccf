package plugin

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/neckcoach/internal/exercise"
	"github.com/ayusman/neckcoach/internal/session"
)

// recordingHook installs a hook that saves every request it receives into its
// own directory and returns that directory.
func recordingHook(t *testing.T, root, name string, events ...string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell hooks are not supported on Windows")
	}

	writeManifest(t, root, name, Manifest{
		Name:       name,
		Executable: "hook.sh",
		Events:     events,
		Config:     json.RawMessage(`{"volume":3}`),
	})

	dir := filepath.Join(root, name)
	script := "#!/bin/sh\nf=$(mktemp ./req.XXXXXX)\ncat > \"$f\"\necho '{\"success\":true}'\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hook.sh"), []byte(script), 0755))
	return dir
}

func receivedEvents(t *testing.T, dir string) []Request {
	t.Helper()
	files, err := filepath.Glob(filepath.Join(dir, "req.*"))
	require.NoError(t, err)

	var out []Request
	for _, f := range files {
		data, err := os.ReadFile(f)
		require.NoError(t, err)
		var req Request
		require.NoError(t, json.Unmarshal(data, &req))
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Event < out[j].Event })
	return out
}

func newTestDispatcher(t *testing.T, root string) *Dispatcher {
	t.Helper()
	m := NewManager(root, nil)
	require.NoError(t, m.Discover())
	d := NewDispatcher(m, NewExecutor(5*time.Second), nil)
	t.Cleanup(d.Close)
	return d
}

func TestDispatcher_RoutesSubscribedEvents(t *testing.T) {
	root := t.TempDir()
	reps := recordingHook(t, root, "reps", string(exercise.EventRepCompleted))
	all := recordingHook(t, root, "all", AllEvents)

	d := newTestDispatcher(t, root)
	at := time.Date(2026, 3, 2, 9, 0, 5, 0, time.UTC)

	d.SessionUpdated(session.Snapshot{
		ID:            "s1",
		Exercise:      exercise.NeckTilt,
		Reps:          exercise.RepCounts{Left: 1},
		TargetPerSide: 5,
		Events: []exercise.Event{
			{Type: exercise.EventFeedback, Feedback: exercise.FeedbackAwaitingReset, At: at},
			{Type: exercise.EventRepCompleted, Direction: exercise.DirectionLeft, Count: 1, At: at},
		},
	})
	d.Wait()

	got := receivedEvents(t, reps)
	require.Len(t, got, 1)
	assert.Equal(t, "rep_completed", got[0].Event)
	assert.Equal(t, "s1", got[0].SessionID)
	assert.Equal(t, "left", got[0].Direction)
	assert.Equal(t, 1, got[0].Count)
	assert.Equal(t, Reps{Left: 1}, got[0].Reps)
	assert.Equal(t, 5, got[0].Target)
	assert.JSONEq(t, `{"volume":3}`, string(got[0].Config))
	assert.True(t, at.Equal(got[0].At))

	// Feedback never reaches hooks, even wildcard ones.
	got = receivedEvents(t, all)
	require.Len(t, got, 1)
	assert.Equal(t, "rep_completed", got[0].Event)
}

func TestDispatcher_Lifecycle(t *testing.T) {
	root := t.TempDir()
	dir := recordingHook(t, root, "life", EventSessionStarted, EventSessionEnded)

	d := newTestDispatcher(t, root)
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	d.SessionStarted(session.Snapshot{Running: true, ID: "s2", Exercise: exercise.ShoulderShrug, StartedAt: start})
	d.SessionEnded(session.Summary{
		ID:            "s2",
		Exercise:      exercise.ShoulderShrug,
		StartedAt:     start,
		EndedAt:       start.Add(time.Minute),
		Reps:          exercise.RepCounts{Right: 10},
		TargetPerSide: 10,
		Completed:     true,
	})
	d.Wait()

	got := receivedEvents(t, dir)
	require.Len(t, got, 2)

	assert.Equal(t, EventSessionEnded, got[0].Event)
	assert.True(t, got[0].Completed)
	assert.Equal(t, Reps{Right: 10}, got[0].Reps)

	assert.Equal(t, EventSessionStarted, got[1].Event)
	assert.Equal(t, exercise.ShoulderShrug, got[1].Exercise)
	assert.True(t, start.Equal(got[1].At))
}

func TestDispatcher_NoSubscribers(t *testing.T) {
	d := newTestDispatcher(t, t.TempDir())
	d.Dispatch(Request{Event: "ready"})
	d.Wait()
}
