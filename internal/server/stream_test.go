package server

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/neckcoach/internal/capture"
	"github.com/ayusman/neckcoach/internal/exercise"
	"github.com/ayusman/neckcoach/internal/session"
)

func TestStreamHandler_WritesJPEGParts(t *testing.T) {
	cam := capture.NewBlankCamera()
	require.NoError(t, cam.Open())
	defer cam.Close()

	status := func() session.Snapshot {
		return session.Snapshot{Running: true, Title: "Neck Tilt", Sides: 2, TargetPerSide: 5, Progress: 0.3}
	}
	h := NewStreamHandler(cam, status, 30)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, "multipart/x-mixed-replace; boundary=frame", rec.Header().Get("Content-Type"))

	scanner := bufio.NewScanner(strings.NewReader(rec.Body.String()))
	scanner.Buffer(make([]byte, 1<<20), 1<<20)
	parts := 0
	for scanner.Scan() {
		if scanner.Text() == "--frame" {
			parts++
		}
	}
	assert.GreaterOrEqual(t, parts, 1)
	assert.Contains(t, rec.Body.String(), "Content-Type: image/jpeg")
	assert.GreaterOrEqual(t, cam.Reads(), parts)
}

func TestStreamHandler_MethodNotAllowed(t *testing.T) {
	h := NewStreamHandler(capture.NewBlankCamera(), nil, 0)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/stream", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestStatusFor(t *testing.T) {
	t.Run("idle", func(t *testing.T) {
		st := StatusFor(session.Snapshot{})
		assert.Equal(t, []string{"No exercise running"}, st.Lines)
		assert.Zero(t, st.Progress)
	})

	t.Run("two-sided holding", func(t *testing.T) {
		st := StatusFor(session.Snapshot{
			Running:           true,
			Title:             "Seated Neck Stretch",
			Phase:             exercise.PhaseHolding,
			Reps:              exercise.RepCounts{Left: 2},
			TargetPerSide:     5,
			Sides:             2,
			Progress:          0.2,
			Feedback:          exercise.FeedbackHoldInProgress,
			HoldSeconds:       1.5,
			HoldTargetSeconds: 3,
		})
		assert.Equal(t, "Seated Neck Stretch", st.Title)
		assert.Equal(t, []string{"L 2/5  R 0/5", "Hold it..."}, st.Lines)
		assert.InDelta(t, 0.5, st.Hold, 1e-9)
		assert.InDelta(t, 0.2, st.Progress, 1e-9)
		assert.False(t, st.Alert)
	})

	t.Run("single-axis correction", func(t *testing.T) {
		st := StatusFor(session.Snapshot{
			Running:       true,
			Phase:         exercise.PhaseActive,
			Reps:          exercise.RepCounts{Right: 4},
			TargetPerSide: 10,
			Sides:         1,
			Feedback:      exercise.FeedbackKeepLevel,
		})
		assert.Equal(t, []string{"Reps 4/10", "Keep your shoulders level"}, st.Lines)
		assert.True(t, st.Alert)
	})

	t.Run("complete", func(t *testing.T) {
		st := StatusFor(session.Snapshot{Running: true, Phase: exercise.PhaseComplete, Sides: 1, TargetPerSide: 10})
		assert.Contains(t, st.Lines, "Exercise complete!")
	})
}
