package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/neckcoach/internal/config"
	"github.com/ayusman/neckcoach/internal/detector"
	"github.com/ayusman/neckcoach/internal/exercise"
	"github.com/ayusman/neckcoach/internal/session"
	"github.com/ayusman/neckcoach/internal/store"
)

func TestAPI_SessionWorkflow(t *testing.T) {
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer st.Close()

	controller := session.New(nil)
	hub := NewHub(controller.Snapshot, nil)
	controller.AddListener(hub)

	srv := New(Config{
		Store:      st,
		Controller: controller,
		Exercises:  config.Default(),
		Hub:        hub,
	})
	ts := httptest.NewServer(srv)
	defer ts.Close()
	client := ts.Client()

	// 1. Subscribe to live events.
	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/events", nil)
	require.NoError(t, err)
	defer ws.Close()

	first := readMessage(t, ws)
	assert.Equal(t, MessageSnapshot, first.Type)
	assert.False(t, first.Snapshot.Running)

	// 2. Start a seated neck stretch on the left side.
	resp, err := client.Post(ts.URL+"/api/session", "application/json",
		bytes.NewBufferString(`{"exercise":"neck-stretch","direction":"left"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	assert.Equal(t, MessageStarted, readMessage(t, ws).Type)
	// Selecting the side is broadcast as an update.
	assert.Equal(t, exercise.DirectionLeft, readMessage(t, ws).Snapshot.Selected)

	// 3. Hold an assisted left stretch long enough for one rep.
	at := time.Now()
	var snap session.Snapshot
	for d := time.Duration(0); d <= 3100*time.Millisecond; d += 100 * time.Millisecond {
		snap = controller.Tick(detector.StretchPose(-20, true), at.Add(d))
	}
	require.Equal(t, 1, snap.Reps.Left)

	sawRep := false
	for i := 0; i < 40 && !sawRep; i++ {
		m := readMessage(t, ws)
		sawRep = m.Snapshot != nil && m.Snapshot.Has(exercise.EventRepCompleted)
	}
	assert.True(t, sawRep)

	// 4. The session endpoint reports progress.
	resp, err = client.Get(ts.URL + "/api/session")
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	resp.Body.Close()
	assert.Equal(t, 1, snap.Reps.Left)
	assert.Equal(t, exercise.PhaseResetting, snap.Phase)

	// 5. Stop and receive the summary.
	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/session", nil)
	resp, err = client.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var sum session.Summary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sum))
	resp.Body.Close()
	assert.Equal(t, exercise.NeckStretch, sum.Exercise)
	assert.Equal(t, 1, sum.Reps.Left)

	// 6. History is served from the store.
	resp, err = client.Get(ts.URL + "/api/history")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}
