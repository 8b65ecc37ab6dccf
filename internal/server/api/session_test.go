package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ayusman/neckcoach/internal/config"
	"github.com/ayusman/neckcoach/internal/detector"
	"github.com/ayusman/neckcoach/internal/exercise"
	"github.com/ayusman/neckcoach/internal/session"
)

func newSessionHandler(t *testing.T) (*SessionHandler, *session.Controller) {
	t.Helper()
	c := session.New(zap.NewNop())
	return NewSessionHandler(c, config.Default(), zap.NewNop()), c
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeSnapshot(t *testing.T, rec *httptest.ResponseRecorder) session.Snapshot {
	t.Helper()
	var snap session.Snapshot
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&snap))
	return snap
}

func TestSessionHandler_GetIdle(t *testing.T) {
	h, _ := newSessionHandler(t)

	rec := do(t, h, http.MethodGet, "/api/session", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	snap := decodeSnapshot(t, rec)
	assert.False(t, snap.Running)
	assert.Equal(t, exercise.PhaseIdle, snap.Phase)
}

func TestSessionHandler_Start(t *testing.T) {
	h, c := newSessionHandler(t)

	rec := do(t, h, http.MethodPost, "/api/session", `{"exercise":"shoulder-shrug"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	snap := decodeSnapshot(t, rec)
	assert.True(t, snap.Running)
	assert.Equal(t, exercise.ShoulderShrug, snap.Exercise)
	assert.Equal(t, exercise.PhaseCalibrating, snap.Phase)
	assert.NotEmpty(t, snap.ID)
	assert.True(t, c.Running())
}

func TestSessionHandler_StartWithDirection(t *testing.T) {
	h, _ := newSessionHandler(t)

	rec := do(t, h, http.MethodPost, "/api/session", `{"exercise":"neck-stretch","direction":"left"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, exercise.DirectionLeft, decodeSnapshot(t, rec).Selected)
}

func TestSessionHandler_StartErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"unknown exercise", `{"exercise":"cartwheel"}`, http.StatusBadRequest},
		{"malformed body", `{"exercise":`, http.StatusBadRequest},
		{"bad direction", `{"exercise":"neck-tilt","direction":"up"}`, http.StatusBadRequest},
		{"direction on single-axis", `{"exercise":"shoulder-shrug","direction":"left"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, c := newSessionHandler(t)
			rec := do(t, h, http.MethodPost, "/api/session", tt.body)
			assert.Equal(t, tt.want, rec.Code)
			assert.False(t, c.Running())

			var resp errorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestSessionHandler_Stop(t *testing.T) {
	h, c := newSessionHandler(t)

	rec := do(t, h, http.MethodDelete, "/api/session", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	require.NoError(t, c.Start(mustExercise(t, exercise.ShoulderShrug)))
	now := time.Now()
	c.Tick(detector.NeutralPose(), now)
	for d := 100 * time.Millisecond; d <= 3100*time.Millisecond; d += 100 * time.Millisecond {
		c.Tick(detector.ShrugPose(0.05, 0), now.Add(d))
	}

	rec = do(t, h, http.MethodDelete, "/api/session", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var sum session.Summary
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&sum))
	assert.Equal(t, exercise.ShoulderShrug, sum.Exercise)
	assert.Equal(t, 1, sum.Reps.Total())
	assert.False(t, sum.Completed)
	assert.False(t, c.Running())
}

func TestSessionHandler_Reset(t *testing.T) {
	h, c := newSessionHandler(t)

	rec := do(t, h, http.MethodPost, "/api/session/reset", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	require.NoError(t, c.Start(mustExercise(t, exercise.NeckTilt)))
	first := c.Snapshot().ID

	rec = do(t, h, http.MethodPost, "/api/session/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)

	snap := decodeSnapshot(t, rec)
	assert.True(t, snap.Running)
	assert.NotEqual(t, first, snap.ID)
	assert.Equal(t, exercise.NeckTilt, snap.Exercise)
}

func TestSessionHandler_Direction(t *testing.T) {
	h, c := newSessionHandler(t)

	rec := do(t, h, http.MethodPost, "/api/session/direction", `{"direction":"right"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	require.NoError(t, c.Start(mustExercise(t, exercise.NeckStretch)))

	rec = do(t, h, http.MethodPost, "/api/session/direction", `{"direction":"right"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, exercise.DirectionRight, decodeSnapshot(t, rec).Selected)

	rec = do(t, h, http.MethodPost, "/api/session/direction", `{"direction":"none"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	require.NoError(t, c.Start(mustExercise(t, exercise.ShoulderShrug)))
	rec = do(t, h, http.MethodPost, "/api/session/direction", `{"direction":"left"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionHandler_Routing(t *testing.T) {
	h, _ := newSessionHandler(t)

	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodPut, "/api/session", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodGet, "/api/session/reset", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodGet, "/api/session/direction", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/session/other", "").Code)
}

func mustExercise(t *testing.T, name string) exercise.Config {
	t.Helper()
	cfg, err := config.Default().Exercise(name)
	require.NoError(t, err)
	return cfg
}
