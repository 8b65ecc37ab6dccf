package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/neckcoach/internal/config"
)

func TestExercisesHandler(t *testing.T) {
	h := NewExercisesHandler(config.Default())

	rec := do(t, h, http.MethodGet, "/api/exercises", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Exercises []exerciseResponse `json:"exercises"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Exercises, 3)

	byName := map[string]exerciseResponse{}
	for _, ex := range resp.Exercises {
		byName[ex.Name] = ex
	}

	stretch := byName["neck-stretch"]
	assert.True(t, stretch.RequireSelection)
	assert.True(t, stretch.RequiresAssist)
	assert.Equal(t, 70.0, stretch.AssistThreshold)
	assert.Equal(t, 12.0, stretch.Threshold)
	assert.Equal(t, 3.0, stretch.HoldSeconds)

	shrug := byName["shoulder-shrug"]
	assert.Equal(t, 1, shrug.Sides)
	assert.Equal(t, "baseline", shrug.Calibration)

	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodPost, "/api/exercises", "").Code)
}

type fakeTracker struct{ paused bool }

func (f *fakeTracker) Paused() bool     { return f.paused }
func (f *fakeTracker) SetPaused(p bool) { f.paused = p }

func TestTrackingHandler(t *testing.T) {
	tr := &fakeTracker{}
	h := NewTrackingHandler(tr)

	rec := do(t, h, http.MethodGet, "/api/tracking", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"paused":false}`, rec.Body.String())

	rec = do(t, h, http.MethodPut, "/api/tracking", `{"paused":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"paused":true}`, rec.Body.String())
	assert.True(t, tr.paused)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPut, "/api/tracking", `nope`).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodDelete, "/api/tracking", "").Code)
}
