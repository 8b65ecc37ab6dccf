package api

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/neckcoach/internal/store"
)

func newHistoryStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedSession(t *testing.T, s *store.Store, exercise string, started time.Time, left, right int, completed bool) *store.Session {
	t.Helper()
	ended := started.Add(2 * time.Minute)
	sess := &store.Session{
		Exercise:      exercise,
		StartedAt:     started,
		EndedAt:       &ended,
		RepsLeft:      left,
		RepsRight:     right,
		TargetPerSide: 5,
		Sides:         2,
		Completed:     completed,
	}
	require.NoError(t, s.Sessions().Create(sess))
	return sess
}

func TestHistoryHandler_List(t *testing.T) {
	s := newHistoryStore(t)
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	seedSession(t, s, "neck-tilt", base, 5, 5, true)
	newest := seedSession(t, s, "neck-stretch", base.Add(time.Hour), 2, 0, false)

	h := NewHistoryHandler(s)

	rec := do(t, h, http.MethodGet, "/api/history", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp listSessionsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Sessions, 2)
	assert.Equal(t, newest.ID, resp.Sessions[0].ID)
	assert.Equal(t, "neck-stretch", resp.Sessions[0].Exercise)
	assert.Equal(t, 2, resp.Sessions[0].RepsLeft)
	assert.NotEmpty(t, resp.Sessions[0].EndedAt)

	rec = do(t, h, http.MethodGet, "/api/history?limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Sessions, 1)

	rec = do(t, h, http.MethodGet, "/api/history?limit=zero", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryHandler_GetWithReps(t *testing.T) {
	s := newHistoryStore(t)
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	sess := seedSession(t, s, "neck-tilt", base, 1, 1, false)

	require.NoError(t, s.Reps().Add(&store.Rep{SessionID: sess.ID, Direction: "left", Count: 1, HoldMs: 3000, CompletedAt: base.Add(5 * time.Second)}))
	require.NoError(t, s.Reps().Add(&store.Rep{SessionID: sess.ID, Direction: "right", Count: 1, HoldMs: 3100, CompletedAt: base.Add(12 * time.Second)}))

	h := NewHistoryHandler(s)

	rec := do(t, h, http.MethodGet, "/api/history/"+sess.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp sessionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, sess.ID, resp.ID)
	require.Len(t, resp.Reps, 2)
	assert.Equal(t, "left", resp.Reps[0].Direction)
	assert.EqualValues(t, 3100, resp.Reps[1].HoldMs)

	rec = do(t, h, http.MethodGet, "/api/history/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHistoryHandler_Delete(t *testing.T) {
	s := newHistoryStore(t)
	sess := seedSession(t, s, "neck-tilt", time.Now().UTC(), 0, 0, false)

	h := NewHistoryHandler(s)

	rec := do(t, h, http.MethodDelete, "/api/history/"+sess.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, err := s.Sessions().GetByID(sess.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	rec = do(t, h, http.MethodDelete, "/api/history/"+sess.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/history", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHistoryHandler_Stats(t *testing.T) {
	s := newHistoryStore(t)
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	seedSession(t, s, "neck-tilt", base, 5, 5, true)
	seedSession(t, s, "neck-tilt", base.Add(time.Hour), 2, 1, false)

	h := NewHistoryHandler(s)

	rec := do(t, http.HandlerFunc(h.Stats), http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Stats []statsResponse `json:"stats"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Stats, 1)
	assert.Equal(t, statsResponse{Exercise: "neck-tilt", Sessions: 2, Completed: 1, Reps: 13}, resp.Stats[0])
}
