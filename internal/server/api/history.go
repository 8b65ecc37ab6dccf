package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ayusman/neckcoach/internal/store"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

// HistoryHandler serves recorded sessions from the store.
type HistoryHandler struct {
	store *store.Store
}

// NewHistoryHandler creates a HistoryHandler with the given store.
func NewHistoryHandler(s *store.Store) *HistoryHandler {
	return &HistoryHandler{store: s}
}

type sessionResponse struct {
	ID            string        `json:"id"`
	Exercise      string        `json:"exercise"`
	StartedAt     string        `json:"started_at"`
	EndedAt       string        `json:"ended_at,omitempty"`
	RepsLeft      int           `json:"reps_left"`
	RepsRight     int           `json:"reps_right"`
	TargetPerSide int           `json:"target_per_side"`
	Sides         int           `json:"sides"`
	Completed     bool          `json:"completed"`
	Reps          []repResponse `json:"reps,omitempty"`
}

type repResponse struct {
	Direction   string `json:"direction"`
	Count       int    `json:"count"`
	HoldMs      int64  `json:"hold_ms"`
	CompletedAt string `json:"completed_at"`
}

type listSessionsResponse struct {
	Sessions []sessionResponse `json:"sessions"`
}

type statsResponse struct {
	Exercise  string `json:"exercise"`
	Sessions  int    `json:"sessions"`
	Completed int    `json:"completed"`
	Reps      int    `json:"reps"`
}

func toSessionResponse(s *store.Session) sessionResponse {
	resp := sessionResponse{
		ID:            s.ID,
		Exercise:      s.Exercise,
		StartedAt:     formatTime(s.StartedAt),
		RepsLeft:      s.RepsLeft,
		RepsRight:     s.RepsRight,
		TargetPerSide: s.TargetPerSide,
		Sides:         s.Sides,
		Completed:     s.Completed,
	}
	if s.EndedAt != nil {
		resp.EndedAt = formatTime(*s.EndedAt)
	}
	return resp
}

// ServeHTTP routes GET /api/history, GET /api/history/{id} and
// DELETE /api/history/{id}.
func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/history")
	id = strings.Trim(id, "/")

	if id == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, id)
	case http.MethodDelete:
		h.delete(w, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *HistoryHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	sessions, err := h.store.Sessions().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}

	resp := listSessionsResponse{Sessions: make([]sessionResponse, 0, len(sessions))}
	for _, s := range sessions {
		resp.Sessions = append(resp.Sessions, toSessionResponse(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HistoryHandler) get(w http.ResponseWriter, id string) {
	s, err := h.store.Sessions().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}

	reps, err := h.store.Reps().ListBySession(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list reps")
		return
	}

	resp := toSessionResponse(s)
	for _, rep := range reps {
		resp.Reps = append(resp.Reps, repResponse{
			Direction:   rep.Direction,
			Count:       rep.Count,
			HoldMs:      rep.HoldMs,
			CompletedAt: formatTime(rep.CompletedAt),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HistoryHandler) delete(w http.ResponseWriter, id string) {
	if err := h.store.Sessions().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Stats handles GET /api/stats with per-exercise totals.
func (h *HistoryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats, err := h.store.Sessions().Stats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute stats")
		return
	}

	resp := make([]statsResponse, 0, len(stats))
	for _, s := range stats {
		resp = append(resp, statsResponse(s))
	}
	writeJSON(w, http.StatusOK, map[string]any{"stats": resp})
}
