package api

import "net/http"

// Tracker pauses and resumes the frame loop.
type Tracker interface {
	Paused() bool
	SetPaused(paused bool)
}

// TrackingHandler serves GET and PUT /api/tracking.
type TrackingHandler struct {
	tracker Tracker
}

// NewTrackingHandler creates a TrackingHandler.
func NewTrackingHandler(t Tracker) *TrackingHandler {
	return &TrackingHandler{tracker: t}
}

type trackingState struct {
	Paused bool `json:"paused"`
}

func (h *TrackingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPut:
		var req trackingState
		if !decodeJSON(w, r, &req) {
			return
		}
		h.tracker.SetPaused(req.Paused)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, trackingState{Paused: h.tracker.Paused()})
}
