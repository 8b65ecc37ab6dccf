package api

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ayusman/neckcoach/internal/exercise"
	"github.com/ayusman/neckcoach/internal/session"
)

// ExerciseSource resolves exercise names to effective configs.
type ExerciseSource interface {
	Exercise(name string) (exercise.Config, error)
	ExerciseList() ([]exercise.Config, error)
}

// SessionHandler serves /api/session and its commands.
type SessionHandler struct {
	controller *session.Controller
	exercises  ExerciseSource
	logger     *zap.Logger
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(c *session.Controller, exercises ExerciseSource, logger *zap.Logger) *SessionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionHandler{controller: c, exercises: exercises, logger: logger.Named("api")}
}

type startRequest struct {
	Exercise  string `json:"exercise"`
	Direction string `json:"direction,omitempty"`
}

type directionRequest struct {
	Direction string `json:"direction"`
}

// ServeHTTP routes:
//
//	GET    /api/session            current snapshot
//	POST   /api/session            start {"exercise": "neck-tilt"}
//	DELETE /api/session            stop, returns the summary
//	POST   /api/session/reset      restart the running exercise
//	POST   /api/session/direction  select {"direction": "left"}
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/session")
	path = strings.Trim(path, "/")

	switch path {
	case "":
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, h.controller.Snapshot())
		case http.MethodPost:
			h.start(w, r)
		case http.MethodDelete:
			h.stop(w)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case "reset":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.reset(w)
	case "direction":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.direction(w, r)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

func (h *SessionHandler) start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	cfg, err := h.exercises.Exercise(req.Exercise)
	if err != nil {
		if errors.Is(err, exercise.ErrUnknownExercise) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("exercise config", zap.String("exercise", req.Exercise), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load exercise")
		return
	}

	var dir exercise.Direction
	if req.Direction != "" {
		if dir, err = exercise.ParseDirection(req.Direction); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if !cfg.TwoSided() {
			writeError(w, http.StatusBadRequest, exercise.ErrNotTwoSided.Error())
			return
		}
	}

	if err := h.controller.Start(cfg); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if dir != exercise.DirectionNone {
		if err := h.controller.SelectDirection(dir); err != nil {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
	}
	writeJSON(w, http.StatusCreated, h.controller.Snapshot())
}

func (h *SessionHandler) stop(w http.ResponseWriter) {
	if !h.controller.Running() {
		writeError(w, http.StatusConflict, session.ErrNotRunning.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.controller.Stop())
}

func (h *SessionHandler) reset(w http.ResponseWriter) {
	if err := h.controller.Reset(); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.controller.Snapshot())
}

func (h *SessionHandler) direction(w http.ResponseWriter, r *http.Request) {
	var req directionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	dir, err := exercise.ParseDirection(req.Direction)
	if err != nil || dir == exercise.DirectionNone {
		writeError(w, http.StatusBadRequest, "direction must be left or right")
		return
	}

	err = h.controller.SelectDirection(dir)
	switch {
	case errors.Is(err, session.ErrNotRunning):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrNotTwoSided):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, h.controller.Snapshot())
	}
}
