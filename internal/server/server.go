// Package server provides the HTTP server for the neckcoach dashboard.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/neckcoach/internal/server/api"
	"github.com/ayusman/neckcoach/internal/session"
	"github.com/ayusman/neckcoach/internal/store"
)

// Config holds the server dependencies. Nil dependencies disable their routes.
type Config struct {
	StaticDir  string
	Store      *store.Store
	Controller *session.Controller
	Exercises  api.ExerciseSource
	Tracker    api.Tracker
	Frames     FrameSource
	FPS        int
	Hub        *Hub
	Logger     *zap.Logger
}

// Server represents the HTTP server for the neckcoach application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	logger *zap.Logger
	http   *http.Server
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
		logger: logger.Named("server"),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Exercises != nil {
		s.mux.Handle("/api/exercises", api.NewExercisesHandler(s.config.Exercises))
	}

	var status func() session.Snapshot
	if c := s.config.Controller; c != nil {
		status = c.Snapshot
		if s.config.Exercises != nil {
			h := api.NewSessionHandler(c, s.config.Exercises, s.config.Logger)
			s.mux.Handle("/api/session", h)
			s.mux.Handle("/api/session/", h)
		}
	}

	if s.config.Store != nil {
		h := api.NewHistoryHandler(s.config.Store)
		s.mux.Handle("/api/history", h)
		s.mux.Handle("/api/history/", h)
		s.mux.HandleFunc("/api/stats", h.Stats)
	}

	if s.config.Tracker != nil {
		s.mux.Handle("/api/tracking", api.NewTrackingHandler(s.config.Tracker))
	}

	if s.config.Hub != nil {
		s.mux.Handle("/api/events", s.config.Hub)
	}

	if s.config.Frames != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Frames, status, s.config.FPS))
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		s.mux.Handle("/", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).Round(time.Second).String(),
	}
	if s.config.Controller != nil {
		response["session"] = s.config.Controller.Running()
	}
	if s.config.Tracker != nil {
		response["paused"] = s.config.Tracker.Paused()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	if s.config.Hub != nil {
		s.config.Hub.Close()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
