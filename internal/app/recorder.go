package app

import (
	"sync"

	"go.uber.org/zap"

	"github.com/ayusman/neckcoach/internal/exercise"
	"github.com/ayusman/neckcoach/internal/session"
	"github.com/ayusman/neckcoach/internal/store"
)

// Recorder persists sessions and their reps. It is a session.Listener.
// Store failures are logged; they never interrupt a running exercise.
type Recorder struct {
	store  *store.Store
	logger *zap.Logger

	mu      sync.Mutex
	current *store.Session
}

// NewRecorder creates a Recorder writing to s.
func NewRecorder(s *store.Store, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{store: s, logger: logger.Named("recorder")}
}

func (r *Recorder) SessionStarted(s session.Snapshot) {
	sess := &store.Session{
		ID:            s.ID,
		Exercise:      s.Exercise,
		StartedAt:     s.StartedAt,
		TargetPerSide: s.TargetPerSide,
		Sides:         s.Sides,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.Sessions().Create(sess); err != nil {
		r.logger.Error("create session", zap.String("id", s.ID), zap.Error(err))
		r.current = nil
		return
	}
	r.current = sess

	if err := r.store.Settings().Set(store.SettingLastExercise, s.Exercise); err != nil {
		r.logger.Warn("save last exercise", zap.Error(err))
	}
}

func (r *Recorder) SessionUpdated(s session.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == nil || r.current.ID != s.ID {
		return
	}

	dirty := false
	for _, e := range s.Events {
		switch e.Type {
		case exercise.EventRepCompleted:
			rep := &store.Rep{
				SessionID:   s.ID,
				Direction:   string(e.Direction),
				Count:       e.Count,
				HoldMs:      e.HoldTime.Milliseconds(),
				CompletedAt: e.At,
			}
			if err := r.store.Reps().Add(rep); err != nil {
				r.logger.Error("add rep", zap.String("session", s.ID), zap.Error(err))
			}
			dirty = true
		case exercise.EventExerciseCompleted:
			r.current.Completed = true
			dirty = true
		}
	}
	if !dirty {
		return
	}

	r.current.RepsLeft = s.Reps.Left
	r.current.RepsRight = s.Reps.Right
	if err := r.store.Sessions().Update(r.current); err != nil {
		r.logger.Error("update session", zap.String("id", s.ID), zap.Error(err))
	}
}

func (r *Recorder) SessionEnded(sum session.Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == nil || r.current.ID != sum.ID {
		return
	}

	ended := sum.EndedAt
	r.current.EndedAt = &ended
	r.current.RepsLeft = sum.Reps.Left
	r.current.RepsRight = sum.Reps.Right
	r.current.Completed = sum.Completed
	if err := r.store.Sessions().Update(r.current); err != nil {
		r.logger.Error("finish session", zap.String("id", sum.ID), zap.Error(err))
	}
	r.current = nil
}
