package session

import (
	"time"

	"github.com/ayusman/neckcoach/internal/exercise"
)

// Snapshot is a read-only view of the running session.
type Snapshot struct {
	Running   bool      `json:"running"`
	ID        string    `json:"id,omitempty"`
	Exercise  string    `json:"exercise,omitempty"`
	Title     string    `json:"title,omitempty"`
	StartedAt time.Time `json:"started_at,omitempty"`

	Phase         exercise.Phase     `json:"phase"`
	Selected      exercise.Direction `json:"selected,omitempty"`
	Current       exercise.Direction `json:"current,omitempty"`
	HoldDirection exercise.Direction `json:"hold_direction,omitempty"`
	Calibration   exercise.Direction `json:"calibration_direction,omitempty"`

	HoldSeconds       float64 `json:"hold_seconds"`
	HoldTargetSeconds float64 `json:"hold_target_seconds"`

	Reps          exercise.RepCounts `json:"reps"`
	TargetPerSide int                `json:"target_per_side"`
	Sides         int                `json:"sides"`
	// Progress is the share of the total target reached, in [0, 1].
	Progress float64 `json:"progress"`

	Feedback exercise.FeedbackKind `json:"feedback,omitempty"`
	Check    exercise.Check        `json:"check"`
	Metric   float64               `json:"metric"`
	Assist   float64               `json:"assist"`

	// Events holds what the last tick or command emitted.
	Events []exercise.Event `json:"events,omitempty"`
}

// Complete reports whether every target has been reached.
func (s Snapshot) Complete() bool {
	return s.Phase == exercise.PhaseComplete
}

// Has reports whether the snapshot carries an event of type t.
func (s Snapshot) Has(t exercise.EventType) bool {
	for _, e := range s.Events {
		if e.Type == t {
			return true
		}
	}
	return false
}

// Summary describes a session once it has ended.
type Summary struct {
	ID            string             `json:"id"`
	Exercise      string             `json:"exercise"`
	StartedAt     time.Time          `json:"started_at"`
	EndedAt       time.Time          `json:"ended_at"`
	Reps          exercise.RepCounts `json:"reps"`
	TargetPerSide int                `json:"target_per_side"`
	Sides         int                `json:"sides"`
	Completed     bool               `json:"completed"`
}

// Duration returns how long the session ran.
func (s Summary) Duration() time.Duration {
	if s.EndedAt.Before(s.StartedAt) {
		return 0
	}
	return s.EndedAt.Sub(s.StartedAt)
}

// Listener observes session lifecycle and per-tick updates. Methods are
// called outside the controller lock, from the goroutine that caused them.
type Listener interface {
	SessionStarted(Snapshot)
	SessionUpdated(Snapshot)
	SessionEnded(Summary)
}

// Funcs adapts plain functions to a Listener. Nil fields are skipped.
type Funcs struct {
	Started func(Snapshot)
	Updated func(Snapshot)
	Ended   func(Summary)
}

func (f Funcs) SessionStarted(s Snapshot) {
	if f.Started != nil {
		f.Started(s)
	}
}

func (f Funcs) SessionUpdated(s Snapshot) {
	if f.Updated != nil {
		f.Updated(s)
	}
}

func (f Funcs) SessionEnded(s Summary) {
	if f.Ended != nil {
		f.Ended(s)
	}
}
