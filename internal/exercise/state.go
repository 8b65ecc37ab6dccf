package exercise

import "time"

// Phase is the coarse position of a session in the rep cycle.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseCalibrating Phase = "calibrating"
	PhaseActive      Phase = "active"
	PhaseHolding     Phase = "holding"
	PhaseResetting   Phase = "resetting"
	PhaseComplete    Phase = "complete"
)

// RepCounts holds completed reps per side. Single-axis exercises count on Right.
type RepCounts struct {
	Left  int `json:"left"`
	Right int `json:"right"`
}

// Get returns the count for d.
func (r RepCounts) Get(d Direction) int {
	switch d {
	case DirectionLeft:
		return r.Left
	case DirectionRight:
		return r.Right
	default:
		return 0
	}
}

// Total returns the reps over both sides.
func (r RepCounts) Total() int {
	return r.Left + r.Right
}

func (r *RepCounts) inc(d Direction) int {
	switch d {
	case DirectionLeft:
		r.Left++
		return r.Left
	case DirectionRight:
		r.Right++
		return r.Right
	default:
		return 0
	}
}

// State is the full mutable state of one exercise session.
// It is a value: Machine methods take a State and return the next one.
type State struct {
	Phase Phase `json:"phase"`

	// Selected is the side chosen by the user for side-restricted exercises.
	Selected Direction `json:"selected,omitempty"`
	// Current is the qualifying direction measured on the last determined frame.
	Current Direction `json:"current,omitempty"`

	HoldDirection Direction     `json:"hold_direction,omitempty"`
	HoldStart     time.Time     `json:"hold_start,omitempty"`
	HoldElapsed   time.Duration `json:"hold_elapsed"`

	Reps                 RepCounts `json:"reps"`
	RepCompletedThisHold bool      `json:"rep_completed_this_hold"`
	AwaitingReset        bool      `json:"awaiting_reset"`

	Baseline             float64   `json:"baseline,omitempty"`
	HasBaseline          bool      `json:"has_baseline"`
	CalibrationDirection Direction `json:"calibration_direction,omitempty"`

	// Metric is the last determined metric, relative to the baseline when one was captured.
	Metric   float64      `json:"metric"`
	Assist   float64      `json:"assist"`
	Feedback FeedbackKind `json:"feedback,omitempty"`
	Check    Check        `json:"check"`

	LastTick time.Time `json:"last_tick,omitempty"`
}

// IdleState returns the state of a session that has not been started.
func IdleState() State {
	return State{Phase: PhaseIdle}
}

// Holding reports whether a hold is in progress.
func (s State) Holding() bool {
	return s.Phase == PhaseHolding
}

// clearHold forgets the current hold without touching counters.
func (s *State) clearHold() {
	s.HoldDirection = DirectionNone
	s.HoldStart = time.Time{}
	s.HoldElapsed = 0
}
