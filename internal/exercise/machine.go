package exercise

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrNotTwoSided is returned when selecting a side on a single-axis exercise.
var ErrNotTwoSided = errors.New("exercise is not two-sided")

// Sample is one frame's reading stamped with a monotonic time.
type Sample struct {
	Reading
	At time.Time
}

// Step describes what a single Advance or Select did.
type Step struct {
	Events   []Event
	Feedback FeedbackKind
	Check    Check

	// Inert is true when the tick changed nothing but the last tick time.
	Inert bool
	// OutOfOrder is true when the sample was older than the previous tick and ignored.
	OutOfOrder bool
}

// Has reports whether the step emitted an event of type t.
func (s Step) Has(t EventType) bool {
	for _, e := range s.Events {
		if e.Type == t {
			return true
		}
	}
	return false
}

func (s *Step) emit(e Event) {
	s.Events = append(s.Events, e)
}

// Machine advances exercise sessions for one Config. It holds no session
// state of its own and is safe to share.
type Machine struct {
	cfg Config
}

// NewMachine validates cfg and returns a Machine for it.
func NewMachine(cfg Config) (*Machine, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Machine{cfg: cfg}, nil
}

// Config returns the validated configuration, defaults applied.
func (m *Machine) Config() Config {
	return m.cfg
}

// Start returns the initial state of a new session.
func (m *Machine) Start() State {
	if m.cfg.Calibration == CalibrationNone {
		return State{Phase: PhaseActive}
	}
	return State{Phase: PhaseCalibrating}
}

// SideDone reports whether d has reached its target.
func (m *Machine) SideDone(st State, d Direction) bool {
	return d != DirectionNone && st.Reps.Get(d) >= m.cfg.TargetRepsPerSide
}

// Complete reports whether every side has reached its target.
func (m *Machine) Complete(st State) bool {
	if m.cfg.Sides == 1 {
		return st.Reps.Right >= m.cfg.TargetRepsPerSide
	}
	return st.Reps.Left >= m.cfg.TargetRepsPerSide && st.Reps.Right >= m.cfg.TargetRepsPerSide
}

// Advance feeds one sample through the machine and returns the next state.
// Undetermined and out-of-order samples leave phase and timers untouched.
func (m *Machine) Advance(st State, s Sample) (State, Step) {
	var step Step

	switch st.Phase {
	case PhaseCalibrating, PhaseActive, PhaseHolding, PhaseResetting:
	default:
		step.Inert = true
		return st, step
	}

	if !st.LastTick.IsZero() && s.At.Before(st.LastTick) {
		step.Inert = true
		step.OutOfOrder = true
		step.Feedback = st.Feedback
		step.Check = st.Check
		return st, step
	}
	st.LastTick = s.At

	if !s.OK {
		reason := s.Reason
		if reason == FeedbackNone {
			reason = FeedbackLowConfidence
		}
		step.Inert = true
		step.Check = st.Check
		m.feedback(&st, &step, reason, s.At)
		return st, step
	}

	switch st.Phase {
	case PhaseCalibrating:
		m.calibrate(&st, &step, s)
	case PhaseResetting:
		m.awaitReset(&st, &step, s)
	default:
		m.track(&st, &step, s)
	}
	return st, step
}

// Select chooses the side to train. Switching away from a side that is being
// held abandons the hold.
func (m *Machine) Select(st State, d Direction, at time.Time) (State, Step, error) {
	var step Step
	if !m.cfg.TwoSided() {
		return st, step, ErrNotTwoSided
	}
	if d != DirectionLeft && d != DirectionRight && d != DirectionNone {
		return st, step, fmt.Errorf("invalid direction %q", d)
	}

	if st.Holding() && st.HoldDirection != d {
		m.abandon(&st, &step, at)
	}
	st.Selected = d

	switch {
	case st.Phase == PhaseComplete:
		m.feedback(&st, &step, FeedbackNone, at)
	case m.SideDone(st, d):
		m.feedback(&st, &step, FeedbackSideComplete, at)
	case st.Phase == PhaseResetting:
		m.feedback(&st, &step, FeedbackAwaitingReset, at)
	default:
		m.feedback(&st, &step, FeedbackNone, at)
	}
	step.Check = st.Check
	return st, step, nil
}

func (m *Machine) metric(st State, s Sample) float64 {
	if st.HasBaseline {
		return s.Metric - st.Baseline
	}
	return s.Metric
}

func (m *Machine) calibrate(st *State, step *Step, s Sample) {
	switch m.cfg.Calibration {
	case CalibrationBaseline:
		st.Baseline = s.Metric
		st.HasBaseline = true
		st.Metric = 0
		st.Phase = PhaseActive
		step.emit(Event{Type: EventCalibrationComplete, At: s.At})
		m.feedback(st, step, FeedbackNone, s.At)

	case CalibrationInitialTilt:
		metric := m.metric(*st, s)
		st.Metric = metric
		if math.Abs(metric) < m.cfg.InitThreshold {
			m.feedback(st, step, FeedbackNeedsMoreTilt, s.At)
			return
		}
		d := directionOf(metric, 0)
		st.CalibrationDirection = d
		st.Phase = PhaseActive
		step.emit(Event{Type: EventCalibrationComplete, Direction: d, At: s.At})
		m.feedback(st, step, FeedbackNone, s.At)

	default:
		st.Phase = PhaseActive
		m.track(st, step, s)
	}
}

func (m *Machine) awaitReset(st *State, step *Step, s Sample) {
	metric := m.metric(*st, s)
	st.Metric = metric
	st.Assist = s.Assist
	st.Current = DirectionNone

	if math.Abs(metric) > m.cfg.AngleThreshold*m.cfg.ResetFraction {
		m.feedback(st, step, FeedbackAwaitingReset, s.At)
		return
	}

	st.AwaitingReset = false
	st.Phase = PhaseActive
	step.emit(Event{Type: EventReady, At: s.At})
	m.feedback(st, step, FeedbackNone, s.At)
}

// track handles PhaseActive and PhaseHolding.
func (m *Machine) track(st *State, step *Step, s Sample) {
	metric := m.metric(*st, s)
	st.Metric = metric
	st.Assist = s.Assist

	candidate := directionOf(metric, m.cfg.AngleThreshold)
	if m.cfg.Sides == 1 && candidate == DirectionLeft {
		candidate = DirectionNone
	}
	if m.cfg.RequireSelection && candidate != st.Selected {
		candidate = DirectionNone
	}

	check := Check{Tilt: candidate != DirectionNone, Assist: true, Level: true}
	if m.cfg.RequiresAssist {
		check.Assist = s.HasAssist && s.Assist >= m.cfg.AssistThreshold
	}
	if m.cfg.MaxSkew > 0 {
		check.Level = s.Skew < m.cfg.MaxSkew
	}
	st.Check = check
	step.Check = check

	reason := FeedbackNone
	switch {
	case m.cfg.RequireSelection && st.Selected == DirectionNone:
		reason = FeedbackSelectSide
	case m.cfg.RequireSelection && m.SideDone(*st, st.Selected):
		reason = FeedbackSideComplete
	case !check.Tilt:
		reason = FeedbackNeedsMoreTilt
	case !check.Level:
		reason = FeedbackKeepLevel
	case !check.Assist:
		reason = FeedbackNeedsMoreArm
	case m.SideDone(*st, candidate):
		reason = FeedbackSideComplete
	}

	if reason != FeedbackNone {
		st.Current = DirectionNone
		if st.Holding() {
			m.abandon(st, step, s.At)
		}
		m.feedback(st, step, reason, s.At)
		return
	}

	st.Current = candidate
	if st.Holding() && st.HoldDirection == candidate {
		st.HoldElapsed = s.At.Sub(st.HoldStart)
	} else {
		if st.Holding() {
			m.abandon(st, step, s.At)
		}
		st.Phase = PhaseHolding
		st.HoldDirection = candidate
		st.HoldStart = s.At
		st.HoldElapsed = 0
		st.RepCompletedThisHold = false
		step.emit(Event{Type: EventHoldStarted, Direction: candidate, At: s.At})
	}

	if st.HoldElapsed >= m.cfg.HoldDuration && !st.RepCompletedThisHold {
		m.completeRep(st, step, s.At)
		return
	}
	m.feedback(st, step, FeedbackHoldInProgress, s.At)
}

func (m *Machine) completeRep(st *State, step *Step, at time.Time) {
	d := st.HoldDirection
	held := st.HoldElapsed

	count := st.Reps.inc(d)
	st.RepCompletedThisHold = true
	step.emit(Event{Type: EventRepCompleted, Direction: d, Count: count, HoldTime: held, At: at})
	st.clearHold()

	switch {
	case m.Complete(*st):
		st.Phase = PhaseComplete
		st.AwaitingReset = false
		st.Current = DirectionNone
		step.emit(Event{Type: EventExerciseCompleted, At: at})
		m.feedback(st, step, FeedbackNone, at)

	case m.cfg.TwoSided() && count >= m.cfg.TargetRepsPerSide:
		st.Phase = PhaseActive
		st.AwaitingReset = false
		step.emit(Event{Type: EventSideCompleted, Direction: d, At: at})
		m.feedback(st, step, FeedbackSideComplete, at)

	default:
		st.Phase = PhaseResetting
		st.AwaitingReset = true
		m.feedback(st, step, FeedbackAwaitingReset, at)
	}
}

func (m *Machine) abandon(st *State, step *Step, at time.Time) {
	step.emit(Event{Type: EventHoldAbandoned, Direction: st.HoldDirection, HoldTime: st.HoldElapsed, At: at})
	st.clearHold()
	st.Phase = PhaseActive
}

func (m *Machine) feedback(st *State, step *Step, kind FeedbackKind, at time.Time) {
	st.Feedback = kind
	step.Feedback = kind
	if kind != FeedbackNone {
		step.emit(Event{Type: EventFeedback, Feedback: kind, At: at})
	}
}
