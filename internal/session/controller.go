// Package session owns the running exercise session and fans its progress out to listeners.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ayusman/neckcoach/internal/detector"
	"github.com/ayusman/neckcoach/internal/exercise"
)

var (
	// ErrNotRunning is returned by commands that need an active session.
	ErrNotRunning = errors.New("no session running")
	// ErrNotTwoSided is returned when selecting a side on a single-axis exercise.
	ErrNotTwoSided = exercise.ErrNotTwoSided
)

// Option configures a Controller.
type Option func(*Controller)

// WithClock overrides the wall clock used for session start and end times.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// Controller drives a single exercise session. The pipeline calls Tick while
// HTTP handlers and the tray issue commands, so all state sits behind mu.
type Controller struct {
	logger *zap.Logger
	now    func() time.Time

	mu        sync.Mutex
	machine   *exercise.Machine
	state     exercise.State
	id        string
	startedAt time.Time
	events    []exercise.Event
	listeners []Listener
}

// New creates an idle Controller.
func New(logger *zap.Logger, opts ...Option) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Controller{
		logger: logger.Named("session"),
		now:    time.Now,
		state:  exercise.IdleState(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddListener registers l for all future sessions.
func (c *Controller) AddListener(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// Start begins a session for cfg. A session already running is ended first.
func (c *Controller) Start(cfg exercise.Config) error {
	m, err := exercise.NewMachine(cfg)
	if err != nil {
		return fmt.Errorf("start %s: %w", cfg.Name, err)
	}

	c.mu.Lock()
	prev, hadPrev := c.endLocked()
	c.begin(m)
	snap := c.snapshotLocked()
	listeners := c.listenersLocked()
	c.mu.Unlock()

	if hadPrev {
		c.logSummary(prev)
		for _, l := range listeners {
			l.SessionEnded(prev)
		}
	}
	c.logger.Info("session started",
		zap.String("id", snap.ID),
		zap.String("exercise", snap.Exercise),
		zap.String("phase", string(snap.Phase)))
	for _, l := range listeners {
		l.SessionStarted(snap)
	}
	return nil
}

// Stop ends the session and returns its summary. Stopping an idle controller
// returns a zero Summary.
func (c *Controller) Stop() Summary {
	c.mu.Lock()
	sum, ok := c.endLocked()
	listeners := c.listenersLocked()
	c.mu.Unlock()

	if !ok {
		return Summary{}
	}
	c.logSummary(sum)
	for _, l := range listeners {
		l.SessionEnded(sum)
	}
	return sum
}

// Reset ends the running session and starts a fresh one for the same exercise.
func (c *Controller) Reset() error {
	c.mu.Lock()
	if c.machine == nil {
		c.mu.Unlock()
		return ErrNotRunning
	}
	m := c.machine
	selected := c.state.Selected
	prev, _ := c.endLocked()
	c.begin(m)
	c.state.Selected = selected
	snap := c.snapshotLocked()
	listeners := c.listenersLocked()
	c.mu.Unlock()

	c.logSummary(prev)
	c.logger.Info("session reset", zap.String("id", snap.ID), zap.String("exercise", snap.Exercise))
	for _, l := range listeners {
		l.SessionEnded(prev)
		l.SessionStarted(snap)
	}
	return nil
}

// SelectDirection picks the side to train on two-sided exercises.
func (c *Controller) SelectDirection(d exercise.Direction) error {
	c.mu.Lock()
	if c.machine == nil {
		c.mu.Unlock()
		return ErrNotRunning
	}
	st, step, err := c.machine.Select(c.state, d, c.now())
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("select %s: %w", d, err)
	}
	c.state = st
	c.events = step.Events
	snap := c.snapshotLocked()
	listeners := c.listenersLocked()
	c.mu.Unlock()

	c.logger.Debug("direction selected", zap.String("direction", d.String()))
	for _, l := range listeners {
		l.SessionUpdated(snap)
	}
	return nil
}

// Tick feeds one detected pose taken at at. A nil pose counts as a frame
// without a person. Ticks never fail; an idle controller ignores them.
func (c *Controller) Tick(p detector.Pose, at time.Time) Snapshot {
	c.mu.Lock()
	if c.machine == nil {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap
	}

	reading := exercise.Extract(p, c.machine.Config(), c.state.Selected)
	st, step := c.machine.Advance(c.state, exercise.Sample{Reading: reading, At: at})
	c.state = st
	c.events = step.Events
	snap := c.snapshotLocked()
	listeners := c.listenersLocked()
	c.mu.Unlock()

	if step.OutOfOrder {
		c.logger.Warn("out of order tick ignored", zap.Time("at", at), zap.Time("last", st.LastTick))
	}
	c.logEvents(snap)

	for _, l := range listeners {
		l.SessionUpdated(snap)
	}
	return snap
}

// Snapshot returns the current session view without the last tick's events.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := c.snapshotLocked()
	snap.Events = nil
	return snap
}

// Running reports whether a session is in progress.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine != nil
}

// Config returns the running exercise configuration.
func (c *Controller) Config() (exercise.Config, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.machine == nil {
		return exercise.Config{}, false
	}
	return c.machine.Config(), true
}

func (c *Controller) begin(m *exercise.Machine) {
	c.machine = m
	c.state = m.Start()
	c.id = uuid.New().String()
	c.startedAt = c.now()
	c.events = nil
}

// endLocked clears the running session and returns its summary.
func (c *Controller) endLocked() (Summary, bool) {
	if c.machine == nil {
		return Summary{}, false
	}
	cfg := c.machine.Config()
	sum := Summary{
		ID:            c.id,
		Exercise:      cfg.Name,
		StartedAt:     c.startedAt,
		EndedAt:       c.now(),
		Reps:          c.state.Reps,
		TargetPerSide: cfg.TargetRepsPerSide,
		Sides:         cfg.Sides,
		Completed:     c.machine.Complete(c.state),
	}
	c.machine = nil
	c.state = exercise.IdleState()
	c.id = ""
	c.startedAt = time.Time{}
	c.events = nil
	return sum, true
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		Phase:         c.state.Phase,
		Selected:      c.state.Selected,
		Current:       c.state.Current,
		HoldDirection: c.state.HoldDirection,
		Calibration:   c.state.CalibrationDirection,
		HoldSeconds:   c.state.HoldElapsed.Seconds(),
		Reps:          c.state.Reps,
		Feedback:      c.state.Feedback,
		Check:         c.state.Check,
		Metric:        c.state.Metric,
		Assist:        c.state.Assist,
	}
	if len(c.events) > 0 {
		snap.Events = append([]exercise.Event(nil), c.events...)
	}
	if c.machine == nil {
		return snap
	}

	cfg := c.machine.Config()
	snap.Running = true
	snap.ID = c.id
	snap.Exercise = cfg.Name
	snap.Title = cfg.Title
	snap.StartedAt = c.startedAt
	snap.HoldTargetSeconds = cfg.HoldDuration.Seconds()
	snap.TargetPerSide = cfg.TargetRepsPerSide
	snap.Sides = cfg.Sides
	if total := cfg.TotalTarget(); total > 0 {
		snap.Progress = float64(c.state.Reps.Total()) / float64(total)
	}
	return snap
}

func (c *Controller) listenersLocked() []Listener {
	return append([]Listener(nil), c.listeners...)
}

func (c *Controller) logEvents(snap Snapshot) {
	for _, e := range snap.Events {
		switch e.Type {
		case exercise.EventFeedback:
			continue
		case exercise.EventRepCompleted:
			c.logger.Info("rep completed",
				zap.String("direction", e.Direction.String()),
				zap.Int("count", e.Count),
				zap.Duration("hold", e.HoldTime))
		case exercise.EventExerciseCompleted:
			c.logger.Info("exercise completed", zap.String("id", snap.ID), zap.Int("reps", snap.Reps.Total()))
		default:
			c.logger.Debug(string(e.Type), zap.String("direction", e.Direction.String()))
		}
	}
}

func (c *Controller) logSummary(sum Summary) {
	c.logger.Info("session ended",
		zap.String("id", sum.ID),
		zap.String("exercise", sum.Exercise),
		zap.Int("left", sum.Reps.Left),
		zap.Int("right", sum.Reps.Right),
		zap.Bool("completed", sum.Completed),
		zap.Duration("duration", sum.Duration()))
}
