package plugin

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/ayusman/neckcoach/internal/exercise"
	"github.com/ayusman/neckcoach/internal/session"
)

// Dispatcher runs subscribed hooks for session events. It is a
// session.Listener; hooks run in their own goroutines so a slow hook never
// delays the frame loop.
type Dispatcher struct {
	manager  *Manager
	executor *Executor
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher over the plugins known to manager.
func NewDispatcher(manager *Manager, executor *Executor, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		manager:  manager,
		executor: executor,
		logger:   logger.Named("hooks"),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (d *Dispatcher) SessionStarted(s session.Snapshot) {
	req := snapshotRequest(s)
	req.Event = EventSessionStarted
	req.At = s.StartedAt
	d.Dispatch(req)
}

func (d *Dispatcher) SessionUpdated(s session.Snapshot) {
	for _, e := range s.Events {
		if e.Type == exercise.EventFeedback {
			continue
		}
		req := snapshotRequest(s)
		req.Event = string(e.Type)
		req.Direction = string(e.Direction)
		req.Count = e.Count
		req.At = e.At
		d.Dispatch(req)
	}
}

func (d *Dispatcher) SessionEnded(s session.Summary) {
	d.Dispatch(Request{
		Event:     EventSessionEnded,
		SessionID: s.ID,
		Exercise:  s.Exercise,
		Reps:      Reps{Left: s.Reps.Left, Right: s.Reps.Right},
		Target:    s.TargetPerSide,
		Completed: s.Completed,
		At:        s.EndedAt,
	})
}

// Dispatch starts every hook subscribed to req.Event.
func (d *Dispatcher) Dispatch(req Request) {
	for _, p := range d.manager.Subscribers(req.Event) {
		r := req
		r.Config = p.Manifest.Config

		d.wg.Add(1)
		go func(p *Plugin) {
			defer d.wg.Done()
			d.run(p, &r)
		}(p)
	}
}

func (d *Dispatcher) run(p *Plugin, req *Request) {
	log := d.logger.With(zap.String("plugin", p.Manifest.Name), zap.String("event", req.Event))

	resp, err := d.executor.Execute(d.ctx, p, req)
	if err != nil {
		log.Warn("hook failed", zap.Error(err))
		return
	}
	if !resp.Success {
		log.Warn("hook reported failure", zap.String("error", resp.Error))
		return
	}
	log.Debug("hook ran")
}

// Wait blocks until every started hook has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Close kills running hooks and waits for them.
func (d *Dispatcher) Close() {
	d.cancel()
	d.wg.Wait()
}

func snapshotRequest(s session.Snapshot) Request {
	return Request{
		SessionID: s.ID,
		Exercise:  s.Exercise,
		Title:     s.Title,
		Reps:      Reps{Left: s.Reps.Left, Right: s.Reps.Right},
		Target:    s.TargetPerSide,
		Completed: s.Complete(),
	}
}
