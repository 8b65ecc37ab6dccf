// Package tray provides the system tray menu: pause tracking, live progress
// and a shortcut to the dashboard.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/neckcoach/internal/session"
)

const idleProgress = "No exercise running"

// Tray represents the system tray application. It is a session.Listener.
type Tray struct {
	onPause     func(paused bool)
	onDashboard func()
	onQuit      func()
	paused      bool
	progress    string
	mu          sync.RWMutex

	// Menu items stored for later updates
	menuPause    *systray.MenuItem
	menuProgress *systray.MenuItem
}

// New creates a Tray with tracking running.
func New() *Tray {
	return &Tray{progress: idleProgress}
}

// OnPause sets the callback invoked when tracking is paused or resumed.
func (t *Tray) OnPause(fn func(paused bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onPause = fn
}

// OnDashboard sets the callback invoked by "Open Dashboard".
func (t *Tray) OnDashboard(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDashboard = fn
}

// OnQuit sets the callback invoked before the tray exits.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit stops Run from another goroutine.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("neckcoach")
	systray.SetTooltip("neckcoach exercise tracker")

	t.mu.Lock()
	t.menuPause = systray.AddMenuItem(pauseTitle(t.paused), "Pause or resume tracking")
	systray.AddSeparator()
	t.menuProgress = systray.AddMenuItem(t.progress, "Current exercise progress")
	t.menuProgress.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuDashboard := systray.AddMenuItem("Open Dashboard...", "Open the dashboard in a browser")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit neckcoach")

	go func() {
		for {
			select {
			case <-t.menuPause.ClickedCh:
				t.SetPaused(!t.IsPaused())
			case <-menuDashboard.ClickedCh:
				t.handleDashboard()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// SetPaused changes the paused state, updates the menu and notifies OnPause.
func (t *Tray) SetPaused(paused bool) {
	t.mu.Lock()
	if t.paused == paused {
		t.mu.Unlock()
		return
	}
	t.paused = paused
	if t.menuPause != nil {
		t.menuPause.SetTitle(pauseTitle(paused))
	}
	callback := t.onPause
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(paused)
	}
}

// IsPaused returns the current paused state.
func (t *Tray) IsPaused() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.paused
}

// Progress returns the progress line currently shown.
func (t *Tray) Progress() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.progress
}

func (t *Tray) handleDashboard() {
	t.mu.RLock()
	callback := t.onDashboard
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
	systray.Quit()
}

func (t *Tray) setProgress(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.progress == line {
		return
	}
	t.progress = line
	if t.menuProgress != nil {
		t.menuProgress.SetTitle(line)
	}
}

func (t *Tray) SessionStarted(s session.Snapshot) { t.setProgress(ProgressLine(s)) }
func (t *Tray) SessionUpdated(s session.Snapshot) { t.setProgress(ProgressLine(s)) }
func (t *Tray) SessionEnded(session.Summary)      { t.setProgress(idleProgress) }

// ProgressLine formats per-side progress, e.g. "L 2/5  R 0/5".
func ProgressLine(s session.Snapshot) string {
	if !s.Running {
		return idleProgress
	}
	if s.Complete() {
		return "Done: " + s.Title
	}
	if s.Sides == 2 {
		return fmt.Sprintf("L %d/%d  R %d/%d", s.Reps.Left, s.TargetPerSide, s.Reps.Right, s.TargetPerSide)
	}
	return fmt.Sprintf("Reps %d/%d", s.Reps.Total(), s.TargetPerSide)
}

func pauseTitle(paused bool) string {
	if paused {
		return "○ Paused"
	}
	return "● Tracking"
}
