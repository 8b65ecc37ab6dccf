package app

import (
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/neckcoach/internal/detector"
	"github.com/ayusman/neckcoach/internal/session"
)

// runPipeline reads a frame per tick, keeps it for the stream, detects the
// pose and feeds it to the controller. Paused ticks are skipped entirely.
func (a *App) runPipeline(stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	interval := time.Second / time.Duration(max(a.camera.FPS(), 1))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var failures int
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if a.Paused() {
				continue
			}

			frame, err := a.camera.ReadFrame()
			if err != nil {
				failures++
				// Log the first failure and then every few seconds' worth.
				if failures == 1 || failures%(a.camera.FPS()*5+1) == 0 {
					a.logger.Warn("read frame", zap.Int("failures", failures), zap.Error(err))
				}
				continue
			}
			failures = 0

			a.keepFrame(frame)
			pose, err := a.detector.Detect(frame)
			frame.Close()
			if err != nil {
				a.logger.Debug("detect pose", zap.Error(err))
				pose = nil
			}

			a.Process(pose, time.Now())
		}
	}
}

// Process feeds one detected pose into the running session. A nil pose
// means nobody was found in the frame.
func (a *App) Process(pose detector.Pose, at time.Time) session.Snapshot {
	return a.controller.Tick(pose, at)
}

func (a *App) keepFrame(frame *gocv.Mat) {
	clone := frame.Clone()

	a.mu.Lock()
	old := a.frame
	a.frame = &clone
	a.mu.Unlock()

	if old != nil {
		old.Close()
	}
}
