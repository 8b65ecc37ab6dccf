package server

import (
	"fmt"
	"net/http"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/neckcoach/internal/capture"
	"github.com/ayusman/neckcoach/internal/exercise"
	"github.com/ayusman/neckcoach/internal/session"
)

// FrameSource yields the latest camera frame. The caller closes the Mat.
type FrameSource interface {
	ReadFrame() (*gocv.Mat, error)
}

// StreamHandler serves MJPEG frames with the session status drawn on top.
type StreamHandler struct {
	frames   FrameSource
	status   func() session.Snapshot
	interval time.Duration
}

// NewStreamHandler creates a StreamHandler. status may be nil for a bare stream.
func NewStreamHandler(frames FrameSource, status func() session.Snapshot, fps int) *StreamHandler {
	if fps <= 0 {
		fps = capture.DefaultFPS
	}
	return &StreamHandler{
		frames:   frames,
		status:   status,
		interval: time.Second / time.Duration(fps),
	}
}

// ServeHTTP streams MJPEG frames to connected clients.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		if err := h.writeFrame(w); err != nil {
			return
		}
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

// writeFrame writes one multipart part. Missing frames are skipped; only
// write errors end the stream.
func (h *StreamHandler) writeFrame(w http.ResponseWriter) error {
	frame, err := h.frames.ReadFrame()
	if err != nil {
		return nil
	}
	defer frame.Close()

	if h.status != nil {
		capture.DrawStatus(frame, StatusFor(h.status()))
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return nil
	}
	defer buf.Close()

	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", buf.Len()); err != nil {
		return err
	}
	if _, err := w.Write(buf.GetBytes()); err != nil {
		return err
	}
	_, err = fmt.Fprint(w, "\r\n")
	return err
}

var feedbackText = map[exercise.FeedbackKind]string{
	exercise.FeedbackLowConfidence:  "Move into view of the camera",
	exercise.FeedbackNeedsMoreTilt:  "Tilt a little further",
	exercise.FeedbackNeedsMoreArm:   "Use your hand to assist the stretch",
	exercise.FeedbackHoldInProgress: "Hold it...",
	exercise.FeedbackAwaitingReset:  "Return to neutral",
	exercise.FeedbackSelectSide:     "Pick a side to start",
	exercise.FeedbackSideComplete:   "Side done, switch sides",
	exercise.FeedbackKeepLevel:      "Keep your shoulders level",
	exercise.FeedbackSitUpright:     "Sit upright",
}

// alertFeedback are the corrections that tint the banner.
var alertFeedback = map[exercise.FeedbackKind]bool{
	exercise.FeedbackLowConfidence: true,
	exercise.FeedbackKeepLevel:     true,
	exercise.FeedbackSitUpright:    true,
}

// StatusFor renders a snapshot as overlay text and bars.
func StatusFor(s session.Snapshot) capture.Status {
	if !s.Running {
		return capture.Status{Title: "neckcoach", Lines: []string{"No exercise running"}}
	}

	st := capture.Status{
		Title:    s.Title,
		Progress: s.Progress,
		Alert:    alertFeedback[s.Feedback],
	}

	if s.Sides == 2 {
		st.Lines = append(st.Lines, fmt.Sprintf("L %d/%d  R %d/%d", s.Reps.Left, s.TargetPerSide, s.Reps.Right, s.TargetPerSide))
	} else {
		st.Lines = append(st.Lines, fmt.Sprintf("Reps %d/%d", s.Reps.Total(), s.TargetPerSide))
	}

	switch s.Phase {
	case exercise.PhaseCalibrating:
		st.Lines = append(st.Lines, "Calibrating, hold still")
	case exercise.PhaseComplete:
		st.Lines = append(st.Lines, "Exercise complete!")
	default:
		if text, ok := feedbackText[s.Feedback]; ok {
			st.Lines = append(st.Lines, text)
		}
	}

	if s.HoldTargetSeconds > 0 {
		st.Hold = s.HoldSeconds / s.HoldTargetSeconds
	}
	return st
}
