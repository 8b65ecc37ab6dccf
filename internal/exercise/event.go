package exercise

import "time"

// EventType identifies what happened during a tick.
type EventType string

const (
	EventCalibrationComplete EventType = "calibration_complete"
	EventHoldStarted         EventType = "hold_started"
	EventHoldAbandoned       EventType = "hold_abandoned"
	EventRepCompleted        EventType = "rep_completed"
	EventSideCompleted       EventType = "side_completed"
	EventExerciseCompleted   EventType = "exercise_completed"
	EventReady               EventType = "ready"
	EventFeedback            EventType = "feedback"
)

// FeedbackKind explains the current state of the movement to the user.
type FeedbackKind string

const (
	FeedbackNone           FeedbackKind = ""
	FeedbackLowConfidence  FeedbackKind = "low-confidence"
	FeedbackNeedsMoreTilt  FeedbackKind = "needs-more-tilt"
	FeedbackNeedsMoreArm   FeedbackKind = "needs-more-arm"
	FeedbackHoldInProgress FeedbackKind = "hold-in-progress"
	FeedbackAwaitingReset  FeedbackKind = "awaiting-reset"
	FeedbackSelectSide     FeedbackKind = "select-side"
	FeedbackSideComplete   FeedbackKind = "side-complete"
	FeedbackKeepLevel      FeedbackKind = "keep-level"
	FeedbackSitUpright     FeedbackKind = "sit-upright"
)

// Event is emitted by the machine for presentation and recording.
type Event struct {
	Type      EventType     `json:"type"`
	Direction Direction     `json:"direction,omitempty"`
	Count     int           `json:"count,omitempty"`     // reps on Direction after a rep
	HoldTime  time.Duration `json:"hold_time,omitempty"` // hold length for rep and abandon events
	Feedback  FeedbackKind  `json:"feedback,omitempty"`
	At        time.Time     `json:"at"`
}

// Check exposes which qualifying sub-conditions passed on the last determined frame.
type Check struct {
	Tilt   bool `json:"tilt"`
	Assist bool `json:"assist"`
	Level  bool `json:"level"`
}
