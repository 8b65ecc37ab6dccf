package detector

import "gocv.io/x/gocv"

// Detector defines the interface for pose detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns the detected body pose.
	// Returns nil if no person is in frame.
	Detect(frame *gocv.Mat) (Pose, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for pose detection.
type Config struct {
	// ModelComplexity selects the MediaPipe pose model (0, 1 or 2).
	ModelComplexity int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// IdleShutdownSeconds stops the detection service after this long without frames.
	IdleShutdownSeconds int

	// ScriptPath and PythonPath pin the service and interpreter; when empty
	// they are searched for next to the binary and in SearchDirs.
	ScriptPath string
	PythonPath string
	SearchDirs []string
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		ModelComplexity:     1,
		MinConfidence:       0.5,
		MinTrackingConf:     0.5,
		IdleShutdownSeconds: 30,
	}
}
