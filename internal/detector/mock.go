package detector

import (
	"math"
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	pose  Pose
	queue []Pose
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetPose sets the pose returned by Detect once the queue is drained.
func (m *MockDetector) SetPose(p Pose) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pose = p
}

// Queue appends poses that Detect returns one per call before falling back to SetPose.
func (m *MockDetector) Queue(poses ...Pose) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, poses...)
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the next queued pose, the pre-configured pose, or the configured error.
func (m *MockDetector) Detect(frame *gocv.Mat) (Pose, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.queue) > 0 {
		p := m.queue[0]
		m.queue = m.queue[1:]
		return p, nil
	}
	return m.pose, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// Preset geometry. The camera is not mirrored, so the subject's right
// shoulder appears on the left of the image.
const (
	presetShoulderY     = 0.60
	presetShoulderHalfW = 0.15
	presetCenterX       = 0.50
	presetNoseDist      = 0.25
	presetEarDist       = 0.22
	presetEarHalfW      = 0.06
	presetHipY          = 0.95
	presetVisibility    = 0.95
)

// NeutralPose returns an upright, centered upper body with arms hanging.
func NeutralPose() Pose {
	return HeadTiltPose(0)
}

// HeadTiltPose returns a pose with the head tilted by degrees toward the
// subject's right (positive) or left (negative) shoulder.
func HeadTiltPose(degrees float64) Pose {
	p := Pose{
		LeftShoulder:  {X: presetCenterX + presetShoulderHalfW, Y: presetShoulderY, Visibility: presetVisibility},
		RightShoulder: {X: presetCenterX - presetShoulderHalfW, Y: presetShoulderY, Visibility: presetVisibility},
		LeftElbow:     {X: presetCenterX + presetShoulderHalfW + 0.02, Y: presetShoulderY + 0.20, Visibility: presetVisibility},
		RightElbow:    {X: presetCenterX - presetShoulderHalfW - 0.02, Y: presetShoulderY + 0.20, Visibility: presetVisibility},
		LeftHip:       {X: presetCenterX + 0.10, Y: presetHipY, Visibility: presetVisibility},
		RightHip:      {X: presetCenterX - 0.10, Y: presetHipY, Visibility: presetVisibility},
	}
	placeHead(p, degrees)
	return p
}

// ShrugPose returns a neutral pose with both shoulders raised by lift
// (normalized image units) and the shoulder line skewed by skewDegrees.
func ShrugPose(lift, skewDegrees float64) Pose {
	p := NeutralPose()
	half := presetShoulderHalfW * math.Tan(skewDegrees*math.Pi/180)

	ls, rs := p[LeftShoulder], p[RightShoulder]
	ls.Y = presetShoulderY - lift - half
	rs.Y = presetShoulderY - lift + half
	p[LeftShoulder], p[RightShoulder] = ls, rs

	for _, l := range []Landmark{LeftElbow, RightElbow} {
		pt := p[l]
		pt.Y -= lift
		p[l] = pt
	}
	placeHead(p, 0)
	return p
}

// StretchPose returns a head tilt of degrees with the opposite (assisting)
// arm either raised over the head or hanging.
func StretchPose(degrees float64, armRaised bool) Pose {
	p := HeadTiltPose(degrees)
	if !armRaised || degrees == 0 {
		return p
	}

	helper, helperElbow, target := LeftShoulder, LeftElbow, RightShoulder
	if degrees < 0 {
		helper, helperElbow, target = RightShoulder, RightElbow, LeftShoulder
	}

	sh := p[helper]
	toward := 1.0
	if p[target].X < sh.X {
		toward = -1
	}
	p[helperElbow] = Point{X: sh.X + toward*0.04, Y: sh.Y - 0.12, Visibility: presetVisibility}
	return p
}

// WithVisibility returns a copy of p with the given landmarks set to visibility v.
func WithVisibility(p Pose, v float64, ls ...Landmark) Pose {
	c := p.Clone()
	for _, l := range ls {
		pt := c[l]
		pt.Visibility = v
		c[l] = pt
	}
	return c
}

// placeHead positions nose and ears above the shoulder midpoint, rotated by degrees.
func placeHead(p Pose, degrees float64) {
	mid := p.Midpoint(LeftShoulder, RightShoulder)
	s := 1.0
	if p[RightShoulder].X < p[LeftShoulder].X {
		s = -1
	}

	theta := degrees * math.Pi / 180
	upX, upY := s*math.Sin(theta), -math.Cos(theta)
	rightX, rightY := s*math.Cos(theta), math.Sin(theta)

	p[Nose] = Point{X: mid.X + presetNoseDist*upX, Y: mid.Y + presetNoseDist*upY, Visibility: presetVisibility}

	cx, cy := mid.X+presetEarDist*upX, mid.Y+presetEarDist*upY
	p[RightEar] = Point{X: cx + presetEarHalfW*rightX, Y: cy + presetEarHalfW*rightY, Visibility: presetVisibility}
	p[LeftEar] = Point{X: cx - presetEarHalfW*rightX, Y: cy - presetEarHalfW*rightY, Visibility: presetVisibility}
}
