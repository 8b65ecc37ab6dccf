// Package detector provides pose detection interfaces and types for exercise tracking.
package detector

import "math"

// Landmark identifies a body keypoint.
// Values follow the MediaPipe pose convention so service output can be indexed directly.
// See: https://developers.google.com/mediapipe/solutions/vision/pose_landmarker
type Landmark int

const (
	Nose          Landmark = 0
	LeftEyeInner  Landmark = 1
	LeftEye       Landmark = 2
	LeftEyeOuter  Landmark = 3
	RightEyeInner Landmark = 4
	RightEye      Landmark = 5
	RightEyeOuter Landmark = 6
	LeftEar       Landmark = 7
	RightEar      Landmark = 8
	MouthLeft     Landmark = 9
	MouthRight    Landmark = 10
	LeftShoulder  Landmark = 11
	RightShoulder Landmark = 12
	LeftElbow     Landmark = 13
	RightElbow    Landmark = 14
	LeftWrist     Landmark = 15
	RightWrist    Landmark = 16
	LeftHip       Landmark = 23
	RightHip      Landmark = 24
	NumLandmarks           = 33
)

var landmarkNames = map[Landmark]string{
	Nose:          "nose",
	LeftEyeInner:  "left_eye_inner",
	LeftEye:       "left_eye",
	LeftEyeOuter:  "left_eye_outer",
	RightEyeInner: "right_eye_inner",
	RightEye:      "right_eye",
	RightEyeOuter: "right_eye_outer",
	LeftEar:       "left_ear",
	RightEar:      "right_ear",
	MouthLeft:     "mouth_left",
	MouthRight:    "mouth_right",
	LeftShoulder:  "left_shoulder",
	RightShoulder: "right_shoulder",
	LeftElbow:     "left_elbow",
	RightElbow:    "right_elbow",
	LeftWrist:     "left_wrist",
	RightWrist:    "right_wrist",
	LeftHip:       "left_hip",
	RightHip:      "right_hip",
}

// String returns the snake_case name of the landmark.
func (l Landmark) String() string {
	if name, ok := landmarkNames[l]; ok {
		return name
	}
	return "landmark"
}

// Point is a single landmark in normalized image coordinates.
// X and Y are in [0,1] with Y growing downward; Visibility is the estimator's confidence.
type Point struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Visibility float64 `json:"visibility"`
}

// Pose maps landmarks to their detected points for one frame.
// A landmark that was not detected is absent from the map.
type Pose map[Landmark]Point

// Get returns the point for l if it is present with at least minVisibility.
func (p Pose) Get(l Landmark, minVisibility float64) (Point, bool) {
	pt, ok := p[l]
	if !ok || pt.Visibility < minVisibility {
		return Point{}, false
	}
	return pt, true
}

// Visible reports whether every landmark in ls is present with at least minVisibility.
func (p Pose) Visible(minVisibility float64, ls ...Landmark) bool {
	for _, l := range ls {
		if _, ok := p.Get(l, minVisibility); !ok {
			return false
		}
	}
	return true
}

// Midpoint returns the midpoint between landmarks a and b.
// The visibility of the result is the lower of the two.
func (p Pose) Midpoint(a, b Landmark) Point {
	pa, pb := p[a], p[b]
	return Point{
		X:          (pa.X + pb.X) / 2,
		Y:          (pa.Y + pb.Y) / 2,
		Visibility: math.Min(pa.Visibility, pb.Visibility),
	}
}

// Clone returns a copy of the pose that can be modified independently.
func (p Pose) Clone() Pose {
	if p == nil {
		return nil
	}
	c := make(Pose, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}
