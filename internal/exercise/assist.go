package exercise

import "github.com/ayusman/neckcoach/internal/detector"

// Assist score weights.
const (
	assistRaisePoints     = 50
	assistLateralPoints   = 25
	assistElevationPoints = 25
	assistMaxScore        = 100
)

// AssistScore rates in [0, 100] how well the arm opposite to direction helps a
// neck stretch toward direction: elbow raised above the shoulder, elbow moved
// toward the stretch side, and elbow lifted high.
func AssistScore(p detector.Pose, direction Direction, eps AssistEpsilons) float64 {
	var shoulder, elbow, target detector.Landmark
	switch direction {
	case DirectionLeft:
		shoulder, elbow, target = detector.RightShoulder, detector.RightElbow, detector.LeftShoulder
	case DirectionRight:
		shoulder, elbow, target = detector.LeftShoulder, detector.LeftElbow, detector.RightShoulder
	default:
		return 0
	}

	sh, okS := p[shoulder]
	el, okE := p[elbow]
	tg, okT := p[target]
	if !okS || !okE || !okT {
		return 0
	}

	toward := 1.0
	if tg.X < sh.X {
		toward = -1
	}

	raise := sh.Y - el.Y
	lateral := (el.X - sh.X) * toward

	score := 0.0
	if raise > eps.Raise {
		score += assistRaisePoints
	}
	if lateral > eps.Lateral {
		score += assistLateralPoints
	}
	if raise > eps.Elevation {
		score += assistElevationPoints
	}

	if score > assistMaxScore {
		score = assistMaxScore
	}
	return score
}
