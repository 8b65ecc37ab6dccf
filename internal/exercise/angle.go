package exercise

import (
	"math"

	"github.com/ayusman/neckcoach/internal/detector"
)

// Reading is the geometry extracted from one frame.
type Reading struct {
	// OK is false when the frame carries no reliable signal; Reason then says why.
	OK     bool
	Reason FeedbackKind

	// Metric is signed: positive toward the subject's right. Degrees for tilt
	// strategies, normalized image units for shoulder lift.
	Metric float64

	Assist    float64
	HasAssist bool

	// Skew is the shoulder line's unsigned angle from horizontal, in degrees.
	Skew float64
}

// undetermined is returned for frames that must not drive the machine.
func undetermined(reason FeedbackKind) Reading {
	return Reading{Reason: reason}
}

// RequiredLandmarks lists the landmarks that must be visible for cfg.
func RequiredLandmarks(cfg Config) []detector.Landmark {
	switch cfg.Strategy {
	case StrategyHeadTilt:
		return []detector.Landmark{detector.Nose, detector.LeftShoulder, detector.RightShoulder}
	case StrategyEarLine:
		ls := []detector.Landmark{detector.LeftEar, detector.RightEar, detector.LeftShoulder, detector.RightShoulder}
		if cfg.RequiresAssist {
			ls = append(ls, detector.LeftElbow, detector.RightElbow)
		}
		return ls
	case StrategyShoulderLift:
		return []detector.Landmark{detector.LeftShoulder, detector.RightShoulder}
	default:
		return nil
	}
}

// Extract computes the reading for pose p under cfg. selected is the side the
// user chose, used to pick the assisting arm; DirectionNone falls back to the
// side the head is tilted toward.
func Extract(p detector.Pose, cfg Config, selected Direction) Reading {
	if len(p) == 0 || !p.Visible(cfg.MinConfidence, RequiredLandmarks(cfg)...) {
		return undetermined(FeedbackLowConfidence)
	}
	if cfg.RequireUpright && !isUpright(p, cfg) {
		return undetermined(FeedbackSitUpright)
	}

	r := Reading{OK: true, Skew: shoulderSkew(p)}

	switch cfg.Strategy {
	case StrategyHeadTilt:
		r.Metric = HeadTiltAngle(p)
	case StrategyEarLine:
		r.Metric = EarLineAngle(p)
	case StrategyShoulderLift:
		r.Metric = ShoulderHeight(p)
	default:
		return undetermined(FeedbackLowConfidence)
	}

	if cfg.RequiresAssist {
		side := selected
		if side == DirectionNone {
			side = directionOf(r.Metric, 0)
		}
		r.Assist = AssistScore(p, side, cfg.Assist)
		r.HasAssist = true
	}

	return r
}

// HeadTiltAngle returns the angle in degrees between vertical-up at the
// shoulder midpoint and the line to the nose.
func HeadTiltAngle(p detector.Pose) float64 {
	mid := p.Midpoint(detector.LeftShoulder, detector.RightShoulder)
	nose := p[detector.Nose]

	dx := nose.X - mid.X
	dy := nose.Y - mid.Y
	return degrees(math.Atan2(sideSign(p)*dx, -dy))
}

// EarLineAngle returns the ear line's rotation relative to the shoulder line
// in degrees, normalized to [-180, 180].
func EarLineAngle(p detector.Pose) float64 {
	le, re := p[detector.LeftEar], p[detector.RightEar]
	ls, rs := p[detector.LeftShoulder], p[detector.RightShoulder]

	ear := math.Atan2(re.Y-le.Y, re.X-le.X)
	shoulder := math.Atan2(rs.Y-ls.Y, rs.X-ls.X)
	return sideSign(p) * normalizeDegrees(degrees(ear-shoulder))
}

// ShoulderHeight returns the negated shoulder midpoint Y, so raising the
// shoulders increases the value.
func ShoulderHeight(p detector.Pose) float64 {
	return -p.Midpoint(detector.LeftShoulder, detector.RightShoulder).Y
}

// shoulderSkew returns the shoulder line's angle from horizontal in [0, 90].
func shoulderSkew(p detector.Pose) float64 {
	ls, rs := p[detector.LeftShoulder], p[detector.RightShoulder]
	return degrees(math.Atan2(math.Abs(ls.Y-rs.Y), math.Abs(ls.X-rs.X)))
}

// sideSign is +1 when the subject's right shoulder is on the image right
// (mirrored feed) and -1 otherwise, making the metric sign independent of mirroring.
func sideSign(p detector.Pose) float64 {
	if p[detector.RightShoulder].X >= p[detector.LeftShoulder].X {
		return 1
	}
	return -1
}

// isUpright treats missing or out-of-frame hips as seated at a desk.
func isUpright(p detector.Pose, cfg Config) bool {
	lh, lok := p.Get(detector.LeftHip, cfg.MinConfidence)
	rh, rok := p.Get(detector.RightHip, cfg.MinConfidence)
	if !lok || !rok || lh.Y > cfg.HipFloor || rh.Y > cfg.HipFloor {
		return true
	}

	shoulderY := p.Midpoint(detector.LeftShoulder, detector.RightShoulder).Y
	hipY := (lh.Y + rh.Y) / 2
	return shoulderY < hipY-cfg.UprightMargin
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

func normalizeDegrees(d float64) float64 {
	return math.Remainder(d, 360)
}
