package exercise

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	// ErrInvalidConfig is returned when a Config cannot drive a session.
	ErrInvalidConfig = errors.New("invalid exercise config")
	// ErrUnknownExercise is returned for names that match no preset.
	ErrUnknownExercise = errors.New("unknown exercise")
)

// Strategy selects how the primary metric is extracted from a pose.
type Strategy string

const (
	// StrategyHeadTilt measures the nose's deviation from vertical above the shoulder midpoint, in degrees.
	StrategyHeadTilt Strategy = "head-tilt"
	// StrategyEarLine measures the ear line's rotation relative to the shoulder line, in degrees.
	StrategyEarLine Strategy = "ear-line"
	// StrategyShoulderLift measures shoulder height in normalized image units (bigger is higher).
	StrategyShoulderLift Strategy = "shoulder-lift"
)

// Calibration selects what happens between start and the first countable hold.
type Calibration string

const (
	// CalibrationNone starts the session directly in PhaseActive.
	CalibrationNone Calibration = "none"
	// CalibrationBaseline captures the first confident metric as the rest reference.
	CalibrationBaseline Calibration = "baseline"
	// CalibrationInitialTilt waits for one exaggerated movement of at least InitThreshold.
	CalibrationInitialTilt Calibration = "initial-tilt"
)

// AssistEpsilons are the displacement thresholds used by AssistScore.
type AssistEpsilons struct {
	Raise     float64 `json:"raise" yaml:"raise" toml:"raise"`
	Lateral   float64 `json:"lateral" yaml:"lateral" toml:"lateral"`
	Elevation float64 `json:"elevation" yaml:"elevation" toml:"elevation"`
}

// DefaultAssistEpsilons returns the thresholds tuned for a seated desk stretch.
func DefaultAssistEpsilons() AssistEpsilons {
	return AssistEpsilons{Raise: 0.05, Lateral: 0.02, Elevation: 0.08}
}

// Config is the immutable description of one exercise variant.
type Config struct {
	Name        string      `json:"name"`
	Title       string      `json:"title"`
	Strategy    Strategy    `json:"strategy"`
	Calibration Calibration `json:"calibration"`

	// AngleThreshold is the metric magnitude that counts as "tilted" (degrees, or image units for lifts).
	AngleThreshold float64 `json:"angle_threshold"`
	// InitThreshold is the magnitude required by CalibrationInitialTilt.
	InitThreshold float64 `json:"init_threshold,omitempty"`
	// ResetFraction of AngleThreshold that the metric must fall back to before the next hold.
	ResetFraction float64 `json:"reset_fraction"`

	HoldDuration      time.Duration `json:"hold_duration"`
	TargetRepsPerSide int           `json:"target_reps_per_side"`
	Sides             int           `json:"sides"`
	// RequireSelection restricts two-sided exercises to the externally selected side.
	RequireSelection bool `json:"require_selection"`

	RequiresAssist  bool           `json:"requires_assist"`
	AssistThreshold float64        `json:"assist_threshold,omitempty"`
	Assist          AssistEpsilons `json:"assist"`

	// MaxSkew, when positive, rejects frames whose shoulder line is tilted by at least this many degrees.
	MaxSkew float64 `json:"max_skew,omitempty"`

	// RequireUpright rejects frames where the torso is visibly not upright.
	RequireUpright bool    `json:"require_upright"`
	UprightMargin  float64 `json:"upright_margin,omitempty"`
	HipFloor       float64 `json:"hip_floor,omitempty"`

	MinConfidence float64 `json:"min_confidence"`
}

// DefaultMinConfidence is used when a Config leaves MinConfidence unset.
const DefaultMinConfidence = 0.5

// DefaultResetFraction is the debounce band used when a Config leaves ResetFraction unset.
const DefaultResetFraction = 0.5

// TotalTarget returns the number of reps needed to complete the exercise.
func (c Config) TotalTarget() int {
	return c.TargetRepsPerSide * c.Sides
}

// TwoSided reports whether reps are tracked per side.
func (c Config) TwoSided() bool {
	return c.Sides == 2
}

// Validate reports the first problem with c, wrapped in ErrInvalidConfig.
func (c Config) Validate() error {
	switch c.Strategy {
	case StrategyHeadTilt, StrategyEarLine, StrategyShoulderLift:
	default:
		return fmt.Errorf("%w: unknown strategy %q", ErrInvalidConfig, c.Strategy)
	}

	switch c.Calibration {
	case CalibrationNone, CalibrationBaseline:
	case CalibrationInitialTilt:
		if c.InitThreshold <= 0 {
			return fmt.Errorf("%w: init threshold must be positive for %s calibration", ErrInvalidConfig, c.Calibration)
		}
	default:
		return fmt.Errorf("%w: unknown calibration %q", ErrInvalidConfig, c.Calibration)
	}

	if c.AngleThreshold <= 0 {
		return fmt.Errorf("%w: angle threshold must be positive", ErrInvalidConfig)
	}
	if c.InitThreshold < 0 {
		return fmt.Errorf("%w: init threshold must not be negative", ErrInvalidConfig)
	}
	if c.HoldDuration <= 0 {
		return fmt.Errorf("%w: hold duration must be positive", ErrInvalidConfig)
	}
	if c.TargetRepsPerSide <= 0 {
		return fmt.Errorf("%w: target reps per side must be positive", ErrInvalidConfig)
	}
	if c.Sides != 1 && c.Sides != 2 {
		return fmt.Errorf("%w: sides must be 1 or 2, got %d", ErrInvalidConfig, c.Sides)
	}
	if c.RequireSelection && c.Sides != 2 {
		return fmt.Errorf("%w: side selection needs a two-sided exercise", ErrInvalidConfig)
	}
	if c.RequiresAssist && (c.AssistThreshold <= 0 || c.AssistThreshold > 100) {
		return fmt.Errorf("%w: assist threshold must be in (0, 100]", ErrInvalidConfig)
	}
	if c.ResetFraction < 0 || c.ResetFraction >= 1 {
		return fmt.Errorf("%w: reset fraction must be in [0, 1)", ErrInvalidConfig)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("%w: min confidence must be in [0, 1]", ErrInvalidConfig)
	}
	if c.MaxSkew < 0 {
		return fmt.Errorf("%w: max skew must not be negative", ErrInvalidConfig)
	}
	return nil
}

// withDefaults fills zero-valued optional fields.
func (c Config) withDefaults() Config {
	if c.Calibration == "" {
		c.Calibration = CalibrationNone
	}
	if c.ResetFraction == 0 {
		c.ResetFraction = DefaultResetFraction
	}
	if c.MinConfidence == 0 {
		c.MinConfidence = DefaultMinConfidence
	}
	if c.Assist == (AssistEpsilons{}) {
		c.Assist = DefaultAssistEpsilons()
	}
	if c.UprightMargin == 0 {
		c.UprightMargin = 0.15
	}
	if c.HipFloor == 0 {
		c.HipFloor = 0.85
	}
	return c
}

// Preset names.
const (
	NeckTilt      = "neck-tilt"
	ShoulderShrug = "shoulder-shrug"
	NeckStretch   = "neck-stretch"
)

var presets = map[string]Config{
	NeckTilt: {
		Name:              NeckTilt,
		Title:             "Neck Tilt",
		Strategy:          StrategyHeadTilt,
		Calibration:       CalibrationInitialTilt,
		AngleThreshold:    15,
		InitThreshold:     25,
		HoldDuration:      3 * time.Second,
		TargetRepsPerSide: 5,
		Sides:             2,
		MinConfidence:     0.7,
	},
	ShoulderShrug: {
		Name:              ShoulderShrug,
		Title:             "Shoulder Shrug",
		Strategy:          StrategyShoulderLift,
		Calibration:       CalibrationBaseline,
		AngleThreshold:    0.03,
		MaxSkew:           15,
		HoldDuration:      3 * time.Second,
		TargetRepsPerSide: 10,
		Sides:             1,
		MinConfidence:     0.7,
	},
	NeckStretch: {
		Name:              NeckStretch,
		Title:             "Seated Neck Stretch",
		Strategy:          StrategyEarLine,
		Calibration:       CalibrationNone,
		AngleThreshold:    12,
		HoldDuration:      3 * time.Second,
		TargetRepsPerSide: 5,
		Sides:             2,
		RequireSelection:  true,
		RequiresAssist:    true,
		AssistThreshold:   70,
		RequireUpright:    true,
		MinConfidence:     0.5,
	},
}

// Preset returns the built-in exercise named name with defaults applied.
func Preset(name string) (Config, bool) {
	c, ok := presets[name]
	if !ok {
		return Config{}, false
	}
	return c.withDefaults(), true
}

// Presets returns all built-in exercises sorted by name.
func Presets() []Config {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Config, 0, len(names))
	for _, name := range names {
		c, _ := Preset(name)
		out = append(out, c)
	}
	return out
}
