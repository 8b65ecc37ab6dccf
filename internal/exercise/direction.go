// Package exercise turns per-frame pose measurements into counted, hold-confirmed repetitions.
package exercise

import (
	"fmt"
	"strings"
)

// Direction is the side an exercise movement is performed toward.
// Single-axis exercises report their one active direction as Right.
type Direction string

const (
	// DirectionNone means no qualifying movement.
	DirectionNone Direction = ""
	// DirectionLeft is a movement toward the subject's left side.
	DirectionLeft Direction = "left"
	// DirectionRight is a movement toward the subject's right side.
	DirectionRight Direction = "right"
)

// ParseDirection parses "left", "right" or "none"/"" (case-insensitive).
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return DirectionNone, nil
	case "left":
		return DirectionLeft, nil
	case "right":
		return DirectionRight, nil
	default:
		return DirectionNone, fmt.Errorf("invalid direction %q", s)
	}
}

// Opposite returns the other side. DirectionNone has no opposite.
func (d Direction) Opposite() Direction {
	switch d {
	case DirectionLeft:
		return DirectionRight
	case DirectionRight:
		return DirectionLeft
	default:
		return DirectionNone
	}
}

// String returns "none" for DirectionNone and the side name otherwise.
func (d Direction) String() string {
	if d == DirectionNone {
		return "none"
	}
	return string(d)
}

// directionOf classifies a signed metric against a symmetric, inclusive threshold.
// A zero metric never has a direction.
func directionOf(metric, threshold float64) Direction {
	switch {
	case metric > 0 && metric >= threshold:
		return DirectionRight
	case metric < 0 && metric <= -threshold:
		return DirectionLeft
	default:
		return DirectionNone
	}
}
