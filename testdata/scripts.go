// Package testdata provides scripted pose sequences for pipeline and
// end-to-end tests.
package testdata

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/ayusman/neckcoach/internal/detector"
	"github.com/ayusman/neckcoach/internal/exercise"
)

//go:embed scripts/*.json
var scriptsFS embed.FS

// FrameInterval is the spacing between generated frames.
const FrameInterval = 100 * time.Millisecond

// Script is a recorded exercise run: a sequence of poses plus the outcome it
// should produce.
type Script struct {
	Name        string `json:"-"`
	Description string `json:"description"`
	Exercise    string `json:"exercise"`
	Steps       []Step `json:"steps"`
	Expect      Expect `json:"expect"`
}

// Step is one pose held for Ms milliseconds, a side selection, or a
// repeated group of steps.
type Step struct {
	Pose    string  `json:"pose,omitempty"`
	Degrees float64 `json:"degrees,omitempty"`
	Lift    float64 `json:"lift,omitempty"`
	Skew    float64 `json:"skew,omitempty"`
	Arm     bool    `json:"arm,omitempty"`
	Ms      int     `json:"ms,omitempty"`

	Select string `json:"select,omitempty"`

	Repeat int    `json:"repeat,omitempty"`
	Steps  []Step `json:"steps,omitempty"`
}

// Expect is the session state after the last frame.
type Expect struct {
	Left      int            `json:"left"`
	Right     int            `json:"right"`
	Phase     exercise.Phase `json:"phase"`
	Completed bool           `json:"completed"`
}

// Frame is one input to the session: either a pose at At, or a side
// selection when Select is set.
type Frame struct {
	At     time.Time
	Pose   detector.Pose
	Select exercise.Direction
}

// Scripts lists the embedded script names, sorted.
func Scripts() []string {
	entries, _ := scriptsFS.ReadDir("scripts")
	var names []string
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names
}

// LoadScript loads an embedded script by name, without the .json suffix.
func LoadScript(name string) (*Script, error) {
	data, err := scriptsFS.ReadFile(path.Join("scripts", name+".json"))
	if err != nil {
		return nil, fmt.Errorf("load script %s: %w", name, err)
	}

	var s Script
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode script %s: %w", name, err)
	}
	s.Name = name
	return &s, nil
}

// Frames expands the script into frames starting at start.
func (s *Script) Frames(start time.Time) ([]Frame, error) {
	var out []Frame
	at := start
	if err := expand(s.Steps, &at, &out); err != nil {
		return nil, fmt.Errorf("script %s: %w", s.Name, err)
	}
	return out, nil
}

func expand(steps []Step, at *time.Time, out *[]Frame) error {
	for _, st := range steps {
		switch {
		case st.Repeat > 0:
			for i := 0; i < st.Repeat; i++ {
				if err := expand(st.Steps, at, out); err != nil {
					return err
				}
			}
		case st.Select != "":
			d, err := exercise.ParseDirection(st.Select)
			if err != nil {
				return err
			}
			*out = append(*out, Frame{At: *at, Select: d})
		default:
			pose, err := st.pose()
			if err != nil {
				return err
			}
			end := at.Add(time.Duration(st.Ms) * time.Millisecond)
			for ; at.Before(end); *at = at.Add(FrameInterval) {
				*out = append(*out, Frame{At: *at, Pose: pose})
			}
		}
	}
	return nil
}

func (st Step) pose() (detector.Pose, error) {
	switch st.Pose {
	case "neutral":
		return detector.NeutralPose(), nil
	case "tilt":
		return detector.HeadTiltPose(st.Degrees), nil
	case "shrug":
		return detector.ShrugPose(st.Lift, st.Skew), nil
	case "stretch":
		return detector.StretchPose(st.Degrees, st.Arm), nil
	case "empty":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown pose %q", st.Pose)
	}
}
