// Package plugin discovers hook executables and runs them on exercise events.
package plugin

import (
	"encoding/json"
	"time"
)

// Lifecycle events sent to hooks in addition to the exercise events.
const (
	EventSessionStarted = "session_started"
	EventSessionEnded   = "session_ended"
)

// AllEvents subscribes a hook to every event except per-tick feedback.
const AllEvents = "*"

// Manifest describes a hook and the events it wants.
type Manifest struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Description string          `json:"description"`
	Executable  string          `json:"executable"`
	Events      []string        `json:"events"`
	Config      json.RawMessage `json:"config,omitempty"`
}

// Subscribes reports whether the hook wants event.
func (m Manifest) Subscribes(event string) bool {
	for _, e := range m.Events {
		if e == event || e == AllEvents {
			return true
		}
	}
	return false
}

// Reps mirrors the per-side counters.
type Reps struct {
	Left  int `json:"left"`
	Right int `json:"right"`
}

// Request is written as JSON to the hook's stdin.
type Request struct {
	Event     string          `json:"event"`
	SessionID string          `json:"session_id,omitempty"`
	Exercise  string          `json:"exercise,omitempty"`
	Title     string          `json:"title,omitempty"`
	Direction string          `json:"direction,omitempty"`
	Count     int             `json:"count,omitempty"`
	Reps      Reps            `json:"reps"`
	Target    int             `json:"target_per_side,omitempty"`
	Completed bool            `json:"completed,omitempty"`
	At        time.Time       `json:"at"`
	Config    json.RawMessage `json:"config,omitempty"`
}

// Response is read from the hook's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin is a discovered hook with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}
