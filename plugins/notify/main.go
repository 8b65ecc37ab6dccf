// Package main is a hook that shows desktop notifications for exercise progress.
// It uses osascript on macOS and notify-send elsewhere.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Request is the hook input written by neckcoach.
type Request struct {
	Event     string `json:"event"`
	Exercise  string `json:"exercise"`
	Title     string `json:"title"`
	Direction string `json:"direction"`
	Count     int    `json:"count"`
	Reps      struct {
		Left  int `json:"left"`
		Right int `json:"right"`
	} `json:"reps"`
	Target    int             `json:"target_per_side"`
	Completed bool            `json:"completed"`
	Config    json.RawMessage `json:"config"`
}

// Response is the hook output read by neckcoach.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type settings struct {
	Sound bool `json:"sound"`
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(fmt.Errorf("failed to decode request: %w", err))
		return
	}

	var cfg settings
	if len(req.Config) > 0 {
		_ = json.Unmarshal(req.Config, &cfg)
	}

	title, body, ok := message(req)
	if !ok {
		writeResponse(nil)
		return
	}

	writeResponse(notify(title, body, cfg.Sound))
}

// message returns the notification text for req. ok is false for events
// that do not warrant a notification.
func message(req Request) (title, body string, ok bool) {
	name := req.Title
	if name == "" {
		name = req.Exercise
	}

	switch req.Event {
	case "side_completed":
		return name, fmt.Sprintf("%s side done. Switch sides when ready.", capitalize(req.Direction)), true
	case "exercise_completed":
		return name, "All reps complete. Nice work!", true
	case "session_ended":
		if req.Completed {
			return "", "", false
		}
		return name, fmt.Sprintf("Session stopped at L %d  R %d.", req.Reps.Left, req.Reps.Right), true
	case "rep_completed":
		return name, fmt.Sprintf("%s rep %d of %d", capitalize(req.Direction), req.Count, req.Target), true
	}
	return "", "", false
}

func notify(title, body string, sound bool) error {
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf("display notification %q with title %q", body, title)
		if sound {
			script += ` sound name "Glass"`
		}
		return exec.Command("osascript", "-e", script).Run()
	case "linux":
		return exec.Command("notify-send", "--app-name=neckcoach", title, body).Run()
	default:
		return fmt.Errorf("notifications not supported on %s", runtime.GOOS)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func writeResponse(err error) {
	resp := Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
