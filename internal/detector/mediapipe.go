package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// PoseScriptName is the MediaPipe pose service looked up when Config.ScriptPath is empty.
const PoseScriptName = "pose_service.py"

// ErrServiceNotFound is returned when no pose service script can be located.
var ErrServiceNotFound = errors.New(PoseScriptName + " not found")

// MediaPipeDetector implements Detector over a Python MediaPipe pose service.
//
// Each frame is sent as a 4-byte big-endian length followed by JPEG bytes;
// the service answers with one JSON line holding the 33 pose landmarks.
// The process starts on the first frame and exits after IdleShutdownSeconds
// without frames.
type MediaPipeDetector struct {
	config Config
	script string
	python string
	logger *zap.Logger

	mu     sync.Mutex
	proc   *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
	idle   *time.Timer
}

// NewMediaPipeDetector locates the pose service. The Python process is
// started lazily on first detection.
func NewMediaPipeDetector(config Config, logger *zap.Logger) (*MediaPipeDetector, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	script := config.ScriptPath
	if script == "" {
		script = firstExisting(searchPaths(config.SearchDirs, filepath.Join("scripts", PoseScriptName)))
	}
	if script == "" {
		return nil, ErrServiceNotFound
	}
	if _, err := os.Stat(script); err != nil {
		return nil, fmt.Errorf("pose service: %w", err)
	}

	python := config.PythonPath
	if python == "" {
		python = firstExisting(searchPaths(config.SearchDirs, filepath.Join("venv", "bin", "python")))
	}
	if python == "" {
		python = "python3"
	}

	return &MediaPipeDetector{
		config: config,
		script: script,
		python: python,
		logger: logger.Named("mediapipe"),
	}, nil
}

// Detect sends frame to the service and returns the pose, or nil when nobody is in frame.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) (Pose, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureStarted(); err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()
	msg := make([]byte, 4+len(data))
	binary.BigEndian.PutUint32(msg, uint32(len(data)))
	copy(msg[4:], data)

	if _, err := d.stdin.Write(msg); err != nil {
		d.stopLocked()
		return nil, fmt.Errorf("write frame: %w", err)
	}

	line, err := d.stdout.ReadBytes('\n')
	if err != nil {
		d.stopLocked()
		return nil, fmt.Errorf("read response: %w", err)
	}

	var resp serviceResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("pose service: %s", resp.Error)
	}

	d.armIdleTimer()
	return resp.toPose(), nil
}

// Close stops the service process if it is running.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stopLocked()
}

func (d *MediaPipeDetector) ensureStarted() error {
	if d.proc != nil {
		return nil
	}

	cmd := exec.Command(d.python, d.script,
		"--model-complexity", strconv.Itoa(d.config.ModelComplexity),
		"--min-detection-confidence", strconv.FormatFloat(d.config.MinConfidence, 'f', 2, 64),
		"--min-tracking-confidence", strconv.FormatFloat(d.config.MinTrackingConf, 'f', 2, 64),
	)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start pose service: %w", err)
	}
	go d.logStderr(stderr)

	d.proc = cmd
	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.logger.Info("pose service started", zap.String("script", d.script), zap.Int("pid", cmd.Process.Pid))
	return nil
}

func (d *MediaPipeDetector) logStderr(r io.Reader) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		d.logger.Debug(sc.Text())
	}
}

func (d *MediaPipeDetector) stopLocked() error {
	if d.proc == nil {
		return nil
	}
	if d.idle != nil {
		d.idle.Stop()
		d.idle = nil
	}

	d.stdin.Close()
	err := d.proc.Wait()
	d.proc, d.stdin, d.stdout = nil, nil, nil
	d.logger.Info("pose service stopped")
	return err
}

func (d *MediaPipeDetector) armIdleTimer() {
	idle := time.Duration(d.config.IdleShutdownSeconds) * time.Second
	if idle <= 0 {
		return
	}
	if d.idle != nil {
		d.idle.Reset(idle)
		return
	}
	d.idle = time.AfterFunc(idle, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.idle = nil
		d.stopLocked()
	})
}

// searchPaths joins rel onto the working directory, its parent, the
// executable's directory and each of extra.
func searchPaths(extra []string, rel string) []string {
	dirs := []string{".", ".."}
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	dirs = append(dirs, extra...)

	out := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		out = append(out, filepath.Join(dir, rel))
	}
	return out
}

// firstExisting returns the absolute form of the first path that exists.
func firstExisting(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			return abs
		}
		return p
	}
	return ""
}

// serviceResponse is the per-frame reply. Landmarks is empty when nobody was detected.
type serviceResponse struct {
	Landmarks []servicePoint `json:"landmarks"`
	Error     string         `json:"error,omitempty"`
}

type servicePoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Visibility float64 `json:"visibility"`
}

func (r serviceResponse) toPose() Pose {
	if len(r.Landmarks) == 0 {
		return nil
	}

	n := min(len(r.Landmarks), NumLandmarks)
	pose := make(Pose, n)
	for i, pt := range r.Landmarks[:n] {
		pose[Landmark(i)] = Point{X: pt.X, Y: pt.Y, Visibility: pt.Visibility}
	}
	return pose
}
