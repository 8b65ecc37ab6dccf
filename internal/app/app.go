// Package app wires the camera, pose detector, session controller and its
// listeners into the running neckcoach application.
package app

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/neckcoach/internal/capture"
	"github.com/ayusman/neckcoach/internal/config"
	"github.com/ayusman/neckcoach/internal/detector"
	"github.com/ayusman/neckcoach/internal/plugin"
	"github.com/ayusman/neckcoach/internal/server"
	"github.com/ayusman/neckcoach/internal/session"
	"github.com/ayusman/neckcoach/internal/store"
)

// ErrNoFrame is returned by ReadFrame before the pipeline has captured anything.
var ErrNoFrame = errors.New("no frame captured yet")

// Options configures an App. Camera and Detector override the devices
// selected from Config.
type Options struct {
	Config   *config.Config
	Store    *store.Store
	Logger   *zap.Logger
	Camera   capture.Camera
	Detector detector.Detector
}

// App is the main application: it feeds camera frames through the pose
// detector into the session controller.
type App struct {
	cfg        *config.Config
	root       *zap.Logger
	logger     *zap.Logger
	store      *store.Store
	camera     capture.Camera
	detector   detector.Detector
	controller *session.Controller
	hub        *server.Hub
	plugins    *plugin.Manager
	hooks      *plugin.Dispatcher

	mu     sync.RWMutex
	paused bool
	stopCh chan struct{}
	done   chan struct{}
	frame  *gocv.Mat
}

// New creates an App. The camera is not opened until Start.
func New(opts Options) *App {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &App{
		cfg:        cfg,
		root:       logger,
		logger:     logger.Named("app"),
		store:      opts.Store,
		camera:     opts.Camera,
		detector:   opts.Detector,
		controller: session.New(logger),
	}

	if a.camera == nil {
		a.camera = capture.NewCamera(capture.Options{DeviceID: cfg.Camera.DeviceID, FPS: cfg.Camera.FPS})
	}
	if a.detector == nil {
		a.detector = newDetector(cfg, a.root)
	}

	a.hub = server.NewHub(a.controller.Snapshot, logger)
	a.controller.AddListener(a.hub)

	if a.store != nil {
		a.controller.AddListener(NewRecorder(a.store, logger))
		a.paused, _ = strconv.ParseBool(a.store.Settings().GetOr(store.SettingPaused, "false"))
	}

	if cfg.Hooks.Enabled {
		a.plugins = plugin.NewManager(cfg.Hooks.Dir, logger)
		if err := a.plugins.Discover(); err != nil {
			a.logger.Warn("hook discovery failed", zap.String("dir", cfg.Hooks.Dir), zap.Error(err))
		}
		a.hooks = plugin.NewDispatcher(a.plugins, plugin.NewExecutor(cfg.HookTimeout()), logger)
		a.controller.AddListener(a.hooks)
	}

	return a
}

// newDetector prefers the MediaPipe service and falls back to the mock
// detector when it is unavailable.
func newDetector(cfg *config.Config, logger *zap.Logger) detector.Detector {
	if cfg.Detector.Mock {
		logger.Info("using mock pose detector")
		return detector.NewMockDetector()
	}

	mp, err := detector.NewMediaPipeDetector(detector.Config{
		ModelComplexity:     cfg.Detector.ModelComplexity,
		MinConfidence:       cfg.Detector.MinDetection,
		MinTrackingConf:     cfg.Detector.MinTracking,
		IdleShutdownSeconds: cfg.Detector.IdleShutdownSeconds,
		ScriptPath:          cfg.Detector.Script,
		PythonPath:          cfg.Detector.Python,
		SearchDirs:          []string{cfg.Data.Dir},
	}, logger)
	if err != nil {
		logger.Warn("MediaPipe not available, using mock pose detector", zap.Error(err))
		return detector.NewMockDetector()
	}
	logger.Info("using MediaPipe pose detection")
	return mp
}

// StartExercise starts the named exercise with its configured overrides.
func (a *App) StartExercise(name string) error {
	ex, err := a.cfg.Exercise(name)
	if err != nil {
		return err
	}
	return a.controller.Start(ex)
}

// LastExercise returns the most recently started exercise, if recorded.
func (a *App) LastExercise() (string, bool) {
	if a.store == nil {
		return "", false
	}
	name, err := a.store.Settings().Get(store.SettingLastExercise)
	if err != nil {
		return "", false
	}
	return name, true
}

// Start opens the camera and begins the frame loop.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	a.camera.SetFPS(a.cfg.Camera.FPS)

	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	go a.runPipeline(a.stopCh, a.done)

	a.logger.Info("pipeline started", zap.Int("fps", a.camera.FPS()))
	return nil
}

// Stop halts the frame loop, ends any running session and releases devices.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, done := a.stopCh, a.done
	a.stopCh, a.done = nil, nil
	a.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-done
	}

	a.controller.Stop()

	if a.hooks != nil {
		a.hooks.Close()
	}
	a.hub.Close()

	if err := a.camera.Close(); err != nil {
		a.logger.Warn("close camera", zap.Error(err))
	}
	if err := a.detector.Close(); err != nil {
		a.logger.Warn("close detector", zap.Error(err))
	}

	a.mu.Lock()
	if a.frame != nil {
		a.frame.Close()
		a.frame = nil
	}
	a.mu.Unlock()

	a.logger.Info("pipeline stopped")
}

// Paused reports whether frame processing is paused.
func (a *App) Paused() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.paused
}

// SetPaused pauses or resumes frame processing and remembers the choice.
func (a *App) SetPaused(paused bool) {
	a.mu.Lock()
	changed := a.paused != paused
	a.paused = paused
	a.mu.Unlock()

	if !changed {
		return
	}
	a.logger.Info("tracking toggled", zap.Bool("paused", paused))
	if a.store != nil {
		if err := a.store.Settings().Set(store.SettingPaused, strconv.FormatBool(paused)); err != nil {
			a.logger.Warn("save paused setting", zap.Error(err))
		}
	}
}

// ReadFrame returns a copy of the most recent camera frame for the stream.
func (a *App) ReadFrame() (*gocv.Mat, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.frame == nil || a.frame.Empty() {
		return nil, ErrNoFrame
	}
	clone := a.frame.Clone()
	return &clone, nil
}

// Server builds the HTTP server over this App.
func (a *App) Server(staticDir string) *server.Server {
	return server.New(server.Config{
		StaticDir:  staticDir,
		Store:      a.store,
		Controller: a.controller,
		Exercises:  a.cfg,
		Tracker:    a,
		Frames:     a,
		FPS:        a.cfg.Camera.FPS,
		Hub:        a.hub,
		Logger:     a.root,
	})
}

// AddListener registers an extra session listener, such as the tray.
func (a *App) AddListener(l session.Listener) {
	a.controller.AddListener(l)
}

// Controller returns the session controller.
func (a *App) Controller() *session.Controller {
	return a.controller
}

// Hub returns the WebSocket hub.
func (a *App) Hub() *server.Hub {
	return a.hub
}

// Plugins returns the hook manager, or nil when hooks are disabled.
func (a *App) Plugins() *plugin.Manager {
	return a.plugins
}

// Hooks returns the hook dispatcher, or nil when hooks are disabled.
func (a *App) Hooks() *plugin.Dispatcher {
	return a.hooks
}

// Detector returns the pose detector.
func (a *App) Detector() detector.Detector {
	return a.detector
}

// Camera returns the camera.
func (a *App) Camera() capture.Camera {
	return a.camera
}
