// Package config loads neckcoach settings from YAML or TOML files and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ayusman/neckcoach/internal/exercise"
	"github.com/ayusman/neckcoach/internal/logging"
)

type Config struct {
	Server    ServerConfig                `yaml:"server" toml:"server"`
	Camera    CameraConfig                `yaml:"camera" toml:"camera"`
	Detector  DetectorConfig              `yaml:"detector" toml:"detector"`
	Log       LogConfig                   `yaml:"log" toml:"log"`
	Data      DataConfig                  `yaml:"data" toml:"data"`
	Hooks     HooksConfig                 `yaml:"hooks" toml:"hooks"`
	Exercises map[string]ExerciseOverride `yaml:"exercises" toml:"exercises"`
}

type ServerConfig struct {
	Addr      string `yaml:"addr" toml:"addr" validate:"required"`
	StaticDir string `yaml:"static_dir" toml:"static_dir"`
}

type CameraConfig struct {
	DeviceID int `yaml:"device_id" toml:"device_id" validate:"min=0"`
	FPS      int `yaml:"fps" toml:"fps" validate:"min=1,max=60"`
}

type DetectorConfig struct {
	// Mock skips the MediaPipe subprocess; useful without a camera or Python.
	Mock                bool    `yaml:"mock" toml:"mock"`
	ModelComplexity     int     `yaml:"model_complexity" toml:"model_complexity" validate:"min=0,max=2"`
	MinDetection        float64 `yaml:"min_detection_confidence" toml:"min_detection_confidence" validate:"gte=0,lte=1"`
	MinTracking         float64 `yaml:"min_tracking_confidence" toml:"min_tracking_confidence" validate:"gte=0,lte=1"`
	IdleShutdownSeconds int     `yaml:"idle_shutdown_seconds" toml:"idle_shutdown_seconds" validate:"min=0"`
	Script              string  `yaml:"script" toml:"script"`
	Python              string  `yaml:"python" toml:"python"`
}

type LogConfig struct {
	File       string `yaml:"file" toml:"file"`
	Level      string `yaml:"level" toml:"level"`
	Console    bool   `yaml:"console" toml:"console"`
	MaxSizeMB  int    `yaml:"max_size_mb" toml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" toml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" toml:"max_age_days"`
}

type DataConfig struct {
	Dir string `yaml:"dir" toml:"dir" validate:"required"`
}

type HooksConfig struct {
	Enabled   bool   `yaml:"enabled" toml:"enabled"`
	Dir       string `yaml:"dir" toml:"dir"`
	TimeoutMs int    `yaml:"timeout_ms" toml:"timeout_ms" validate:"min=0"`
}

// ExerciseOverride adjusts a built-in preset. Nil fields keep the preset value.
type ExerciseOverride struct {
	AngleThreshold    *float64 `yaml:"angle_threshold" toml:"angle_threshold"`
	InitThreshold     *float64 `yaml:"init_threshold" toml:"init_threshold"`
	HoldSeconds       *float64 `yaml:"hold_seconds" toml:"hold_seconds"`
	TargetRepsPerSide *int     `yaml:"target_reps_per_side" toml:"target_reps_per_side"`
	AssistThreshold   *float64 `yaml:"assist_threshold" toml:"assist_threshold"`
	MaxSkew           *float64 `yaml:"max_skew" toml:"max_skew"`
	MinConfidence     *float64 `yaml:"min_confidence" toml:"min_confidence"`
	RequireUpright    *bool    `yaml:"require_upright" toml:"require_upright"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	lc := logging.DefaultConfig()
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Camera: CameraConfig{DeviceID: 0, FPS: 15},
		Detector: DetectorConfig{
			ModelComplexity:     1,
			MinDetection:        0.5,
			MinTracking:         0.5,
			IdleShutdownSeconds: 30,
		},
		Log: LogConfig{
			Level:      lc.Level,
			Console:    lc.Console,
			MaxSizeMB:  lc.MaxSizeMB,
			MaxBackups: lc.MaxBackups,
			MaxAgeDays: lc.MaxAgeDays,
		},
		Data:  DataConfig{Dir: DefaultDataDir()},
		Hooks: HooksConfig{Enabled: true, Dir: filepath.Join(DefaultDataDir(), "plugins"), TimeoutMs: 5000},
	}
}

// Load reads the config at path over the defaults, then applies environment
// overrides. A missing file is not an error. The format follows the file
// extension: .toml for TOML, anything else is parsed as YAML. A .env file
// beside the config file is loaded into the environment first.
//
// Env vars use the prefix NECKCOACH_:
//
//	NECKCOACH_SERVER_ADDR, NECKCOACH_STATIC_DIR,
//	NECKCOACH_CAMERA_ID, NECKCOACH_CAMERA_FPS, NECKCOACH_DETECTOR_MOCK,
//	NECKCOACH_LOG_LEVEL, NECKCOACH_LOG_FILE,
//	NECKCOACH_DATA_DIR, NECKCOACH_HOOKS_DIR, NECKCOACH_HOOKS_ENABLED
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.decodeFile(path); err != nil {
			return nil, err
		}
	}

	if err := loadDotEnv(path); err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), c); err != nil {
			return fmt.Errorf("parsing toml config: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parsing yaml config: %w", err)
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("NECKCOACH_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("NECKCOACH_STATIC_DIR"); v != "" {
		cfg.Server.StaticDir = v
	}
	if v := os.Getenv("NECKCOACH_CAMERA_ID"); v != "" {
		if id, err := strconv.Atoi(v); err == nil {
			cfg.Camera.DeviceID = id
		}
	}
	if v := os.Getenv("NECKCOACH_CAMERA_FPS"); v != "" {
		if fps, err := strconv.Atoi(v); err == nil {
			cfg.Camera.FPS = fps
		}
	}
	if v := os.Getenv("NECKCOACH_DETECTOR_MOCK"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Detector.Mock = b
		}
	}
	if v := os.Getenv("NECKCOACH_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("NECKCOACH_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	if v := os.Getenv("NECKCOACH_DATA_DIR"); v != "" {
		cfg.Data.Dir = v
	}
	if v := os.Getenv("NECKCOACH_HOOKS_DIR"); v != "" {
		cfg.Hooks.Dir = v
	}
	if v := os.Getenv("NECKCOACH_HOOKS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Hooks.Enabled = b
		}
	}
}

// loadDotEnv reads a .env file next to the config file into the process
// environment. Variables already set win.
func loadDotEnv(configPath string) error {
	if configPath == "" {
		return nil
	}
	path := filepath.Join(filepath.Dir(configPath), ".env")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return nil
}

var validate = newValidator()

// newValidator reports fields by their YAML names, e.g. "camera.fps".
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (c *Config) validate() error {
	if err := validate.Struct(c); err != nil {
		var fields validator.ValidationErrors
		if !errors.As(err, &fields) || len(fields) == 0 {
			return err
		}
		fe := fields[0]
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		if fe.Param() == "" {
			return fmt.Errorf("%s is %s", field, fe.Tag())
		}
		return fmt.Errorf("%s must be %s %s, got %v", field, fe.Tag(), fe.Param(), fe.Value())
	}
	for name := range c.Exercises {
		if _, err := c.Exercise(name); err != nil {
			return err
		}
	}
	return nil
}

// DBPath returns the SQLite database location.
func (c *Config) DBPath() string {
	return filepath.Join(c.Data.Dir, "neckcoach.db")
}

// HookTimeout returns the per-hook execution timeout.
func (c *Config) HookTimeout() time.Duration {
	return time.Duration(c.Hooks.TimeoutMs) * time.Millisecond
}

// Logging converts the log section for the logging package.
func (c *Config) Logging() logging.Config {
	return logging.Config{
		File:       c.Log.File,
		Level:      c.Log.Level,
		Console:    c.Log.Console,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
	}
}

// Exercise returns the named preset with any configured override applied.
func (c *Config) Exercise(name string) (exercise.Config, error) {
	ex, ok := exercise.Preset(name)
	if !ok {
		return exercise.Config{}, fmt.Errorf("exercise %q: %w", name, exercise.ErrUnknownExercise)
	}

	if o, ok := c.Exercises[name]; ok {
		o.apply(&ex)
	}
	if err := ex.Validate(); err != nil {
		return exercise.Config{}, fmt.Errorf("exercise %q: %w", name, err)
	}
	return ex, nil
}

// ExerciseList returns every preset with overrides applied, sorted by name.
func (c *Config) ExerciseList() ([]exercise.Config, error) {
	presets := exercise.Presets()
	names := make([]string, 0, len(presets))
	for _, p := range presets {
		names = append(names, p.Name)
	}
	sort.Strings(names)

	out := make([]exercise.Config, 0, len(names))
	for _, name := range names {
		ex, err := c.Exercise(name)
		if err != nil {
			return nil, err
		}
		out = append(out, ex)
	}
	return out, nil
}

func (o ExerciseOverride) apply(ex *exercise.Config) {
	if o.AngleThreshold != nil {
		ex.AngleThreshold = *o.AngleThreshold
	}
	if o.InitThreshold != nil {
		ex.InitThreshold = *o.InitThreshold
	}
	if o.HoldSeconds != nil {
		ex.HoldDuration = time.Duration(*o.HoldSeconds * float64(time.Second))
	}
	if o.TargetRepsPerSide != nil {
		ex.TargetRepsPerSide = *o.TargetRepsPerSide
	}
	if o.AssistThreshold != nil {
		ex.AssistThreshold = *o.AssistThreshold
	}
	if o.MaxSkew != nil {
		ex.MaxSkew = *o.MaxSkew
	}
	if o.MinConfidence != nil {
		ex.MinConfidence = *o.MinConfidence
	}
	if o.RequireUpright != nil {
		ex.RequireUpright = *o.RequireUpright
	}
}
