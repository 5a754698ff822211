// Package config provides centralized configuration management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/joss/roomchat/internal/logging"
)

// DefaultConfigPath is the scenario file the backend loads when none is chosen.
const DefaultConfigPath = "config/police.yaml"

// RoomEnv holds all roomchat environment variables.
type RoomEnv struct {
	// APIURL is the game backend base URL, including the /api prefix (ROOMCHAT_API_URL)
	APIURL string `env:"ROOMCHAT_API_URL" envDefault:"http://localhost:8000/api"`

	// ConfigPath selects the backend scenario file (ROOMCHAT_CONFIG_PATH).
	// Empty means DefaultConfigPath.
	ConfigPath string `env:"ROOMCHAT_CONFIG_PATH"`

	// Level is the default level id (ROOMCHAT_LEVEL)
	Level string `env:"ROOMCHAT_LEVEL"`

	// SessionID pins the session identifier instead of generating one (ROOMCHAT_SESSION_ID)
	SessionID string `env:"ROOMCHAT_SESSION_ID"`

	// CameraDevice is the V4L2 device path (ROOMCHAT_CAMERA_DEVICE)
	CameraDevice string `env:"ROOMCHAT_CAMERA_DEVICE" envDefault:"/dev/video0"`

	// CameraFacing is the preferred facing mode (ROOMCHAT_CAMERA_FACING)
	CameraFacing string `env:"ROOMCHAT_CAMERA_FACING" envDefault:"environment"`

	// CameraTimeout bounds the wait for the first camera frame (ROOMCHAT_CAMERA_TIMEOUT)
	CameraTimeout time.Duration `env:"ROOMCHAT_CAMERA_TIMEOUT" envDefault:"10s"`

	// FFmpeg is the ffmpeg binary used for camera capture (ROOMCHAT_FFMPEG)
	FFmpeg string `env:"ROOMCHAT_FFMPEG" envDefault:"ffmpeg"`

	// LogLevel is debug, info, warn or error (ROOMCHAT_LOG_LEVEL)
	LogLevel string `env:"ROOMCHAT_LOG_LEVEL" envDefault:"info"`

	// LogFile overrides the log destination (ROOMCHAT_LOG_FILE)
	LogFile string `env:"ROOMCHAT_LOG_FILE"`

	// LevelsFile replaces the built-in level catalog (ROOMCHAT_LEVELS_FILE)
	LevelsFile string `env:"ROOMCHAT_LEVELS_FILE"`
}

var (
	roomEnv *RoomEnv
	envErr  error
	envOnce sync.Once
)

// Env returns the singleton environment configuration.
// Thread-safe, loads once on first call. A malformed variable falls back to
// the defaults for every field; the parse error is logged and kept for
// EnvError.
func Env() *RoomEnv {
	envOnce.Do(func() {
		e, err := Load()
		if err != nil {
			logging.New("config").Warn("env_invalid", nil, err)
			envErr = err
			e = defaults()
		}
		roomEnv = e
	})
	return roomEnv
}

// EnvError returns the error that made Env fall back to defaults, if any.
func EnvError() error {
	Env()
	return envErr
}

// Load parses the environment without touching the singleton.
func Load() (*RoomEnv, error) {
	e := &RoomEnv{}
	if err := env.Parse(e); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	e.applyDefaults()
	return e, nil
}

func defaults() *RoomEnv {
	e := &RoomEnv{}
	_ = env.ParseWithOptions(e, env.Options{Environment: map[string]string{}})
	e.applyDefaults()
	return e
}

func (e *RoomEnv) applyDefaults() {
	if e.ConfigPath == "" {
		e.ConfigPath = DefaultConfigPath
	}
}

// ResetEnv resets the cached environment (for testing).
func ResetEnv() {
	envOnce = sync.Once{}
	roomEnv = nil
	envErr = nil
}

// Paths holds standard roomchat directory paths.
type Paths struct {
	// Home is the roomchat home directory (~/.roomchat)
	Home string

	// Captures is where camera frames are written by the capture command (~/.roomchat/captures)
	Captures string

	// LogFile is the default log file (~/.roomchat/roomchat.log)
	LogFile string
}

var (
	paths     *Paths
	pathsOnce sync.Once
)

// GetPaths returns the singleton paths configuration.
func GetPaths() *Paths {
	pathsOnce.Do(func() {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		roomHome := filepath.Join(home, ".roomchat")

		paths = &Paths{
			Home:     roomHome,
			Captures: filepath.Join(roomHome, "captures"),
			LogFile:  filepath.Join(roomHome, "roomchat.log"),
		}
	})
	return paths
}

// Path returns a path under the roomchat home directory.
func Path(parts ...string) string {
	p := GetPaths()
	allParts := append([]string{p.Home}, parts...)
	return filepath.Join(allParts...)
}

// EnsureDir creates a directory if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// LogFile returns the configured log destination.
func LogFile() string {
	if f := Env().LogFile; f != "" {
		return f
	}
	return GetPaths().LogFile
}
