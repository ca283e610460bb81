// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/ayusman/fretwise/internal/fretboard"
)

// Config holds everything cmd/fretwise needs to start.
type Config struct {
	Addr    string
	DataDir string
	WebDir  string

	CameraEnabled bool
	CameraID      int
	FPS           int
	TrayEnabled   bool

	LogLevel string
	LogFile  string

	Target string
	Layout fretboard.Layout

	// EvalRate is the sustained number of POST /api/evaluate requests per
	// second; EvalBurst the bucket size.
	EvalRate  float64
	EvalBurst int
}

// Load reads a .env file if present, then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found, using process environment")
	}

	def := fretboard.DefaultLayout()

	return &Config{
		Addr:          getEnv("FRETWISE_ADDR", ":8080"),
		DataDir:       getEnv("FRETWISE_DATA_DIR", defaultDataDir()),
		WebDir:        getEnv("FRETWISE_WEB_DIR", ""),
		CameraEnabled: getEnvBool("FRETWISE_CAMERA", false),
		CameraID:      getEnvInt("FRETWISE_CAMERA_ID", 0),
		FPS:           getEnvInt("FRETWISE_FPS", 15),
		TrayEnabled:   getEnvBool("FRETWISE_TRAY", false),
		LogLevel:      getEnv("FRETWISE_LOG_LEVEL", "info"),
		LogFile:       getEnv("FRETWISE_LOG_FILE", ""),
		Target:        getEnv("FRETWISE_TARGET", "C"),
		Layout: fretboard.Layout{
			Left:   getEnvFloat("FRETBOARD_LEFT", def.Left),
			Right:  getEnvFloat("FRETBOARD_RIGHT", def.Right),
			Top:    getEnvFloat("FRETBOARD_TOP", def.Top),
			Bottom: getEnvFloat("FRETBOARD_BOTTOM", def.Bottom),
		},
		EvalRate:  getEnvFloat("FRETWISE_EVAL_RATE", 60),
		EvalBurst: getEnvInt("FRETWISE_EVAL_BURST", 10),
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Addr == "" {
		errs = append(errs, errors.New("FRETWISE_ADDR is empty"))
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New("FRETWISE_DATA_DIR is empty"))
	}
	if c.FPS < 1 || c.FPS > 60 {
		errs = append(errs, fmt.Errorf("FRETWISE_FPS %d outside 1..60", c.FPS))
	}
	if c.CameraID < 0 {
		errs = append(errs, fmt.Errorf("FRETWISE_CAMERA_ID %d is negative", c.CameraID))
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("FRETWISE_LOG_LEVEL: %w", err))
	}
	if strings.TrimSpace(c.Target) == "" {
		errs = append(errs, errors.New("FRETWISE_TARGET is empty"))
	}
	if err := c.Layout.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("FRETBOARD_*: %w", err))
	}
	if c.EvalRate <= 0 {
		errs = append(errs, fmt.Errorf("FRETWISE_EVAL_RATE %v must be positive", c.EvalRate))
	}
	if c.EvalBurst < 1 {
		errs = append(errs, fmt.Errorf("FRETWISE_EVAL_BURST %d must be at least 1", c.EvalBurst))
	}

	return errors.Join(errs...)
}

// DBPath returns the sqlite database location inside DataDir.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "fretwise.db")
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".fretwise"
	}
	return filepath.Join(home, ".fretwise")
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.WithField("key", key).Warnf("ignoring non-integer value %q", v)
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.WithField("key", key).Warnf("ignoring non-numeric value %q", v)
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		log.WithField("key", key).Warnf("ignoring non-boolean value %q", v)
	}
	return defaultVal
}
