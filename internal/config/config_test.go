package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/fretwise/internal/fretboard"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{
		"FRETWISE_ADDR", "FRETWISE_FPS", "FRETWISE_CAMERA", "FRETWISE_TARGET",
		"FRETBOARD_LEFT", "FRETBOARD_RIGHT", "FRETBOARD_TOP", "FRETBOARD_BOTTOM",
		"FRETWISE_EVAL_RATE", "FRETWISE_EVAL_BURST", "FRETWISE_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("FRETWISE_DATA_DIR", t.TempDir())

	cfg := Load()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 15, cfg.FPS)
	assert.False(t, cfg.CameraEnabled)
	assert.Equal(t, "C", cfg.Target)
	assert.Equal(t, fretboard.DefaultLayout(), cfg.Layout)
	assert.Equal(t, 60.0, cfg.EvalRate)
	assert.Equal(t, 10, cfg.EvalBurst)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("FRETWISE_ADDR", "127.0.0.1:9000")
	t.Setenv("FRETWISE_DATA_DIR", dir)
	t.Setenv("FRETWISE_CAMERA", "true")
	t.Setenv("FRETWISE_CAMERA_ID", "2")
	t.Setenv("FRETWISE_FPS", "30")
	t.Setenv("FRETWISE_TARGET", "Am")
	t.Setenv("FRETBOARD_LEFT", "0.1")
	t.Setenv("FRETBOARD_RIGHT", "0.9")
	t.Setenv("FRETWISE_EVAL_RATE", "5")

	cfg := Load()

	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.True(t, cfg.CameraEnabled)
	assert.Equal(t, 2, cfg.CameraID)
	assert.Equal(t, 30, cfg.FPS)
	assert.Equal(t, "Am", cfg.Target)
	assert.Equal(t, 0.1, cfg.Layout.Left)
	assert.Equal(t, 0.9, cfg.Layout.Right)
	assert.Equal(t, 5.0, cfg.EvalRate)
	assert.Equal(t, filepath.Join(dir, "fretwise.db"), cfg.DBPath())
	require.NoError(t, cfg.Validate())
}

func TestLoad_BadValuesFallBack(t *testing.T) {
	t.Setenv("FRETWISE_FPS", "fast")
	t.Setenv("FRETWISE_CAMERA", "maybe")
	t.Setenv("FRETBOARD_TOP", "high")

	cfg := Load()

	assert.Equal(t, 15, cfg.FPS)
	assert.False(t, cfg.CameraEnabled)
	assert.Equal(t, fretboard.DefaultLayout().Top, cfg.Layout.Top)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Addr:      ":8080",
			DataDir:   "/tmp/fretwise",
			FPS:       15,
			LogLevel:  "info",
			Target:    "C",
			Layout:    fretboard.DefaultLayout(),
			EvalRate:  60,
			EvalBurst: 10,
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"fps zero", func(c *Config) { c.FPS = 0 }},
		{"fps too high", func(c *Config) { c.FPS = 240 }},
		{"negative camera", func(c *Config) { c.CameraID = -1 }},
		{"bad log level", func(c *Config) { c.LogLevel = "chatty" }},
		{"empty target", func(c *Config) { c.Target = " " }},
		{"inverted layout", func(c *Config) { c.Layout.Left, c.Layout.Right = 0.9, 0.1 }},
		{"layout out of canvas", func(c *Config) { c.Layout.Bottom = 1.2 }},
		{"zero rate", func(c *Config) { c.EvalRate = 0 }},
		{"zero burst", func(c *Config) { c.EvalBurst = 0 }},
		{"empty addr", func(c *Config) { c.Addr = "" }},
	}

	require.NoError(t, valid().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}
