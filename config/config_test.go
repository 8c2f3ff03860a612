package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "kinect2.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, logrus.InfoLevel, cfg.Level())
	assert.True(t, cfg.Depth.Enabled)
	assert.Equal(t, 10000, cfg.Depth.Far)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
sync_depth_color: true
close_timeout: 500ms
depth:
  fps: 15
  near: 500
  far: 4500
  invert: true
body:
  enabled: true
  mirror: true
publish:
  threshold: 1500
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, logrus.DebugLevel, cfg.Level())
	assert.True(t, cfg.SyncDepthColor)
	assert.Equal(t, 500*time.Millisecond, cfg.CloseTimeout)
	assert.Equal(t, 5*time.Millisecond, cfg.PollInterval)

	assert.True(t, cfg.Depth.Enabled)
	assert.Equal(t, 15, cfg.Depth.FPS)
	assert.Equal(t, 500, cfg.Depth.Near)
	assert.Equal(t, 4500, cfg.Depth.Far)
	assert.True(t, cfg.Depth.Invert)

	assert.True(t, cfg.Body.Enabled)
	assert.True(t, cfg.Body.Mirror)
	assert.Equal(t, uint16(1500), cfg.Publish.Threshold)
	assert.Equal(t, "224.76.78.75:20810", cfg.Publish.Address)
}

func TestLoadInvalid(t *testing.T) {
	tests := map[string]string{
		"level":   "log_level: loud\n",
		"timeout": "close_timeout: 0s\n",
		"fps":     "color:\n  fps: -1\n",
		"address": "publish:\n  address: nowhere\n",
		"yaml":    "depth: [\n",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "loud"
	cfg.Depth.FPS = -1
	cfg.Body.FPS = -2
	cfg.Color.FPS = -3

	errs := multierr.Errors(cfg.Validate())
	require.Len(t, errs, 4)
	assert.Contains(t, errs[1].Error(), "color")
	assert.Contains(t, errs[2].Error(), "depth")
	assert.Contains(t, errs[3].Error(), "body:")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
