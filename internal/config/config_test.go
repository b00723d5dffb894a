package config

import (
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/docscan-mcp/internal/detection"
	"github.com/ironsheep/docscan-mcp/internal/geometry"
	"github.com/ironsheep/docscan-mcp/internal/imaging"
	"github.com/ironsheep/docscan-mcp/internal/rectify"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docscan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParse_Defaults(t *testing.T) {
	c, err := Parse("")
	require.NoError(t, err)

	assert.Equal(t, Default(), c)
	assert.Equal(t, detection.DefaultConfig(), c.Detector)
	assert.Equal(t, 1, c.Pipeline.QueueSize)
	assert.True(t, c.Pipeline.DropLateFrames)

	level, err := c.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)

	assert.Nil(t, c.Limiter())
}

func TestParse_MissingFile(t *testing.T) {
	c, err := Parse(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestParse_EmptyFile(t *testing.T) {
	c, err := Parse(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestParse_File(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
cache_size: 4

detector:
  min_size: 0.1
  max_observations: 3
  convention: top-left

rectify:
  border: constant
  border_color: "#000000"
  max_dimension: 2000

pipeline:
  queue_size: 2
  drop_late_frames: false
  max_fps: 15
  orientation: right
  frame_interval: 33ms
  viewport:
    width: 390
    height: 844
    gravity: aspect-fill

overlay:
  color: "#00FF00"
  line_width: 5

ocr:
  enabled: true
  language: eng+deu

http:
  address: ":9090"
  rate_limit: 10
  read_timeout: 5s
`)

	c, err := Parse(path)
	require.NoError(t, err)

	level, err := c.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
	assert.Equal(t, 4, c.CacheSize)

	assert.Equal(t, 0.1, c.Detector.MinSize)
	assert.Equal(t, 3, c.Detector.MaxObservations)
	assert.Equal(t, geometry.OriginTopLeft, c.Detector.Convention)
	// Unset keys keep their defaults.
	assert.Equal(t, detection.DefaultConfig().MinAspectRatio, c.Detector.MinAspectRatio)

	opts, err := c.RectifyOptions()
	require.NoError(t, err)
	assert.Equal(t, rectify.BorderConstant, opts.Border)
	assert.Equal(t, color.NRGBA{A: 255}, opts.BorderColor)
	assert.Equal(t, 2000, opts.MaxDimension)

	pc, err := c.PipelineOptions()
	require.NoError(t, err)
	assert.Equal(t, 2, pc.QueueSize)
	assert.False(t, pc.DropLateFrames)
	assert.Equal(t, 15.0, pc.MaxFPS)
	assert.True(t, pc.Rectify)
	assert.Equal(t, geometry.Viewport{
		Size:    geometry.Size{Width: 390, Height: 844},
		Gravity: geometry.GravityAspectFill,
	}, pc.Viewport)
	assert.Equal(t, 33*time.Millisecond, c.Pipeline.FrameInterval)

	o, err := c.FrameOrientation()
	require.NoError(t, err)
	assert.Equal(t, imaging.OrientationRight, o)

	assert.Equal(t, "#00FF00", c.Overlay.Color)
	assert.Equal(t, 5, c.Overlay.LineWidth)
	assert.True(t, c.Overlay.Labels)

	assert.True(t, c.OCR.Enabled)
	assert.Equal(t, "eng+deu", c.OCR.Language)

	assert.Equal(t, ":9090", c.HTTP.Address)
	assert.Equal(t, 5*time.Second, c.HTTP.ReadTimeout)
	assert.Equal(t, 60*time.Second, c.HTTP.WriteTimeout)

	limiter := c.Limiter()
	require.NotNil(t, limiter)
	assert.Equal(t, 10, limiter.Burst())
}

func TestParse_ExpandsEnvironment(t *testing.T) {
	t.Setenv("SCAN_PORT", "7070")
	c, err := Parse(writeConfig(t, "http:\n  address: \":${SCAN_PORT}\"\n"))
	require.NoError(t, err)
	assert.Equal(t, ":7070", c.HTTP.Address)
}

func TestParse_EnvironmentOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvHTTPAddress, "127.0.0.1:8081")
	t.Setenv(EnvOCRLanguage, "fra")

	c, err := Parse(writeConfig(t, "log_level: debug\n"))
	require.NoError(t, err)

	assert.Equal(t, "warn", c.LogLevel)
	assert.Equal(t, "127.0.0.1:8081", c.HTTP.Address)
	assert.Equal(t, "fra", c.OCR.Language)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown key", "detector:\n  min_sizes: 0.1\n"},
		{"unknown section", "camera:\n  fps: 30\n"},
		{"bad yaml", "detector: [\n"},
		{"bad log level", "log_level: loud\n"},
		{"negative cache size", "cache_size: -1\n"},
		{"bad convention", "detector:\n  convention: sideways\n"},
		{"bad detector range", "detector:\n  min_size: 2\n"},
		{"bad border", "rectify:\n  border: mirror\n"},
		{"bad border color", "rectify:\n  border: constant\n  border_color: nope\n"},
		{"bad jpeg quality", "rectify:\n  jpeg_quality: 101\n"},
		{"bad queue size", "pipeline:\n  queue_size: 0\n"},
		{"bad orientation", "pipeline:\n  orientation: diagonal\n"},
		{"bad gravity", "pipeline:\n  viewport:\n    width: 10\n    height: 10\n    gravity: stretch\n"},
		{"bad viewport", "pipeline:\n  viewport:\n    width: 10\n"},
		{"bad overlay color", "overlay:\n  color: \"#12345\"\n"},
		{"bad rate limit", "http:\n  rate_limit: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestRectifyOptions_ColorIgnoredUnlessConstant(t *testing.T) {
	c := Default()
	c.Rectify.Border = "transparent"
	c.Rectify.BorderColor = "not a color"

	opts, err := c.RectifyOptions()
	require.NoError(t, err)
	assert.Equal(t, rectify.BorderTransparent, opts.Border)
	assert.Nil(t, opts.BorderColor)
}
