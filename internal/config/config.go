// Package config loads the server configuration from a YAML file and the
// environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/docscan-mcp/internal/detection"
	"github.com/ironsheep/docscan-mcp/internal/geometry"
	"github.com/ironsheep/docscan-mcp/internal/imaging"
	"github.com/ironsheep/docscan-mcp/internal/overlay"
	"github.com/ironsheep/docscan-mcp/internal/pipeline"
	"github.com/ironsheep/docscan-mcp/internal/rectify"
)

// Environment overrides, applied after the file.
const (
	EnvLogLevel    = "DOCSCAN_LOG_LEVEL"
	EnvHTTPAddress = "DOCSCAN_HTTP_ADDRESS"
	EnvOCRLanguage = "DOCSCAN_OCR_LANGUAGE"
)

type Config struct {
	LogLevel string `yaml:"log_level"`

	// CacheSize is the number of decoded images kept between tool calls.
	CacheSize int `yaml:"cache_size"`

	Detector detection.Config `yaml:"detector"`
	Rectify  RectifyConfig    `yaml:"rectify"`
	Pipeline PipelineConfig   `yaml:"pipeline"`
	Overlay  overlay.Style    `yaml:"overlay"`
	OCR      OCRConfig        `yaml:"ocr"`
	HTTP     HTTPConfig       `yaml:"http"`
}

type RectifyConfig struct {
	// Border is "clamp", "transparent" or "constant".
	Border      string `yaml:"border"`
	BorderColor string `yaml:"border_color"`

	// MaxDimension caps the longer side of automatically sized output.
	MaxDimension int `yaml:"max_dimension"`

	// JPEGQuality is used when rectified pages are saved as JPEG.
	JPEGQuality int `yaml:"jpeg_quality"`
}

type PipelineConfig struct {
	pipeline.Config `yaml:",inline"`

	// Orientation tags frames read from disk: "up", "right", "down", "left".
	Orientation string `yaml:"orientation"`

	// FrameInterval paces frames read from disk, e.g. "33ms".
	FrameInterval time.Duration `yaml:"frame_interval"`

	Viewport ViewportConfig `yaml:"viewport"`
}

type ViewportConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`

	// Gravity is "resize", "aspect-fill" or "aspect-fit".
	Gravity string `yaml:"gravity"`
}

type OCRConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Language string `yaml:"language"`
}

type HTTPConfig struct {
	// Address enables the HTTP API when set, e.g. ":8080".
	Address string `yaml:"address"`

	// RateLimit is the allowed requests per second. Unset means unlimited.
	RateLimit *int `yaml:"rate_limit"`

	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// MaxBodyBytes bounds uploaded images.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		CacheSize: imaging.DefaultCacheSize,
		Detector:  detection.DefaultConfig(),
		Rectify: RectifyConfig{
			Border:      rectify.BorderClamp.String(),
			BorderColor: "#FFFFFF",
			JPEGQuality: 90,
		},
		Pipeline: PipelineConfig{
			Config:      pipeline.DefaultConfig(),
			Orientation: imaging.OrientationUp.String(),
			Viewport: ViewportConfig{
				Gravity: geometry.GravityResize.String(),
			},
		},
		Overlay: overlay.Style{
			Color:     overlay.DefaultColor,
			LineWidth: 3,
			Labels:    true,
		},
		OCR: OCRConfig{
			Language: "eng",
		},
		HTTP: HTTPConfig{
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			MaxBodyBytes: 32 << 20,
		},
	}
}

// Parse reads the YAML file at path over the defaults, then applies
// environment overrides. An empty path or a missing file yields the defaults.
// ${VAR} references in the file are expanded before decoding.
func Parse(path string) (*Config, error) {
	c := Default()

	if path != "" {
		if err := parseFile(path, c); err != nil {
			return nil, err
		}
	}

	c.applyEnv()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func parseFile(path string, c *Config) error {
	data, err := os.ReadFile(path)

	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	data = []byte(os.ExpandEnv(string(data)))

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(c); err != nil {
		// An empty file keeps the defaults.
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvHTTPAddress); v != "" {
		c.HTTP.Address = v
	}
	if v := os.Getenv(EnvOCRLanguage); v != "" {
		c.OCR.Language = v
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache_size must not be negative, got %d", c.CacheSize)
	}
	if err := c.Detector.Validate(); err != nil {
		return fmt.Errorf("detector: %w", err)
	}
	if _, err := c.RectifyOptions(); err != nil {
		return fmt.Errorf("rectify: %w", err)
	}
	if c.Rectify.JPEGQuality < 0 || c.Rectify.JPEGQuality > 100 {
		return fmt.Errorf("rectify: jpeg_quality must be in [0,100], got %d", c.Rectify.JPEGQuality)
	}
	if _, err := c.PipelineOptions(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	if _, err := c.FrameOrientation(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	if c.Overlay.Color != "" {
		if _, err := overlay.ParseColor(c.Overlay.Color); err != nil {
			return fmt.Errorf("overlay: %w", err)
		}
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		return fmt.Errorf("http: max_body_bytes must be positive, got %d", c.HTTP.MaxBodyBytes)
	}
	if c.HTTP.RateLimit != nil && *c.HTTP.RateLimit <= 0 {
		return fmt.Errorf("http: rate_limit must be positive, got %d", *c.HTTP.RateLimit)
	}
	return nil
}

// SlogLevel parses LogLevel ("debug", "info", "warn", "error").
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return level, nil
}

// RectifyOptions converts the rectify section. Width and Height stay zero so
// every page gets its natural size.
func (c *Config) RectifyOptions() (*rectify.Options, error) {
	border, err := rectify.ParseBorderPolicy(c.Rectify.Border)
	if err != nil {
		return nil, err
	}
	if c.Rectify.MaxDimension < 0 {
		return nil, fmt.Errorf("max_dimension must not be negative, got %d", c.Rectify.MaxDimension)
	}

	opts := &rectify.Options{
		Border:       border,
		MaxDimension: c.Rectify.MaxDimension,
	}
	if border == rectify.BorderConstant {
		col, err := overlay.ParseColor(c.Rectify.BorderColor)
		if err != nil {
			return nil, fmt.Errorf("border_color: %w", err)
		}
		opts.BorderColor = col
	}
	return opts, nil
}

// PipelineOptions converts the pipeline section, resolving the viewport.
func (c *Config) PipelineOptions() (pipeline.Config, error) {
	pc := c.Pipeline.Config

	vp := c.Pipeline.Viewport
	if vp.Width != 0 || vp.Height != 0 {
		gravity, err := geometry.ParseGravity(vp.Gravity)
		if err != nil {
			return pc, err
		}
		size := geometry.Size{Width: vp.Width, Height: vp.Height}
		if !size.Valid() {
			return pc, fmt.Errorf("invalid viewport size %gx%g", vp.Width, vp.Height)
		}
		pc.Viewport = geometry.Viewport{Size: size, Gravity: gravity}
	}

	if err := pc.Validate(); err != nil {
		return pc, err
	}
	if c.Pipeline.FrameInterval < 0 {
		return pc, fmt.Errorf("frame_interval must not be negative")
	}
	return pc, nil
}

// FrameOrientation parses the orientation applied to frames read from disk.
func (c *Config) FrameOrientation() (imaging.Orientation, error) {
	return imaging.ParseOrientation(c.Pipeline.Orientation)
}

// Limiter returns the HTTP request limiter, or nil when unlimited.
func (c *Config) Limiter() *rate.Limiter {
	return createLimiter(c.HTTP.RateLimit)
}

func createLimiter(limit *int) *rate.Limiter {
	if limit == nil {
		return nil
	}

	return rate.NewLimiter(rate.Limit(*limit), *limit)
}
