// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package config loads engine settings from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/slidecanvas/document"
	"github.com/gogpu/slidecanvas/frame"
	"github.com/gogpu/slidecanvas/perf"
	"github.com/gogpu/slidecanvas/reconcile"
	"github.com/gogpu/slidecanvas/resource"
	"github.com/gogpu/slidecanvas/surface"
	"github.com/gogpu/slidecanvas/viewport"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// ErrInvalid reports a configuration that fails validation.
var ErrInvalid = errors.New("config: invalid configuration")

// Config is the full engine configuration.
type Config struct {
	Document    DocumentConfig    `yaml:"document"`
	Viewport    ViewportConfig    `yaml:"viewport"`
	Surface     SurfaceConfig     `yaml:"surface"`
	Render      RenderConfig      `yaml:"render"`
	Performance PerformanceConfig `yaml:"performance"`
	Images      ImagesConfig      `yaml:"images"`
	Log         LogConfig         `yaml:"log"`
	Store       StoreConfig       `yaml:"store"`
}

// DocumentConfig sizes the logical drawing space.
type DocumentConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// ViewportConfig bounds zoom and container sizes.
type ViewportConfig struct {
	MinZoom float64 `yaml:"min_zoom"`
	MaxZoom float64 `yaml:"max_zoom"`
	Padding float64 `yaml:"padding"`
}

// SurfaceConfig controls surface acquisition.
type SurfaceConfig struct {
	// Backend names a painter backend; empty picks the best available.
	Backend       string        `yaml:"backend"`
	MaxAttempts   int           `yaml:"max_attempts"`
	RetryDelay    time.Duration `yaml:"retry_delay"`
	BackoffFactor float64       `yaml:"backoff_factor"`
}

// RenderConfig controls painting.
type RenderConfig struct {
	FrameInterval time.Duration `yaml:"frame_interval"`
	// Animation is the entrance animation length. Negative disables it.
	Animation time.Duration `yaml:"animation"`
}

// PerformanceConfig configures the performance monitor.
type PerformanceConfig struct {
	Window   time.Duration `yaml:"window"`
	MinFPS   float64       `yaml:"min_fps"`
	Adaptive bool          `yaml:"adaptive"`
}

// ImagesConfig configures image loading.
type ImagesConfig struct {
	Timeout    time.Duration `yaml:"timeout"`
	Workers    int           `yaml:"workers"`
	CacheBytes int64         `yaml:"cache_bytes"`
	MaxBytes   int64         `yaml:"max_bytes"`
	// BaseDir resolves relative file sources.
	BaseDir string `yaml:"base_dir"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// StoreConfig selects the document store.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Document: DocumentConfig{Width: document.LogicalWidth, Height: document.LogicalHeight},
		Viewport: ViewportConfig{
			MinZoom: viewport.DefaultMinZoom,
			MaxZoom: viewport.DefaultMaxZoom,
			Padding: viewport.DefaultPadding,
		},
		Surface: SurfaceConfig{
			MaxAttempts:   surface.DefaultMaxAttempts,
			RetryDelay:    surface.DefaultRetryDelay,
			BackoffFactor: surface.DefaultBackoffFactor,
		},
		Render: RenderConfig{
			FrameInterval: frame.DefaultInterval,
			Animation:     reconcile.DefaultAnimation,
		},
		Performance: PerformanceConfig{
			Window:   perf.DefaultWindow,
			MinFPS:   perf.DefaultMinFPS,
			Adaptive: true,
		},
		Images: ImagesConfig{
			Timeout:    resource.DefaultTimeout,
			Workers:    resource.DefaultWorkers,
			CacheBytes: resource.DefaultCacheBytes,
			MaxBytes:   resource.DefaultMaxBytes,
		},
		Log:   LogConfig{Level: "info"},
		Store: StoreConfig{Driver: DriverMemory},
	}
}

// Load reads a YAML file over the defaults. Environment variables in the
// file are expanded. Unknown keys and multiple documents are rejected.
func Load(path string) (Config, error) {
	if strings.TrimSpace(path) == "" {
		return Config{}, fmt.Errorf("config: path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader([]byte(os.ExpandEnv(string(data)))))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse: expected single document")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	var problems []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}
	positive := func(v float64) bool { return v > 0 && !math.IsInf(v, 0) }

	check(positive(c.Document.Width) && positive(c.Document.Height),
		"document size %vx%v must be positive", c.Document.Width, c.Document.Height)
	check(positive(c.Viewport.MinZoom) && c.Viewport.MaxZoom >= c.Viewport.MinZoom,
		"zoom range [%v, %v] is invalid", c.Viewport.MinZoom, c.Viewport.MaxZoom)
	check(c.Viewport.Padding >= 0, "padding %v is negative", c.Viewport.Padding)
	check(c.Surface.MaxAttempts > 0, "surface.max_attempts %d must be positive", c.Surface.MaxAttempts)
	check(c.Surface.RetryDelay >= 0, "surface.retry_delay %v is negative", c.Surface.RetryDelay)
	check(c.Surface.BackoffFactor >= 1, "surface.backoff_factor %v is below 1", c.Surface.BackoffFactor)
	check(c.Render.FrameInterval > 0, "render.frame_interval %v must be positive", c.Render.FrameInterval)
	check(c.Performance.Window > 0, "performance.window %v must be positive", c.Performance.Window)
	check(positive(c.Performance.MinFPS), "performance.min_fps %v must be positive", c.Performance.MinFPS)
	check(c.Images.Workers > 0, "images.workers %d must be positive", c.Images.Workers)
	check(c.Images.MaxBytes > 0, "images.max_bytes %d must be positive", c.Images.MaxBytes)
	check(c.Images.Timeout > 0, "images.timeout %v must be positive", c.Images.Timeout)
	if _, err := ParseLevel(c.Log.Level); err != nil {
		problems = append(problems, err.Error())
	}
	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite:
		check(c.Store.DSN != "", "store.dsn is required for the sqlite driver")
	default:
		problems = append(problems, fmt.Sprintf("store.driver %q is unknown", c.Store.Driver))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log.level %q is unknown", s)
	}
	return l, nil
}

// Policy returns the viewport policy.
func (c Config) Policy() viewport.Policy {
	return viewport.Policy{
		LogicalWidth:  c.Document.Width,
		LogicalHeight: c.Document.Height,
		MinZoom:       c.Viewport.MinZoom,
		MaxZoom:       c.Viewport.MaxZoom,
		Padding:       c.Viewport.Padding,
	}
}

// Loader returns image loader options.
func (c Config) Loader() resource.Options {
	return resource.Options{
		Timeout:    c.Images.Timeout,
		MaxBytes:   c.Images.MaxBytes,
		Workers:    c.Images.Workers,
		CacheBytes: c.Images.CacheBytes,
		BaseDir:    c.Images.BaseDir,
	}
}

// Monitor returns performance monitor options.
func (c Config) Monitor() perf.Options {
	return perf.Options{
		Window:   c.Performance.Window,
		MinFPS:   c.Performance.MinFPS,
		Adaptive: c.Performance.Adaptive,
	}
}
