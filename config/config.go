// Package config loads the zoom daemon configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	mandel "github.com/marben/mandel_zoom"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the complete zoomd configuration.
type Config struct {
	Width         int          `yaml:"width"`
	Height        int          `yaml:"height"`
	StartingScale float64      `yaml:"starting_scale"`
	ScalingFactor float64      `yaml:"scaling_factor"` // applied after every frame, (0, 1) zooms in
	Offset        OffsetConfig `yaml:"offset"`
	Landmark      string       `yaml:"landmark,omitempty"` // overrides offset and starting_scale

	Render   RenderConfig   `yaml:"render"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Display  DisplayConfig  `yaml:"display"`
}

// OffsetConfig is the point of the complex plane the zoom converges on.
type OffsetConfig struct {
	R float64 `yaml:"r"`
	I float64 `yaml:"i"`
}

// RenderConfig tunes the parallel renderer.
type RenderConfig struct {
	Workers   int    `yaml:"workers"`   // 0 uses GOMAXPROCS
	Partition string `yaml:"partition"` // chunked, interleaved
	MaxIter   int    `yaml:"max_iter"`
}

// PipelineConfig bounds buffer circulation.
type PipelineConfig struct {
	MaxBuffers       int  `yaml:"max_buffers"`
	BacklogThreshold int  `yaml:"backlog_threshold"`
	FrameCounter     bool `yaml:"frame_counter"`
}

// DisplayConfig configures the sinks frames are played to.
type DisplayConfig struct {
	Listen     string         `yaml:"listen"`      // websocket viewer address, empty disables
	IntervalMS int            `yaml:"interval_ms"` // minimum time between updates
	Snapshot   SnapshotConfig `yaml:"snapshot"`
}

// SnapshotConfig writes every Nth frame to disk.
type SnapshotConfig struct {
	Dir    string `yaml:"dir"` // empty disables
	Format string `yaml:"format"`
	Every  int    `yaml:"every"`
}

// Interval is the minimum display update interval.
func (d DisplayConfig) Interval() time.Duration {
	return time.Duration(d.IntervalMS) * time.Millisecond
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	rc := mandel.DefaultRenderConfig()
	cfg := &Config{
		Width:         rc.Dims.Width,
		Height:        rc.Dims.Height,
		StartingScale: rc.StartingScale,
		ScalingFactor: rc.ScalingFactor,
		Offset:        OffsetConfig{R: rc.Offset.R, I: rc.Offset.I},
		Display:       DisplayConfig{Listen: ":8080"},
	}
	if err := Validate(cfg); err != nil {
		panic(err)
	}
	return cfg
}

// Load reads and validates a YAML configuration file. Fields missing from the
// file keep their Default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates YAML configuration bytes.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RenderConfig converts the file settings to the immutable render parameters.
func (c *Config) RenderConfig() mandel.RenderConfig {
	return mandel.RenderConfig{
		Dims:          mandel.Dimensions{Width: c.Width, Height: c.Height},
		StartingScale: c.StartingScale,
		ScalingFactor: c.ScalingFactor,
		Offset:        mandel.Complex{R: c.Offset.R, I: c.Offset.I},
	}
}
