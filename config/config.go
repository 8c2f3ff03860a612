// Package config loads the YAML configuration of the device and its streams.
package config

import (
	"fmt"
	"net/netip"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel       string        `yaml:"log_level"`
	SyncDepthColor bool          `yaml:"sync_depth_color"`
	CloseTimeout   time.Duration `yaml:"close_timeout"`
	PollInterval   time.Duration `yaml:"poll_interval"`

	Color     StreamConfig `yaml:"color"`
	Depth     RangeConfig  `yaml:"depth"`
	Infrared  RangeConfig  `yaml:"infrared"`
	BodyIndex StreamConfig `yaml:"body_index"`
	Body      StreamConfig `yaml:"body"`

	Publish PublishConfig `yaml:"publish"`
}

type StreamConfig struct {
	Enabled bool `yaml:"enabled"`
	FPS     int  `yaml:"fps"` // 0 reads as fast as frames arrive
	Mirror  bool `yaml:"mirror"`
}

// RangeConfig configures a stream remapped into the 16-bit display range.
type RangeConfig struct {
	StreamConfig `yaml:",inline"`

	Near      int  `yaml:"near"`
	Far       int  `yaml:"far"`
	Invert    bool `yaml:"invert"`
	AutoRange bool `yaml:"auto_range"` // depth only
}

// PublishConfig configures the multicast depth mask.
type PublishConfig struct {
	Address   string `yaml:"address"`
	Threshold uint16 `yaml:"threshold"` // millimeters
}

func Default() *Config {
	return &Config{
		LogLevel:     "info",
		CloseTimeout: 2 * time.Second,
		PollInterval: 5 * time.Millisecond,
		Color:        StreamConfig{Enabled: true, FPS: 30},
		Depth: RangeConfig{
			StreamConfig: StreamConfig{Enabled: true, FPS: 30},
			Far:          10000,
		},
		Infrared: RangeConfig{
			StreamConfig: StreamConfig{FPS: 30},
			Far:          65535,
		},
		BodyIndex: StreamConfig{FPS: 30},
		Body:      StreamConfig{FPS: 30},
		Publish: PublishConfig{
			Address:   "224.76.78.75:20810",
			Threshold: 2000,
		},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("could not parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var err error

	if _, perr := logrus.ParseLevel(c.LogLevel); perr != nil {
		err = multierr.Append(err, perr)
	}
	if c.CloseTimeout <= 0 {
		err = multierr.Append(err, fmt.Errorf("close_timeout must be positive, got %s", c.CloseTimeout))
	}
	if c.PollInterval < 0 {
		err = multierr.Append(err, fmt.Errorf("poll_interval must not be negative, got %s", c.PollInterval))
	}

	streams := []struct {
		name string
		cfg  StreamConfig
	}{
		{"color", c.Color},
		{"depth", c.Depth.StreamConfig},
		{"infrared", c.Infrared.StreamConfig},
		{"body_index", c.BodyIndex},
		{"body", c.Body},
	}
	for _, s := range streams {
		if s.cfg.FPS < 0 {
			err = multierr.Append(err, fmt.Errorf("%s: fps must not be negative, got %d", s.name, s.cfg.FPS))
		}
	}

	if c.Publish.Address != "" {
		if _, perr := netip.ParseAddrPort(c.Publish.Address); perr != nil {
			err = multierr.Append(err, fmt.Errorf("publish: %w", perr))
		}
	}

	return err
}

// Level is the parsed log level. Call Validate first.
func (c *Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
