// File: internal/config/config.go
// Package config
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Daemon configuration, layered as built-in defaults, then an optional YAML
// file, then INKD_* environment variables.

package config

import (
	"time"

	"github.com/momentics/inkwire/internal/logging"
)

// Config is the complete daemon configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Device   DeviceConfig   `koanf:"device"`
	Render   RenderConfig   `koanf:"render"`
	Calendar CalendarConfig `koanf:"calendar"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig drives the connection multiplexer.
type ServerConfig struct {
	ListenAddr          string        `koanf:"listen_addr" validate:"required,hostname_port"`
	Backlog             int           `koanf:"backlog" validate:"min=1"`
	PollTimeout         time.Duration `koanf:"poll_timeout" validate:"gt=0"`
	ReadBufferSize      int           `koanf:"read_buffer_size" validate:"min=64"`
	MaxBufferBytes      int           `koanf:"max_buffer_bytes" validate:"gtefield=ReadBufferSize"`
	MaintenanceInterval time.Duration `koanf:"maintenance_interval" validate:"gt=0"`
	ReclaimMemory       bool          `koanf:"reclaim_memory"`
	Greeting            bool          `koanf:"greeting"`
}

// DeviceConfig locates the device's files and describes its panel.
type DeviceConfig struct {
	DataDir      string        `koanf:"data_dir" validate:"required"`
	PageFile     string        `koanf:"page_file" validate:"required"`
	ImageFile    string        `koanf:"image_file" validate:"required"`
	WifiFile     string        `koanf:"wifi_file" validate:"required"`
	FrameFile    string        `koanf:"frame_file" validate:"required"`
	Interface    string        `koanf:"interface"`
	RestartDelay time.Duration `koanf:"restart_delay" validate:"gte=0"`
	Width        int           `koanf:"width" validate:"min=8"`
	Height       int           `koanf:"height" validate:"min=1"`
}

// RenderConfig points at the remote text-to-bitmap service.
type RenderConfig struct {
	URL     string        `koanf:"url" validate:"omitempty,url"`
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
}

// CalendarConfig controls the daily calendar refresh.
type CalendarConfig struct {
	Enabled       bool          `koanf:"enabled"`
	URLTemplate   string        `koanf:"url_template" validate:"required_if=Enabled true"`
	Hour          int           `koanf:"hour" validate:"min=0,max=23"`
	CheckInterval time.Duration `koanf:"check_interval" validate:"gt=0"`
}

// MetricsConfig enables the Prometheus endpoint when ListenAddr is set.
type MetricsConfig struct {
	ListenAddr string `koanf:"listen_addr" validate:"omitempty,hostname_port"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn warning error fatal panic disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// LoggingConfig converts to the logging package's configuration.
func (c LoggingConfig) ToLogging() logging.Config {
	lc := logging.DefaultConfig()
	lc.Level = c.Level
	lc.Format = c.Format
	lc.Caller = c.Caller
	return lc
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:          "0.0.0.0:80",
			Backlog:             3,
			PollTimeout:         time.Second,
			ReadBufferSize:      1024,
			MaxBufferBytes:      256 << 10,
			MaintenanceInterval: 5 * time.Second,
			ReclaimMemory:       false,
			Greeting:            true,
		},
		Device: DeviceConfig{
			DataDir:      ".",
			PageFile:     "ink_web_index.html",
			ImageFile:    "byte_array.bin",
			WifiFile:     "wificonfig.json",
			FrameFile:    "frame.bin",
			RestartDelay: 3 * time.Second,
			Width:        400,
			Height:       300,
		},
		Render: RenderConfig{
			Timeout: 10 * time.Second,
		},
		Calendar: CalendarConfig{
			Hour:          8,
			CheckInterval: 10 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
