package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg, err := load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.ListenAddr != "0.0.0.0:80" || cfg.Server.Backlog != 3 {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Server.PollTimeout != time.Second || !cfg.Server.Greeting {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Device.Width != 400 || cfg.Device.Height != 300 || cfg.Device.RestartDelay != 3*time.Second {
		t.Errorf("device = %+v", cfg.Device)
	}
	if cfg.Device.WifiFile != "wificonfig.json" || cfg.Device.ImageFile != "byte_array.bin" {
		t.Errorf("device files = %+v", cfg.Device)
	}
	if cfg.Calendar.Hour != 8 || cfg.Calendar.Enabled {
		t.Errorf("calendar = %+v", cfg.Calendar)
	}
}

func TestFileThenEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "inkd.yaml")
	yaml := "server:\n  listen_addr: 127.0.0.1:8080\n  backlog: 8\ndevice:\n  data_dir: /var/lib/inkd\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("INKD_SERVER__BACKLOG", "16")
	t.Setenv("INKD_SERVER__POLL_TIMEOUT", "250ms")

	cfg, err := load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.ListenAddr != "127.0.0.1:8080" {
		t.Errorf("listen_addr = %q", cfg.Server.ListenAddr)
	}
	if cfg.Server.Backlog != 16 {
		t.Errorf("backlog = %d, want env override", cfg.Server.Backlog)
	}
	if cfg.Server.PollTimeout != 250*time.Millisecond {
		t.Errorf("poll_timeout = %v", cfg.Server.PollTimeout)
	}
	if cfg.Device.DataDir != "/var/lib/inkd" {
		t.Errorf("data_dir = %q", cfg.Device.DataDir)
	}
}

func TestLoadUsesConfigEnvVar(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q", cfg.Logging.Level)
	}

	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad listen addr", func(c *Config) { c.Server.ListenAddr = "nope" }, "ListenAddr"},
		{"zero backlog", func(c *Config) { c.Server.Backlog = 0 }, "Backlog"},
		{"buffer bound below read size", func(c *Config) { c.Server.MaxBufferBytes = 10 }, "MaxBufferBytes"},
		{"width not byte aligned", func(c *Config) { c.Device.Width = 401 }, "Width"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "Level"},
		{"calendar without template", func(c *Config) { c.Calendar.Enabled = true }, "URLTemplate"},
		{"calendar without placeholder", func(c *Config) {
			c.Calendar.Enabled = true
			c.Calendar.URLTemplate = "http://cal.local/today"
			c.Render.URL = "http://render.local/"
		}, "{date}"},
		{"bad hour", func(c *Config) { c.Calendar.Hour = 24 }, "Hour"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("err = %v, want mention of %s", err, tc.want)
			}
		})
	}
	if err := defaultConfig().Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}
}

func TestEnvKey(t *testing.T) {
	if got := envKey("INKD_METRICS__LISTEN_ADDR"); got != "metrics.listen_addr" {
		t.Errorf("got %q", got)
	}
	if got := envKey("INKD_CONFIG"); got != "" {
		t.Errorf("INKD_CONFIG mapped to %q", got)
	}
}
