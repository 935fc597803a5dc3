// Author: momentics <momentics@gmail.com>

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "INKD_"
	// ConfigPathEnvVar overrides the config file search.
	ConfigPathEnvVar = "INKD_CONFIG"
)

// DefaultConfigPaths are searched in order when INKD_CONFIG is unset.
var DefaultConfigPaths = []string{
	"inkd.yaml",
	"inkd.yml",
	"/etc/inkd/inkd.yaml",
}

// Load builds the configuration from defaults, the first config file found
// and the environment, then validates it.
func Load() (*Config, error) {
	path, err := findConfigFile()
	if err != nil {
		return nil, err
	}
	return load(path)
}

func load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// envKey maps INKD_SERVER__LISTEN_ADDR to server.listen_addr. Keys without a
// section separator (INKD_CONFIG among them) are skipped.
func envKey(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	if !strings.Contains(key, "__") {
		return ""
	}
	return strings.ReplaceAll(key, "__", ".")
}

func findConfigFile() (string, error) {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("config file %s: %w", p, err)
		}
		return p, nil
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and the cross-field rules tags cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%s: failed %q constraint (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return err
	}
	if c.Device.Width%8 != 0 {
		return fmt.Errorf("Config.Device.Width: %d is not a multiple of 8", c.Device.Width)
	}
	if c.Calendar.Enabled && !strings.Contains(c.Calendar.URLTemplate, "{date}") {
		return fmt.Errorf("Config.Calendar.URLTemplate: missing {date} placeholder")
	}
	if c.Calendar.Enabled && c.Render.URL == "" {
		return fmt.Errorf("Config.Render.URL: required when the calendar is enabled")
	}
	return nil
}
