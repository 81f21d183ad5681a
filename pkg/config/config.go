// Package config loads CertPress settings from a TOML file.
//
// The file lives at ~/.config/certpress/config.toml (or under
// $XDG_CONFIG_HOME) and provides defaults for the overlay, the output
// location, and the server. A missing file is not an error; every field
// has a built-in default and CLI flags override the file.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/mkoeppel/certpress/pkg/errors"
	"github.com/mkoeppel/certpress/pkg/pipeline"
)

// appName is the application name used for config directories.
const appName = "certpress"

// Config is the full application configuration.
type Config struct {
	Render RenderConfig `toml:"render"`
	Output OutputConfig `toml:"output"`
	Server ServerConfig `toml:"server"`
}

// RenderConfig carries overlay defaults.
type RenderConfig struct {
	FontSize float64 `toml:"font_size"`
	Color    string  `toml:"color"`
	Font     string  `toml:"font"`
}

// OutputConfig controls where artifacts land.
type OutputConfig struct {
	Dir string `toml:"dir"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Listen    string   `toml:"listen"`
	Store     string   `toml:"store"` // memory, file, redis
	StoreDir  string   `toml:"store_dir"`
	RedisAddr string   `toml:"redis_addr"`
	AssetTTL  duration `toml:"asset_ttl"`
}

// duration lets TTLs be written as "30m" in the TOML file.
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Render: RenderConfig{
			FontSize: pipeline.DefaultFontSize,
			Color:    pipeline.DefaultColor,
		},
		Output: OutputConfig{Dir: "."},
		Server: ServerConfig{
			Listen:   ":8484",
			Store:    "memory",
			AssetTTL: duration{time.Hour},
		},
	}
}

// Load reads the config file at path, or the default location when path
// is empty. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		dir, err := configDir()
		if err != nil {
			return cfg, nil
		}
		path = filepath.Join(dir, "config.toml")
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config %s", path)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", path)
	}
	return cfg, nil
}

// AssetTTL returns the configured template TTL.
func (c Config) AssetTTL() time.Duration {
	return c.Server.AssetTTL.Duration
}

// configDir returns the config directory using the XDG standard
// (~/.config/certpress/).
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}
