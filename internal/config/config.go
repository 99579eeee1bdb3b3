// Package config loads pngmsg settings from an optional YAML file.
package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	pngerrors "github.com/FocuswithJustin/pngmsg/core/errors"
	"github.com/FocuswithJustin/pngmsg/internal/logging"
)

// EnvConfig names the environment variable holding the config file path.
const EnvConfig = "PNGMSG_CONFIG"

// Config holds all settings. Zero values are replaced by Default.
type Config struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	// StrictCRC rejects files whose chunk checksums do not match.
	StrictCRC bool           `yaml:"strict_crc"`
	Backup    BackupConfig   `yaml:"backup"`
	Catalog   CatalogConfig  `yaml:"catalog"`
	Download  DownloadConfig `yaml:"download"`
}

// BackupConfig controls backups taken before a file is rewritten in place.
type BackupConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// CatalogConfig locates the SQLite catalog.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// DownloadConfig configures manage download.
type DownloadConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	MaxBytes  int64         `yaml:"max_bytes"`
	UserAgent string        `yaml:"user_agent"`
}

// Default returns the built-in settings. Data lives under ~/.pngmsg.
func Default() *Config {
	base := ".pngmsg"
	if home, err := os.UserHomeDir(); err == nil {
		base = filepath.Join(home, ".pngmsg")
	}
	return &Config{
		LogLevel:  "warn",
		LogFormat: "text",
		Backup: BackupConfig{
			Enabled: true,
			Dir:     filepath.Join(base, "backups"),
		},
		Catalog: CatalogConfig{
			Path: filepath.Join(base, "catalog.db"),
		},
		Download: DownloadConfig{
			Timeout:   60 * time.Second,
			MaxBytes:  256 << 20,
			UserAgent: "pngmsg/1.0",
		},
	}
}

// Load reads the YAML file at path over the defaults. An empty path falls
// back to $PNGMSG_CONFIG; when neither is set the defaults are returned.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pngerrors.NewIO("read config", path, err)
	}
	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		var perr *pngerrors.ParseError
		if errors.As(err, &perr) {
			perr.Path = path
		}
		return nil, err
	}
	logging.Debug("config loaded", "path", path)
	return cfg, nil
}

// Parse decodes YAML from r over the defaults and validates the result.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, pngerrors.NewParse("config", "", err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return &pngerrors.ValidationError{Field: "log_level", Value: c.LogLevel, Message: err.Error()}
	}
	if _, err := logging.ParseFormat(c.LogFormat); err != nil {
		return &pngerrors.ValidationError{Field: "log_format", Value: c.LogFormat, Message: err.Error()}
	}
	if c.Backup.Enabled && c.Backup.Dir == "" {
		return pngerrors.NewValidation("backup.dir", "must be set when backups are enabled")
	}
	if c.Catalog.Path == "" {
		return pngerrors.NewValidation("catalog.path", "must not be empty")
	}
	if c.Download.Timeout <= 0 {
		return pngerrors.NewValidation("download.timeout", "must be positive")
	}
	if c.Download.MaxBytes <= 0 {
		return pngerrors.NewValidation("download.max_bytes", "must be positive")
	}
	return nil
}
