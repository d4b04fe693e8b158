// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - New returns the defaults; Load layers an optional YAML file and
//     RADRATE_* environment variables on top.
//   - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/okian/radrate/internal/domain/ordering"
)

// AppName names the data directory under the XDG data home.
const AppName = "radrate"

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// StorageBackend is "sqlite" (durable) or "memory".
	StorageBackend string `koanf:"storage_backend"`

	// DataDir holds the SQLite database file.
	DataDir string `koanf:"data_dir"`

	// SQLiteWAL enables write-ahead logging on the database.
	SQLiteWAL bool `koanf:"sqlite_wal"`

	// ImagesBase is the URL prefix relative image paths resolve against.
	ImagesBase string `koanf:"images_base"`

	// ImagesDir, when set, is served under ImagesBase.
	ImagesDir string `koanf:"images_dir"`

	// PlaceholderImage is shown when an image path cannot be resolved.
	PlaceholderImage string `koanf:"placeholder_image"`

	// ShuffleMode is per_view (new model order on every view) or
	// per_session (stable order per user and image).
	ShuffleMode string `koanf:"shuffle_mode"`

	// MaxUploadBytes caps the size of an uploaded dataset CSV.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		StorageBackend:   BackendSQLite,
		DataDir:          DefaultDataDir(),
		SQLiteWAL:        true,
		ImagesBase:       "/images/",
		PlaceholderImage: "/placeholder-xray.png",
		ShuffleMode:      string(ordering.PerView),
		MaxUploadBytes:   32 << 20,
	}
}

// DefaultDataDir returns the XDG data directory for the service.
// On Linux: ~/.local/share/radrate
func DefaultDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// Validate checks the fields that would otherwise fail later at startup.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.StorageBackend {
	case BackendSQLite:
		if strings.TrimSpace(c.DataDir) == "" {
			return fmt.Errorf("%w: data_dir must not be empty for the sqlite backend", ErrInvalidConfig)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("%w: unknown storage_backend %q", ErrInvalidConfig, c.StorageBackend)
	}
	if _, err := ordering.ParseMode(c.ShuffleMode); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("%w: max_upload_bytes must be positive", ErrInvalidConfig)
	}
	return nil
}
