package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/radrate/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.StorageBackend, convey.ShouldEqual, "sqlite")
				convey.So(cfg.SQLiteWAL, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("RADRATE_ADDR", ":8080")
			_ = os.Setenv("RADRATE_STORAGE_BACKEND", "memory")
			_ = os.Setenv("RADRATE_SHUFFLE_MODE", "per_session")
			_ = os.Setenv("RADRATE_MAX_UPLOAD_BYTES", "1024")
			_ = os.Setenv("RADRATE_SQLITE_WAL", "false")
			_ = os.Setenv("RADRATE_IMAGES_DIR", "/srv/xrays")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.StorageBackend, convey.ShouldEqual, "memory")
				convey.So(cfg.ShuffleMode, convey.ShouldEqual, "per_session")
				convey.So(cfg.MaxUploadBytes, convey.ShouldEqual, 1024)
				convey.So(cfg.SQLiteWAL, convey.ShouldBeFalse)
				convey.So(cfg.ImagesDir, convey.ShouldEqual, "/srv/xrays")
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile(`
# file layer
addr: ":9090"
log_format: json
images_base: "https://cdn.example.org/xrays/"
data_dir: /var/lib/radrate
`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("RADRATE_CONFIG", tmpFile)
			_ = os.Setenv("RADRATE_ADDR", ":7070")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.ImagesBase, convey.ShouldEqual, "https://cdn.example.org/xrays/")
				convey.So(cfg.DataDir, convey.ShouldEqual, "/var/lib/radrate")
				convey.So(cfg.PlaceholderImage, convey.ShouldEqual, "/placeholder-xray.png")
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("RADRATE_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("RADRATE_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("RADRATE_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an invalid numeric value", func() {
			_ = os.Setenv("RADRATE_MAX_UPLOAD_BYTES", "lots")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"RADRATE_CONFIG",
		"RADRATE_ADDR",
		"RADRATE_STORAGE_BACKEND",
		"RADRATE_SHUFFLE_MODE",
		"RADRATE_IMAGES_DIR",
		"RADRATE_MAX_UPLOAD_BYTES",
		"RADRATE_SQLITE_WAL",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "radrate-config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	if err := tmpFile.Close(); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}
