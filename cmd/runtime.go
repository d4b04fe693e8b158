package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	repository "github.com/okian/radrate/internal/adapters/repository"
	app "github.com/okian/radrate/internal/app"
	"github.com/okian/radrate/internal/config"
	"github.com/okian/radrate/internal/domain/ordering"
	"github.com/okian/radrate/pkg/logger"
)

// appRuntime bundles what every subcommand needs.
type appRuntime struct {
	cfg *config.Config
	log logger.Logger
	svc *app.Service
}

// setup loads configuration, initializes logging and starts the service on
// the configured store. Callers must call close.
func setup(ctx context.Context, cmd *cobra.Command) (*appRuntime, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}

	if err := logger.InitWith(cmd.ErrOrStderr(), cfg.LogFormat); err != nil {
		return nil, fmt.Errorf("initialize logging: %w", err)
	}
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	mode, _ := ordering.ParseMode(cfg.ShuffleMode)
	svc := app.New(
		app.WithLogger(log.Named("service")),
		app.WithStore(store),
		app.WithShuffleMode(mode),
		app.WithImagesBase(cfg.ImagesBase),
		app.WithPlaceholderImage(cfg.PlaceholderImage),
	)
	if err := svc.Start(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("start service: %w", err)
	}

	return &appRuntime{cfg: cfg, log: log, svc: svc}, nil
}

func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (*repository.KVStore, error) {
	storeLog := repository.WithLogger(log.Named("store"))
	if cfg.StorageBackend == config.BackendMemory {
		log.Info(ctx, "using in-memory store; ratings are lost on exit")
		return repository.NewKVStore(repository.NewMemoryKV(), storeLog), nil
	}

	kv, err := repository.OpenSQLite(ctx, cfg.DataDir, repository.SQLiteOptions{
		CreateIfNotExists: true,
		EnableWAL:         cfg.SQLiteWAL,
	})
	if err != nil {
		return nil, err
	}
	log.Info(ctx, "using sqlite store", logger.String("path", kv.Path()))
	return repository.NewKVStore(kv, storeLog), nil
}

func (r *appRuntime) close() {
	r.svc.Stop()
	_ = logger.Sync()
}
