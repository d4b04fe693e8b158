package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/okian/radrate/internal/adapters/http/api"
	"github.com/okian/radrate/internal/adapters/http/site"
	"github.com/okian/radrate/internal/adapters/http/swagger"
	app "github.com/okian/radrate/internal/app"
	"github.com/okian/radrate/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout            = 30 * time.Second
	writeTimeout           = 30 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 15 * time.Second
)

// onListen is called with the bound address once the server accepts connections.
var onListen = func(net.Addr) {}

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		Long: `Serve the rating API, the API reference at /api-docs and Prometheus
metrics at /healthz. Stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer rt.close()

	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	if err := site.Register(ctx, mux,
		site.WithImagesDir(rt.cfg.ImagesDir),
		site.WithImagesBase(rt.cfg.ImagesBase),
		site.WithPlaceholder(rt.cfg.PlaceholderImage),
		site.WithLogger(rt.log.Named("site")),
	); err != nil {
		return err
	}
	api.NewServer(rt.svc,
		api.WithMaxUploadBytes(rt.cfg.MaxUploadBytes),
		api.WithLogger(rt.log.Named("api")),
	).Register(ctx, mux)

	srv := &http.Server{
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	ln, err := net.Listen("tcp", rt.cfg.Addr)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rt.log.Info(gctx, "starting HTTP server", logger.String("addr", ln.Addr().String()))
		onListen(ln.Addr())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		rt.log.Info(context.Background(), "shutting down server...")

		// Graceful shutdown with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		startServiceMetricsUpdater(gctx, rt.svc)
		return nil
	})

	if err := g.Wait(); err != nil {
		rt.log.Error(context.Background(), "server stopped with error", logger.Error(err))
		return err
	}
	rt.log.Info(context.Background(), "server stopped")
	return nil
}

// startServiceMetricsUpdater refreshes the rater gauges until ctx ends.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = svc.GetStats()
		}
	}
}
