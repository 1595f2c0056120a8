package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hyperengineering/forge/internal/api"
	"github.com/hyperengineering/forge/internal/builder"
	"github.com/hyperengineering/forge/internal/config"
	"github.com/hyperengineering/forge/internal/multistore"
	"github.com/hyperengineering/forge/internal/registry"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := newLogger(os.Stdout, cfg.Log)
	slog.SetDefault(logger)
	slog.Info("configuration loaded", "level", cfg.Log.Level, "format", cfg.Log.Format)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return serve(ctx, cfg, ln)
}

// serve runs the API on ln until ctx is cancelled, then drains in-flight
// requests, stops background workers and closes every module store.
func serve(ctx context.Context, cfg *config.Config, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stores, err := multistore.NewStoreManager(cfg.Stores.RootPath)
	if err != nil {
		ln.Close()
		return err
	}
	slog.Info("stores initialized", "path", stores.RootPath())

	reg := registry.New(cfg.Modules.Dir, stores,
		registry.WithLogger(slog.Default()),
		registry.WithLanguage(cfg.Locale.Language),
	)
	if err := reg.Refresh(); err != nil {
		ln.Close()
		stores.Close()
		return fmt.Errorf("discover modules: %w", err)
	}
	slog.Info("registry initialized",
		"modules_dir", reg.ModulesDir(),
		"modules", len(reg.Available()),
		"load_errors", len(reg.LoadErrors()),
	)

	handler := api.NewHandler(reg, builder.New(), cfg.Auth.APIKey, Version)
	router := api.NewRouter(handler)
	if cfg.Auth.APIKey == "" {
		slog.Warn("no API key configured, module endpoints are unauthenticated")
	}
	slog.Info("router initialized")

	srv := &http.Server{
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout),
	}

	var wg sync.WaitGroup
	if cfg.Modules.Watch {
		startWorker(ctx, &wg, "modules-watch", func(ctx context.Context) {
			if err := reg.Watch(ctx); err != nil {
				slog.Error("modules watch failed", "error", err)
			}
		})
	}

	go func() {
		slog.Info("server starting", "address", ln.Addr().String())
		// ErrServerClosed is the expected error when Shutdown() is called.
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown initiated")

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout))
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	wg.Wait()

	if err := reg.Close(); err != nil {
		slog.Error("store close error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// startWorker launches a background worker goroutine that respects context cancellation.
// Workers are tracked via WaitGroup for graceful shutdown.
func startWorker(ctx context.Context, wg *sync.WaitGroup, name string, fn func(ctx context.Context)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Info("worker started", "worker", name)
		fn(ctx)
		slog.Info("worker stopped", "worker", name)
	}()
}
