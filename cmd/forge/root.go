package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/hyperengineering/forge/internal/config"
	"github.com/hyperengineering/forge/internal/multistore"
	"github.com/hyperengineering/forge/internal/registry"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

var (
	jsonOutput         bool
	rootOverride       string
	modulesDirOverride string
)

var rootCmd = &cobra.Command{
	Use:   "forge",
	Short: "Forge - configurable conversational modules",
	Long:  "Serve, chat with, inspect and build rule-based conversational modules.",

	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&rootOverride, "root", "",
		"Store root path (overrides config and FORGE_STORES_ROOT)")
	rootCmd.PersistentFlags().StringVar(&modulesDirOverride, "modules-dir", "",
		"Module definitions directory (overrides config and FORGE_MODULES_DIR)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(moduleCmd)
	rootCmd.AddCommand(buildCmd)
}

// loadConfig loads configuration and applies the global path overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if rootOverride != "" {
		cfg.Stores.RootPath = rootOverride
	}
	if modulesDirOverride != "" {
		cfg.Modules.Dir = modulesDirOverride
	}
	return cfg, nil
}

// newLogger builds the process logger from the log section of the config.
func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// cliLogger logs to stderr and hides routine info records from
// interactive commands.
func cliLogger(cmd *cobra.Command, cfg config.LogConfig) *slog.Logger {
	level := parseLogLevel(cfg.Level)
	if level < slog.LevelWarn {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// workspace bundles what most commands need: config, stores and a
// refreshed registry.
type workspace struct {
	cfg      *config.Config
	stores   *multistore.StoreManager
	registry *registry.Registry
}

// openWorkspace loads config and discovers modules. Load errors of single
// definitions are reported on stderr and do not fail the command.
func openWorkspace(cmd *cobra.Command) (*workspace, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := cliLogger(cmd, cfg.Log)
	slog.SetDefault(logger)

	stores, err := multistore.NewStoreManager(cfg.Stores.RootPath)
	if err != nil {
		return nil, err
	}

	reg := registry.New(cfg.Modules.Dir, stores,
		registry.WithLogger(logger),
		registry.WithLanguage(cfg.Locale.Language),
	)
	if err := reg.Refresh(); err != nil {
		stores.Close()
		return nil, fmt.Errorf("discover modules: %w", err)
	}
	for _, e := range reg.LoadErrors() {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", e.Error())
	}

	return &workspace{cfg: cfg, stores: stores, registry: reg}, nil
}

func (w *workspace) Close() error {
	return w.registry.Close()
}
