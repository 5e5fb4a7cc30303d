/*
main.go - Application entry point

PURPOSE:
  The stride command. Serves the read API and offers a few maintenance
  commands over the same SQLite database.

COMMANDS:
  serve    Start the HTTP server (graceful shutdown on SIGINT/SIGTERM)
  import   Replace a user's data with a snapshot file (JSON or YAML)
  export   Write a user's snapshot as JSON to stdout
  stats    Print today's habits and agenda for a user
  share    Create an accountability share code

CONFIGURATION:
  Settings come from $XDG_CONFIG_HOME/stride/config.toml (or --config).
  Flags given on the command line win over the file.

  --db     SQLite database path. Use ":memory:" for an in-memory database
  --port   HTTP server port (serve only)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database and cache connections

EXAMPLES:
  stride serve --db ./data/stride.db --port 3000
  stride import export.json --user u1
  stride stats --user u1 --date 2025-01-17

SEE ALSO:
  - commands.go: import/export/stats/share
  - api/server.go: Router configuration
  - config/toml.go: Config file format
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stride/habit-engine/api"
	"github.com/stride/habit-engine/cache"
	"github.com/stride/habit-engine/config"
	"github.com/stride/habit-engine/logger"
	"github.com/stride/habit-engine/store/sqlite"
)

var (
	configPath string
	dbPath     string
	servePort  int
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "stride",
		Short:        "Habit tracking and day planning engine",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath(), "config file path")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", config.DefaultDBPath(), "SQLite database path")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newShareCmd())

	return rootCmd
}

// loadConfig reads the config file and lets explicit flags override it.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringFlag(cmd, "db", &cfg.DBPath, dbPath)
	applyIntFlag(cmd, "port", &cfg.Port, servePort)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func openStore(cfg config.Config) (*sqlite.Store, error) {
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return store, nil
}

// =============================================================================
// SERVE
// =============================================================================

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().IntVar(&servePort, "port", 8080, "HTTP server port")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Development: cfg.LogDevelopment})
	if err != nil {
		return err
	}
	defer log.Sync()

	// Initialize store
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	// Initialize cache
	respCache, closeCache, err := newCache(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	// Initialize handler
	handler := api.NewHandler(store,
		api.WithCache(respCache, cfg.CacheTTL),
		api.WithLogger(log),
	)
	router := api.NewRouter(handler, api.RouterOptions{AllowedOrigins: cfg.AllowedOrigins})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting",
			zap.Int("port", cfg.Port),
			zap.String("db", cfg.DBPath),
			zap.String("cache", cfg.CacheBackend),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for interrupt signal or a listener failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err, ok := <-errCh:
		if ok {
			log.Error("server failed", zap.Error(err))
			return err
		}
	}

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
		return err
	}

	log.Info("server stopped")
	return nil
}

// newCache builds the response cache for cfg.CacheBackend. The returned
// func releases any connection it opened.
func newCache(ctx context.Context, cfg config.Config) (cache.Cache, func(), error) {
	switch cfg.CacheBackend {
	case config.CacheRedis:
		client := cache.NewRedisClient(cache.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		rc := cache.NewRedis(client)
		if err := rc.Ping(ctx); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		return rc, func() { client.Close() }, nil
	case config.CacheMemory:
		return cache.NewMemory(), func() {}, nil
	default:
		return cache.Nop{}, func() {}, nil
	}
}

// =============================================================================
// FLAG OVERRIDES
// =============================================================================

func applyStringFlag(cmd *cobra.Command, name string, target *string, value string) {
	if f := cmd.Flags().Lookup(name); f == nil || !f.Changed {
		return
	}
	*target = value
}

func applyIntFlag(cmd *cobra.Command, name string, target *int, value int) {
	if f := cmd.Flags().Lookup(name); f == nil || !f.Changed {
		return
	}
	*target = value
}
