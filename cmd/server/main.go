// Command server hosts FairShare studio sessions over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/stwalsh4118/fairshare/internal/config"
	"github.com/stwalsh4118/fairshare/internal/db"
	"github.com/stwalsh4118/fairshare/internal/logger"
	"github.com/stwalsh4118/fairshare/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		logger.Log.Error().Err(err).Msg("Server exited with error")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to a config file (defaults to the search path)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Pretty)
	logger.Log.Info().
		Str("database", cfg.Database.Path).
		Str("catalog", cfg.Catalog.Path).
		Bool("catalog_watch", cfg.Catalog.Watch).
		Msg("FairShare studio starting")

	if dir := filepath.Dir(cfg.Database.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	database, err := db.Open(cfg.Database.Path, db.Options{
		EnableWAL:   cfg.Database.EnableWAL,
		PingTimeout: cfg.Database.ConnectionTimeout,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Log.Warn().Err(err).Msg("Failed to close database")
		}
	}()

	sqlDB, err := database.GetSQLDB()
	if err != nil {
		return err
	}
	if err := db.RunMigrations(sqlDB, cfg.Database.MigrationsPath); err != nil {
		return err
	}

	srv, err := server.New(cfg, database)
	if err != nil {
		return err
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case sig := <-quit:
		logger.Log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}
