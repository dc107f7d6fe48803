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

	"github.com/joho/godotenv"

	"solarsight/internal/catalog"
	"solarsight/internal/config"
	"solarsight/internal/dashboard"
	"solarsight/internal/fetchers"
	"solarsight/internal/logger"
	"solarsight/internal/mocks"
	"solarsight/internal/server"
)

const (
	shutdownTimeout = 30 * time.Second
	sweepInterval   = time.Minute
)

func main() {
	if err := run(); err != nil {
		logger.Fatal("SolarSight stopped", err)
	}
}

func run() error {
	// A missing .env file is fine
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("failed to load .env file", map[string]interface{}{"error": err.Error()})
	}

	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	setupLogger(cfg)
	log := logger.Component("main")

	cat, err := catalog.Load(cfg.LocationsFile)
	if err != nil {
		return err
	}
	if !cat.Contains(cfg.DefaultLocation) {
		return fmt.Errorf("default location %q: %w", cfg.DefaultLocation, catalog.ErrUnknownLocation)
	}

	var source dashboard.Source
	if cfg.MockupMode {
		source = mocks.NewMockService(cfg.MockupDir)
		log.Info("mockup mode enabled", map[string]interface{}{"mocks_dir": cfg.MockupDir})
	} else {
		source = fetchers.NewPredictionFetcher(cfg.APIURL, cfg.RequestTimeout)
	}

	sessions := dashboard.NewRegistry(func() (*dashboard.Controller, error) {
		return dashboard.NewController(dashboard.Options{
			Source:          source,
			Catalog:         cat,
			LocationID:      cfg.DefaultLocation,
			Horizon:         cfg.DefaultHorizon,
			RefreshInterval: cfg.RefreshInterval,
		})
	}, dashboard.RegistryOptions{
		IdleTTL:     cfg.SessionIdleTTL,
		MaxSessions: cfg.MaxSessions,
	})

	srv, err := server.NewServer(cfg, cat, sessions)
	if err != nil {
		return err
	}
	defer srv.Close()

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go sessions.Run(sweepCtx, sweepInterval)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("starting SolarSight", map[string]interface{}{
		"port":        cfg.Port,
		"environment": cfg.Environment,
		"version":     srv.Version,
		"api_url":     cfg.APIURL,
		"mockup":      cfg.MockupMode,
		"locations":   cat.Len(),
	})

	serveErr := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	case sig := <-sigChan:
		log.Info("shutting down", map[string]interface{}{"signal": sig.String()})
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}

func setupLogger(cfg *config.Config) {
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Warn("unknown LOG_LEVEL, using info", map[string]interface{}{"value": cfg.LogLevel})
	}
	format, err := logger.ParseFormat(cfg.LogFormat)
	if err != nil {
		logger.Warn("unknown LOG_FORMAT, using json", map[string]interface{}{"value": cfg.LogFormat})
	}
	logger.SetGlobalLogger(logger.New(logger.Config{
		Level:  level,
		Format: format,
		Output: os.Stdout,
	}))
}
