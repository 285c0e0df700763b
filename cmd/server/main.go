// Copyright Remmie Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpAdapter "github.com/mohamed-ali0/remmie/pkg/adapters/http"
	"github.com/mohamed-ali0/remmie/pkg/assistant"
	"github.com/mohamed-ali0/remmie/pkg/core/config"
	"github.com/mohamed-ali0/remmie/pkg/core/orchestrator"
	"github.com/mohamed-ali0/remmie/pkg/core/state"
	"github.com/mohamed-ali0/remmie/pkg/flights"
	"github.com/mohamed-ali0/remmie/pkg/observability/logging"
	"github.com/mohamed-ali0/remmie/pkg/storage/memory"
	"github.com/mohamed-ali0/remmie/pkg/storage/postgres"
	"github.com/mohamed-ali0/remmie/pkg/storage/sqlite"
	"github.com/mohamed-ali0/remmie/pkg/tools"
)

var (
	// Version is set via ldflags during build
	Version   = "dev"
	BuildTime = "unknown"
)

// applyFlagOverrides copies flag values the user set explicitly over the
// loaded config. Visiting set flags means -port wins even when it equals
// the flag default.
func applyFlagOverrides(fs *flag.FlagSet, cfg *config.Config, port int) {
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "port" {
			cfg.Server.Port = port
		}
	})
}

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	port := flag.Int("port", 8080, "HTTP port to listen on")
	version := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *version {
		fmt.Printf("Remmie Server\nVersion: %s\nBuild Time: %s\n", Version, BuildTime)
		os.Exit(0)
	}

	logger := logging.New(logging.Config{
		Level:  "info",
		Format: "json",
	})
	logger.Info("Starting Remmie server",
		"version", Version,
		"build_time", BuildTime)

	cfg, err := config.Load(*configPath)
	if err != nil {
		// If config file doesn't exist, use defaults
		logger.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}

	applyFlagOverrides(flag.CommandLine, cfg, *port)

	// Conversation store backend
	var store state.ConversationStore
	switch cfg.Store.Type {
	case "sqlite":
		sqliteStore, storeErr := sqlite.New(cfg.Store.Path)
		if storeErr != nil {
			logger.Error("Failed to initialize sqlite store", "error", storeErr)
			os.Exit(1)
		}
		defer sqliteStore.Close()
		store = sqliteStore
		logger.Info("Initialized sqlite conversation store", "path", cfg.Store.Path)
	case "postgres":
		pgStore, storeErr := postgres.New(cfg.Store.DSN)
		if storeErr != nil {
			logger.Error("Failed to initialize postgres store", "error", storeErr)
			os.Exit(1)
		}
		defer pgStore.Close()
		store = pgStore
		logger.Info("Initialized postgres conversation store")
	default:
		store = memory.New()
		logger.Info("Initialized in-memory conversation store")
	}

	// Remote execution engine client
	if cfg.Assistant.APIKey == "" {
		logger.Error("OpenAI API key is required (set OPENAI_API_KEY)")
		os.Exit(1)
	}
	engineClient := assistant.NewOpenAIClient(cfg.Assistant.APIKey, cfg.Assistant.BaseURL)
	logger.Info("Initialized assistant client")

	// Tool registry
	registry := tools.NewRegistry(logger)
	if cfg.Amadeus.ClientID != "" && cfg.Amadeus.ClientSecret != "" {
		flightsClient := flights.NewClient(cfg.Amadeus.ClientID, cfg.Amadeus.ClientSecret,
			flights.WithBaseURL(cfg.Amadeus.BaseURL))
		tools.RegisterFlightSearch(registry, flightsClient, store, logger)
		logger.Info("Registered flight search tool", "base_url", cfg.Amadeus.BaseURL)
	} else {
		logger.Warn("Amadeus credentials missing, flight search tool disabled")
	}

	// Orchestrator
	orch, err := orchestrator.New(&cfg.Assistant, engineClient, store, registry, logger)
	if err != nil {
		logger.Error("Failed to initialize orchestrator", "error", err)
		os.Exit(1)
	}
	logger.Info("Initialized orchestrator",
		"poll_interval", cfg.Assistant.PollInterval,
		"max_wait", cfg.Assistant.MaxWait)

	handler := httpAdapter.New(orch, store, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("Server stopped gracefully")
}
