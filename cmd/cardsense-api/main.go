package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/cardsense-ai/cardsense/internal/answer"
	"github.com/cardsense-ai/cardsense/internal/audit"
	"github.com/cardsense-ai/cardsense/internal/cache"
	"github.com/cardsense-ai/cardsense/internal/catalog"
	"github.com/cardsense-ai/cardsense/internal/config"
	"github.com/cardsense-ai/cardsense/internal/generate"
	"github.com/cardsense-ai/cardsense/internal/observability"
	"github.com/cardsense-ai/cardsense/internal/prompt"
	"github.com/cardsense-ai/cardsense/internal/query"
	"github.com/cardsense-ai/cardsense/internal/retrieval"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if len(os.Args) > 2 && os.Args[1] == "--config" {
		cfgPath = os.Args[2]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})

	logger.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("catalog", cfg.Catalog.Path).
		Str("model", cfg.Generation.Model).
		Msg("Starting CardSense API")

	catalogStore, err := catalog.NewStore(cfg.Catalog.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load card catalog")
	}

	var cacheClient cache.Client
	if cfg.Retrieval.CacheResults {
		switch cfg.Cache.Driver {
		case "redis":
			cacheClient, err = cache.NewRedisClient(cache.RedisOptions{
				Addr:     cfg.Cache.Redis.Addr,
				Password: cfg.Cache.Redis.Password,
				DB:       cfg.Cache.Redis.DB,
				PoolSize: cfg.Cache.Redis.PoolSize,
			})
			if err != nil {
				logger.Fatal().Err(err).Msg("Failed to connect to Redis")
			}
		default:
			cacheClient = cache.NewMemoryClient(cfg.Cache.MaxEntries)
		}
		defer cacheClient.Close()
	}

	var auditStore *audit.Store
	if cfg.Audit.Enabled {
		dsn := cfg.Audit.SQLite.Path
		if cfg.Audit.Driver == "postgres" {
			dsn = cfg.Audit.Postgres.DSN
		}
		auditStore, err = audit.Open(cfg.Audit.Driver, dsn)
		if err != nil {
			// The pipeline works without auditing; log and continue.
			logger.Warn().Err(err).Msg("Audit store unavailable, continuing without it")
			auditStore = nil
		} else {
			defer auditStore.Close()
		}
	}

	searchClient := retrieval.NewHTTPSearchClient(cfg.Search.BaseURL, cfg.Search.APIKey, cfg.Search.Timeout)
	orchestrator := retrieval.NewOrchestrator(searchClient, cacheClient, logger.WithComponent("retrieval"), cfg.Retrieval.TopK, cfg.Cache.TTL)

	generator := generate.NewClient(generate.Config{
		BaseURL:     cfg.Generation.BaseURL,
		APIKey:      cfg.Generation.APIKey,
		Model:       cfg.Generation.Model,
		MaxTokens:   cfg.Generation.MaxTokens,
		Temperature: cfg.Generation.Temperature,
		Timeout:     cfg.Generation.Timeout,
	})

	enhancer := query.NewEnhancer(query.EnhancerConfig{
		MaxQueryChars: cfg.Retrieval.MaxQueryChars,
		TopK:          cfg.Retrieval.TopK,
	})
	builder := prompt.NewBuilder(cfg.Retrieval.SnippetCharBudget)

	service := answer.NewService(catalogStore, enhancer, orchestrator, builder, generator, auditStore, logger)

	router := NewRouter(logger, cfg, catalogStore, service, cacheClient)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("HTTP server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error().Err(err).Msg("Server error")
	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
		if err := srv.Close(); err != nil {
			logger.Error().Err(err).Msg("Forced shutdown failed")
		}
	}

	logger.Info().Msg("Server stopped")
}
