package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/urfave/negroni"

	"docfields/chunker"
	"docfields/config"
	"docfields/extraction"
	"docfields/logging"
	"docfields/pipeline"
	"docfields/prompt"
	"docfields/server"
	"docfields/services/llm_service"
	"docfields/session"
)

func main() {
	cfg := config.Load()

	logger, err := initLogger(cfg.LogDir)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	store, err := initStore(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to initialize session store: %v", err)
	}

	orchestrator := pipeline.NewOrchestrator(
		extraction.NewExtractor(logger, extraction.Options{
			MinTextLength: cfg.MinTextLength,
			OCRDPI:        cfg.OCRDPI,
		}),
		chunker.New(chunker.Options{
			ChunkSize:          cfg.ChunkSize,
			ChunkOverlap:       cfg.ChunkOverlap,
			MinChunkLength:     cfg.MinChunkLength,
			MaxUnderscoreRatio: cfg.MaxUnderscoreRatio,
			MaxPeriodRatio:     cfg.MaxPeriodRatio,
		}),
		prompt.NewBuilder(cfg.MaxDocumentChars),
		llm_service.NewOpenRouterService(logger, llm_service.Options{
			APIURL:      cfg.OpenRouterAPIURL,
			APIKey:      cfg.OpenRouterAPIKey,
			Model:       cfg.OpenRouterModel,
			Temperature: cfg.LLMTemperature,
			Timeout:     cfg.LLMTimeout,
		}),
		logger,
		cfg.TextSampleLength,
	)

	r := server.SetupRoutes(cfg, store, orchestrator, logger)
	n := setupNegroni(r)

	if cfg.Environment == "production" {
		server.ServeProduction(n, cfg.Domains, cfg.CertCacheDir)
	} else {
		srv := &http.Server{
			Addr:         ":" + cfg.HTTPPort,
			Handler:      n,
			IdleTimeout:  time.Minute,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 30 * time.Second,
		}
		logger.Info("Starting server",
			slog.String("addr", srv.Addr),
			slog.String("environment", cfg.Environment))
		server.ServeDevelopment(srv)
	}
}

func setupNegroni(r *mux.Router) *negroni.Negroni {
	n := negroni.New()

	n.Use(negroni.NewRecovery())
	n.Use(negroni.NewLogger())

	n.UseHandler(r)
	return n
}

func initStore(cfg config.Config, logger *slog.Logger) (session.Store, error) {
	if cfg.SessionBackend == "redis" {
		return session.NewRedisStore(context.Background(), session.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	}

	store := session.NewMemoryStore(logger)
	store.StartCleanup(time.Hour)
	return store, nil
}

func initLogger(logDir string) (*slog.Logger, error) {
	fileHandler, err := logging.NewDailyFileHandler(logDir, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	if err != nil {
		return nil, err
	}

	return slog.New(fileHandler), nil
}
