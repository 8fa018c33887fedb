package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/urfave/negroni"
	"go.uber.org/zap"

	"github.com/smoreau/docforge/config"
	"github.com/smoreau/docforge/extraction"
	"github.com/smoreau/docforge/job"
	"github.com/smoreau/docforge/jobstore"
	"github.com/smoreau/docforge/llm_service"
	"github.com/smoreau/docforge/logging"
	"github.com/smoreau/docforge/objectstore"
	"github.com/smoreau/docforge/ocr"
	"github.com/smoreau/docforge/server"
	"github.com/smoreau/docforge/variant"
)

func main() {
	cfg := config.Load()

	handler, err := logging.NewDailyFileHandler(cfg.LogDir, &slog.HandlerOptions{Level: slog.LevelDebug})
	if err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	logger := slog.New(handler)

	store, err := buildJobStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize job store: %v", err)
	}

	objects, err := objectstore.NewFSStore(cfg.StorageDir)
	if err != nil {
		log.Fatalf("Failed to initialize object store: %v", err)
	}

	var engine extraction.OcrEngine
	if cfg.OCREnabled {
		engine = ocr.NewTesseractEngine(logger)
	}
	coordinator := extraction.NewCoordinator(logger, engine)

	variants := buildVariantGenerator(cfg, logger)

	tracker := job.NewTracker(store, objects, coordinator, variants, logger)

	r := server.SetupRoutes(cfg, tracker, objects, logger)
	n := negroni.New()
	n.Use(negroni.NewRecovery())
	n.Use(negroni.NewLogger())
	n.UseHandler(r)

	if cfg.Environment == "production" {
		server.ServeProduction(n, cfg)
	} else {
		srv := &http.Server{
			Addr:         ":" + cfg.HTTPPort,
			Handler:      n,
			IdleTimeout:  time.Minute,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
		}
		server.ServeDevelopment(srv)
	}
}

func buildJobStore(cfg config.Config) (job.Store, error) {
	if cfg.DatabaseURL != "" {
		return jobstore.OpenPostgres(context.Background(), cfg.DatabaseURL)
	}
	return jobstore.OpenSQLite(cfg.SQLitePath)
}

func buildVariantGenerator(cfg config.Config, logger *slog.Logger) *variant.Generator {
	var llm llm_service.LLMService
	var llmConfig map[string]interface{}

	if cfg.OpenAIAPIKey != "" {
		zapLogger, _ := zap.NewProduction()
		llm = llm_service.NewOpenAIService(zapLogger)
		llmConfig = map[string]interface{}{
			"api_url":    cfg.OpenAIAPIURL,
			"api_key":    cfg.OpenAIAPIKey,
			"model_name": cfg.OpenAIModel,
		}
	}

	return variant.NewGenerator(llm, llmConfig, time.Now().UnixNano(), logger)
}
