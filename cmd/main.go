package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/marketlens/brandscope-backend/internal/clients/openai"
	"github.com/marketlens/brandscope-backend/internal/clients/redis"
	"github.com/marketlens/brandscope-backend/internal/config"
	"github.com/marketlens/brandscope-backend/internal/corrections"
	"github.com/marketlens/brandscope-backend/internal/db"
	"github.com/marketlens/brandscope-backend/internal/embedding"
	"github.com/marketlens/brandscope-backend/internal/handlers"
	"github.com/marketlens/brandscope-backend/internal/jobs"
	"github.com/marketlens/brandscope-backend/internal/judge"
	"github.com/marketlens/brandscope-backend/internal/knowledge"
	"github.com/marketlens/brandscope-backend/internal/logger"
	"github.com/marketlens/brandscope-backend/internal/repos"
	"github.com/marketlens/brandscope-backend/internal/server"
	"github.com/marketlens/brandscope-backend/internal/services"
	"github.com/marketlens/brandscope-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Calibration
	cal, err := config.Load(log)
	if err != nil {
		log.Error("Could not load calibration", "error", err)
		os.Exit(1)
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	runRepo := repos.NewConsolidationRunRepo(thePG, log)
	candidateRepo := repos.NewCandidateRepo(thePG, log)
	entityRepo := repos.NewCanonicalEntityRepo(thePG, log)
	suggestionRepo := repos.NewSuggestionRepo(thePG, log)
	knowledgeRepo := repos.NewKnowledgeRecordRepo(thePG, log)
	aliasPairRepo := repos.NewAliasPairRepo(thePG, log)
	relationRepo := repos.NewVerticalRelationRepo(thePG, log)
	rejectedRepo := repos.NewRejectedEntityRepo(thePG, log)

	// Clients
	log.Info("Setting up clients from main...")
	aiClient, err := openai.NewClient(log)
	if err != nil {
		log.Error("Could not init OpenAI client", "error", err)
		os.Exit(1)
	}
	var vectorCache embedding.VectorCache
	if cache, err := redis.NewVectorCache(log); err != nil {
		log.Warn("Vector cache unavailable, embeddings run uncached", "error", err)
	} else {
		vectorCache = cache
		defer cache.Close()
	}

	// Core components
	embedder := embedding.NewEmbedder(log, aiClient, vectorCache, embedding.DefaultConfig())
	loader := knowledge.NewLoader(log, knowledgeRepo, aliasPairRepo, rejectedRepo)
	writer := knowledge.NewWriter(thePG, log, knowledgeRepo, relationRepo, aliasPairRepo, cal.Knowledge.PropagationMinConfidence)
	auditor := judge.NewChain(log, judge.NewOpenAIJudge(log, aiClient))
	engine := corrections.NewEngine(log, corrections.PolicyFromEnv(log), suggestionRepo, writer, corrections.EngineConfig{
		BatchSize: cal.Corrections.BatchSize,
		Retention: cal.Retention(),
	})

	// Services
	log.Info("Setting up Services from main...")
	consolidationService := services.NewConsolidationService(
		log, cal,
		runRepo, candidateRepo, entityRepo, rejectedRepo,
		loader, embedder, auditor, engine,
	)
	intakeService := services.NewIntakeService(log, runRepo, candidateRepo)
	reviewService := services.NewReviewService(log, suggestionRepo, writer)

	// Worker
	worker := jobs.NewWorker(log, runRepo, consolidationService, engine, jobs.DefaultWorkerConfig())
	worker.Start(context.Background())

	// HTTP
	runHandler := handlers.NewRunHandler(log, intakeService, entityRepo)
	reviewHandler := handlers.NewReviewHandler(log, reviewService)

	var origins []string
	if raw := utils.GetEnv("CORS_ALLOW_ORIGINS", "", log); raw != "" {
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}
	router := server.NewRouter(server.RouterConfig{
		RunHandler:    runHandler,
		ReviewHandler: reviewHandler,
		AllowOrigins:  origins,
	})

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Starting server", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server exited", "error", err)
		os.Exit(1)
	}
}
