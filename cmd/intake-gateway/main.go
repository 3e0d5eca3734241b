package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/doc-intake-api/api/swagger"
	"github.com/noah-isme/doc-intake-api/internal/compute"
	"github.com/noah-isme/doc-intake-api/internal/dedup"
	"github.com/noah-isme/doc-intake-api/internal/embedding"
	"github.com/noah-isme/doc-intake-api/internal/handler"
	"github.com/noah-isme/doc-intake-api/internal/middleware"
	"github.com/noah-isme/doc-intake-api/internal/ocr"
	"github.com/noah-isme/doc-intake-api/internal/repository"
	"github.com/noah-isme/doc-intake-api/internal/service"
	"github.com/noah-isme/doc-intake-api/internal/source"
	"github.com/noah-isme/doc-intake-api/pkg/cache"
	"github.com/noah-isme/doc-intake-api/pkg/config"
	"github.com/noah-isme/doc-intake-api/pkg/database"
	"github.com/noah-isme/doc-intake-api/pkg/jobs"
	"github.com/noah-isme/doc-intake-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/doc-intake-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/doc-intake-api/pkg/middleware/requestid"
	"github.com/noah-isme/doc-intake-api/pkg/storage"
)

// @title Document Intake API
// @version 0.1.0
// @description Deduplicating document ingestion gateway
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("postgres connection failed", "error", err)
	}
	defer db.Close()

	journalRepo := repository.NewJournalRepository(db)
	queueRepo := repository.NewQueueRepository(db)
	embeddingRepo := repository.NewEmbeddingRepository(db)
	batchRepo := repository.NewBatchRepository(db)

	// The corpus cache is an optimisation; the gateway runs without it.
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, corpus cache disabled", "error", err)
		redisClient = nil
	}
	corpusCache := repository.NewCacheRepository(redisClient, logr, cfg.Dedup.CorpusCacheTTL)
	defer corpusCache.Close() //nolint:errcheck

	metricsService := service.NewMetricsService()

	corpusProvider := service.NewCorpusProvider(journalRepo, corpusCache, logr, cfg.Dedup.CorpusScanLimit)

	ocrClient := ocr.NewClient(cfg.OCR)
	var embedder dedup.Embedder
	var vectorIndex dedup.VectorIndex
	if embeddingClient := embedding.NewClient(cfg.Embedding); embeddingClient != nil {
		embedder = embeddingClient
		vectorIndex = embeddingRepo
	} else {
		logr.Info("embedding service not configured, semantic tier disabled")
	}

	checker := dedup.New(corpusProvider, ocrClient, embedder, vectorIndex, metricsService, logr, dedup.Config{
		FilenameThreshold: cfg.Dedup.FilenameThreshold,
		ContentThreshold:  cfg.Dedup.ContentThreshold,
		SemanticThreshold: cfg.Dedup.SemanticThreshold,
		ContentSampleSize: cfg.Dedup.ContentSampleSize,
	})

	typeRules, err := cfg.Intake.ParseTypeRules()
	if err != nil {
		logr.Sugar().Fatalw("invalid document type rules", "error", err)
	}

	assessmentService := service.NewAssessmentService(journalRepo, corpusCache, checker,
		embeddingRepo, metricsService, logr, typeRules, service.AssessmentDefaults{
			Priority:        cfg.Intake.DefaultPriority,
			CorpusScanLimit: cfg.Dedup.CorpusScanLimit,
		})

	queueService := service.NewQueueService(queueRepo, journalRepo, metricsService, logr)

	payloadStore, err := storage.NewLocalStorage(cfg.Batch.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("batch storage init failed", "error", err)
	}

	computeClient := compute.NewClient(cfg.Compute)
	sourceClient := source.NewClient(cfg.Source)
	poller := compute.NewPoller(cfg.Compute.PollInterval, cfg.Compute.MaxPollAttempts)

	// The dispatcher and the batch service reference each other: jobs
	// carry session ids back into ProcessSession.
	var batchService *service.BatchService
	sessionQueue := jobs.NewQueue("batch-sessions", func(ctx context.Context, job jobs.Job) error {
		sessionID, ok := job.Payload.(string)
		if !ok {
			return fmt.Errorf("job %s carries no session id", job.ID)
		}
		return batchService.ProcessSession(ctx, sessionID)
	}, jobs.QueueConfig{Workers: 1, Logger: logr})

	batchService = service.NewBatchService(batchRepo, sourceClient, computeClient,
		assessmentService, queueService, payloadStore, sessionQueue, poller, logr, cfg.Batch)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	sessionQueue.Start(rootCtx)
	defer sessionQueue.Stop()

	intakeHandler := handler.NewIntakeHandler(assessmentService, queueService, cfg.Intake.MaxFileSizeBytes)
	journalHandler := handler.NewJournalHandler(journalRepo)
	queueHandler := handler.NewQueueHandler(queueService)
	batchHandler := handler.NewBatchHandler(batchService)
	metricsHandler := handler.NewMetricsHandler(metricsService, queueService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/documents", intakeHandler.Submit)

		api.GET("/journal", journalHandler.List)
		api.GET("/journal/:id", journalHandler.Get)

		workers := api.Group("/queue", middleware.WorkerAuth(cfg.Worker.JWTSecret))
		workers.POST("/claim", queueHandler.Claim)
		workers.POST("/items/:id/complete", queueHandler.Complete)
		api.GET("/queue/depth", queueHandler.Depth)

		api.POST("/batch/sessions", batchHandler.Start)
		api.POST("/batch/estimate", batchHandler.Estimate)
		api.GET("/batch/sessions/:id", batchHandler.Status)
		api.POST("/batch/sessions/:id/resume", batchHandler.Resume)
		api.POST("/batch/sessions/:id/stop", batchHandler.Stop)
		api.GET("/batch/sessions/:id/report", batchHandler.Report)

		api.GET("/stats", metricsHandler.Stats)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-rootCtx.Done()
	logr.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
}
