package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"projetodesenvolve/meeting-evaluator/internal/config"
	"projetodesenvolve/meeting-evaluator/internal/handlers"
	"projetodesenvolve/meeting-evaluator/internal/metrics"
	"projetodesenvolve/meeting-evaluator/internal/repositories"
	"projetodesenvolve/meeting-evaluator/internal/services"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg := config.Load()
	log.Println("✅ Config loaded successfully")

	schema, err := config.LoadRubric(cfg.Rubric.Path)
	if err != nil {
		log.Fatalf("❌ Failed to load rubric: %v", err)
	}
	log.Printf("✅ Rubric loaded: %d sections, max score %d", len(schema.Sections()), schema.MaxScore())

	db, err := config.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}

	meetingRepo := repositories.NewMeetingRepository(db)
	log.Println("✅ Repositories initialized successfully")

	var recorder *metrics.Recorder
	if cfg.Metrics.Enabled {
		recorder = metrics.New(metrics.WithRuntimeCollectors())
	}

	geminiService, err := services.NewGeminiService(ctx, services.GeminiOptions{
		APIKey:         cfg.Gemini.APIKey,
		Model:          cfg.Gemini.Model,
		EmbeddingModel: cfg.Gemini.EmbeddingModel,
		RetryDelay:     cfg.Worker.RetryInitialDelay,
	})
	if err != nil {
		log.Fatalf("❌ Failed to initialize Gemini AI: %v", err)
	}
	log.Println("✅ Gemini AI initialized successfully")

	// Qdrant is optional; a nil interface disables indexing and search.
	var qdrantService services.QdrantService
	if cfg.Qdrant.Enabled {
		qs, err := services.NewQdrantService(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection, cfg.Qdrant.VectorSize)
		if err != nil {
			log.Fatalf("❌ Failed to initialize Qdrant: %v", err)
		}
		if err := qs.InitCollection(ctx); err != nil {
			log.Fatalf("❌ Failed to initialize Qdrant collection: %v", err)
		}
		defer qs.Close()
		qdrantService = qs
		log.Println("✅ Qdrant initialized successfully")
	} else {
		log.Println("ℹ️  Qdrant disabled, semantic search unavailable")
	}

	archive := services.NewFailureArchive(cfg.Archive.Path, cfg.Archive.MaxSizeMB, cfg.Archive.MaxBackups)
	defer archive.Close()

	evaluatorService := services.NewEvaluatorService(meetingRepo, geminiService, services.EvaluatorOptions{
		Schema:              schema,
		NotConductedSummary: cfg.Rubric.NotConductedSummary,
		Temperature:         cfg.Gemini.Temperature,
		MaxRetries:          cfg.Worker.RetryMaxAttempts,
		Archive:             archive,
		Qdrant:              qdrantService,
		Metrics:             recorder,
	})
	log.Println("✅ Evaluator service initialized")

	worker := services.NewWorker(meetingRepo, evaluatorService, services.WorkerOptions{
		Concurrency:  cfg.Worker.Concurrency,
		QueueSize:    cfg.Worker.QueueSize,
		PollInterval: cfg.Worker.PollInterval,
		Metrics:      recorder,
	})
	worker.Start(ctx)

	var syncService services.SyncService
	if cfg.Sheets.SpreadsheetID != "" {
		source, err := services.NewSheetsSource(ctx, services.SheetsOptions{
			SpreadsheetID:   cfg.Sheets.SpreadsheetID,
			Range:           cfg.Sheets.Range,
			APIKey:          cfg.Sheets.APIKey,
			CredentialsFile: cfg.Sheets.CredentialsFile,
		})
		if err != nil {
			log.Fatalf("❌ Failed to initialize Google Sheets: %v", err)
		}
		syncService = services.NewSyncService(source, meetingRepo, worker, recorder)
		log.Println("✅ Google Sheets source initialized")
	} else {
		log.Println("ℹ️  SPREADSHEET_ID not set, sync disabled")
	}

	app := fiber.New(fiber.Config{
		AppName:      "Meeting Evaluator API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	handlers.RegisterRoutes(app.Group("/api/v1"), handlers.Handlers{
		Meetings:    handlers.NewMeetingHandler(meetingRepo, schema),
		Evaluations: handlers.NewEvaluationHandler(meetingRepo, worker, schema),
		Sync:        handlers.NewSyncHandler(syncService),
		Stats:       handlers.NewStatsHandler(meetingRepo),
		Search:      handlers.NewSearchHandler(services.NewSearchService(geminiService, qdrantService)),
	})

	if recorder != nil {
		app.Get(cfg.Metrics.Path, adaptor.HTTPHandler(recorder.Handler()))
	}

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Meeting Evaluator API",
			"version": "1.0.0",
			"endpoints": []string{
				"GET /api/v1/meetings",
				"GET /api/v1/meetings/:id",
				"POST /api/v1/meetings/:id/evaluate",
				"POST /api/v1/evaluations/parse",
				"POST /api/v1/update",
				"GET /api/v1/stats/monitors",
				"GET /api/v1/search",
			},
		})
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("🛑 Shutting down server...")
		worker.Stop()
		cancel()
		if err := app.Shutdown(); err != nil {
			log.Printf("❌ Server forced to shutdown: %v", err)
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("🚀 Server starting on %s", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}
