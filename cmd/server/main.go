package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/voxsub/voxsub/internal/cleanup"
	"github.com/voxsub/voxsub/internal/config"
	"github.com/voxsub/voxsub/internal/events"
	"github.com/voxsub/voxsub/internal/handlers"
	"github.com/voxsub/voxsub/internal/logging"
	"github.com/voxsub/voxsub/internal/metrics"
	"github.com/voxsub/voxsub/internal/pipeline"
	"github.com/voxsub/voxsub/internal/queue"
	"github.com/voxsub/voxsub/internal/storage"

	fiberws "github.com/gofiber/websocket/v2"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.LoadServer(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logging.Init(cfg.Logging.Level, cfg.Logging.Format)

	if err := cleanup.EnsureTempDirExists(cfg.Storage.TempDir); err != nil {
		log.Fatal().Err(err).Msg("failed to create temp directory")
	}
	if err := os.MkdirAll(cfg.Storage.OutputDir, 0755); err != nil {
		log.Fatal().Err(err).Msg("failed to create output directory")
	}

	log.Info().Msg("initializing components")

	// Pipeline runner over the WhisperX engine
	runner := pipeline.NewWithEngine(cfg.Pipeline).
		WithObserver(metrics.Default.ObserveStage)

	// Local storage
	localStorage := storage.NewLocalStorage(cfg.Storage.OutputDir)

	// Google Drive client (optional, requires credentials)
	var driveClient *storage.DriveClient
	if _, err := os.Stat(cfg.GoogleDrive.CredentialsFile); err == nil {
		driveClient, err = storage.NewDriveClient(
			cfg.GoogleDrive.CredentialsFile,
			cfg.GoogleDrive.TokenFile,
			cfg.GoogleDrive.FolderName,
		)
		if err != nil {
			log.Warn().Err(err).Msg("google drive not available, saving locally only")
			driveClient = nil
		} else {
			log.Info().Msg("google drive integration enabled")
		}
	} else {
		log.Info().Msg("google drive credentials not found, saving locally only")
	}

	// Metadata database
	db, err := storage.NewMetadataDB(cfg.Storage.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	// Completion events
	publisher := events.New(cfg.Events.Brokers, cfg.Events.Topic)
	defer publisher.Close()

	// Worker pool
	workerPool := queue.NewWorkerPool(
		cfg.Workers.Count,
		runner,
		cfg.Storage.TempDir,
		localStorage,
		driveClient,
		db,
		publisher,
	)
	workerPool.Start()

	// Cleanup scheduler
	cleanupScheduler := cleanup.NewScheduler(
		cfg.Storage.TempDir,
		cfg.Cleanup.IntervalMinutes,
		cfg.Cleanup.MaxAgeHours,
	)
	cleanupScheduler.Start()
	defer cleanupScheduler.Stop()

	app := fiber.New(fiber.Config{
		BodyLimit: cfg.Limits.MaxFileSizeMB * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	uploadHandler := handlers.NewUploadHandler(workerPool, cfg.Storage.TempDir, cfg.Limits.MaxFileSizeMB)
	gdriveHandler := handlers.NewGDriveHandler(workerPool, cfg.Storage.TempDir)
	youtubeHandler := handlers.NewYouTubeHandler(workerPool, cfg.Storage.TempDir)
	streamHandler := handlers.NewStreamHandler(workerPool, cfg.Storage.TempDir)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	app.Post("/upload", uploadHandler.Handle)
	app.Post("/gdrive", gdriveHandler.Handle)
	app.Post("/youtube", youtubeHandler.Handle)

	app.Get("/ws/stream", fiberws.New(streamHandler.Handle))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// List transcript metadata
	app.Get("/transcripts", func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", 50)
		transcripts, err := db.ListTranscripts(limit)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(transcripts)
	})

	// Fetch the subtitle file for a job
	app.Get("/transcripts/:id/subtitles", func(c *fiber.Ctx) error {
		jobID := c.Params("id")

		rec, err := db.GetTranscript(jobID)
		if err != nil {
			return c.Status(404).JSON(fiber.Map{"error": "Transcript not found"})
		}
		if rec.LocalPath == "" {
			return c.Status(404).JSON(fiber.Map{"error": "Subtitle file path not found"})
		}

		content, err := os.ReadFile(rec.LocalPath)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "Failed to read subtitle file"})
		}

		c.Set("Content-Type", "text/vtt")
		return c.SendString(string(content))
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info().Str("addr", addr).Msg("server starting")

	// Graceful shutdown
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Info().Msg("shutting down gracefully")
		app.Shutdown()
	}()

	if err := app.Listen(addr); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}
