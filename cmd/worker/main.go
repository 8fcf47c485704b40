/**
 * Schedule extraction worker - main entry point.
 *
 * Consumes schedule-photo extraction jobs from a Redis-backed queue, runs
 * OCR over the photographed table, reconstructs the target person's shifts,
 * persists them to PostgreSQL, and pushes them to the calendar service.
 */

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/shiftlens/schedule-worker/internal/calendar"
	"github.com/shiftlens/schedule-worker/internal/config"
	"github.com/shiftlens/schedule-worker/internal/ocr"
	"github.com/shiftlens/schedule-worker/internal/processor"
	"github.com/shiftlens/schedule-worker/internal/queue"
	"github.com/shiftlens/schedule-worker/internal/storage"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env not found, using system environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Schedule worker starting (redis=%s, queue=%s, workers=%d)",
		cfg.RedisURL, cfg.QueueName, cfg.WorkerConcurrency)

	store, err := storage.NewPostgresClient(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
	}
	defer store.Close()

	var calendarClient *calendar.Client
	if cfg.CalendarAPIURL != "" {
		calendarClient = calendar.NewClient(cfg.CalendarAPIURL)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := calendarClient.HealthCheck(ctx); err != nil {
			log.Printf("Warning: calendar service health check failed: %v. Shifts will be stored but not pushed.", err)
		}
		cancel()
	} else {
		log.Printf("Warning: CALENDAR_API_URL not configured. Shifts will be stored but not pushed.")
	}

	engine := ocr.NewTesseractEngine(cfg.OCRLanguages)

	proc, err := processor.NewScheduleProcessor(&processor.ProcessorConfig{
		OCREngine:    engine,
		Storage:      store,
		Calendar:     calendarClient,
		MaxImageSize: cfg.MaxImageSize,
	})
	if err != nil {
		log.Fatalf("Failed to initialize schedule processor: %v", err)
	}

	status, err := queue.NewStatusTracker(cfg.RedisURL, cfg.QueueName)
	if err != nil {
		log.Fatalf("Failed to initialize status tracker: %v", err)
	}
	defer status.Close()

	consumer, err := queue.NewConsumer(&queue.ConsumerConfig{
		RedisURL:          cfg.RedisURL,
		QueueName:         cfg.QueueName,
		Concurrency:       cfg.WorkerConcurrency,
		Processor:         proc,
		Status:            status,
		ProcessingTimeout: int64(cfg.ProcessingTimeout),
	})
	if err != nil {
		log.Fatalf("Failed to initialize queue consumer: %v", err)
	}

	if err := consumer.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start queue consumer: %v", err)
	}
	log.Printf("Schedule worker ready, waiting for jobs")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	log.Printf("Received signal %v, shutting down", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := consumer.Stop(shutdownCtx); err != nil {
		log.Printf("Error stopping queue consumer: %v", err)
	}

	log.Printf("Shutdown complete")
}
