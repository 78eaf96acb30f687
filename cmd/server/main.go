package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/ecoquest/backend/internal/config"
	"github.com/ecoquest/backend/internal/delivery/http"
	"github.com/ecoquest/backend/internal/domain"
	"github.com/ecoquest/backend/internal/observability"
	"github.com/ecoquest/backend/internal/repository/postgres"
	"github.com/ecoquest/backend/internal/service"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	// Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	appLog := newLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(appLog)

	metrics, err := observability.NewMetrics(nil)
	if err != nil {
		log.Fatalf("Metrics error: %v", err)
	}

	// Dependency Injection: Repositories
	var (
		sessions domain.SessionRepository
		activity domain.ActivityRepository
	)
	pool := connectDatabase(cfg.DatabaseURL)
	if pool != nil {
		defer pool.Close()
		repo := postgres.NewPostgresRepository(pool, cfg.SessionTTL)
		sessions, activity = repo, repo
		go purgeSessions(repo, time.Hour)
	} else {
		repo := postgres.NewMemoryRepository(cfg.SessionTTL)
		defer repo.Close()
		sessions, activity = repo, repo
	}

	// Dependency Injection: Services
	genai := service.NewGenAIBridge(service.GenAIConfig{
		APIKey:      cfg.GeminiAPIKey,
		BaseURL:     cfg.GeminiBaseURL,
		TextModel:   cfg.GeminiTextModel,
		VisionModel: cfg.GeminiVisionModel,
		Timeout:     cfg.GeminiTimeout,
	}, metrics, appLog)
	geocoder := service.NewGeocoder(service.GeocoderConfig{
		BaseURL:   cfg.NominatimBaseURL,
		UserAgent: cfg.NominatimUserAgent,
		CacheTTL:  cfg.GeocodeCacheTTL,
	}, metrics, appLog)
	defer geocoder.Close()
	questSvc := service.NewQuestService(genai, geocoder, sessions, activity, metrics, appLog)

	// Fiber App
	app := fiber.New(fiber.Config{
		AppName:      "EcoQuest API v1.0",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		BodyLimit:    cfg.MaxImageBytes + 1<<20,
		ErrorHandler: http.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New(recover.Config{
		EnableStackTrace: cfg.IsDevelopment(),
	}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))
	app.Use(metrics.Middleware())

	// Routes
	http.SetupRoutes(app, http.NewHandler(questSvc, activity, cfg.MaxImageBytes), metrics)

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s (%s)", cfg.Port, cfg.Env)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	questSvc.WaitBackground()
	log.Println("Server exited gracefully")
}

// connectDatabase returns nil when no database is configured or reachable;
// the caller then falls back to in-memory repositories.
func connectDatabase(url string) *pgxpool.Pool {
	if url == "" {
		log.Println("DATABASE_URL not set, running with in-memory storage")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, url)
	if err == nil {
		err = pool.Ping(ctx)
	}
	if err == nil {
		err = postgres.NewPostgresRepository(pool, 0).EnsureSchema(ctx)
	}
	if err != nil {
		log.Printf("Warning: Could not connect to database: %v", err)
		log.Println("Running with in-memory storage")
		if pool != nil {
			pool.Close()
		}
		return nil
	}

	log.Println("Connected to PostgreSQL")
	return pool
}

func purgeSessions(repo *postgres.PostgresRepository, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		n, err := repo.PurgeExpiredSessions(ctx)
		cancel()
		if err != nil {
			slog.Error("session purge failed", "error", err)
			continue
		}
		if n > 0 {
			slog.Info("expired sessions purged", "count", n)
		}
	}
}

func newLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
