package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	database "github.com/triptailor/triptailor/app/db"
	"github.com/triptailor/triptailor/app/logger"
	appMiddleware "github.com/triptailor/triptailor/app/middleware"
	"github.com/triptailor/triptailor/app/observability/metrics"
	"github.com/triptailor/triptailor/app/tracer"
	"github.com/triptailor/triptailor/config"
	"github.com/triptailor/triptailor/internal/api/generative_ai"
	"github.com/triptailor/triptailor/internal/api/itinerary"
	"github.com/triptailor/triptailor/internal/api/location"
	"github.com/triptailor/triptailor/internal/api/trips"
	"github.com/triptailor/triptailor/internal/api/weather"
	"github.com/triptailor/triptailor/internal/router"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, relying on environment variables")
	}

	cfg, err := config.InitConfig()
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	log := setupLogger(cfg.Mode)
	slog.SetDefault(log)

	jwtSecret, err := appMiddleware.ResolveJWTSecret(cfg.Mode)
	if err != nil {
		log.Error("Failed to resolve JWT secret", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbConfig, err := database.NewDatabaseConfig(&cfg, log)
	if err != nil {
		log.Error("Failed to build database config", slog.Any("error", err))
		os.Exit(1)
	}
	if err = database.RunMigrations(dbConfig.ConnectionURL, log); err != nil {
		log.Error("Failed to run database migrations", slog.Any("error", err))
		os.Exit(1)
	}
	pool, err := database.Init(dbConfig.ConnectionURL, log)
	if err != nil {
		log.Error("Failed to initialize database pool", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()
	if !database.WaitForDB(ctx, pool, log) {
		log.Error("Database is unreachable, shutting down")
		os.Exit(1)
	}

	tracer.InitTracingAndMetrics(cfg.Handlers.Prometheus.Port)
	metrics.InitAppMetrics()
	appMetrics := metrics.Get()

	locationSvc := location.NewServiceImpl(cfg.Providers, log)
	weatherSvc := weather.NewServiceImpl(cfg.Providers, log)

	var generator generativeAI.Generator
	aiClient, err := generativeAI.NewAIClient(ctx, log)
	if err != nil {
		log.Warn("AI client unavailable, using deterministic text", slog.Any("error", err))
		generator = generativeAI.NewNoopGenerator()
	} else {
		generator = aiClient
	}

	tripRepo := itinerary.NewRepositoryImpl(pool, log, appMetrics)
	itinerarySvc := itinerary.NewServiceImpl(cfg.Planner, locationSvc, weatherSvc, generator, tripRepo, appMetrics, log)
	itineraryHandler := itinerary.NewHandlerImpl(itinerarySvc, log)
	tripsSvc := trips.NewServiceImpl(tripRepo, generator, log)
	tripsHandler := trips.NewHandlerImpl(tripsSvc, log)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(logger.StructuredLogger(log))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(cfg.Server.Timeout))

	router.SetupRoutes(r, router.Handlers{
		Itinerary: itineraryHandler,
		Trips:     tripsHandler,
		JWTSecret: jwtSecret,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.HTTPPort,
		Handler:      r,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  2 * cfg.Server.Timeout,
	}

	go func() {
		log.Info("Server starting", slog.String("port", cfg.Server.HTTPPort), slog.String("mode", cfg.Mode))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", slog.Any("error", err))
		os.Exit(1)
	}
	log.Info("Server stopped cleanly")
}

func setupLogger(mode string) *slog.Logger {
	if mode == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: time.Kitchen,
	}))
}
