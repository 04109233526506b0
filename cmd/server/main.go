package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/radworks/reportassist/internal/adapters/cache"
	"github.com/radworks/reportassist/internal/adapters/database"
	"github.com/radworks/reportassist/internal/adapters/events"
	"github.com/radworks/reportassist/internal/adapters/search"
	"github.com/radworks/reportassist/internal/api/handlers"
	"github.com/radworks/reportassist/internal/api/middleware"
	"github.com/radworks/reportassist/internal/api/routes"
	"github.com/radworks/reportassist/internal/application/services"
	"github.com/radworks/reportassist/internal/domain/providers"
	"github.com/radworks/reportassist/internal/domain/repositories"
	"github.com/radworks/reportassist/internal/infrastructure/clients/postgres"
	"github.com/radworks/reportassist/internal/infrastructure/clients/redis"
	"github.com/radworks/reportassist/internal/infrastructure/clients/reportapi"
	"github.com/radworks/reportassist/internal/infrastructure/clients/typesense"
	"github.com/radworks/reportassist/internal/infrastructure/observability"
	"github.com/radworks/reportassist/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env)
	logger := observability.GetLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := shutdown(shutdownCtx); err != nil {
					logger.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			logger.Info().Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	// PostgreSQL is required: reports and revisions live there
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()
	logger.Info().Msg("PostgreSQL client initialized")

	// Redis is optional: without it there is no response cache and no
	// real-time stream, but editing still works
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		logger.Warn().Err(err).Msg("Redis unavailable, continuing without cache and events")
		redisClient = nil
	} else {
		defer redisClient.Close()
		logger.Info().Msg("Redis client initialized")
	}

	// Typesense is optional: guideline search degrades to unavailable
	typesenseClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		logger.Warn().Err(err).Msg("Typesense unavailable, guideline search disabled")
		typesenseClient = nil
	} else {
		logger.Info().Msg("Typesense client initialized")
	}

	reportAPIClient, err := reportapi.NewHTTPClient(&cfg.ReportAPI)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize report API client")
	}

	// Adapters
	reportAdapter := database.NewReportAdapter(pgClient)
	revisionAdapter := database.NewRevisionAdapter(pgClient)

	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
		eventBus = events.NewRedisEventBus(redisClient)
		logger.Info().Msg("Event bus initialized")
	}

	var guidelineRepo repositories.GuidelineSearchRepository
	if typesenseClient != nil {
		adapter := search.NewGuidelineAdapter(typesenseClient)
		if err := adapter.InitSchema(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("Failed to init guideline schema")
		}
		guidelineRepo = adapter
	}

	// Services
	completenessPoller := services.NewPoller(
		"completeness", cfg.Poll.Interval, cfg.Poll.CompletenessTimeout, metrics)
	validationPoller := services.NewPoller(
		"validation", cfg.Poll.Interval, cfg.Poll.ValidationTimeout, metrics)

	enhancementService := services.NewEnhancementService(
		reportAPIClient, eventBus, completenessPoller, guidelineRepo, metrics)
	reportService := services.NewReportService(
		reportAdapter, revisionAdapter, reportAPIClient,
		enhancementService, eventBus, cacheProvider, validationPoller)
	comparisonService := services.NewComparisonService(reportAPIClient, reportService)

	// Handlers
	reportHandler := handlers.NewReportHandler(reportService)
	enhancementHandler := handlers.NewEnhancementHandler(enhancementService)
	comparisonHandler := handlers.NewComparisonHandler(comparisonService)

	var guidelineHandler *handlers.GuidelineHandler
	if guidelineRepo != nil {
		guidelineHandler = handlers.NewGuidelineHandler(guidelineRepo)
	}

	var sseHandler *handlers.SSEHandler
	if eventBus != nil {
		sseHandler = handlers.NewSSEHandler(eventBus)
	}

	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider)
	}

	router := routes.NewRouter(
		reportHandler,
		enhancementHandler,
		comparisonHandler,
		guidelineHandler,
		sseHandler,
		cacheMiddleware,
		metrics,
	)
	handler := router.SetupRoutes()

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// Write timeout must outlive generation-class upstream calls and
		// long-lived SSE streams
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", serverAddr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Error during server shutdown")
	}

	completenessPoller.StopAll()
	validationPoller.StopAll()

	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			logger.Error().Err(err).Msg("Error closing event bus")
		}
	}

	logger.Info().Msg("Server stopped")
}
