// @title           PinScout Backend API
// @version         1.0.0
// @description     Backend API for turning free-text visual intents into scored Pinterest-style image candidates. Requests run through a warm-up, collection and validation pipeline against external browse, collection and scoring services.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "pinscout-backend/docs"
	"pinscout-backend/internal/collab"
	"pinscout-backend/internal/config"
	"pinscout-backend/internal/database"
	"pinscout-backend/internal/handlers"
	"pinscout-backend/internal/middleware"
	"pinscout-backend/internal/workflow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := newLogger(cfg.Environment)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	migrator, err := database.NewMigrator(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize migrator")
	}
	if err := migrator.Run(); err != nil {
		migrator.Close()
		log.Fatal().Err(err).Msg("migration failed")
	}
	migrator.Close()

	client, err := database.NewClient(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer client.Close()

	requests := database.NewRequestStore(client)
	sessions := database.NewSessionStore(client)
	pins := database.NewPinStore(client)

	browser := collab.NewBrowseClient(cfg.BrowseURL, cfg.BrowseAPIKey)
	collector := collab.NewCollectorClient(cfg.CollectorURL, cfg.CollectorAPIKey, cfg.MaxPins)
	scorer := collab.NewScorerClient(cfg.ScorerURL, cfg.ScorerModel, cfg.ScorerAPIKey)

	coordinator := workflow.NewCoordinator(requests, sessions, pins, browser, collector, scorer, workflow.Config{
		ScoreThreshold: cfg.ScoreThreshold,
		ScoreAttempts:  cfg.ScoreAttempts,
	}, log)
	progress := workflow.NewProgressReader(requests, sessions)
	sweeper := workflow.NewSweeper(sessions, requests, cfg.SessionStaleAfter, cfg.SweepInterval, log)

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go sweeper.Run(sweepCtx)

	router := newRouter(cfg, coordinator, progress, requests, sessions, pins)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info().Msg("shutting down")
	stopSweeper()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	// Let in-flight pipeline runs record their terminal state.
	coordinator.Wait()
	log.Info().Msg("shutdown complete")
}

func newLogger(environment string) zerolog.Logger {
	if environment == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
			With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func newRouter(
	cfg *config.Config,
	coordinator *workflow.Coordinator,
	progress *workflow.ProgressReader,
	requests *database.RequestStore,
	sessions *database.SessionStore,
	pins *database.PinStore,
) *gin.Engine {
	requestsHandler := handlers.NewRequestsHandler(requests, sessions, pins)
	sessionsHandler := handlers.NewSessionsHandler(requests, sessions)
	pinsHandler := handlers.NewPinsHandler(requests, pins)
	workflowHandler := handlers.NewWorkflowHandler(coordinator, progress)

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", handlers.HealthHandler)

	api := router.Group("/api/v1")
	api.Use(middleware.Auth(cfg.JWTSecret))

	api.POST("/requests", requestsHandler.CreateRequest)
	api.GET("/requests", requestsHandler.ListRequests)
	api.GET("/requests/:request_id", requestsHandler.GetRequest)
	api.DELETE("/requests/:request_id", requestsHandler.DeleteRequest)
	api.GET("/requests/:request_id/results", requestsHandler.GetResults)

	api.POST("/requests/:request_id/start-workflow", workflowHandler.StartWorkflow)
	api.POST("/requests/:request_id/validate", workflowHandler.StartValidation)
	api.GET("/requests/:request_id/progress", workflowHandler.GetProgress)

	api.GET("/requests/:request_id/sessions", sessionsHandler.ListSessions)
	api.GET("/requests/:request_id/pins", pinsHandler.ListPins)

	return router
}
