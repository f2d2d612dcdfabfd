package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/tradefolio/journal-api/internal/analytics"
	"github.com/tradefolio/journal-api/internal/auth"
	"github.com/tradefolio/journal-api/internal/config"
	"github.com/tradefolio/journal-api/internal/database"
	"github.com/tradefolio/journal-api/internal/importer"
	"github.com/tradefolio/journal-api/internal/matching"
	"github.com/tradefolio/journal-api/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// main initializes and runs the trade journal API server with graceful
// shutdown support. It sets up the database, all services, API routes and
// the background import processor.
func main() {
	cfg := config.Load()

	// Configure pretty logging for development
	if !cfg.IsProduction() {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		zlog.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	// Set global log level
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// Initialize database
	db, err := database.NewDatabase(cfg.DBPath)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize database")
	}

	// Initialize router
	router := gin.Default()

	// Initialize services and handlers
	authService := auth.NewService(cfg.JWTSecret, db)
	authHandlers := auth.NewGinHandlers(authService)
	// Register test credentials
	if err := authService.RegisterAPICredentials(auth.TestAPIKey, auth.TestAPISecret); err != nil {
		zlog.Fatal().Err(err).Msg("Failed to register test credentials")
	}

	importerService := importer.NewService(db)
	importerHandlers := importer.NewGinHandlers(importerService)

	matchingService := matching.NewService(db)
	matchingHandlers := matching.NewGinHandlers(matchingService)

	analyticsService := analytics.NewService(db)
	analyticsHandlers := analytics.NewGinHandlers(analyticsService)

	// Create and start the background import processor
	importProcessor := importer.NewProcessor(importerService.GetDB(), cfg.ImportInterval)
	processorCtx, processorCancel := context.WithCancel(context.Background())
	defer processorCancel()

	go importProcessor.Start(processorCtx)

	// Setup middleware
	router.Use(middleware.RateLimit())

	// Setup API routes
	setupRoutes(router, cfg.JWTSecret, authHandlers, importerHandlers, matchingHandlers, analyticsHandlers)

	// Create server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown setup
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("listen")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info().Msg("Shutting down server...")

	// Give outstanding operations 5 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	zlog.Info().Msg("Server exiting")
}

// setupRoutes configures all API endpoints and their handlers
// It groups routes by functionality and applies appropriate middleware:
// - Auth routes: Public endpoints for authentication
// - Upload, trade, position and analytics routes: Protected by JWT authentication
func setupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authHandlers *auth.GinHandlers,
	importerHandlers *importer.GinHandlers,
	matchingHandlers *matching.GinHandlers,
	analyticsHandlers *analytics.GinHandlers,
) {
	v1 := router.Group("/api/v1")
	{
		// Auth routes
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/token", authHandlers.GenerateTokenHandler())
		}

		// Upload routes
		uploads := v1.Group("/uploads")
		uploads.Use(middleware.JWTAuth(jwtSecret))
		{
			uploads.POST("", importerHandlers.UploadFileHandler())
			uploads.POST("/:upload_id/commit", importerHandlers.CommitUploadHandler())
			uploads.GET("/:upload_id", importerHandlers.GetUploadHandler())
		}

		// Matched trade routes
		trades := v1.Group("/trades")
		trades.Use(middleware.JWTAuth(jwtSecret))
		{
			trades.GET("", matchingHandlers.ListTradesHandler())
		}

		// Open position routes
		positions := v1.Group("/positions")
		positions.Use(middleware.JWTAuth(jwtSecret))
		{
			positions.GET("", matchingHandlers.ListPositionsHandler())
			positions.POST("/:position_id/close", matchingHandlers.ClosePositionHandler())
			positions.POST("/:position_id/reopen", matchingHandlers.ReopenPositionHandler())
			positions.PATCH("/:position_id", matchingHandlers.AnnotatePositionHandler())
			positions.DELETE("/:position_id", matchingHandlers.DeletePositionHandler())
		}

		// Analytics routes
		analyticsGroup := v1.Group("/analytics")
		analyticsGroup.Use(middleware.JWTAuth(jwtSecret))
		{
			analyticsGroup.GET("/summary", analyticsHandlers.SummaryHandler())
			analyticsGroup.GET("/symbols", analyticsHandlers.SymbolsHandler())
		}
	}
}
