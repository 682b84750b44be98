package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dafibh/pocketbook/pocketbook-backend/internal/app"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/config"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/handler"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/middleware"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/websocket"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx := context.Background()

	// Live event hub for websocket clients
	hub := websocket.NewHub()

	// Initialize store, blob storage and services
	application, err := app.New(ctx, cfg, hub)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer application.Close()

	if cfg.SeedOnStart {
		if _, err := application.Store.Initialize(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to seed store")
		}
	}

	// Rate limiter
	rateLimiter := middleware.NewRateLimiterWithConfig(cfg.RateLimitPerMinute, cfg.RateLimitBurst)
	defer rateLimiter.Stop()

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.ProblemErrorHandler

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		MaxAge:       86400,
	}))

	// Security headers middleware (helmet-like)
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	// Request logging middleware with zerolog
	e.Use(middleware.RequestLogger())

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	// Rate limiting per client IP
	e.Use(middleware.RateLimitMiddleware(rateLimiter))

	// Serve locally stored blobs (exports) when the base URL is a path
	if cfg.Blob.Driver == config.BlobDriverLocal && strings.HasPrefix(cfg.Blob.BaseURL, "/") && application.Blobs != nil {
		e.Static(cfg.Blob.BaseURL, cfg.Blob.Dir)
	}

	// Register routes
	handler.RegisterRoutes(e, handler.Handlers{
		Health:      handler.NewHealthHandler(application.Store, hub),
		Transaction: handler.NewTransactionHandler(application.Ledger, application.Attachments),
		Month:       handler.NewMonthHandler(application.Ledger),
		Category:    handler.NewCategoryHandler(application.Categories),
		Budget:      handler.NewBudgetHandler(application.Budgets),
		Settings:    handler.NewSettingsHandler(application.Settings),
		Profile:     handler.NewProfileHandler(application.Profile),
		Data:        handler.NewDataHandler(application.Export),
		WebSocket:   handler.NewWebSocketHandler(hub, cfg.CORSOrigins),
	})

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Close websocket connections before draining HTTP
	hub.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
