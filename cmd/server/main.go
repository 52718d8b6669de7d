// Dream Diary - journaling assistant server
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

	"github.com/ashureev/dreamdiary/internal/api"
	"github.com/ashureev/dreamdiary/internal/config"
	"github.com/ashureev/dreamdiary/internal/content"
	"github.com/ashureev/dreamdiary/internal/identity"
	"github.com/ashureev/dreamdiary/internal/middleware"
	"github.com/ashureev/dreamdiary/internal/narrative"
	"github.com/ashureev/dreamdiary/internal/session"
	"github.com/ashureev/dreamdiary/internal/store"
	"github.com/ashureev/dreamdiary/internal/ws"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	if err := repo.SeedExercises(context.Background(), content.Exercises); err != nil {
		slog.Error("Failed to seed exercises", "error", err)
		os.Exit(1)
	}
	slog.Info("Exercises seeded", "count", len(content.Exercises))

	// Narrative generation is optional; without an API key the service
	// runs with fixed placeholder coaching text.
	var gen narrative.Generator = narrative.Disabled{}
	if cfg.AIEnabled() {
		gen = narrative.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		slog.Info("Narrative generation enabled", "model", cfg.OpenAIModel)
	} else {
		slog.Info("Narrative generation disabled (OPENAI_API_KEY not set)")
	}

	// Initialize services.
	engine := session.NewEngine(repo)
	cm := ws.NewConnManager()

	// Initialize handlers.
	baseHandler := api.NewHandler(repo, engine, gen)
	journalHandler := api.NewJournalHandler(baseHandler, cfg.AIEnabled())
	healthHandler := api.NewHealthHandler(repo)
	wsHandler := ws.NewHandler(engine, gen, cm, cfg.FrontendURL, cfg.IsDevelopment())

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	corsOrigins := []string{"*"}
	if cfg.FrontendURL != "" {
		corsOrigins = append(corsOrigins, cfg.FrontendURL)
	}
	r.Use(middleware.CORS(corsOrigins))
	r.Use(identity.Middleware(repo, cfg.IsDevelopment()))

	healthHandler.RegisterHealth(r)
	journalHandler.RegisterRoutes(r)

	// WebSocket endpoint.
	r.Get("/ws/journal", wsHandler.ServeHTTP)

	// Create server.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // WebSocket connections stay open indefinitely
		IdleTimeout:  120 * time.Second,
	}

	// Start idle-session sweeper.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine.StartIdleSweeper(ctx, cfg.SessionIdleTTL)

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
