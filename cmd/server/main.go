package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"contextchat/internal/config"
	"contextchat/internal/handlers"
	"contextchat/internal/router"
	"contextchat/internal/services"
)

func main() {
	if err := run(); err != nil {
		log.Printf("✗ %v", err)
		os.Exit(1)
	}
}

func run() error {
	log.Println("🚀 Starting contextchat gateway...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize Gemini Client ────
	geminiService, err := services.NewGeminiService(
		cfg.GeminiAPIKey,
		cfg.GeminiModel,
		services.Limits{
			MaxMessageLength: cfg.MaxMessageLength,
			MaxContextLength: cfg.MaxContextLength,
		},
	)
	if err != nil {
		return fmt.Errorf("gemini client initialization failed: %w", err)
	}
	defer geminiService.Close()
	log.Printf("✓ Gemini client initialized (model %s)", geminiService.ModelName())

	// ──── Step 3: Initialize Handlers ────
	chatHandler := handlers.NewChatHandler(geminiService)

	// ──── Step 4: Start HTTP Server ────
	r := router.New(chatHandler, cfg.FrontendURL)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("✓ contextchat gateway ready on http://localhost:%s (%s)", cfg.Port, cfg.Env)
	log.Printf("  API: http://localhost:%s/api/chat", cfg.Port)

	return runServer(ctx, server, 30*time.Second)
}

// runServer serves until ctx is done, then shuts down gracefully within
// shutdownTimeout. A listen failure is returned rather than exiting.
func runServer(ctx context.Context, server *http.Server, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	log.Println("✓ Server stopped")
	return nil
}
