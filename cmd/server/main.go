package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medichat-backend/internal/config"
	"medichat-backend/internal/handlers"
	"medichat-backend/internal/router"
	"medichat-backend/internal/services"
	"medichat-backend/internal/session"
)

func main() {
	log.Println("🚀 Starting Medichat Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize Gemini Client ────
	client, err := services.NewGeminiClient(context.Background(), cfg.GeminiAPIKey)
	if err != nil {
		log.Fatalf("✗ Gemini client initialization failed: %v", err)
	}
	defer client.Close()
	log.Println("✓ Gemini client initialized")

	// ──── Step 3: Initialize Session Store ────
	store := session.NewStore(cfg.SessionTTL, cfg.HistoryLimit)
	log.Printf("✓ Session store ready (TTL %s, history %d turns)", cfg.SessionTTL, cfg.HistoryLimit)

	// ──── Initialize Services ────
	classifier := services.NewGeminiClassifier(client, cfg.GeminiModel, cfg.ClassifyTimeout)
	generator := services.NewGeminiGenerator(client, cfg.GeminiModel, cfg.GenerateTimeout)
	turnRouter := services.NewTurnRouter(store, classifier, generator)

	// ──── Initialize Handlers ────
	chatHandler := handlers.NewChatHandler(turnRouter)

	// ──── Step 4: Start HTTP Server ────
	r := router.New(chatHandler, cfg.FrontendURL)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.GenerateTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Medichat Backend ready on http://localhost:%s", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
