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

	"explorers-backend/internal/cache"
	"explorers-backend/internal/config"
	"explorers-backend/internal/database"
	"explorers-backend/internal/handlers"
	"explorers-backend/internal/middleware"
	"explorers-backend/internal/progress"
	"explorers-backend/internal/queue"
	"explorers-backend/internal/repository"
	"explorers-backend/internal/router"
	"explorers-backend/internal/services"
	"explorers-backend/internal/session"
	"explorers-backend/internal/websocket"
	"explorers-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting AI Explorers Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	progressRepo := repository.NewProgressRepo(pool)
	activityRepo := repository.NewActivityRepo(pool)

	// ──── Initialize Cache, Queue and Services ────
	cacheStore := cache.NewStore(redisClients.Cache)
	syncQueue := queue.New(redisClients.Queue)
	sessionAuth := middleware.NewSessionAuth(cfg.JWTSecret)
	adminAuth := middleware.NewAdminAuth(cfg.AdminKeyHash)

	var feedbackService *services.FeedbackService
	if cfg.GeminiAPIKey != "" {
		feedbackService, err = services.NewFeedbackService(cfg.GeminiAPIKey, cfg.GeminiConcurrentReqs)
		if err != nil {
			log.Fatalf("✗ Gemini client initialization failed: %v", err)
		}
		defer feedbackService.Close()
		log.Println("✓ Reflection feedback enabled (Gemini)")
	} else {
		log.Println("  Reflection feedback disabled (no GEMINI_API_KEY)")
	}

	sessionManager := session.NewManager(userRepo, progressRepo, cacheStore, sessionAuth)
	syncer := progress.NewSyncer(cacheStore, syncQueue)

	// ──── Initialize Handlers ────
	sessionHandler := handlers.NewSessionHandler(sessionManager)
	progressHandler := handlers.NewProgressHandler(syncer)
	activityHandler := handlers.NewActivityHandler(activityRepo)
	adminHandler := handlers.NewAdminHandler(userRepo, progressRepo)

	// ──── Step 5: Start Sync Worker Pool ────
	workerPool := worker.NewPool(redisClients.Queue, progressRepo, feedbackService, cfg.SyncWorkers)
	workerPool.Start()
	log.Printf("✓ Sync worker pool started (%d goroutines)", cfg.SyncWorkers)

	// ──── Step 6: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, sessionAuth)
	log.Println("✓ WebSocket hub started")

	// ──── Step 7: Start HTTP Server ────
	r := router.New(
		sessionAuth,
		adminAuth,
		sessionHandler,
		progressHandler,
		activityHandler,
		adminHandler,
		wsHub,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		workerPool.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ AI Explorers Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
