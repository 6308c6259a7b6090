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

	"studylog-backend/internal/config"
	"studylog-backend/internal/database"
	"studylog-backend/internal/handlers"
	"studylog-backend/internal/middleware"
	"studylog-backend/internal/models"
	"studylog-backend/internal/repository"
	"studylog-backend/internal/router"
	"studylog-backend/internal/services"
)

func main() {
	log.Println("🚀 Starting Studylog Backend...")

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

	// ──── Step 3: Initialize Redis Client ────
	redisClient, err := database.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClient.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	sessionRepo := repository.NewSessionRepo(pool)
	goalRepo := repository.NewGoalRepo(pool)

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	userLocks := services.NewRedisUserLocker(redisClient)
	sessionService := services.NewSessionService(
		sessionRepo,
		userLocks,
		models.FocusLevel(cfg.DefaultFocusLevel),
		cfg.MaxSessionMinutes,
	)
	statsService := services.NewStatsService(sessionRepo)
	goalService := services.NewGoalService(goalRepo, sessionRepo, cfg.DefaultWeeklyGoalMinutes)

	// ──── Initialize Handlers ────
	sessionHandler := handlers.NewSessionHandler(sessionService)
	statsHandler := handlers.NewStatsHandler(statsService)
	goalHandler := handlers.NewGoalHandler(goalService)

	// ──── Step 5: Start Session Reaper ────
	reaper := services.NewSessionReaper(sessionService, time.Duration(cfg.ReaperIntervalMinutes)*time.Minute)
	reaper.Start()
	log.Println("✓ Session reaper started")

	// ──── Step 6: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		sessionHandler,
		statsHandler,
		goalHandler,
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
		reaper.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Studylog Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
