package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studynook-backend/internal/config"
	"studynook-backend/internal/database"
	"studynook-backend/internal/handlers"
	"studynook-backend/internal/llm"
	"studynook-backend/internal/logger"
	"studynook-backend/internal/middleware"
	"studynook-backend/internal/repository"
	"studynook-backend/internal/router"
	"studynook-backend/internal/services"
	"studynook-backend/internal/websocket"
	"studynook-backend/internal/worker"
	"studynook-backend/migrations"
)

// aiBurst is how many AI requests a user may fire back to back.
const aiBurst = 5

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()

	log := logger.New(
		logger.WithLevel(cfg.LogLevel),
		logger.WithJSON(cfg.IsProduction()),
		logger.WithPretty(!cfg.IsProduction()),
	)
	slog.SetDefault(log)
	log.Info("starting studynook backend", "env", cfg.Env)

	ctx := context.Background()

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	log.Info("postgres connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	defer redisClients.Close()
	log.Info("redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(ctx, pool, migrations.FS, log); err != nil {
		log.Error("database migration failed", "error", err)
		os.Exit(1)
	}

	// ──── Step 5: Initialize Gemini Client ────
	llmClient, closeLLM, err := llm.NewClient(ctx, cfg.AI.Gemini(), llm.NewLogObserver(log))
	if err != nil {
		log.Error("gemini client initialization failed", "error", err)
		os.Exit(1)
	}
	defer closeLLM()

	// ──── Initialize Repositories ────
	materialRepo := repository.NewMaterialRepo(pool)
	artifactRepo := repository.NewArtifactRepo(pool)
	jobRepo := repository.NewJobRepo(pool)

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.AuthJWTSecret)
	studyService := services.NewStudyService(llmClient, log)
	if studyService.Configured() {
		log.Info("gemini client initialized", "model", cfg.AI.Model, "vision_model", cfg.AI.VisionModel)
	} else {
		log.Warn("GEMINI_API_KEY is not set; AI endpoints will answer with placeholders")
	}
	artifactGenerator := services.NewArtifactGenerator(studyService)
	fileExtractService := services.NewFileExtractService()
	youtubeService := services.NewYouTubeService(log)
	queue := database.NewQueue(redisClients.Queue)

	aiLimiter := middleware.NewRateLimiter(cfg.AIRequestsPerMinute, aiBurst)
	defer aiLimiter.Stop()

	// ──── Initialize Handlers ────
	aiHandler := handlers.NewAIHandler(studyService, materialRepo, fileExtractService, cfg.MaxUploadBytes())
	materialHandler := handlers.NewMaterialHandler(materialRepo, fileExtractService, youtubeService, cfg.MaxUploadBytes())
	artifactHandler := handlers.NewArtifactHandler(artifactRepo, jobRepo, artifactGenerator, queue, log)
	jobHandler := handlers.NewJobHandler(jobRepo)

	// ──── Step 6: Start Job Worker Pool ────
	workerPool := worker.NewPool(
		redisClients.Queue,
		artifactGenerator,
		jobRepo,
		artifactRepo,
		queue,
		log,
		cfg.WorkerCount,
	)
	workerPool.Start()

	// ──── Step 7: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, jwtAuth, log)

	// ──── Step 8: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		aiLimiter,
		aiHandler,
		materialHandler,
		artifactHandler,
		jobHandler,
		wsHub,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     r,
		ReadTimeout: 30 * time.Second,
		// model calls can take up to the configured timeout
		WriteTimeout: cfg.AI.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("shutting down")
		workerPool.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Info("studynook backend ready",
		"api", fmt.Sprintf("http://localhost:%s/api/v1", cfg.Port),
		"ws", fmt.Sprintf("ws://localhost:%s/api/v1/ws", cfg.Port),
	)

	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
