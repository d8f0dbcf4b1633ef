package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai-doc-authoring/auth"
	"ai-doc-authoring/internal/config"
	"ai-doc-authoring/internal/db"
	"ai-doc-authoring/internal/export"
	"ai-doc-authoring/internal/llm"
	"ai-doc-authoring/internal/lock"
	"ai-doc-authoring/internal/logging"
	"ai-doc-authoring/internal/middleware"
	"ai-doc-authoring/internal/project"
	"ai-doc-authoring/internal/user"
	"ai-doc-authoring/internal/worker"
	"ai-doc-authoring/redis"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger := logging.New(cfg.Environment, cfg.LogLevel)

	// Storage
	var (
		userRepo    user.UserRepository
		projectRepo project.Repository
	)
	switch cfg.StorageDriver {
	case "memory":
		userRepo = user.NewMemoryRepository()
		projectRepo = project.NewMemoryRepository()
		logger.Warn().Msg("using in-memory storage, data is lost on restart")
	default:
		conn, err := db.Connect(cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("cannot connect to database")
		}
		defer func() {
			if err := db.Close(conn); err != nil {
				logger.Error().Err(err).Msg("closing database")
			}
		}()
		if err := db.Migrate(conn); err != nil {
			logger.Fatal().Err(err).Msg("cannot migrate database")
		}
		logger.Info().Msg("database schema migrated")
		userRepo = user.NewRepository(conn)
		projectRepo = project.NewRepository(conn)
	}

	// Redis is optional: without it there is no list cache and no logout revocation
	redisClient := redis.NewClient(context.Background(), cfg.RedisAddress, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}
	cache := redis.NewCache(redisClient)

	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	sessions := auth.NewSessions(cache)

	generator := llm.New(llm.Settings{
		Provider:        cfg.LLMProvider,
		AnthropicAPIKey: cfg.AnthropicAPIKey,
		AnthropicModel:  cfg.AnthropicModel,
		GeminiAPIKey:    cfg.GeminiAPIKey,
		GeminiModel:     cfg.GeminiModel,
		GeminiBaseURL:   cfg.GeminiBaseURL,
		MaxConcurrent:   cfg.GenerationConcurrency,
	}, logger)
	presets := llm.DefaultPresets()

	pool := worker.NewWorkerPool(cfg.GenerateAllWorkers)
	defer pool.Shutdown()

	userService := user.NewService(userRepo, issuer, sessions, logger)
	projectService := project.NewService(projectRepo, generator, export.NewPandocRenderer(cfg.PandocPath), cache, project.Options{
		Presets:           presets,
		Pool:              pool,
		Locks:             lock.NewManager(),
		GenerationTimeout: cfg.GenerationTimeout,
		Logger:            logger,
	})

	if cfg.SeedData {
		db.SeedData(context.Background(), userService, logger)
	}

	userHandler := user.NewHandler(userService)
	projectHandler := project.NewHandler(projectService, presets)
	authMiddleware := &middleware.Auth{Issuer: issuer, Sessions: sessions}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(logger), middleware.ErrorHandler(logger))

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: false,
	}
	if cfg.Environment == "development" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = []string{cfg.FrontendAddress}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST("/register", userHandler.Register)
	router.POST("/login", userHandler.Login)

	authorized := router.Group("/", authMiddleware.AuthMiddleWare())
	authorized.DELETE("/logout", userHandler.Logout)
	authorized.GET("/profile", userHandler.GetProfile)
	projectHandler.RegisterRoutes(authorized)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: router.Handler(),
	}

	go func() {
		logger.Info().Str("port", cfg.ServerPort).Msg("server listening")
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down server")

	// generation calls may run up to the generation timeout
	ctx, cancel := context.WithTimeout(context.Background(), cfg.GenerationTimeout+5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown error")
	}
	logger.Info().Msg("server shutdown complete")
}
