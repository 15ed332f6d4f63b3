package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/yourusername/satprep-api/internal/config"
	"github.com/yourusername/satprep-api/internal/domain/repository"
	"github.com/yourusername/satprep-api/internal/handler"
	"github.com/yourusername/satprep-api/internal/middleware"
	memoryRepo "github.com/yourusername/satprep-api/internal/repository/memory"
	pgRepo "github.com/yourusername/satprep-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/satprep-api/internal/repository/redis"
	"github.com/yourusername/satprep-api/internal/service"
	ws "github.com/yourusername/satprep-api/internal/websocket"
	"github.com/yourusername/satprep-api/pkg/auth"
	"github.com/yourusername/satprep-api/pkg/database"
	"gorm.io/gorm"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Loading configuration from %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	// Контекст жизненного цикла фоновых горутин
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Хранилище игр и банк вопросов ---
	var (
		gameRepo     repository.GameRepository
		questionRepo repository.QuestionRepository
		db           *gorm.DB
	)
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		log.Println("Storage driver: memory (single instance, state is lost on restart)")
		gameRepo = memoryRepo.NewGameRepo()
		seeded, err := memoryRepo.NewSeededQuestionRepo(cfg.Questions.SeedFile)
		if err != nil {
			log.Printf("Failed to load question bank: %v", err)
			os.Exit(1)
		}
		questionRepo = seeded
	default:
		db, err = database.NewPostgresDB(cfg.Database.PostgresConnectionString(), gin.Mode() != gin.ReleaseMode)
		if err != nil {
			log.Printf("Failed to connect to database: %v", err)
			os.Exit(1)
		}
		if err := database.MigrateDB(db, cfg.Database.MigrationsPath); err != nil {
			log.Printf("Failed to migrate database: %v", err)
			os.Exit(1)
		}
		gameRepo = pgRepo.NewGameRepo(db)
		questionRepo = pgRepo.NewQuestionRepo(db)
	}

	// --- Redis: кеш, rate limiting, рассылка уведомлений между инстансами ---
	var (
		redisClient redis.UniversalClient
		cacheRepo   repository.CacheRepository
	)
	if cfg.Redis.Enabled() {
		redisClient, err = database.NewUniversalRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Printf("Failed to connect to Redis: %v", err)
			os.Exit(1)
		}
		log.Println("Successfully connected to Redis")

		redisCache, err := redisRepo.NewCacheRepo(redisClient)
		if err != nil {
			log.Printf("Failed to initialize CacheRepo: %v", err)
			os.Exit(1)
		}
		cacheRepo = redisCache
	} else {
		log.Println("Redis is not configured: running without cache, rate limiting and cross-instance push")
	}

	// --- WebSocket hub (optional push hints) ---
	var (
		hub      *ws.Hub
		notifier service.GameNotifier
	)
	if cfg.WebSocket.Enabled {
		var provider ws.PubSubProvider
		if redisClient != nil {
			provider = ws.NewRedisPubSub(redisClient)
		}
		hub = ws.NewHub(provider, cfg.WebSocket.Channel)
		notifier = hub
		go func() {
			if err := hub.Run(ctx); err != nil {
				log.Printf("[WS] Hub stopped: %v", err)
			}
		}()
	}

	// --- Сервисы ---
	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpirationHrs)
	if err != nil {
		log.Printf("Failed to initialize JWTService: %v", err)
		os.Exit(1)
	}
	poolService := service.NewQuestionPoolService(questionRepo, cacheRepo, cfg.Game.PoolCacheTTL)
	duelService := service.NewDuelService(gameRepo, poolService, cacheRepo, notifier, cfg.Game.DuelConfig())

	// --- Middleware и обработчики ---
	authMiddleware := middleware.NewAuthMiddleware(jwtService)
	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(redisClient)
	}
	pollLimit := middleware.DefaultPollRateLimitConfig()
	if cfg.RateLimit.PollPerMinute > 0 {
		pollLimit.MaxRequests = cfg.RateLimit.PollPerMinute
	}
	actionLimit := middleware.DefaultActionRateLimitConfig()
	if cfg.RateLimit.ActionPerMinute > 0 {
		actionLimit.MaxRequests = cfg.RateLimit.ActionPerMinute
	}

	gameHandler := handler.NewGameHandler(duelService)
	questionHandler := handler.NewQuestionHandler(poolService)

	router := gin.Default()

	isProduction := gin.Mode() == gin.ReleaseMode
	if isProduction {
		// Replace nil with the load balancer addresses when deployed behind one
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	if len(cfg.CORS.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length", "Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/health", func(c *gin.Context) {
		resp := gin.H{"status": "ok", "storage": cfg.Storage.Driver, "redis": redisClient != nil}
		if hub != nil {
			resp["ws_connections"] = hub.Metrics().ActiveConnections
		}
		c.JSON(http.StatusOK, resp)
	})

	api := router.Group("/api")
	gameHandler.RegisterRoutes(api, authMiddleware.RequireAuth(), limiter.Limit(pollLimit), limiter.Limit(actionLimit))
	questionHandler.RegisterRoutes(api, authMiddleware.RequireAuth())

	if hub != nil {
		wsHandler := handler.NewWSHandler(hub, duelService, jwtService, cfg.CORS.AllowedOrigins)
		router.GET("/ws/games/:code",
			middleware.ExtractGameCode("code", middleware.ContextGameCode),
			limiter.Limit(pollLimit),
			wsHandler.HandleConnection)
		router.GET("/metrics/ws", gin.WrapF(ws.MetricsHandler(hub)))
	}

	// Тайм-ауты защищают от медленных клиентов
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Printf("Error closing Redis client: %v", err)
		}
	}
	if db != nil {
		if err := database.Close(db); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}

	log.Println("Server exited properly")
}
