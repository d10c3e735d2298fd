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

	"github.com/yourusername/brainiac-api/internal/config"
	"github.com/yourusername/brainiac-api/internal/domain/repository"
	"github.com/yourusername/brainiac-api/internal/handler"
	"github.com/yourusername/brainiac-api/internal/middleware"
	memoryRepo "github.com/yourusername/brainiac-api/internal/repository/memory"
	pgRepo "github.com/yourusername/brainiac-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/brainiac-api/internal/repository/redis"
	"github.com/yourusername/brainiac-api/internal/service"
	"github.com/yourusername/brainiac-api/internal/service/ranking"
	ws "github.com/yourusername/brainiac-api/internal/websocket"
	"github.com/yourusername/brainiac-api/pkg/database"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	// Выбираем систему записи результатов
	var leaderboardRepo repository.LeaderboardRepository
	if cfg.Leaderboard.Store == "postgres" {
		db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
		if err != nil {
			log.Printf("Failed to connect to database: %v", err)
			os.Exit(1)
		}
		if err := database.MigrateDB(db); err != nil {
			log.Printf("Failed to migrate database: %v", err)
			os.Exit(1)
		}
		leaderboardRepo = pgRepo.NewLeaderboardRepo(db)
		log.Println("Leaderboard store: postgres")
	} else {
		leaderboardRepo = memoryRepo.NewLeaderboardRepo()
		log.Println("Leaderboard store: memory")
	}

	// Redis опционален: без него отключаются снапшот-кеш и rate limiting
	var redisClient redis.UniversalClient
	var cacheRepo repository.CacheRepository
	if cfg.Redis.Enabled() {
		redisClient, err = database.NewUniversalRedisClient(cfg.Redis)
		if err != nil {
			log.Printf("Failed to connect to Redis: %v. Cache and rate limiting disabled.", err)
		} else {
			log.Println("Successfully connected to Redis")
			repo, err := redisRepo.NewCacheRepo(redisClient)
			if err != nil {
				log.Printf("Failed to initialize CacheRepo: %v", err)
				os.Exit(1)
			}
			cacheRepo = repo
		}
	}

	// Параметры ранжирования
	rankingOpts := ranking.Options{
		DedupByIdentity: cfg.Leaderboard.DedupByIdentity,
		StarThresholds:  ranking.PercentageThresholds(),
	}
	if cfg.Leaderboard.StarScheme == "questions" {
		rankingOpts.StarThresholds = ranking.QuestionCountThresholds()
	}

	// Инициализация WebSocket
	wsHub := ws.NewHub()
	wsManager := ws.NewManager(wsHub)

	// Инициализируем сервис лидерборда
	leaderboardService := service.NewLeaderboardService(
		leaderboardRepo,
		cacheRepo,
		wsManager,
		rankingOpts,
		cfg.Leaderboard.PageSize,
	)

	// При store=memory результаты живут только в процессе;
	// снапшот в Redis переживает рестарт
	if cfg.Leaderboard.Store == "memory" {
		leaderboardService.RestoreFromCache()
	}

	// Инициализируем обработчики
	leaderboardHandler := handler.NewLeaderboardHandler(leaderboardService)
	wsHandler := handler.NewWSHandler(wsHub, wsManager, leaderboardService, cfg.CORS.AllowedOrigins)

	// Инициализируем роутер Gin
	router := gin.Default()

	isProduction := gin.Mode() == gin.ReleaseMode

	// Настройка доверенных прокси для корректной работы c.ClientIP()
	// В production: не доверяем прокси (защита от IP spoofing).
	// При деплое за load balancer добавьте его IP в список.
	if isProduction {
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	// Настройка CORS (синхронизировано с CheckOrigin в WSHandler)
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Настраиваем маршруты
	leaderboard := router.Group("/leaderboard")
	if redisClient != nil {
		rateLimiter := middleware.NewRateLimiter(redisClient)
		leaderboard.Use(rateLimiter.LimitByIP(middleware.GlobalRateLimitConfig(
			cfg.RateLimit.MaxRequests,
			time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute,
		)))

		leaderboard.POST("", rateLimiter.Limit(middleware.SubmitRateLimitConfig()), leaderboardHandler.Submit)
		leaderboard.POST("/like", rateLimiter.Limit(middleware.LikeRateLimitConfig()), leaderboardHandler.Like)
		leaderboard.POST("/unlike", rateLimiter.Limit(middleware.LikeRateLimitConfig()), leaderboardHandler.Unlike)
	} else {
		leaderboard.POST("", leaderboardHandler.Submit)
		leaderboard.POST("/like", leaderboardHandler.Like)
		leaderboard.POST("/unlike", leaderboardHandler.Unlike)
	}
	{
		leaderboard.GET("", leaderboardHandler.List)
		leaderboard.GET("/export", leaderboardHandler.Export)

		playerWithID := leaderboard.Group("/player/:id")
		playerWithID.Use(middleware.ExtractUintParam("id", "playerID"))
		{
			playerWithID.GET("", leaderboardHandler.GetPlayer)
		}
	}

	// WebSocket маршрут
	router.GET("/ws", wsHandler.HandleConnection)

	// Корень отвечает текстом — простейшая проверка живости
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Brainiac leaderboard API is running")
	})

	// Страница здоровья для балансировщика
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"clients": wsHub.ClientCount(),
		})
	})

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	// Ожидаем сигнал остановки
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Printf("Error closing Redis client: %v", err)
		}
	}

	log.Println("Server exited properly")
}
