package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"blueprint-eval-go/internal/cache"
	"blueprint-eval-go/internal/client"
	"blueprint-eval-go/internal/config"
	"blueprint-eval-go/internal/database"
	"blueprint-eval-go/internal/handler"
	"blueprint-eval-go/internal/repository"
	"blueprint-eval-go/internal/service"
	"blueprint-eval-go/internal/validator"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	// Инициализируем логгер
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	logger.Info("Запуск Blueprint Eval API Server")

	// Получаем конфигурацию из переменных окружения
	cfg := config.LoadConfig()

	if level, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
		logger.SetLevel(level)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	// Инициализируем базу данных
	logger.Info("Подключение к базе данных...")
	if err := database.Connect(); err != nil {
		logger.Fatalf("Ошибка подключения к базе данных: %v", err)
	}

	// Выполняем миграции
	logger.Info("Выполнение миграций базы данных...")
	if err := database.Migrate(); err != nil {
		logger.Fatalf("Ошибка выполнения миграций: %v", err)
	}

	// Проверяем здоровье базы данных
	if err := database.HealthCheck(); err != nil {
		logger.Fatalf("База данных недоступна: %v", err)
	}

	logger.Info("База данных успешно подключена и готова к работе")

	// Инициализируем Redis-кэш (опционально)
	var resultCache *cache.Cache
	if cfg.Redis.Addr != "" {
		resultCache = cache.New(cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      time.Duration(cfg.Redis.TTLSeconds) * time.Second,
		}, logger)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := resultCache.Ping(ctx); err != nil {
			logger.Warnf("Redis недоступен, кэш отключен: %v", err)
			resultCache = nil
		} else {
			logger.Infof("Redis-кэш подключен: %s", cfg.Redis.Addr)
		}
		cancel()
	}

	// Инициализируем клиент vision API
	visionClient := client.NewVisionAPIClient(
		cfg.ModelAPI.BaseURL,
		time.Duration(cfg.ModelAPI.Timeout)*time.Second,
		logger,
	)

	// Инициализируем репозитории
	evalRepo := repository.NewEvaluationRepository(database.DB)

	// Инициализируем сервисы
	roomValidator := validator.New(cfg.ValidatorConfig())
	detectionService := service.NewDetectionService(visionClient, roomValidator, resultCache, logger)
	evaluationService := service.NewEvaluationService(
		evalRepo,
		roomValidator,
		cfg.Evaluation.IoUThreshold,
		cfg.Evaluation.WorstN,
		cfg.Evaluation.Workers,
		logger,
	)

	// Инициализируем обработчики
	detectionHandler := handler.NewDetectionHandler(detectionService, logger)
	evaluationHandler := handler.NewEvaluationHandler(evaluationService, logger)

	// Настраиваем Gin router
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Добавляем middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	// Регистрируем маршруты
	detectionHandler.RegisterRoutes(router)
	evaluationHandler.RegisterRoutes(router)

	// Добавляем базовый маршрут для проверки
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Blueprint Eval API Server",
			"version": "1.0.0",
			"status":  "running",
		})
	})

	// Запускаем сервер
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("Сервер запущен на порту %d", cfg.Server.Port)
	logger.Infof("API доступно по адресу: http://localhost:%d/api/v1", cfg.Server.Port)

	if err := router.Run(serverAddr); err != nil {
		logger.Fatalf("Ошибка запуска сервера: %v", err)
	}
}

// corsMiddleware добавляет заголовки CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")
		c.Header("Access-Control-Allow-Credentials", "true")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
