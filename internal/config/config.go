package config

import (
	"os"
	"strconv"

	"blueprint-eval-go/internal/matcher"
	"blueprint-eval-go/internal/metrics"
	"blueprint-eval-go/internal/validator"
)

// Config структура конфигурации приложения
type Config struct {
	Server struct {
		Port        int
		Host        string
		Environment string
	}
	ModelAPI struct {
		BaseURL string
		Timeout int // в секундах
	}
	Redis struct {
		Addr       string // Пустая строка отключает кэш
		Password   string
		DB         int
		TTLSeconds int
	}
	Evaluation struct {
		IoUThreshold float64
		WorstN       int
		Workers      int
	}
	Confidence struct {
		MissingNamePenalty float64
		SmallAreaPenalty   float64
		MinArea            float64
	}
	Logging struct {
		Level string
	}
}

// LoadConfig загружает конфигурацию из переменных окружения
func LoadConfig() *Config {
	cfg := &Config{}

	// Конфигурация сервера
	cfg.Server.Port = getEnvInt("SERVER_PORT", 8080)
	cfg.Server.Host = getEnv("SERVER_HOST", "0.0.0.0")
	cfg.Server.Environment = getEnv("ENVIRONMENT", "development")

	// Конфигурация шлюза vision-модели
	cfg.ModelAPI.BaseURL = getEnv("MODEL_API_BASE_URL", "http://localhost:8000")
	cfg.ModelAPI.Timeout = getEnvInt("MODEL_API_TIMEOUT_SECONDS", 120)

	// Конфигурация Redis-кэша
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)
	cfg.Redis.TTLSeconds = getEnvInt("REDIS_TTL_SECONDS", 3600)

	// Конфигурация оценки точности
	cfg.Evaluation.IoUThreshold = getEnvFloat("IOU_THRESHOLD", matcher.DefaultIoUThreshold)
	cfg.Evaluation.WorstN = getEnvInt("WORST_CASES_LIMIT", metrics.DefaultWorstN)
	cfg.Evaluation.Workers = getEnvInt("EVALUATION_WORKERS", 4)

	// Константы эвристики confidence — политика, настраиваемая без изменения кода
	cfg.Confidence.MissingNamePenalty = getEnvFloat("CONFIDENCE_MISSING_NAME_PENALTY", validator.DefaultMissingNamePenalty)
	cfg.Confidence.SmallAreaPenalty = getEnvFloat("CONFIDENCE_SMALL_AREA_PENALTY", validator.DefaultSmallAreaPenalty)
	cfg.Confidence.MinArea = getEnvFloat("CONFIDENCE_MIN_AREA", validator.DefaultMinArea)

	// Конфигурация логирования
	cfg.Logging.Level = getEnv("LOG_LEVEL", "info")

	return cfg
}

// ValidatorConfig возвращает конфигурацию эвристики confidence для валидатора
func (c *Config) ValidatorConfig() validator.Config {
	return validator.Config{
		MissingNamePenalty: c.Confidence.MissingNamePenalty,
		SmallAreaPenalty:   c.Confidence.SmallAreaPenalty,
		MinArea:            c.Confidence.MinArea,
	}
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает int значение переменной окружения или возвращает значение по умолчанию
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat получает float64 значение переменной окружения или возвращает значение по умолчанию
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
