package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Cache кэширует результаты валидации ответов модели в Redis.
// Ответ модели на один и тот же чертеж детерминированно валидируется,
// поэтому ключом служит хэш сырого текста ответа.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

// Config конфигурация Redis-кэша
type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// New создает новый кэш поверх Redis
func New(cfg Config, logger *logrus.Logger) *Cache {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &Cache{
		client: client,
		ttl:    cfg.TTL,
		logger: logger,
	}
}

// ResponseKey строит ключ кэша по сырому тексту ответа модели
func ResponseKey(responseText string) string {
	sum := sha256.Sum256([]byte(responseText))
	return "validated:" + hex.EncodeToString(sum[:])
}

// Get читает закэшированное значение по ключу.
// Возвращает false при промахе; ошибка чтения трактуется как промах.
func (c *Cache) Get(ctx context.Context, key string, dest any) bool {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warnf("Ошибка чтения из Redis: %v", err)
		}
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Warnf("Ошибка десериализации значения из кэша: %v", err)
		return false
	}

	return true
}

// Set сохраняет значение в кэше с настроенным TTL
func (c *Cache) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("ошибка сериализации значения для кэша: %w", err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("ошибка записи в Redis: %w", err)
	}

	return nil
}

// Ping проверяет доступность Redis
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close закрывает соединение с Redis
func (c *Cache) Close() error {
	return c.client.Close()
}
