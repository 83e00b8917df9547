package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	apperrors "erp-telegram-bot/internal/common/errors"
	platformredis "erp-telegram-bot/internal/platform/redis"
)

// ErrMiss возвращается, когда ключа нет в кэше
var ErrMiss = errors.New("cache miss")

type CacheService struct {
	redisClient *platformredis.Client
	prefix      string
	logger      zerolog.Logger
}

func NewCacheService(redisClient *platformredis.Client, prefix string, logger zerolog.Logger) *CacheService {
	return &CacheService{
		redisClient: redisClient,
		prefix:      prefix,
		logger:      logger.With().Str("component", "cache").Logger(),
	}
}

func (c *CacheService) key(k string) string {
	if c.prefix == "" {
		return k
	}
	return c.prefix + ":" + k
}

// Get получает значение из кэша
func (c *CacheService) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.redisClient.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return apperrors.NewCacheError("get", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return apperrors.NewCacheError("decode", err)
	}
	return nil
}

// Set сохраняет значение в кэш
func (c *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	if err := c.redisClient.Set(ctx, c.key(key), data, ttl).Err(); err != nil {
		return apperrors.NewCacheError("set", err)
	}
	return nil
}

func (c *CacheService) Delete(ctx context.Context, key string) error {
	if err := c.redisClient.Del(ctx, c.key(key)).Err(); err != nil {
		return apperrors.NewCacheError("delete", err)
	}
	return nil
}

// GetOrSet получает значение из кэша или вычисляет и сохраняет новое.
// Ошибка записи в кэш не мешает вернуть вычисленное значение.
func (c *CacheService) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, setter func() (interface{}, error)) error {
	if err := c.Get(ctx, key, dest); err == nil {
		return nil
	}

	value, err := setter()
	if err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	if err := c.redisClient.Set(ctx, c.key(key), data, ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", c.key(key)).Msg("Cache write failed, serving computed value")
	}

	return json.Unmarshal(data, dest)
}
