package redis

import (
	"context"
	"time"

	apperrors "erp-telegram-bot/internal/common/errors"
	"erp-telegram-bot/internal/features/reminder/models"
	"erp-telegram-bot/internal/features/reminder/repository"
	platformredis "erp-telegram-bot/internal/platform/redis"
)

const keyPrefix = "reminder:sent:"

type ledger struct {
	client *platformredis.Client
	ttl    time.Duration
}

func NewLedger(client *platformredis.Client, ttl time.Duration) repository.Ledger {
	return &ledger{client: client, ttl: ttl}
}

func (l *ledger) Claim(ctx context.Context, key models.NoticeKey, runID string) (bool, error) {
	ok, err := l.client.SetNX(ctx, keyPrefix+key.String(), runID, l.ttl).Result()
	if err != nil {
		return false, apperrors.NewCacheError("ledger claim", err).WithDetail("key", key.String())
	}
	return ok, nil
}

func (l *ledger) Release(ctx context.Context, key models.NoticeKey) error {
	if err := l.client.Del(ctx, keyPrefix+key.String()).Err(); err != nil {
		return apperrors.NewCacheError("ledger release", err).WithDetail("key", key.String())
	}
	return nil
}
