package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "erp-telegram-bot/internal/common/errors"
	"erp-telegram-bot/internal/features/session/models"
	"erp-telegram-bot/internal/features/session/repository"
	platformredis "erp-telegram-bot/internal/platform/redis"
)

type sessionRepository struct {
	client *platformredis.Client
	ttl    time.Duration
}

// NewSessionRepository stores the stage as a string and the data as a hash.
// A positive ttl is refreshed on every write; zero keeps sessions forever.
func NewSessionRepository(client *platformredis.Client, ttl time.Duration) repository.SessionRepository {
	return &sessionRepository{
		client: client,
		ttl:    ttl,
	}
}

func stageKey(userID int64) string {
	return fmt.Sprintf("session:%d:stage", userID)
}

func dataKey(userID int64) string {
	return fmt.Sprintf("session:%d:data", userID)
}

func (r *sessionRepository) GetStage(ctx context.Context, userID int64) (models.Stage, error) {
	raw, err := r.client.Get(ctx, stageKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return models.StageIdle, nil
	}
	if err != nil {
		return models.StageIdle, apperrors.NewSessionError("get stage", err).WithUserID(userID)
	}
	return models.ParseStage(raw), nil
}

func (r *sessionRepository) SetStage(ctx context.Context, userID int64, stage models.Stage) error {
	if stage == models.StageIdle {
		// idle is the absence of a stage key
		if err := r.client.Del(ctx, stageKey(userID)).Err(); err != nil {
			return apperrors.NewSessionError("reset stage", err).WithUserID(userID)
		}
		return nil
	}
	if err := r.client.Set(ctx, stageKey(userID), string(stage), r.ttl).Err(); err != nil {
		return apperrors.NewSessionError("set stage", err).WithUserID(userID)
	}
	return nil
}

func (r *sessionRepository) GetData(ctx context.Context, userID int64) (map[string]string, error) {
	data, err := r.client.HGetAll(ctx, dataKey(userID)).Result()
	if err != nil {
		return nil, apperrors.NewSessionError("get data", err).WithUserID(userID)
	}
	return data, nil
}

func (r *sessionRepository) UpdateData(ctx context.Context, userID int64, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	fields := make(map[string]interface{}, len(values))
	for k, v := range values {
		fields[k] = v
	}

	key := dataKey(userID)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fields)
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		return apperrors.NewSessionError("update data", err).WithUserID(userID)
	}
	return nil
}

func (r *sessionRepository) Clear(ctx context.Context, userID int64) error {
	if err := r.client.Del(ctx, stageKey(userID), dataKey(userID)).Err(); err != nil {
		return apperrors.NewSessionError("clear", err).WithUserID(userID)
	}
	return nil
}

func (r *sessionRepository) Get(ctx context.Context, userID int64) (*models.Session, error) {
	stage, err := r.GetStage(ctx, userID)
	if err != nil {
		return nil, err
	}
	data, err := r.GetData(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.Session{UserID: userID, Stage: stage, Data: data}, nil
}
