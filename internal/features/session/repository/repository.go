package repository

import (
	"context"

	"erp-telegram-bot/internal/features/session/models"
)

// SessionRepository keeps per-identity conversation state. Implementations
// must be safe for concurrent use across identities and survive restarts.
type SessionRepository interface {
	GetStage(ctx context.Context, userID int64) (models.Stage, error)
	SetStage(ctx context.Context, userID int64, stage models.Stage) error
	GetData(ctx context.Context, userID int64) (map[string]string, error)
	// UpdateData merges values into the stored data.
	UpdateData(ctx context.Context, userID int64, values map[string]string) error
	// Clear resets the stage to idle and drops all data. Idempotent.
	Clear(ctx context.Context, userID int64) error
	Get(ctx context.Context, userID int64) (*models.Session, error)
}
