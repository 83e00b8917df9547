package repository

import (
	"context"

	"erp-telegram-bot/internal/features/reminder/models"
)

// Ledger remembers which notices were already delivered.
type Ledger interface {
	// Claim marks key as sent and reports whether the caller won it.
	Claim(ctx context.Context, key models.NoticeKey, runID string) (bool, error)
	// Release undoes a claim whose delivery failed.
	Release(ctx context.Context, key models.NoticeKey) error
}
