package service

import (
	"context"

	"erp-telegram-bot/internal/platform/erp"
)

// Gateway is the part of the ERP client the machine needs.
type Gateway interface {
	LookupByPassport(ctx context.Context, passport string, platformID int64) (*erp.Result[erp.CustomerLookup], error)
	LookupByPlatformID(ctx context.Context, platformID int64) (*erp.Result[erp.CustomerLookup], error)
}

// ReservedText reports whether a text belongs to the menu and must never be
// read as passport input.
type ReservedText func(text string) bool
