package service

import (
	"context"

	"erp-telegram-bot/internal/features/reminder/models"
	"erp-telegram-bot/internal/platform/erp"
	"erp-telegram-bot/internal/presentation"
)

type Gateway interface {
	ListCustomersNeedingReminders(ctx context.Context, days *int) (*erp.Result[erp.DueReminderList], error)
	ListActiveDuePayments(ctx context.Context, start, limit int) (*erp.Result[erp.DueOrderPage], error)
}

type Messenger interface {
	Send(ctx context.Context, chatID int64, reply presentation.Reply) error
}

type SupportContacts interface {
	Contact(ctx context.Context) erp.SupportContact
}

// Sweeper is one recurring duty run by the Scheduler.
type Sweeper interface {
	Name() string
	Run(ctx context.Context) (models.Report, error)
}
