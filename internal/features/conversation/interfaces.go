package conversation

import (
	"context"

	"erp-telegram-bot/internal/platform/erp"
	"erp-telegram-bot/internal/presentation"
)

type Messenger interface {
	Send(ctx context.Context, chatID int64, reply presentation.Reply) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

// Gateway is the read side of the ERP used by the feature handlers.
type Gateway interface {
	LookupByPlatformID(ctx context.Context, platformID int64) (*erp.Result[erp.CustomerLookup], error)
	ListContracts(ctx context.Context, platformID int64) (*erp.Result[erp.ContractList], error)
	GetContractDetail(ctx context.Context, contractID string) (*erp.Result[erp.ContractDetail], error)
	GetPaymentSchedule(ctx context.Context, contractID string) (*erp.Result[erp.PaymentSchedule], error)
	GetPaymentHistory(ctx context.Context, contractID string) (*erp.Result[erp.PaymentHistory], error)
	ListPaymentHistory(ctx context.Context, platformID int64) (*erp.Result[erp.PaymentHistory], error)
	ListReminders(ctx context.Context, platformID int64) (*erp.Result[erp.ReminderList], error)
}

type SupportContacts interface {
	Contact(ctx context.Context) erp.SupportContact
}
