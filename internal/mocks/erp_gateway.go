package mocks

import (
	"context"
	"sync"

	"erp-telegram-bot/internal/platform/erp"
)

// ERPGateway is a func-field double of the ERP client. Unset functions answer
// with an empty successful result. Every call is counted by method name.
type ERPGateway struct {
	LookupByPassportFunc              func(ctx context.Context, passport string, platformID int64) (*erp.Result[erp.CustomerLookup], error)
	LookupByPlatformIDFunc            func(ctx context.Context, platformID int64) (*erp.Result[erp.CustomerLookup], error)
	ListContractsFunc                 func(ctx context.Context, platformID int64) (*erp.Result[erp.ContractList], error)
	GetContractDetailFunc             func(ctx context.Context, contractID string) (*erp.Result[erp.ContractDetail], error)
	GetPaymentScheduleFunc            func(ctx context.Context, contractID string) (*erp.Result[erp.PaymentSchedule], error)
	GetPaymentHistoryFunc             func(ctx context.Context, contractID string) (*erp.Result[erp.PaymentHistory], error)
	ListPaymentHistoryFunc            func(ctx context.Context, platformID int64) (*erp.Result[erp.PaymentHistory], error)
	ListRemindersFunc                 func(ctx context.Context, platformID int64) (*erp.Result[erp.ReminderList], error)
	ListCustomersNeedingRemindersFunc func(ctx context.Context, days *int) (*erp.Result[erp.DueReminderList], error)
	ListActiveDuePaymentsFunc         func(ctx context.Context, start, limit int) (*erp.Result[erp.DueOrderPage], error)
	GetSupportContactFunc             func(ctx context.Context) (*erp.Result[erp.SupportContactPayload], error)
	PingFunc                          func(ctx context.Context) error

	mu    sync.Mutex
	calls map[string]int
}

func NewERPGateway() *ERPGateway {
	return &ERPGateway{}
}

func (m *ERPGateway) record(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[method]++
}

// Calls returns how many times method was invoked.
func (m *ERPGateway) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

// TotalCalls returns the number of invocations across all methods.
func (m *ERPGateway) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

func ok[T any]() *erp.Result[T] {
	return &erp.Result[T]{Success: true}
}

func (m *ERPGateway) LookupByPassport(ctx context.Context, passport string, platformID int64) (*erp.Result[erp.CustomerLookup], error) {
	m.record("LookupByPassport")
	if m.LookupByPassportFunc != nil {
		return m.LookupByPassportFunc(ctx, passport, platformID)
	}
	return &erp.Result[erp.CustomerLookup]{ErrorCode: erp.CodeCustomerNotFound}, nil
}

func (m *ERPGateway) LookupByPlatformID(ctx context.Context, platformID int64) (*erp.Result[erp.CustomerLookup], error) {
	m.record("LookupByPlatformID")
	if m.LookupByPlatformIDFunc != nil {
		return m.LookupByPlatformIDFunc(ctx, platformID)
	}
	return &erp.Result[erp.CustomerLookup]{ErrorCode: erp.CodeCustomerNotFound}, nil
}

func (m *ERPGateway) ListContracts(ctx context.Context, platformID int64) (*erp.Result[erp.ContractList], error) {
	m.record("ListContracts")
	if m.ListContractsFunc != nil {
		return m.ListContractsFunc(ctx, platformID)
	}
	return ok[erp.ContractList](), nil
}

func (m *ERPGateway) GetContractDetail(ctx context.Context, contractID string) (*erp.Result[erp.ContractDetail], error) {
	m.record("GetContractDetail")
	if m.GetContractDetailFunc != nil {
		return m.GetContractDetailFunc(ctx, contractID)
	}
	return ok[erp.ContractDetail](), nil
}

func (m *ERPGateway) GetPaymentSchedule(ctx context.Context, contractID string) (*erp.Result[erp.PaymentSchedule], error) {
	m.record("GetPaymentSchedule")
	if m.GetPaymentScheduleFunc != nil {
		return m.GetPaymentScheduleFunc(ctx, contractID)
	}
	return ok[erp.PaymentSchedule](), nil
}

func (m *ERPGateway) GetPaymentHistory(ctx context.Context, contractID string) (*erp.Result[erp.PaymentHistory], error) {
	m.record("GetPaymentHistory")
	if m.GetPaymentHistoryFunc != nil {
		return m.GetPaymentHistoryFunc(ctx, contractID)
	}
	return ok[erp.PaymentHistory](), nil
}

func (m *ERPGateway) ListPaymentHistory(ctx context.Context, platformID int64) (*erp.Result[erp.PaymentHistory], error) {
	m.record("ListPaymentHistory")
	if m.ListPaymentHistoryFunc != nil {
		return m.ListPaymentHistoryFunc(ctx, platformID)
	}
	return ok[erp.PaymentHistory](), nil
}

func (m *ERPGateway) ListReminders(ctx context.Context, platformID int64) (*erp.Result[erp.ReminderList], error) {
	m.record("ListReminders")
	if m.ListRemindersFunc != nil {
		return m.ListRemindersFunc(ctx, platformID)
	}
	return ok[erp.ReminderList](), nil
}

func (m *ERPGateway) ListCustomersNeedingReminders(ctx context.Context, days *int) (*erp.Result[erp.DueReminderList], error) {
	m.record("ListCustomersNeedingReminders")
	if m.ListCustomersNeedingRemindersFunc != nil {
		return m.ListCustomersNeedingRemindersFunc(ctx, days)
	}
	return ok[erp.DueReminderList](), nil
}

func (m *ERPGateway) ListActiveDuePayments(ctx context.Context, start, limit int) (*erp.Result[erp.DueOrderPage], error) {
	m.record("ListActiveDuePayments")
	if m.ListActiveDuePaymentsFunc != nil {
		return m.ListActiveDuePaymentsFunc(ctx, start, limit)
	}
	return ok[erp.DueOrderPage](), nil
}

func (m *ERPGateway) GetSupportContact(ctx context.Context) (*erp.Result[erp.SupportContactPayload], error) {
	m.record("GetSupportContact")
	if m.GetSupportContactFunc != nil {
		return m.GetSupportContactFunc(ctx)
	}
	return ok[erp.SupportContactPayload](), nil
}

func (m *ERPGateway) Ping(ctx context.Context) error {
	m.record("Ping")
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}
