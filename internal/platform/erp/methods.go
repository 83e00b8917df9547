package erp

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
)

var salesOrderResource = "/api/resource/" + url.PathEscape("Sales Order")

var dueOrderFields = []string{
	"name",
	"customer",
	"customer_name",
	"custom_telegram_id",
	"next_payment_date",
	"next_payment_amount",
}

func call[T any](ctx context.Context, c *Client, method string, query url.Values) (*Result[T], error) {
	raw, err := c.get(ctx, methodPrefix+method, query)
	if err != nil {
		return nil, err
	}
	return decode[T](method, raw)
}

func chatParam(id int64) string {
	return strconv.FormatInt(id, 10)
}

// LookupByPassport finds a customer by passport series and, when
// platformID is set, links the chat to that customer in the same call.
func (c *Client) LookupByPassport(ctx context.Context, passport string, platformID int64) (*Result[CustomerLookup], error) {
	q := url.Values{"passport_series": {passport}}
	if platformID != 0 {
		q.Set("telegram_chat_id", chatParam(platformID))
	}
	return call[CustomerLookup](ctx, c, "get_customer_by_passport", q)
}

func (c *Client) LookupByPlatformID(ctx context.Context, platformID int64) (*Result[CustomerLookup], error) {
	return call[CustomerLookup](ctx, c, "get_customer_by_telegram_id", url.Values{"telegram_id": {chatParam(platformID)}})
}

func (c *Client) ListContracts(ctx context.Context, platformID int64) (*Result[ContractList], error) {
	return call[ContractList](ctx, c, "get_my_contracts_by_telegram_id", url.Values{"telegram_id": {chatParam(platformID)}})
}

func (c *Client) GetContractDetail(ctx context.Context, contractID string) (*Result[ContractDetail], error) {
	return call[ContractDetail](ctx, c, "get_contract_details", url.Values{"contract_id": {contractID}})
}

func (c *Client) GetPaymentSchedule(ctx context.Context, contractID string) (*Result[PaymentSchedule], error) {
	return call[PaymentSchedule](ctx, c, "get_payment_schedule", url.Values{"contract_id": {contractID}})
}

func (c *Client) GetPaymentHistory(ctx context.Context, contractID string) (*Result[PaymentHistory], error) {
	return call[PaymentHistory](ctx, c, "get_payment_history", url.Values{"contract_id": {contractID}})
}

// ListPaymentHistory returns payments across all contracts of the linked customer.
func (c *Client) ListPaymentHistory(ctx context.Context, platformID int64) (*Result[PaymentHistory], error) {
	return call[PaymentHistory](ctx, c, "get_payment_history_by_telegram_id", url.Values{"telegram_id": {chatParam(platformID)}})
}

func (c *Client) ListReminders(ctx context.Context, platformID int64) (*Result[ReminderList], error) {
	return call[ReminderList](ctx, c, "get_reminders_by_telegram_id", url.Values{"telegram_id": {chatParam(platformID)}})
}

// ListCustomersNeedingReminders returns today's reminder entries; days
// narrows the result to one offset, nil means every bucket.
func (c *Client) ListCustomersNeedingReminders(ctx context.Context, days *int) (*Result[DueReminderList], error) {
	q := url.Values{}
	if days != nil {
		q.Set("reminder_days", strconv.Itoa(*days))
	}
	return call[DueReminderList](ctx, c, "get_customers_needing_reminders", q)
}

// ListActiveDuePayments reads one page of Sales Orders that have a next
// payment date and a linked chat.
func (c *Client) ListActiveDuePayments(ctx context.Context, start, limit int) (*Result[DueOrderPage], error) {
	fields, _ := json.Marshal(dueOrderFields)
	filters, _ := json.Marshal([][]string{
		{"next_payment_date", "is", "set"},
		{"custom_telegram_id", "is", "set"},
	})
	q := url.Values{
		"fields":            {string(fields)},
		"filters":           {string(filters)},
		"limit_start":       {strconv.Itoa(start)},
		"limit_page_length": {strconv.Itoa(limit)},
	}
	raw, err := c.get(ctx, salesOrderResource, q)
	if err != nil {
		return nil, err
	}
	return decode[DueOrderPage]("Sales Order", raw)
}

func (c *Client) GetSupportContact(ctx context.Context) (*Result[SupportContactPayload], error) {
	return call[SupportContactPayload](ctx, c, "get_support_contacts", nil)
}
