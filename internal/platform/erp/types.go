package erp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ChatID is a Telegram chat id as stored in the ERP. Depending on the
// doctype it is serialised as a number or a string, sometimes empty or
// hand-typed ("@ali", "n/a"). Anything that is not an integer decodes to
// the invalid zero id so one bad row never fails a whole list.
type ChatID int64

func (id *ChatID) UnmarshalJSON(b []byte) error {
	*id = 0
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	raw := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
	}
	if v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err == nil {
		*id = ChatID(v)
	}
	return nil
}

func (id ChatID) Int64() int64 { return int64(id) }

func (id ChatID) Valid() bool { return id != 0 }

var dateLayouts = []string{"2006-01-02", "02.01.2006", "2006-01-02 15:04:05", time.RFC3339}

// ParseDate accepts the date shapes the ERP emits and returns midnight UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

type Customer struct {
	ID             string `json:"customer_id"`
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	PassportID     string `json:"passport_series"`
	TelegramChatID ChatID `json:"telegram_chat_id"`
}

func (c *Customer) UnmarshalJSON(b []byte) error {
	type plain Customer
	aux := struct {
		*plain
		CustomerName string `json:"customer_name"`
	}{plain: (*plain)(c)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if c.Name == "" {
		c.Name = aux.CustomerName
	}
	return nil
}

type Product struct {
	Name       string  `json:"name"`
	Qty        float64 `json:"qty"`
	Price      float64 `json:"price"`
	TotalPrice float64 `json:"total_price"`
	IMEI       string  `json:"imei"`
	Notes      string  `json:"notes"`
}

type ScheduleEntry struct {
	Month       int     `json:"payment_number"`
	DueDate     string  `json:"due_date"`
	Amount      float64 `json:"amount"`
	Paid        float64 `json:"paid"`
	Outstanding float64 `json:"outstanding"`
	Status      string  `json:"status"`
	StatusText  string  `json:"status_uz"`
}

type NextPayment struct {
	DueDate   string  `json:"due_date"`
	Amount    float64 `json:"amount"`
	DaysLeft  int     `json:"days_left"`
	IsOverdue bool    `json:"is_overdue"`
}

type Contract struct {
	ID           string          `json:"contract_id"`
	Date         string          `json:"contract_date"`
	CustomerName string          `json:"customer_name"`
	TotalAmount  float64         `json:"total_amount"`
	Downpayment  float64         `json:"downpayment"`
	Paid         float64         `json:"paid"`
	Remaining    float64         `json:"remaining"`
	Status       string          `json:"status"`
	StatusText   string          `json:"status_uz"`
	Products     []Product       `json:"products"`
	Schedule     []ScheduleEntry `json:"schedule"`
	NextPayment  *NextPayment    `json:"next_payment"`
}

type Payment struct {
	ID         string  `json:"payment_id"`
	ContractID string  `json:"contract_id"`
	Date       string  `json:"date"`
	Amount     float64 `json:"amount"`
	Method     string  `json:"method"`
}

// Reminder is an upcoming or overdue instalment shown on request.
type Reminder struct {
	ContractID   string  `json:"contract_id"`
	DueDate      string  `json:"due_date"`
	Amount       float64 `json:"amount"`
	Outstanding  float64 `json:"outstanding"`
	DaysLeft     int     `json:"days_left"`
	Status       string  `json:"status"`
	StatusText   string  `json:"status_uz"`
	ReminderType string  `json:"reminder_type"`
}

// DueReminder is one entry of the daily reminder list, already bucketed by the ERP.
type DueReminder struct {
	CustomerID     string  `json:"customer_id"`
	CustomerName   string  `json:"customer_name"`
	TelegramChatID ChatID  `json:"telegram_chat_id"`
	ContractID     string  `json:"contract_id"`
	DueDate        string  `json:"due_date"`
	Amount         float64 `json:"payment_amount"`
	Outstanding    float64 `json:"outstanding"`
	DaysLeft       int     `json:"days_left"`
	ReminderType   string  `json:"reminder_type"`
}

// DueOrder is a Sales Order row with its next instalment date.
type DueOrder struct {
	Name              string  `json:"name"`
	Customer          string  `json:"customer"`
	CustomerName      string  `json:"customer_name"`
	TelegramChatID    ChatID  `json:"custom_telegram_id"`
	NextPaymentDate   string  `json:"next_payment_date"`
	NextPaymentAmount float64 `json:"next_payment_amount"`
}

type SupportContact struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Telegram     string `json:"telegram"`
	WorkingHours string `json:"working_hours"`
}

// Endpoint payloads.

type CustomerLookup struct {
	Customer  *Customer  `json:"customer"`
	Contracts []Contract `json:"contracts"`
	IsNewLink bool       `json:"is_new_link"`
}

type ContractList struct {
	CustomerName string     `json:"customer_name"`
	Contracts    []Contract `json:"contracts"`
}

type ContractDetail struct {
	Contract *Contract `json:"contract"`
}

type PaymentSchedule struct {
	ContractID  string          `json:"contract_id"`
	TotalMonths int             `json:"total_months"`
	Schedule    []ScheduleEntry `json:"schedule"`
}

type PaymentHistory struct {
	ContractID string    `json:"contract_id"`
	Payments   []Payment `json:"payments"`
}

type ReminderList struct {
	CustomerName string     `json:"customer_name"`
	Reminders    []Reminder `json:"reminders"`
}

type DueReminderList struct {
	Reminders []DueReminder `json:"reminders"`
}

type DueOrderPage struct {
	Data []DueOrder `json:"data"`
}

type SupportContactPayload struct {
	Contact *SupportContact `json:"contact"`
}
