package models

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"

	apperrors "erp-telegram-bot/internal/common/errors"
	"erp-telegram-bot/internal/platform/erp"
)

var validate = validator.New()

// PaymentEvent announces a submitted ERP payment. ERPNext field names are
// accepted as aliases, see UnmarshalJSON.
type PaymentEvent struct {
	PaymentID  string     `json:"payment_id" validate:"required,max=140"`
	CustomerID string     `json:"customer_id" validate:"omitempty,max=140"`
	ContractID string     `json:"contract_id" validate:"required,max=140"`
	Amount     float64    `json:"amount" validate:"gt=0"`
	PlatformID erp.ChatID `json:"platform_id,omitempty" swaggertype:"integer"`
	Date       string     `json:"date,omitempty"`
	Method     string     `json:"method,omitempty"`
}

func (e *PaymentEvent) UnmarshalJSON(b []byte) error {
	var raw struct {
		PaymentID   string     `json:"payment_id"`
		Name        string     `json:"name"`
		CustomerID  string     `json:"customer_id"`
		Party       string     `json:"party"`
		ContractID  string     `json:"contract_id"`
		ContractRef string     `json:"custom_contract_reference"`
		Amount      *float64   `json:"amount"`
		PaidAmount  *float64   `json:"paid_amount"`
		PlatformID  erp.ChatID `json:"platform_id"`
		TelegramID  erp.ChatID `json:"custom_telegram_id"`
		Date        string     `json:"date"`
		PostingDate string     `json:"posting_date"`
		Method      string     `json:"method"`
		Mode        string     `json:"mode_of_payment"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	*e = PaymentEvent{
		PaymentID:  firstNonEmpty(raw.PaymentID, raw.Name),
		CustomerID: firstNonEmpty(raw.CustomerID, raw.Party),
		ContractID: firstNonEmpty(raw.ContractID, raw.ContractRef),
		PlatformID: raw.PlatformID,
		Date:       firstNonEmpty(raw.Date, raw.PostingDate),
		Method:     firstNonEmpty(raw.Method, raw.Mode),
	}
	if !e.PlatformID.Valid() {
		e.PlatformID = raw.TelegramID
	}
	switch {
	case raw.Amount != nil:
		e.Amount = *raw.Amount
	case raw.PaidAmount != nil:
		e.Amount = *raw.PaidAmount
	}
	return nil
}

// Validate checks required fields and returns a VALIDATION_ERROR naming the
// first offending field.
func (e PaymentEvent) Validate() error {
	err := validate.Struct(e)
	if err == nil {
		return nil
	}
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		return apperrors.NewValidationError(errs[0].Field(), errs[0].Tag())
	}
	return apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid payment event")
}

// FromStreamValues decodes a stream entry. The entry either carries the JSON
// body in a "payload" field or the fields themselves as strings.
func FromStreamValues(values map[string]interface{}) (PaymentEvent, error) {
	var ev PaymentEvent
	if payload, ok := values["payload"].(string); ok {
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			return ev, apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "invalid payment payload")
		}
		return ev, nil
	}

	flat := make(map[string]interface{}, len(values))
	for k, v := range values {
		s := fmt.Sprint(v)
		if k == "amount" || k == "paid_amount" {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return ev, apperrors.NewValidationError(k, "not a number")
			}
			flat[k] = f
			continue
		}
		flat[k] = s
	}
	b, err := json.Marshal(flat)
	if err != nil {
		return ev, err
	}
	if err := json.Unmarshal(b, &ev); err != nil {
		return ev, apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "invalid payment fields")
	}
	return ev, nil
}

type DeliveryResponse struct {
	Success   bool `json:"success"`
	Delivered bool `json:"delivered"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
