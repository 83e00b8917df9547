package erp

import (
	"encoding/json"

	apperrors "erp-telegram-bot/internal/common/errors"
)

// Business error codes the bot reacts to.
const (
	CodePassportLinkedElsewhere = "PASSPORT_ALREADY_LINKED_TO_OTHER_TELEGRAM"
	CodeTelegramLinkedElsewhere = "TELEGRAM_ALREADY_LINKED_TO_OTHER_CUSTOMER"
	CodeTelegramAlreadyLinked   = "TELEGRAM_ALREADY_LINKED"
	CodeCustomerNotFound        = "CUSTOMER_NOT_FOUND"
)

var conflictCodes = map[string]struct{}{
	CodePassportLinkedElsewhere: {},
	CodeTelegramLinkedElsewhere: {},
	CodeTelegramAlreadyLinked:   {},
}

// Keys that mark a nested object as the real payload.
var payloadKeys = []string{"success", "customer", "contracts", "contract", "schedule", "payments", "reminders", "contact", "data"}

// Result is the typed outcome of an ERP call. A business failure
// (success=false) is a Result, not an error.
type Result[T any] struct {
	Success   bool
	ErrorCode string
	Message   string
	Data      T
}

func (r *Result[T]) Failed() bool {
	return !r.Success
}

// IsConflict reports a linking conflict between passport and chat identity.
func (r *Result[T]) IsConflict() bool {
	_, ok := conflictCodes[r.ErrorCode]
	return !r.Success && ok
}

type header struct {
	Success   *bool           `json:"success"`
	ErrorCode string          `json:"error_code"`
	Message   json.RawMessage `json:"message"`
	MessageUz string          `json:"message_uz"`
}

// unwrap strips the framework envelope {"message": {...}} when the inner
// object looks like a payload. Anything else is returned untouched.
func unwrap(raw []byte) ([]byte, error) {
	var outer map[string]json.RawMessage
	if err := json.Unmarshal(raw, &outer); err != nil {
		return nil, err
	}
	inner, ok := outer["message"]
	if !ok {
		return raw, nil
	}
	var nested map[string]json.RawMessage
	if err := json.Unmarshal(inner, &nested); err != nil {
		return raw, nil
	}
	for _, key := range payloadKeys {
		if _, ok := nested[key]; ok {
			return inner, nil
		}
	}
	return raw, nil
}

func decode[T any](endpoint string, raw []byte) (*Result[T], error) {
	body, err := unwrap(raw)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeERPDecode, "invalid ERP response").
			WithDetail("endpoint", endpoint)
	}

	var h header
	if err := json.Unmarshal(body, &h); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeERPDecode, "invalid ERP envelope").
			WithDetail("endpoint", endpoint)
	}

	res := &Result[T]{ErrorCode: h.ErrorCode}
	if err := json.Unmarshal(body, &res.Data); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeERPDecode, "invalid ERP payload").
			WithDetail("endpoint", endpoint)
	}

	if h.Success != nil {
		res.Success = *h.Success
	} else {
		res.Success = h.ErrorCode == ""
	}

	res.Message = h.MessageUz
	if res.Message == "" && len(h.Message) > 0 {
		var text string
		if json.Unmarshal(h.Message, &text) == nil {
			res.Message = text
		}
	}
	return res, nil
}
