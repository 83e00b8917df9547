package service

import "erp-telegram-bot/internal/platform/erp"

type OutcomeKind int

const (
	// OutcomeIgnored means the input was not meant for the machine.
	OutcomeIgnored OutcomeKind = iota
	OutcomeRecognized
	OutcomeLinked
	OutcomePassportRequested
	OutcomeFormatError
	OutcomeNotFound
	OutcomeConflict
	OutcomeUnavailable
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeRecognized:
		return "recognized"
	case OutcomeLinked:
		return "linked"
	case OutcomePassportRequested:
		return "passport_requested"
	case OutcomeFormatError:
		return "format_error"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeConflict:
		return "conflict"
	case OutcomeUnavailable:
		return "unavailable"
	default:
		return "ignored"
	}
}

// Outcome is the result of one transition. Message carries the localized ERP
// text for NotFound and Conflict.
type Outcome struct {
	Kind      OutcomeKind
	Customer  *erp.Customer
	Contracts []erp.Contract
	IsNewLink bool
	Message   string
	ErrorCode string
	Cause     error
}

// Identity is the platform user driving the conversation.
type Identity struct {
	UserID      int64
	DisplayName string
}
