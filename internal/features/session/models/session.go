package models

// Stage is the position of a conversation in the authentication flow.
type Stage string

const (
	StageIdle             Stage = "idle"
	StageAwaitingPassport Stage = "awaiting_passport"
)

// ParseStage maps a stored value to a known stage; anything else is idle.
func ParseStage(s string) Stage {
	switch Stage(s) {
	case StageAwaitingPassport:
		return StageAwaitingPassport
	default:
		return StageIdle
	}
}

// Keys of transient session data.
const (
	DataCustomerID   = "customer_id"
	DataCustomerName = "customer_name"
	DataPassport     = "passport"
)

// Session is a snapshot of one identity's conversation state.
type Session struct {
	UserID int64
	Stage  Stage
	Data   map[string]string
}

func (s Stage) IsAwaitingPassport() bool {
	return s == StageAwaitingPassport
}
