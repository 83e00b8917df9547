package conversation

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Event is an inbound update reduced to what routing needs.
type Event struct {
	UpdateID     int
	UserID       int64
	ChatID       int64
	DisplayName  string
	Text         string
	Command      string
	CommandArgs  string
	CallbackID   string
	CallbackData string
	MessageID    int
}

func (e Event) IsCallback() bool {
	return e.CallbackID != ""
}

func (e Event) IsCommand() bool {
	return e.Command != ""
}

// EventFromUpdate converts a Bot API update. Updates without a user, such as
// channel posts, are reported as not ok.
func EventFromUpdate(u tgbotapi.Update) (Event, bool) {
	switch {
	case u.CallbackQuery != nil:
		cb := u.CallbackQuery
		if cb.From == nil {
			return Event{}, false
		}
		ev := Event{
			UpdateID:     u.UpdateID,
			UserID:       cb.From.ID,
			ChatID:       cb.From.ID,
			DisplayName:  displayName(cb.From),
			CallbackID:   cb.ID,
			CallbackData: cb.Data,
		}
		if cb.Message != nil && cb.Message.Chat != nil {
			ev.ChatID = cb.Message.Chat.ID
			ev.MessageID = cb.Message.MessageID
		}
		return ev, true

	case u.Message != nil:
		msg := u.Message
		if msg.From == nil || msg.Chat == nil {
			return Event{}, false
		}
		ev := Event{
			UpdateID:    u.UpdateID,
			UserID:      msg.From.ID,
			ChatID:      msg.Chat.ID,
			DisplayName: displayName(msg.From),
			Text:        msg.Text,
			MessageID:   msg.MessageID,
		}
		if msg.IsCommand() {
			ev.Command = strings.ToLower(msg.Command())
			ev.CommandArgs = msg.CommandArguments()
		}
		return ev, true
	}
	return Event{}, false
}

func displayName(u *tgbotapi.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.UserName
	}
	return name
}
