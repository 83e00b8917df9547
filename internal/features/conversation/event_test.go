package conversation

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventFromUpdate_Command(t *testing.T) {
	u := tgbotapi.Update{
		UpdateID: 10,
		Message: &tgbotapi.Message{
			MessageID: 3,
			From:      &tgbotapi.User{ID: 555, FirstName: "Ali", LastName: "Valiyev"},
			Chat:      &tgbotapi.Chat{ID: 555},
			Text:      "/Start@erp_bot ref",
			Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 14}},
		},
	}

	ev, ok := EventFromUpdate(u)
	require.True(t, ok)
	assert.Equal(t, "start", ev.Command)
	assert.Equal(t, "ref", ev.CommandArgs)
	assert.Equal(t, "Ali Valiyev", ev.DisplayName)
	assert.Equal(t, int64(555), ev.ChatID)
	assert.False(t, ev.IsCallback())
}

func TestEventFromUpdate_Callback(t *testing.T) {
	u := tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      "cb-1",
			From:    &tgbotapi.User{ID: 555, UserName: "ali"},
			Data:    "contract:SO-1",
			Message: &tgbotapi.Message{MessageID: 8, Chat: &tgbotapi.Chat{ID: -100}},
		},
	}

	ev, ok := EventFromUpdate(u)
	require.True(t, ok)
	assert.True(t, ev.IsCallback())
	assert.Equal(t, "contract:SO-1", ev.CallbackData)
	assert.Equal(t, int64(-100), ev.ChatID)
	assert.Equal(t, "ali", ev.DisplayName)
}

func TestEventFromUpdate_SkipsUpdatesWithoutUser(t *testing.T) {
	_, ok := EventFromUpdate(tgbotapi.Update{ChannelPost: &tgbotapi.Message{Text: "x"}})
	assert.False(t, ok)

	_, ok = EventFromUpdate(tgbotapi.Update{Message: &tgbotapi.Message{Text: "x", Chat: &tgbotapi.Chat{ID: 1}}})
	assert.False(t, ok)
}
