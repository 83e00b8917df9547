package presentation

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"erp-telegram-bot/internal/platform/erp"
)

// Callback data prefixes. The part after the prefix is a contract id,
// or a target screen for CallbackBack.
const (
	CallbackContract = "contract:"
	CallbackSchedule = "schedule:"
	CallbackPayments = "payments:"
	CallbackBack     = "back:"
)

const (
	BackToMenu      = "menu"
	BackToContracts = "contracts"
)

func (r *Renderer) MainKeyboard() tgbotapi.ReplyKeyboardMarkup {
	b := r.cat.Buttons
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(b[ButtonProfile]),
			tgbotapi.NewKeyboardButton(b[ButtonContracts]),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(b[ButtonPayments]),
			tgbotapi.NewKeyboardButton(b[ButtonReminders]),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(b[ButtonHelp]),
		),
	)
}

func (r *Renderer) contractsKeyboard(contracts []erp.Contract, prefix string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(contracts)+1)
	for _, c := range contracts {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔖 "+c.ID, prefix+c.ID),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(r.cat.Inline["back_to_menu"], CallbackBack+BackToMenu),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (r *Renderer) contractKeyboard(contractID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(r.cat.Inline["schedule"], CallbackSchedule+contractID),
			tgbotapi.NewInlineKeyboardButtonData(r.cat.Inline["payments"], CallbackPayments+contractID),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(r.cat.Inline["back_to_contracts"], CallbackBack+BackToContracts),
		),
	)
}

func (r *Renderer) backKeyboard(caption, data string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(caption, data)),
	)
}
