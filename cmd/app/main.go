package main

import (
	"context"
	"fmt"
	"os"
	_ "time/tzdata"

	"erp-telegram-bot/internal/cli"
)

// @title           ERP Telegram Bot API
// @version         1.0
// @description     Payment webhook and Telegram Mini App endpoints of the ERP customer bot.

// @BasePath  /

// @securityDefinitions.apikey TelegramInitData
// @in header
// @name X-Telegram-Init-Data
// @description Telegram Mini App init data

// @tag.name customer
// @tag.description Linked customer profile, contracts and reminders

// @tag.name webhooks
// @tag.description Callbacks from the ERP

func main() {
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
