package cli

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"erp-telegram-bot/internal/app"
	"erp-telegram-bot/internal/presentation"
)

func commandsCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "commands",
		Short: "Publish the bot command menu",
		RunE: func(cmd *cobra.Command, args []string) error {
			tg, err := app.NewTelegram(st.cfg, log.Logger)
			if err != nil {
				return err
			}
			renderer, err := presentation.New()
			if err != nil {
				return err
			}
			commands := renderer.Commands()
			if err := tg.SetCommands(cmd.Context(), commands); err != nil {
				return err
			}
			for _, c := range commands {
				fmt.Fprintf(cmd.OutOrStdout(), "/%s - %s\n", c.Command, c.Description)
			}
			return nil
		},
	}
}

func webhookCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Manage the Telegram webhook",
	}

	var dropPending bool
	set := &cobra.Command{
		Use:   "set",
		Short: "Register WEBHOOK_URL+WEBHOOK_PATH with Telegram",
		RunE: func(cmd *cobra.Command, args []string) error {
			if st.cfg.Telegram.WebhookURL == "" {
				return fmt.Errorf("WEBHOOK_URL is not set")
			}
			tg, err := app.NewTelegram(st.cfg, log.Logger)
			if err != nil {
				return err
			}
			endpoint := st.cfg.WebhookEndpoint()
			if err := tg.SetWebhook(cmd.Context(), endpoint, st.cfg.Telegram.WebhookSecret, dropPending); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "webhook set: %s\n", endpoint)
			return nil
		},
	}
	set.Flags().BoolVar(&dropPending, "drop-pending", false, "discard updates queued at Telegram")

	del := &cobra.Command{
		Use:   "delete",
		Short: "Remove the webhook and drop pending updates",
		RunE: func(cmd *cobra.Command, args []string) error {
			tg, err := app.NewTelegram(st.cfg, log.Logger)
			if err != nil {
				return err
			}
			if err := tg.DeleteWebhook(cmd.Context(), true); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "webhook deleted")
			return nil
		},
	}

	cmd.AddCommand(set, del)
	return cmd
}
