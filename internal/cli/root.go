// Package cli holds the cobra commands of the bot binary.
package cli

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"erp-telegram-bot/internal/common/config"
	"erp-telegram-bot/internal/common/logger"
)

var Version = "dev"

// state is filled by the root PersistentPreRunE before any subcommand runs.
type state struct {
	cfg *config.Config
}

func NewRootCommand() *cobra.Command {
	st := &state{}

	root := &cobra.Command{
		Use:           "erp-bot",
		Short:         "Telegram front-end for the ERP customer back office",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			st.cfg = cfg
			logger.Init(cfg.ServiceName, cfg.Debug)
			log.Debug().Str("command", cmd.Name()).Str("version", Version).Msg("Configuration loaded")
			return nil
		},
	}

	root.AddCommand(serveCmd(st))
	root.AddCommand(pollCmd(st))
	root.AddCommand(remindCmd(st))
	root.AddCommand(commandsCmd(st))
	root.AddCommand(webhookCmd(st))

	return root
}
