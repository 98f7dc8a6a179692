package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sumalravindran/My-journal-new/internal/discord"
	"github.com/sumalravindran/My-journal-new/internal/logging"
)

func newDiscordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "discord",
		Short: "Journal messages from Discord channels, one channel per stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(options(true))
			if err != nil {
				return err
			}
			defer a.shutdown()

			bridge, err := discord.New(discord.Config{
				Token:    a.cfg.Discord.Token,
				Channels: a.cfg.Discord.Channels,
				OwnerID:  a.cfg.Discord.OwnerID,
			}, a.manager)
			if err != nil {
				return err
			}
			if err := bridge.Start(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			logging.Info("main", "shutting down...")
			if err := bridge.Stop(); err != nil {
				logging.Warn("main", "failed to close Discord connection: %v", err)
			}
			return nil
		},
	}
}
