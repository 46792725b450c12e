package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zulandar/taskyard/internal/config"
	"github.com/zulandar/taskyard/internal/notify"
	"github.com/zulandar/taskyard/internal/notify/discord"
	"github.com/zulandar/taskyard/internal/notify/slack"
	"github.com/zulandar/taskyard/internal/server"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Taskyard API server",
		Long:  "Starts the JSON API and, when configured, the chat notifiers and the overdue-task digest.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Taskyard config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	if port <= 0 {
		port = cfg.Server.Port
	}

	notifiers, err := buildNotifiers(cfg)
	if err != nil {
		return err
	}
	defer func() {
		for _, n := range notifiers {
			n.Close()
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Digest.Enabled {
		if !notify.ValidSchedule(cfg.Digest.Schedule) {
			return fmt.Errorf("digest.schedule %q is not a valid cron expression", cfg.Digest.Schedule)
		}
		go notify.RunDigest(ctx, gormDB, notifiers, cfg.Digest.Schedule)
	}

	return server.Start(ctx, server.StartOpts{
		DB:        gormDB,
		Port:      port,
		Out:       cmd.OutOrStdout(),
		Notifiers: notifiers,
	})
}

// buildNotifiers creates one notifier per configured platform; platforms
// without credentials are skipped.
func buildNotifiers(cfg *config.Config) ([]notify.Notifier, error) {
	var notifiers []notify.Notifier
	if cfg.Notify.Slack.BotToken != "" {
		n, err := slack.New(slack.Opts{
			BotToken:  cfg.Notify.Slack.BotToken,
			ChannelID: cfg.Notify.Slack.ChannelID,
		})
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, n)
	}
	if cfg.Notify.Discord.BotToken != "" {
		n, err := discord.New(discord.Opts{
			BotToken:  cfg.Notify.Discord.BotToken,
			ChannelID: cfg.Notify.Discord.ChannelID,
		})
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, n)
	}
	return notifiers, nil
}
