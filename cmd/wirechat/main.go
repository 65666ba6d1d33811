package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-client/internal/app"
	"github.com/vovakirdan/wirechat-client/internal/config"
	"github.com/vovakirdan/wirechat-client/internal/log"
	"github.com/vovakirdan/wirechat-client/internal/terminal"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		overrides  config.Config
		noInput    bool
	)

	cmd := &cobra.Command{
		Use:           "wirechat",
		Short:         "Terminal client for WireChat rooms",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := log.New(overrides.LogLevel, os.Stderr)

			cfg, path, err := config.Load(logger, configPath)
			if err != nil {
				return err
			}
			cfg.UpdateFrom(overrides)
			logger = log.New(cfg.LogLevel, os.Stderr)
			logger.Debug().Str("config", path).Msg("configuration loaded")

			application, err := app.New(&cfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			if !noInput {
				term := terminal.New(application.Session(), os.Stdin, cmd.OutOrStdout(), logger)
				go func() {
					defer cancel()
					if err := term.Run(ctx); err != nil {
						logger.Error().Err(err).Msg("terminal stopped")
					}
				}()
				fmt.Fprintln(cmd.OutOrStdout(), "Type messages and press Enter to send. /help lists commands.")
			}

			if err := application.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("wirechat exited with error")
				return err
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "path to config file")
	flags.StringVar(&overrides.ServerURL, "server", "", "WebSocket URL of the chat server")
	flags.StringVar(&overrides.Token, "token", "", "bearer token")
	flags.StringVar(&overrides.Room, "room", "", "room to join after connecting")
	flags.StringVar(&overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&overrides.BridgeAddr, "bridge", "", "listen address of the local HTTP view bridge")
	flags.BoolVar(&overrides.SystemMessages, "system-messages", false, "show participant join/leave notices")
	flags.BoolVar(&overrides.Chronological, "chronological", false, "order messages by timestamp instead of arrival")
	flags.BoolVar(&noInput, "no-input", false, "do not read stdin; serve the view bridge only")

	return cmd
}
