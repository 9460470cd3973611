package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexcabrera/composer/internal/config"
	"github.com/alexcabrera/composer/internal/logger"
	"github.com/alexcabrera/composer/internal/paths"
	"github.com/alexcabrera/composer/internal/pipe"
	"github.com/alexcabrera/composer/internal/ui/chat"
	"github.com/alexcabrera/composer/internal/ui/pubsub"
)

// errReported signals a failure whose message was already printed.
var errReported = errors.New("reported")

func newRootCmd() *cobra.Command {
	var cfgPath string
	var debug bool
	var replyDelay time.Duration

	cmd := &cobra.Command{
		Use:   "composer",
		Short: "Chat composer with a self-sizing input bar",
		Long: "Opens a chat screen whose input bar grows with its text and moves above the quick-reply tray.\n" +
			"Text piped on stdin becomes the initial draft.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConfig(&cfgPath, func(cfg config.Config) error {
				if !pipe.IsStdoutTerminal() {
					return errors.New("composer needs a terminal on stdout")
				}
				if debug {
					cfg.Log.Enabled = true
					cfg.Log.Level = "debug"
				}

				log, closer, err := logger.New(cfg.Log, paths.DataDir())
				if err != nil {
					return err
				}
				defer closer.Close()

				opts := []chat.Option{chat.WithLogger(log)}

				draft, err := pipe.ReadStdinDraft()
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				if pipe.IsStdinPiped() {
					opts = append(opts, chat.WithInputTTY())
				}
				if draft != "" {
					opts = append(opts, chat.WithDraft(draft))
				}

				ctx, cancel := context.WithCancel(cmd.Context())
				defer cancel()

				broker := pubsub.NewBroker[pubsub.ConfigEvent](4)
				defer broker.Close()
				err = config.Watch(ctx, cfgPath, func(path string) {
					broker.Publish(pubsub.Event[pubsub.ConfigEvent]{
						Type:    pubsub.UpdatedEvent,
						Payload: pubsub.ConfigEvent{Path: path},
					})
				})
				if err != nil {
					log.Warn("config hot reload disabled", "err", err)
				} else {
					opts = append(opts, chat.WithConfigBroker(broker))
				}

				log.Info("starting composer", "config", cfgPath)
				_, scrollback, err := chat.Run(ctx, cfg, delayedEcho(replyDelay), opts...)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), scrollback)
				return nil
			})
		},
	}

	cmd.PersistentFlags().StringVar(&cfgPath, "config", defaultConfigPath(), "path to config file")
	cmd.Flags().BoolVar(&debug, "debug", false, "write debug logs to the log file")
	cmd.Flags().DurationVar(&replyDelay, "reply-delay", 0, "delay before the echoed reply")

	// Subcommands
	cmd.AddCommand(newInitCmd(&cfgPath))
	cmd.AddCommand(newConfigCmd(&cfgPath))

	return cmd
}

// delayedEcho echoes messages back after d, or as soon as ctx is done.
func delayedEcho(d time.Duration) chat.SendMessageFunc {
	if d <= 0 {
		return chat.Echo
	}
	return func(ctx context.Context, message string) (string, error) {
		select {
		case <-time.After(d):
			return chat.Echo(ctx, message)
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

func defaultConfigPath() string {
	return paths.FindConfigFile()
}

func loadConfig(cfgPath string) (config.Config, error) {
	return config.Load(cfgPath)
}

func withConfig(cfgPath *string, fn func(config.Config) error) error {
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	return fn(cfg)
}
