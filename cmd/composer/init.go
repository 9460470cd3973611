package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/alexcabrera/composer/internal/config"
	"github.com/alexcabrera/composer/internal/paths"
	"github.com/alexcabrera/composer/internal/ui"
)

func newInitCmd(cfgPath *string) *cobra.Command {
	var (
		local    bool
		defaults bool
		force    bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file",
		Long:  "Asks for the input bar and tray settings and writes them to the config file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newOutput(cmd.OutOrStdout())

			target := *cfgPath
			if local {
				paths.SetLocalMode()
				target = filepath.Join(paths.LocalConfigDir(), "config.yaml")
			}

			if _, err := os.Stat(target); err == nil && !force {
				var overwrite bool
				err := huh.NewConfirm().
					Title("Overwrite " + target + "?").
					Value(&overwrite).
					WithTheme(huh.ThemeCharm()).
					Run()
				if err != nil {
					return err
				}
				if !overwrite {
					out.Cancelled("Config unchanged")
					return nil
				}
			}

			base, err := config.Load(target)
			if err != nil {
				out.Warning("Existing config is invalid, starting from defaults")
				base = config.Default()
			}

			cfg := base
			if !defaults {
				ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
				defer cancel()

				cfg, err = ui.NewInitForm().Run(ctx, base)
				if errors.Is(err, huh.ErrUserAborted) {
					out.Cancelled("Config unchanged")
					return nil
				}
				if err != nil {
					out.Error(err.Error())
					return errReported
				}
			}

			if err := config.Save(target, cfg); err != nil {
				return err
			}
			out.SuccessPath("Config", target)
			return nil
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "write ./.config/composer/config.yaml")
	cmd.Flags().BoolVar(&defaults, "defaults", false, "write the defaults without asking")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite without prompting")

	return cmd
}
