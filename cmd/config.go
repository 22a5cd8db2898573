package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AlhasanIQ/oriki/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or change the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file location",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				path, err := config.ConfigPath()
				if err != nil {
					return err
				}
				fmt.Fprintln(a.io.Out, path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				b, err := config.Marshal(cfg)
				if err != nil {
					return err
				}
				_, err = a.io.Out.Write(b)
				return err
			},
		},
		&cobra.Command{
			Use:   "init",
			Short: "Write a default config file if none exists",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				path, err := config.ConfigPath()
				if err != nil {
					return err
				}
				_, statErr := os.Stat(path)
				if statErr == nil {
					fmt.Fprintf(a.io.ErrOut, "Config already exists at %s\n", path)
					return nil
				}
				if !errors.Is(statErr, os.ErrNotExist) {
					return statErr
				}
				if err := config.Save(config.Default()); err != nil {
					return err
				}
				fmt.Fprintf(a.io.ErrOut, "Initialized config at %s\n", path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Set one key",
			Long:  "Supported keys:\n  " + strings.Join(config.Keys(), "\n  "),
			Args:  cobra.MinimumNArgs(2),
			RunE: func(_ *cobra.Command, args []string) error {
				key := args[0]
				value := strings.Join(args[1:], " ")

				cfg, err := config.Load()
				if err != nil {
					return err
				}
				if err := config.Set(&cfg, key, value); err != nil {
					return err
				}
				if err := config.Save(cfg); err != nil {
					return err
				}
				fmt.Fprintf(a.io.ErrOut, "Updated %s\n", key)
				return nil
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Delete the config file",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				path, err := config.ConfigPath()
				if err != nil {
					return err
				}
				if err := os.Remove(path); err != nil {
					if errors.Is(err, os.ErrNotExist) {
						fmt.Fprintf(a.io.ErrOut, "Config not found at %s\n", path)
						return nil
					}
					return err
				}
				fmt.Fprintf(a.io.ErrOut, "Deleted config at %s\n", path)
				return nil
			},
		},
	)
	return cmd
}
