package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/matheus3301/wppdesk/internal/config"
	"github.com/matheus3301/wppdesk/internal/profile"
	"github.com/spf13/cobra"
)

func newConfigCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}

	var path string
	cmd.PersistentFlags().StringVar(&path, "path", "", "config file (default ~/.wppdesk/config.toml)")
	resolve := func() string {
		if path != "" {
			return path
		}
		return profile.ConfigPath()
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := resolve()
			if _, err := os.Stat(p); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", p)
			}
			if err := config.Save(p, config.Default()); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", okStyle.Render("wrote"), p)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := resolve()
			loaded, err := config.LoadOrDefault(p)
			if err != nil {
				return err
			}
			cfg := loaded.Redacted()
			if o.json {
				return printJSON(cmd.OutOrStdout(), cfg)
			}
			if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
				fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render("# "+p+" not found, showing defaults"))
			}
			return config.Write(cmd.OutOrStdout(), cfg)
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}
