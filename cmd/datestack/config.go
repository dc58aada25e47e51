package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"datestack/internal/api"
	"datestack/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}
	cmd.AddCommand(newConfigInitCmd(a), newConfigShowCmd(a), newConfigTestCmd(a))
	return cmd
}

func newConfigInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file with defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := a.resolvePath()
			if err != nil {
				return err
			}
			created, err := config.Init(path)
			if err != nil {
				return fmt.Errorf("creating %s: %w", path, err)
			}

			out := cmd.OutOrStdout()
			if created {
				fmt.Fprintf(out, "Configuration file created at: %s\n", path)
			} else {
				fmt.Fprintf(out, "Configuration file already exists at: %s\n", path)
			}
			fmt.Fprintln(out, "Edit this file with your server URL and API key.")
			return nil
		},
	}
}

func newConfigShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := a.resolvePath()
			if err != nil {
				return err
			}
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Configuration file: %s\n\n", path)
			fmt.Fprintln(out, "Server:")
			fmt.Fprintf(out, "  URL: %s\n", cfg.Server.URL)
			fmt.Fprintf(out, "  API Key: %s\n\n", cfg.MaskedKey())
			fmt.Fprintln(out, "Calendar:")
			fmt.Fprintf(out, "  Source Name: %s\n", cfg.Calendar.SourceName)
			fmt.Fprintf(out, "  Exclude Calendars: %v\n", cfg.Calendar.ExcludeCalendars)
			fmt.Fprintf(out, "  Exclude Keywords: %v\n", cfg.Calendar.ExcludeKeywords)
			fmt.Fprintf(out, "  Days Ahead: %d\n\n", cfg.Calendar.DaysAhead)
			fmt.Fprintln(out, "Sync:")
			fmt.Fprintf(out, "  Interval: %d minutes\n", cfg.Sync.IntervalMinutes)
			if cfg.Sync.Listen != "" {
				fmt.Fprintf(out, "  Status Server: %s\n", cfg.Sync.Listen)
			}
			return nil
		},
	}
}

func newConfigTestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Test the server connection and API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadValidConfig(cmd)
			if err != nil {
				return err
			}

			client := a.client(cfg)
			out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

			if err := client.Health(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(out, "Server connection: OK (%s)\n", client.BaseURL())

			if err := client.CheckAPIKey(cmd.Context()); err != nil {
				if api.IsUnauthorized(err) {
					fmt.Fprintln(errOut, "API key: Invalid")
				}
				return err
			}
			fmt.Fprintln(out, "API key: Valid")
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Connection test passed!")
			return nil
		},
	}
}
