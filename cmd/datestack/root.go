package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"datestack/internal/api"
	"datestack/internal/config"
	"datestack/internal/icalbuddy"
	appLog "datestack/internal/log"
)

// app carries global flags and the collaborators commands build on, so that
// tests can swap the subprocess runner and today's date.
type app struct {
	configPath string
	logLevel   string

	runner icalbuddy.Runner
	today  func() string
}

func newApp() *app {
	return &app{
		runner: icalbuddy.ExecRunner{},
		today:  todayISO,
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "datestack",
		Short: "Sync macOS calendars to a DateStack server",
		Long: `datestack reads upcoming events through icalBuddy and pushes them to a
DateStack server. It can run once, as a daemon on an interval, or manage the
server's agenda items.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			appLog.SetOutput(cmd.ErrOrStderr())
			if a.logLevel == "" {
				return nil
			}
			lvl, err := appLog.ParseLevel(a.logLevel)
			if err != nil {
				return fmt.Errorf("invalid log level %q: %w", a.logLevel, err)
			}
			appLog.SetLevel(lvl)
			return nil
		},
	}
	root.SetVersionTemplate(`{{printf "datestack version %s\n" .Version}}`)

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to config file (default ~/.datestack/config.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", os.Getenv("LOG_LEVEL"), "Log level: debug, info, warn, error")

	root.AddCommand(newConfigCmd(a))
	root.AddCommand(newSyncCmd(a))
	root.AddCommand(newEventsCmd(a))
	root.AddCommand(newAgendaCmd(a))

	return root
}

func (a *app) resolvePath() (string, error) {
	if a.configPath != "" {
		return a.configPath, nil
	}
	return config.DefaultPath()
}

func (a *app) loadConfig() (*config.Config, error) {
	path, err := a.resolvePath()
	if err != nil {
		return nil, err
	}
	return config.Load(path)
}

// loadValidConfig loads the config and prints every problem before failing.
func (a *app) loadValidConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	if problems := cfg.Validate(); len(problems) > 0 {
		w := cmd.ErrOrStderr()
		fmt.Fprintln(w, "Configuration errors:")
		for _, p := range problems {
			fmt.Fprintf(w, "  - %s\n", p)
		}
		return nil, cfg.Err()
	}
	return cfg, nil
}

func (a *app) exporter(cfg *config.Config) *icalbuddy.Exporter {
	e := icalbuddy.NewExporter(cfg.Calendar.DaysAhead, cfg.Calendar.ExcludeCalendars)
	e.Runner = a.runner
	return e
}

func (a *app) client(cfg *config.Config) *api.Client {
	return api.NewClient(cfg.Server.URL, cfg.Server.APIKey)
}

// requireExporter fails with install instructions when icalBuddy is missing.
func requireExporter(w io.Writer, e *icalbuddy.Exporter) error {
	if e.Available() {
		return nil
	}
	fmt.Fprintln(w, "Install with: brew install ical-buddy")
	return icalbuddy.ErrNotInstalled
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigCh)
		select {
		case sig := <-sigCh:
			appLog.Info("signal received, shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
