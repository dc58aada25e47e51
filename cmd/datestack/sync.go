package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"datestack/internal/metrics"
	"datestack/internal/syncer"
	"datestack/internal/web"
)

func newSyncCmd(a *app) *cobra.Command {
	var daemon, force bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync calendar events to the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadValidConfig(cmd)
			if err != nil {
				return err
			}
			exporter := a.exporter(cfg)
			if err := requireExporter(cmd.ErrOrStderr(), exporter); err != nil {
				return err
			}

			rec := metrics.New()
			svc := syncer.NewService(exporter, a.client(cfg), syncer.Options{
				SourceName:      cfg.Calendar.SourceName,
				ExcludeKeywords: cfg.Calendar.ExcludeKeywords,
				Metrics:         rec,
			})
			out := cmd.OutOrStdout()

			if !daemon {
				fmt.Fprint(out, "Syncing... ")
				res, err := svc.Run(cmd.Context(), force)
				if err != nil {
					fmt.Fprintln(out)
					return err
				}
				fmt.Fprintf(out, "Found %d events, synced %d to server.\n", res.EventsFound, res.EventsSynced)
				return nil
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			interval := time.Duration(cfg.Sync.IntervalMinutes) * time.Minute
			d, err := syncer.NewDaemon(svc, interval)
			if err != nil {
				return err
			}
			d.OnResult = func(res syncer.Result, err error) {
				stamp := time.Now().Format("15:04:05")
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "[%s] Sync error: %v\n", stamp, err)
					return
				}
				fmt.Fprintf(out, "[%s] Found %d events, synced %d to server.\n", stamp, res.EventsFound, res.EventsSynced)
			}

			if cfg.Sync.Listen != "" {
				srv := web.NewServer(svc,
					web.WithRunner(svc),
					web.WithMetrics(rec.Handler()),
					web.WithCalendarName(cfg.Calendar.SourceName),
				)
				go func() {
					if err := srv.Start(ctx, cfg.Sync.Listen); err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "Status server error: %v\n", err)
					}
				}()
			}

			fmt.Fprintf(out, "Running in daemon mode (syncing every %d minutes)\n", cfg.Sync.IntervalMinutes)
			fmt.Fprintln(out, "Press Ctrl+C to stop")
			fmt.Fprintln(out)

			return d.Run(ctx, force)
		},
	}

	cmd.Flags().BoolVar(&daemon, "daemon", false, "Run continuously")
	cmd.Flags().BoolVar(&force, "force", false, "Force full re-sync")
	return cmd
}
