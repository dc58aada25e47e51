package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"datestack/internal/icalbuddy"
	"datestack/internal/ics"
	"datestack/internal/model"
	"datestack/internal/syncer"
)

func newEventsCmd(a *app) *cobra.Command {
	var (
		allDayOnly bool
		format     string
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Print upcoming events without syncing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != "json" && format != "ics" {
				return fmt.Errorf("unsupported format %q (want json or ics)", format)
			}

			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			exporter := a.exporter(cfg)
			if err := requireExporter(cmd.ErrOrStderr(), exporter); err != nil {
				return err
			}

			var events []model.Event
			if allDayOnly {
				raw, err := exporter.Export(cmd.Context(), true)
				if err != nil {
					return err
				}
				events = icalbuddy.FilterByKeywords(icalbuddy.ParseOutput(raw, true), cfg.Calendar.ExcludeKeywords)
			} else {
				svc := syncer.NewService(exporter, nil, syncer.Options{
					SourceName:      cfg.Calendar.SourceName,
					ExcludeKeywords: cfg.Calendar.ExcludeKeywords,
				})
				if events, err = svc.Collect(cmd.Context()); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if format == "ics" {
				return ics.Write(out, events, ics.Options{Name: cfg.Calendar.SourceName})
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(events)
		},
	}

	cmd.Flags().BoolVar(&allDayOnly, "all-day-only", false, "Only all-day events")
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json or ics")
	return cmd
}
