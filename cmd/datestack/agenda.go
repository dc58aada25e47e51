package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func todayISO() string {
	return time.Now().Format("2006-01-02")
}

func newAgendaCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agenda",
		Short: "Manage agenda items",
	}
	cmd.AddCommand(
		newAgendaListCmd(a),
		newAgendaAddCmd(a),
		newAgendaSetCmd(a, "complete", true),
		newAgendaSetCmd(a, "uncomplete", false),
		newAgendaDeleteCmd(a),
	)
	return cmd
}

func (a *app) dateOrToday(day string) (string, error) {
	if day == "" {
		return a.today(), nil
	}
	if _, err := time.Parse("2006-01-02", day); err != nil {
		return "", fmt.Errorf("invalid date %q (want YYYY-MM-DD)", day)
	}
	return day, nil
}

func newAgendaListCmd(a *app) *cobra.Command {
	var day string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List agenda items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadValidConfig(cmd)
			if err != nil {
				return err
			}
			day, err := a.dateOrToday(day)
			if err != nil {
				return err
			}

			items, err := a.client(cfg).ListAgenda(cmd.Context(), day)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "No agenda items.")
				return nil
			}
			for _, item := range items {
				status := "[ ]"
				if item.Completed {
					status = "[x]"
				}
				fmt.Fprintf(out, "%4d %s %s\n", item.ID, status, item.Text)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&day, "date", "d", "", "Date (YYYY-MM-DD), defaults to today")
	return cmd
}

func newAgendaAddCmd(a *app) *cobra.Command {
	var day string
	cmd := &cobra.Command{
		Use:   "add TEXT",
		Short: "Add an agenda item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadValidConfig(cmd)
			if err != nil {
				return err
			}
			day, err := a.dateOrToday(day)
			if err != nil {
				return err
			}

			item, err := a.client(cfg).AddAgenda(cmd.Context(), args[0], day)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added: %d - %s\n", item.ID, item.Text)
			return nil
		},
	}
	cmd.Flags().StringVarP(&day, "date", "d", "", "Date (YYYY-MM-DD), defaults to today")
	return cmd
}

func newAgendaSetCmd(a *app, name string, completed bool) *cobra.Command {
	verb := "Completed"
	short := "Mark an agenda item as completed"
	if !completed {
		verb = "Uncompleted"
		short = "Mark an agenda item as not completed"
	}

	return &cobra.Command{
		Use:   name + " ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			cfg, err := a.loadValidConfig(cmd)
			if err != nil {
				return err
			}

			item, err := a.client(cfg).SetAgendaCompleted(cmd.Context(), id, completed)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", verb, item.Text)
			return nil
		},
	}
}

func newAgendaDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an agenda item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			cfg, err := a.loadValidConfig(cmd)
			if err != nil {
				return err
			}

			if err := a.client(cfg).DeleteAgenda(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted: %d\n", id)
			return nil
		},
	}
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid item id %q", s)
	}
	return id, nil
}
