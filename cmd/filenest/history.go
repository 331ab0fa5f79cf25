package main

import (
	"fmt"
	"strconv"

	"filenest/internal/errors"
	"filenest/internal/history"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

func newHistoryCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent organize runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if cfg.HistoryDB == "" {
				return errors.NewConfigError("no history database configured", "history_db", errors.InvalidConfig, nil)
			}
			st, err := a.openStores(cfg)
			if err != nil {
				return err
			}
			defer st.close()

			sessions, err := st.history.Sessions(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(sessions) == 0 {
				a.theme.info(out, "No runs recorded yet.")
				return nil
			}

			rows := make([][]string, 0, len(sessions))
			for _, s := range sessions {
				rows = append(rows, []string{
					shortID(s.ID),
					humanize.Time(s.Started),
					displayPath(s.Dir),
					s.Strategy,
					strconv.Itoa(s.Counts.Moved),
					strconv.Itoa(s.Counts.Skipped),
					strconv.Itoa(s.Counts.Errors),
					a.theme.paint(sessionColors(a.theme, s), sessionStatus(s)),
				})
			}
			fmt.Fprintln(out, a.theme.renderTable(
				[]string{"ID", "Started", "Directory", "Strategy", "Moved", "Skipped", "Errors", "Status"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "number of runs to list, 0 for all")
	return cmd
}

func sessionStatus(s history.Session) string {
	switch {
	case s.Preview:
		return "dry run"
	case s.Undone():
		return "undone"
	case s.Finished.IsZero():
		return "incomplete"
	case s.Counts.Errors > 0:
		return "done with errors"
	default:
		return "done"
	}
}

func sessionColors(t theme, s history.Session) text.Colors {
	switch sessionStatus(s) {
	case "dry run", "undone":
		return t.Dim
	case "incomplete", "done with errors":
		return t.Warning
	default:
		return t.Success
	}
}
