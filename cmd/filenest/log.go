package main

import (
	"fmt"
	"os"
	"time"

	"filenest/internal/errors"
	"filenest/internal/journal"
	"filenest/internal/log"
	"filenest/internal/logview"
	"filenest/internal/tui"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// defaultLogCount is how many lines a plain "filenest log" prints.
const defaultLogCount = 50

type logOptions struct {
	count       int
	errorsOnly  bool
	action      string
	search      string
	today       bool
	since       time.Duration
	stats       bool
	export      string
	interactive bool
}

// filter turns the flags into a logview filter relative to now.
func (o *logOptions) filter(now time.Time) (logview.Filter, error) {
	f := logview.Filter{Last: o.count, ErrorsOnly: o.errorsOnly, Search: o.search}
	if o.count < 0 {
		return f, errors.NewConfigError("count must not be negative", "count", errors.InvalidConfig, nil)
	}
	if o.action != "" {
		action, ok := journal.ParseAction(o.action)
		if !ok {
			return f, errors.NewConfigError(fmt.Sprintf("unknown action %q", o.action), "action", errors.InvalidConfig, nil)
		}
		f.Action = action
	}
	if o.today {
		f.Since = logview.StartOfDay(now)
	}
	if o.since > 0 {
		if cutoff := now.Add(-o.since); cutoff.After(f.Since) {
			f.Since = cutoff
		}
	}
	return f, nil
}

func newLogCmd(a *app) *cobra.Command {
	var opts logOptions

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the move log",
		Long: `Print the move log, optionally filtered. Every organize, undo and dry run
appends one line per action:

  time | action | file | source folder | destination or reason`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if cfg.LogFile == "" {
				return errors.NewConfigError("no move log configured", "log_file", errors.InvalidConfig, nil)
			}
			// Stats, export and the viewer cover the whole log unless --count says otherwise.
			if !cmd.Flags().Changed("count") && (opts.stats || opts.export != "" || opts.interactive) {
				opts.count = 0
			}
			now := time.Now()
			filter, err := opts.filter(now)
			if err != nil {
				return err
			}

			entries, err := logview.Load(cfg.LogFile)
			if err != nil {
				return err
			}
			logged := len(entries)
			entries = filter.Apply(entries)
			out := cmd.OutOrStdout()

			switch {
			case opts.interactive:
				title := "Move log: " + displayPath(cfg.LogFile)
				if filter.Active() {
					title += " (filtered)"
				}
				return tui.Run(title, entries)
			case opts.export != "":
				return exportLog(opts.export, entries)
			case opts.stats:
				for _, line := range logview.Compute(entries).Lines(now) {
					fmt.Fprintln(out, line)
				}
				return nil
			}

			if len(entries) == 0 {
				if logged > 0 {
					a.theme.info(out, "No log lines match.")
				} else {
					a.theme.info(out, "The move log is empty.")
				}
				return nil
			}
			for _, e := range entries {
				fmt.Fprintln(out, a.theme.logLine(e.Record, e.Raw, e.Malformed))
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&opts.count, "count", "c", defaultLogCount, "show only the last N matching lines, 0 shows all")
	flags.BoolVarP(&opts.errorsOnly, "errors-only", "e", false, "show only errors")
	flags.StringVar(&opts.action, "action", "", "show only one action: moved, skipped, error, created-folder or removed-folder")
	flags.StringVarP(&opts.search, "search", "s", "", "show only lines containing text (case-insensitive)")
	flags.BoolVar(&opts.today, "today", false, "show only today's lines")
	flags.DurationVar(&opts.since, "since", 0, "show only lines newer than a duration, e.g. 48h")
	flags.BoolVar(&opts.stats, "stats", false, "print statistics instead of lines")
	flags.StringVar(&opts.export, "export", "", "write the matching lines to a CSV file")
	flags.BoolVarP(&opts.interactive, "interactive", "i", false, "browse the log in a terminal viewer")
	cmd.MarkFlagsMutuallyExclusive("stats", "export", "interactive")

	cmd.AddCommand(newLogCleanupCmd(a))
	return cmd
}

func exportLog(path string, entries []logview.Entry) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return errors.FileErrorFrom("failed to create export file", path, err)
	}
	if err := logview.ExportCSV(f, entries); err != nil {
		f.Close()
		return errors.NewFileError("failed to write export file", path, errors.FileOperationFailed, err)
	}
	if err := f.Close(); err != nil {
		return errors.NewFileError("failed to write export file", path, errors.FileOperationFailed, err)
	}
	log.LogWithFields(log.F("path", path), log.F("entries", len(entries))).Info("Move log exported")
	return nil
}

func newLogCleanupCmd(a *app) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Drop log lines and history older than a number of days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("days") {
				days = cfg.RetentionDays
			}
			if days < 1 {
				return errors.NewConfigError("days must be at least 1", "days", errors.InvalidConfig, nil)
			}
			cutoff := time.Now().AddDate(0, 0, -days)
			out := cmd.OutOrStdout()

			if cfg.LogFile != "" {
				removed, err := logview.Cleanup(cfg.LogFile, cutoff)
				if err != nil {
					return err
				}
				a.theme.success(out, "Removed %s log lines older than %s", humanize.Comma(int64(removed)), humanize.Time(cutoff))
			}

			if cfg.HistoryDB != "" {
				st, err := a.openStores(cfg)
				if err != nil {
					return err
				}
				defer st.close()
				pruned, err := st.history.Prune(cmd.Context(), cutoff)
				if err != nil {
					return err
				}
				a.theme.success(out, "Removed %s history sessions", humanize.Comma(pruned))
				log.Infof("Pruned %d history sessions started before %s", pruned, cutoff.Format(time.DateOnly))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "keep this many days (default from config retention_days)")
	return cmd
}
