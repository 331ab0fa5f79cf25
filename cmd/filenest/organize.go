package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"filenest/internal/config"
	"filenest/internal/errors"
	"filenest/internal/organize"
	"filenest/pkg/types"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// organizeOptions are the flags shared by organize and watch.
type organizeOptions struct {
	dryRun   bool
	strategy string
	workers  int
	maxSize  string
}

func (o *organizeOptions) register(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&o.dryRun, "dry-run", "n", false, "show what would be done without moving anything")
	cmd.Flags().StringVar(&o.strategy, "strategy", "", "duplicate strategy: rename, skip or overwrite (default from config)")
	cmd.Flags().IntVar(&o.workers, "workers", 0, "number of files moved in parallel (default from config)")
	cmd.Flags().StringVar(&o.maxSize, "max-size", "", "skip files larger than this, e.g. 500MB (default from config)")
}

func (o *organizeOptions) overrides() (organize.Overrides, error) {
	ov := organize.Overrides{Preview: o.dryRun, Workers: o.workers}
	if o.workers < 0 {
		return ov, errors.NewConfigError("workers must be at least 1", "workers", errors.InvalidConfig, nil)
	}
	if o.strategy != "" {
		s, err := types.ParseDuplicateStrategy(o.strategy)
		if err != nil {
			return ov, errors.NewConfigError("invalid duplicate strategy", "strategy", errors.InvalidConfig, err)
		}
		ov.Strategy = s
	}
	if o.maxSize != "" {
		n, err := humanize.ParseBytes(o.maxSize)
		if err != nil || n > math.MaxInt64 {
			return ov, errors.NewConfigError("invalid size", "max-size", errors.InvalidConfig, err)
		}
		ov.MaxSize = int64(n)
	}
	return ov, nil
}

// targetDir picks the directory argument or the configured target.
func targetDir(cfg *config.Config, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if cfg.TargetPath == "" {
		return "", errors.NewConfigError("no target directory given and none configured", "target_path", errors.InvalidConfig, nil)
	}
	return cfg.TargetPath, nil
}

func newOrganizeCmd(a *app) *cobra.Command {
	var (
		opts    organizeOptions
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "organize [directory]",
		Short: "Organize files in a directory",
		Long: `Move every file directly inside the directory into a category subfolder
chosen by its extension. Files without a matching category go to the
catch-all folder. Subdirectories are left alone.

Exit status is 0 on success, 1 when the run could not start and 2 when it
finished but some files failed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			overrides, err := opts.overrides()
			if err != nil {
				return err
			}
			dir, err := targetDir(cfg, args)
			if err != nil {
				return err
			}

			st, err := a.openStores(cfg)
			if err != nil {
				return err
			}
			defer st.close()

			org := &sessionOrganizer{cfg: cfg, stores: st, overrides: overrides}
			summary, runErr := org.Run(cmd.Context(), dir)
			if summary == nil {
				return runErr
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(summary); err != nil {
					return err
				}
			} else {
				printSummary(a.theme, out, summary)
			}

			if runErr != nil {
				return &exitError{code: exitFatal, err: fmt.Errorf("run interrupted: %w", runErr)}
			}
			if summary.HasErrors() {
				return partialFailure(summary.Errors)
			}
			return nil
		},
	}

	opts.register(cmd)
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the run summary as JSON")
	return cmd
}

func printSummary(t theme, w io.Writer, s *organize.Summary) {
	title := "Organized " + s.Dir
	if s.Preview {
		title = "Dry run for " + s.Dir
	}
	t.header(w, title)

	if len(s.Records) == 0 {
		t.info(w, "Nothing to organize.")
		return
	}
	fmt.Fprintln(w, t.recordTable(s.Records))

	counts := []string{
		fmt.Sprintf("%s moved", humanize.Comma(int64(s.Moved))),
		fmt.Sprintf("%s skipped", humanize.Comma(int64(s.Skipped))),
		fmt.Sprintf("%s errors", humanize.Comma(int64(s.Errors))),
		fmt.Sprintf("%s folders created", humanize.Comma(int64(s.FoldersCreated))),
	}
	line := strings.Join(counts, ", ") + " in " + s.Duration().Round(time.Millisecond).String()
	switch {
	case s.Errors > 0:
		t.warning(w, "%s", line)
	default:
		t.success(w, "%s", line)
	}
	switch {
	case s.Preview:
		t.info(w, "Dry run: no files were moved.")
	case s.Moved > 0 || s.FoldersCreated > 0:
		t.info(w, "Session %s. Run 'filenest undo' to reverse it.", shortID(s.SessionID))
	}
}

// shortID abbreviates a session id the way the history listing shows it.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
