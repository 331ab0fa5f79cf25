package main

import (
	"time"

	"filenest/internal/config"
	"filenest/internal/errors"
	"filenest/internal/organize"
	"filenest/internal/watch"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		opts     organizeOptions
		debounce time.Duration
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch [directory]",
		Short: "Organize a directory whenever files arrive",
		Long: `Organize the directory once, then keep watching it. New files are organized
after the directory has been quiet for the debounce period. Every run is its
own session in the history and can be undone on its own.

Stop with Ctrl+C.`,
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
			abs, err := config.ExpandPath(dir)
			if err != nil {
				return errors.NewFileError("invalid target directory", dir, errors.InvalidPath, err)
			}
			if !cmd.Flags().Changed("debounce") {
				debounce = cfg.DebounceDuration()
			}
			if !cmd.Flags().Changed("interval") {
				interval = cfg.IntervalDuration()
			}

			st, err := a.openStores(cfg)
			if err != nil {
				return err
			}
			defer st.close()

			out := cmd.OutOrStdout()
			runner := &watch.Runner{
				Organizer: &sessionOrganizer{cfg: cfg, stores: st, overrides: overrides},
				Dir:       abs,
				Debounce:  debounce,
				Interval:  interval,
				Ignore:    cfg.OwnFiles(),
				OnRun: func(s *organize.Summary, err error) {
					switch {
					case err != nil && s == nil:
						a.theme.warning(out, "Run failed: %v", err)
					case s == nil || len(s.Records) == 0:
					case s.HasErrors():
						a.theme.warning(out, "%s: %s moved, %s errors", s.Finished.Format(time.TimeOnly),
							humanize.Comma(int64(s.Moved)), humanize.Comma(int64(s.Errors)))
					default:
						a.theme.success(out, "%s: %s moved, %s skipped", s.Finished.Format(time.TimeOnly),
							humanize.Comma(int64(s.Moved)), humanize.Comma(int64(s.Skipped)))
					}
				},
			}

			mode := ""
			if overrides.Preview {
				mode = " (dry run)"
			}
			a.theme.info(out, "Watching %s%s, organizing after %s of quiet. Press Ctrl+C to stop.", displayPath(abs), mode, debounce)
			return runner.Run(cmd.Context())
		},
	}

	opts.register(cmd)
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "quiet period before organizing new files")
	cmd.Flags().DurationVar(&interval, "interval", 0, "also organize on this interval, 0 disables (default from config)")
	return cmd
}
