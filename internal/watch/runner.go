package watch

import (
	"context"
	"fmt"
	"time"

	"filenest/internal/log"
	"filenest/internal/organize"
)

// DefaultDebounce is the quiet period used when Runner.Debounce is unset.
const DefaultDebounce = 2 * time.Second

// Runner organizes a directory once on start and again whenever files have
// arrived and the directory has been quiet for Debounce. Each trigger is a
// fresh organizer run with the usual contract.
type Runner struct {
	Organizer organize.Organizer
	Dir       string
	Debounce  time.Duration
	Interval  time.Duration // Periodic rescan in addition to events; zero disables
	Ignore    []string      // Paths whose events are dropped

	// OnRun observes each completed run, including failed ones.
	OnRun func(*organize.Summary, error)
}

// Run watches until ctx is cancelled. Only failing to set up the watch is
// returned as an error; failed runs are reported to OnRun and the loop
// continues.
func (r *Runner) Run(ctx context.Context) error {
	if r.Organizer == nil {
		return fmt.Errorf("watch runner has no organizer")
	}
	debounce := r.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := New(r.Ignore...)
	if err != nil {
		return err
	}
	if err := w.AddDirectory(r.Dir); err != nil {
		w.fsWatcher.Close()
		return err
	}
	if err := w.Start(); err != nil {
		w.fsWatcher.Close()
		return err
	}
	defer w.Stop()

	r.organize(ctx)

	quiet := time.NewTimer(debounce)
	quiet.Stop()
	defer quiet.Stop()

	var tick <-chan time.Time
	if r.Interval > 0 {
		ticker := time.NewTicker(r.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	pending := false
	for {
		select {
		case <-ctx.Done():
			log.LogWithFields(log.F("dir", r.Dir)).Info("Watch stopped")
			return nil

		case ev, ok := <-w.Events():
			if !ok {
				return nil
			}
			log.LogWithFields(log.F("file", ev.Path), log.F("op", ev.Op.String())).Debug("File event")
			pending = true
			quiet.Reset(debounce)

		case <-quiet.C:
			if pending {
				pending = false
				r.organize(ctx)
			}

		case <-tick:
			pending = false
			quiet.Stop()
			r.organize(ctx)
		}
	}
}

func (r *Runner) organize(ctx context.Context) {
	summary, err := r.Organizer.Run(ctx, r.Dir)
	if err != nil && ctx.Err() == nil {
		log.LogWithError(err).With(log.F("dir", r.Dir)).Error("Watch run failed")
	}
	if r.OnRun != nil {
		r.OnRun(summary, err)
	}
}
