// Package undo reverses the moves of an organizer session.
package undo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"filenest/internal/errors"
	"filenest/internal/fsops"
	"filenest/internal/journal"
	"filenest/internal/log"
)

// Skip and failure reasons reported by Reverse.
const (
	ReasonMissing     = "no longer at destination"
	ReasonNameTaken   = "original name is taken"
	ReasonNotEmpty    = "folder not empty"
	ReasonFolderGone  = "folder already removed"
	ReasonOverwritten = "replaced file cannot be restored"
)

// Options configures Reverse.
type Options struct {
	Preview   bool
	Sink      journal.Sink
	SessionID string // Stamped on the emitted records
	Now       func() time.Time
}

// Report is the outcome of a reversal.
type Report struct {
	Restored       int
	FoldersRemoved int
	Skipped        int
	Failed         int
	Notes          []string
	Records        []journal.Record
}

// HasFailures reports whether any reversal failed.
func (r *Report) HasFailures() bool {
	return r.Failed > 0
}

// Reverse walks records newest first, moving every real move back to its
// original name and removing folders the session created once they are
// empty. Each step stands alone: a failure is reported and the walk
// continues. Moves back never replace a file that took the original name.
func Reverse(ctx context.Context, records []journal.Record, opts Options) (*Report, error) {
	if opts.Sink == nil {
		opts.Sink = journal.Discard
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	r := &reverser{opts: opts, report: &Report{}, vacated: make(map[string]struct{})}

	for i := len(records) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return r.report, err
		}
		rec := records[i]
		if rec.Simulated || rec.Undo {
			continue
		}
		switch rec.Action {
		case journal.ActionMoved:
			r.restore(rec)
		case journal.ActionCreatedFolder:
			r.removeFolder(rec)
		}
	}
	return r.report, nil
}

type reverser struct {
	opts   Options
	report *Report
	// Paths emptied so far; lets a preview predict which folders end up empty.
	vacated map[string]struct{}
}

func (r *reverser) restore(rec journal.Record) {
	from := rec.DestPath()
	to := rec.SourcePath()
	out := journal.Record{
		Action:    journal.ActionMoved,
		Name:      rec.FinalName(),
		SourceDir: rec.DestDir,
		DestDir:   rec.SourceDir,
	}
	if rec.Renamed() {
		out.DestName = rec.Name
	}

	if r.opts.Preview {
		if _, err := os.Lstat(from); err != nil {
			r.fail(out, ReasonMissing)
			return
		}
		if _, err := os.Lstat(to); err == nil {
			r.fail(out, ReasonNameTaken)
			return
		}
	} else if err := fsops.MoveNoReplace(from, to); err != nil {
		switch {
		case errors.Is(err, os.ErrExist):
			r.fail(out, ReasonNameTaken)
		case errors.Is(err, os.ErrNotExist):
			r.fail(out, ReasonMissing)
		default:
			r.fail(out, fsops.Reason(err))
		}
		return
	}

	r.vacated[from] = struct{}{}
	r.report.Restored++
	if rec.Overwrote {
		r.report.Notes = append(r.report.Notes, fmt.Sprintf("%s: %s", from, ReasonOverwritten))
	}
	r.emit(out)
}

func (r *reverser) removeFolder(rec journal.Record) {
	out := journal.Record{
		Action:    journal.ActionRemovedFolder,
		Name:      rec.Name,
		SourceDir: rec.SourceDir,
		DestDir:   rec.DestDir,
	}

	entries, err := os.ReadDir(rec.DestDir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		r.skip(out, ReasonFolderGone)
		return
	case err != nil:
		r.fail(out, fsops.Reason(err))
		return
	}
	for _, e := range entries {
		if _, ok := r.vacated[filepath.Join(rec.DestDir, e.Name())]; !ok {
			r.skip(out, ReasonNotEmpty)
			return
		}
	}

	if !r.opts.Preview {
		if err := os.Remove(rec.DestDir); err != nil {
			// Something arrived since the listing above.
			r.skip(out, ReasonNotEmpty)
			return
		}
	}
	r.report.FoldersRemoved++
	r.emit(out)
}

func (r *reverser) skip(out journal.Record, why string) {
	out.Action = journal.ActionSkipped
	out.Reason = why
	r.report.Skipped++
	r.emit(out)
}

func (r *reverser) fail(out journal.Record, why string) {
	out.Action = journal.ActionError
	out.Reason = why
	r.report.Failed++
	log.LogWithFields(log.F("file", out.Name), log.F("reason", why)).Warn("Undo step failed")
	r.emit(out)
}

func (r *reverser) emit(rec journal.Record) {
	rec.Time = r.opts.Now().UTC()
	rec.Session = r.opts.SessionID
	rec.Simulated = r.opts.Preview
	rec.Undo = true
	r.report.Records = append(r.report.Records, rec)
	if err := r.opts.Sink.Write(rec); err != nil {
		log.LogWithError(err).Warn("Failed to persist undo record")
	}
}
