package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"filenest/internal/errors"
	"filenest/internal/history"
	"filenest/internal/log"
	"filenest/internal/undo"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newUndoCmd(a *app) *cobra.Command {
	var (
		sessionID string
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "undo",
		Short: "Reverse the last organize run",
		Long: `Move the files of an organize run back to where they were and remove the
folders it created once they are empty. A file is never moved back over one
that has since taken its original name.

Without --session the newest run that moved files and has not been undone is
reversed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if cfg.HistoryDB == "" {
				return errors.NewConfigError("undo needs a history database", "history_db", errors.InvalidConfig, nil)
			}

			st, err := a.openStores(cfg)
			if err != nil {
				return err
			}
			defer st.close()

			ctx := cmd.Context()
			sess, err := pickSession(ctx, st.history, sessionID)
			if err != nil {
				return err
			}
			records, err := st.history.Records(ctx, sess.ID)
			if err != nil {
				return err
			}

			report, err := undo.Reverse(ctx, records, undo.Options{
				Preview:   dryRun,
				Sink:      st.sink(!dryRun),
				SessionID: sess.ID,
			})
			if report != nil {
				printUndoReport(a.theme, cmd.OutOrStdout(), sess, report, dryRun)
			}
			if err != nil {
				return &exitError{code: exitFatal, err: fmt.Errorf("undo interrupted: %w", err)}
			}

			if !dryRun {
				if err := st.history.MarkUndone(context.WithoutCancel(ctx), sess.ID, time.Now()); err != nil {
					return err
				}
				log.LogWithFields(log.F("session", sess.ID), log.F("restored", report.Restored)).Info("Session undone")
			}
			if report.HasFailures() {
				log.Warnf("Undo of session %s left %d file(s) in place", shortID(sess.ID), report.Failed)
				return partialFailure(report.Failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "session to undo, as listed by 'filenest history'")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "show what would be restored without moving anything")
	return cmd
}

// pickSession resolves the session to undo and refuses ones that cannot be.
func pickSession(ctx context.Context, store *history.Store, id string) (*history.Session, error) {
	var (
		sess *history.Session
		err  error
	)
	if id == "" {
		sess, err = store.LastSession(ctx, false)
		if errors.Is(err, history.ErrSessionNotFound) {
			return nil, errors.New("nothing to undo")
		}
	} else {
		sess, err = store.Session(ctx, id)
		if errors.Is(err, history.ErrSessionNotFound) {
			return nil, errors.Newf("no session %q", id)
		}
	}
	if err != nil {
		return nil, err
	}

	switch {
	case sess.Preview:
		return nil, errors.Newf("session %s was a dry run and moved nothing", shortID(sess.ID))
	case sess.Undone():
		return nil, errors.Newf("session %s was already undone %s", shortID(sess.ID), humanize.Time(sess.UndoneAt))
	}
	return sess, nil
}

func printUndoReport(t theme, w io.Writer, sess *history.Session, r *undo.Report, preview bool) {
	title := "Undoing session " + shortID(sess.ID)
	if preview {
		title = "Dry run: undo of session " + shortID(sess.ID)
	}
	t.header(w, title)

	if len(r.Records) == 0 {
		t.info(w, "Nothing to restore.")
		return
	}
	fmt.Fprintln(w, t.recordTable(r.Records))
	for _, note := range r.Notes {
		t.warning(w, "%s", note)
	}

	line := fmt.Sprintf("%s restored, %s folders removed, %s skipped, %s failed",
		humanize.Comma(int64(r.Restored)), humanize.Comma(int64(r.FoldersRemoved)),
		humanize.Comma(int64(r.Skipped)), humanize.Comma(int64(r.Failed)))
	if r.HasFailures() {
		t.warning(w, "%s", line)
	} else {
		t.success(w, "%s", line)
	}
	if preview {
		t.info(w, "Dry run: no files were moved.")
	} else {
		t.info(w, "Files were returned to %s.", displayPath(sess.Dir))
	}
}

// displayPath abbreviates the home directory as "~".
func displayPath(p string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return p
	}
	if p == home {
		return "~"
	}
	if rest, ok := strings.CutPrefix(p, home+string(filepath.Separator)); ok {
		return filepath.Join("~", rest)
	}
	return p
}
