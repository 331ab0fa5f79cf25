package logview

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"filenest/internal/errors"
	"filenest/internal/journal"
	"filenest/internal/log"
)

var csvHeader = []string{"time", "action", "simulated", "undo", "name", "source_dir", "dest_dir", "dest_name", "overwrote", "reason"}

// ExportCSV writes entries as CSV with a header row. Malformed lines are
// left out.
func ExportCSV(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, e := range entries {
		if e.Malformed {
			continue
		}
		row := []string{
			e.Time.UTC().Format(journal.TimeLayout),
			string(e.Action),
			strconv.FormatBool(e.Simulated),
			strconv.FormatBool(e.Undo),
			e.Name,
			e.SourceDir,
			e.DestDir,
			e.DestName,
			strconv.FormatBool(e.Overwrote),
			e.Reason,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Cleanup drops log lines older than before and returns how many were
// removed. The rewritten log replaces the old one in a single rename while
// holding the same lock appenders take, so no record is lost. Malformed
// lines carry no time and are kept.
func Cleanup(path string, before time.Time) (int, error) {
	lock := journal.LockFor(path)
	if err := lock.Lock(); err != nil {
		return 0, errors.NewFileError("failed to lock move log", path, errors.FileAccessDenied, err)
	}
	defer lock.Unlock()

	entries, err := Load(path)
	if err != nil {
		return 0, err
	}
	kept := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if !e.Malformed && e.Time.Before(before) {
			continue
		}
		kept = append(kept, e)
	}
	removed := len(entries) - len(kept)
	if removed == 0 {
		return 0, nil
	}

	if err := rewrite(path, kept); err != nil {
		return 0, err
	}
	log.LogWithFields(log.F("log", path), log.F("removed", removed), log.F("kept", len(kept))).Info("Move log cleaned up")
	return removed, nil
}

func rewrite(path string, entries []Entry) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return errors.NewFileError("failed to rewrite move log", path, errors.FileCreateFailed, err)
	}
	tmpName := tmp.Name()
	fail := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return errors.NewFileError("failed to rewrite move log", path, errors.FileOperationFailed, err)
	}

	for _, e := range entries {
		if _, err := io.WriteString(tmp, e.Raw+"\n"); err != nil {
			return fail(err)
		}
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Chmod(mode); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.NewFileError("failed to rewrite move log", path, errors.FileOperationFailed, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.NewFileError("failed to rewrite move log", path, errors.FileOperationFailed, err)
	}
	return nil
}
