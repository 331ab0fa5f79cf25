// Package logview reads the move log back: loading, filtering, statistics,
// CSV export and retention cleanup.
package logview

import (
	"bufio"
	"io"
	"os"
	"strings"
	"time"

	"filenest/internal/errors"
	"filenest/internal/journal"
)

// Entry is one line of the move log. Lines that do not parse are kept with
// Malformed set so nothing in the file is silently hidden.
type Entry struct {
	journal.Record
	Raw       string
	Malformed bool
}

// Load reads the log at path. A missing log is an empty log.
func Load(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.FileErrorFrom("failed to open move log", path, err)
	}
	defer f.Close()

	entries, err := Parse(f)
	if err != nil {
		return nil, errors.NewFileError("failed to read move log", path, errors.FileOperationFailed, err)
	}
	return entries, nil
}

// Parse reads log lines from r in file order.
func Parse(r io.Reader) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		rec, err := journal.ParseLine(line)
		entries = append(entries, Entry{Record: rec, Raw: line, Malformed: err != nil})
	}
	return entries, scanner.Err()
}

// Filter selects log entries. Zero values disable a criterion.
type Filter struct {
	Last       int            // Keep only the newest N matches
	ErrorsOnly bool           // Only Error records
	Action     journal.Action // Only this action kind
	Search     string         // Case-insensitive substring of the whole line
	Since      time.Time      // Only records at or after this instant
}

// StartOfDay returns local midnight of the day containing t.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Active reports whether any criterion is set.
func (f Filter) Active() bool {
	return f.Last > 0 || f.ErrorsOnly || f.Action != "" || f.Search != "" || !f.Since.IsZero()
}

// Apply returns the matching entries in log order. Malformed lines only
// survive a plain search, since they carry no action or time.
func (f Filter) Apply(entries []Entry) []Entry {
	needle := strings.ToLower(f.Search)
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if !f.match(e, needle) {
			continue
		}
		out = append(out, e)
	}
	if f.Last > 0 && len(out) > f.Last {
		out = out[len(out)-f.Last:]
	}
	return out
}

func (f Filter) match(e Entry, needle string) bool {
	if e.Malformed && (f.ErrorsOnly || f.Action != "" || !f.Since.IsZero()) {
		return false
	}
	if f.ErrorsOnly && e.Action != journal.ActionError {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if !f.Since.IsZero() && e.Time.Before(f.Since) {
		return false
	}
	if needle != "" && !strings.Contains(strings.ToLower(e.Raw), needle) {
		return false
	}
	return true
}
