// Package journal defines the move record emitted for every organizer action
// and the sinks that persist the record stream.
//
// Records are written one per line in the form
//
//	timestamp | action | filename | source-dir | destination-dir-or-reason
//
// with timestamps in UTC as 2006-01-02T15:04:05Z.
package journal

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// TimeLayout is the timestamp format of a log line.
const TimeLayout = "2006-01-02T15:04:05Z"

// SimulatedPrefix marks records produced in preview mode.
const SimulatedPrefix = "[dry-run] "

const fieldSep = " | "

// Action is the kind of outcome a record describes.
type Action string

const (
	ActionMoved         Action = "Moved"
	ActionSkipped       Action = "Skipped"
	ActionError         Action = "Error"
	ActionCreatedFolder Action = "Created folder"
	ActionRemovedFolder Action = "Removed folder"
)

// Actions lists every action kind.
func Actions() []Action {
	return []Action{ActionMoved, ActionSkipped, ActionError, ActionCreatedFolder, ActionRemovedFolder}
}

// ParseAction matches a case-insensitive action name such as "moved" or "created-folder".
func ParseAction(value string) (Action, bool) {
	norm := strings.NewReplacer("-", " ", "_", " ").Replace(strings.ToLower(strings.TrimSpace(value)))
	for _, a := range Actions() {
		if strings.ToLower(string(a)) == norm {
			return a, true
		}
	}
	return "", false
}

// Record describes one action of an organizer run.
type Record struct {
	Time      time.Time `json:"time"`
	Session   string    `json:"session,omitempty"` // Run identifier; not part of the line format
	Action    Action    `json:"action"`
	Simulated bool      `json:"simulated,omitempty"`
	Undo      bool      `json:"undo,omitempty"` // Reversal of an earlier action
	Name      string    `json:"name"`           // Source filename, or folder name for folder records
	SourceDir string    `json:"source_dir"`
	DestDir   string    `json:"dest_dir,omitempty"`  // Destination directory, or the folder path for folder records
	DestName  string    `json:"dest_name,omitempty"` // Final filename in DestDir when it differs from Name
	Overwrote bool      `json:"overwrote,omitempty"`
	Reason    string    `json:"reason,omitempty"` // Skip or error reason
}

// SourcePath returns the original location of the file.
func (r Record) SourcePath() string {
	return filepath.Join(r.SourceDir, r.Name)
}

// FinalName returns the filename used at the destination.
func (r Record) FinalName() string {
	if r.DestName != "" {
		return r.DestName
	}
	return r.Name
}

// DestPath returns the full destination path of a moved file.
func (r Record) DestPath() string {
	return filepath.Join(r.DestDir, r.FinalName())
}

// Renamed reports whether the file received a disambiguated name.
func (r Record) Renamed() bool {
	return r.DestName != "" && r.DestName != r.Name
}

// Label renders the action column, e.g. "Moved (renamed to a (1).txt)".
func (r Record) Label() string {
	label := string(r.Action)
	switch {
	case r.Undo:
		label += " (undo)"
	case r.Action == ActionMoved && r.Overwrote:
		label += " (overwrote existing)"
	case r.Action == ActionMoved && r.Renamed():
		label += fmt.Sprintf(" (renamed to %s)", r.DestName)
	}
	if r.Simulated {
		label = SimulatedPrefix + label
	}
	return label
}

// Detail renders the last column: the destination for moves and folder
// records, the reason for skips and errors.
func (r Record) Detail() string {
	switch r.Action {
	case ActionSkipped, ActionError:
		return r.Reason
	default:
		return r.DestDir
	}
}

// Line renders the record without a trailing newline.
func (r Record) Line() string {
	fields := []string{
		r.Time.UTC().Format(TimeLayout),
		r.Label(),
		sanitize(r.Name),
		sanitize(r.SourceDir),
		sanitize(r.Detail()),
	}
	return strings.Join(fields, fieldSep)
}

func (r Record) String() string {
	return r.Line()
}

// sanitize keeps a value on one line so the record stays parseable.
func sanitize(s string) string {
	return strings.NewReplacer("\n", " ", "\r", " ").Replace(s)
}

// ParseLine decodes a line produced by Record.Line. The detail column may
// itself contain the separator; filenames containing " | " are ambiguous and
// parse with the overflow in the detail column.
func ParseLine(line string) (Record, error) {
	line = strings.TrimRight(line, "\r\n")
	parts := strings.SplitN(line, fieldSep, 5)
	if len(parts) < 4 {
		return Record{}, fmt.Errorf("expected at least 4 fields, got %d", len(parts))
	}

	ts, err := time.Parse(TimeLayout, strings.TrimSpace(parts[0]))
	if err != nil {
		return Record{}, fmt.Errorf("invalid timestamp %q: %w", parts[0], err)
	}

	rec := Record{Time: ts, Name: parts[2], SourceDir: parts[3]}
	if err := rec.parseLabel(parts[1]); err != nil {
		return Record{}, err
	}

	detail := ""
	if len(parts) == 5 {
		detail = parts[4]
	}
	switch rec.Action {
	case ActionSkipped, ActionError:
		rec.Reason = detail
	default:
		rec.DestDir = detail
	}
	return rec, nil
}

func (r *Record) parseLabel(label string) error {
	label = strings.TrimSpace(label)
	if strings.HasPrefix(label, SimulatedPrefix) {
		r.Simulated = true
		label = strings.TrimPrefix(label, SimulatedPrefix)
	}

	var note string
	if i := strings.Index(label, " ("); i >= 0 && strings.HasSuffix(label, ")") {
		note = label[i+2 : len(label)-1]
		label = label[:i]
	}

	action, ok := actionByLabel(label)
	if !ok {
		return fmt.Errorf("unknown action %q", label)
	}
	r.Action = action

	switch {
	case note == "":
	case note == "undo":
		r.Undo = true
	case note == "overwrote existing":
		r.Overwrote = true
	case strings.HasPrefix(note, "renamed to "):
		r.DestName = strings.TrimPrefix(note, "renamed to ")
	default:
		return fmt.Errorf("unknown action note %q", note)
	}
	return nil
}

func actionByLabel(label string) (Action, bool) {
	for _, a := range Actions() {
		if string(a) == label {
			return a, true
		}
	}
	return "", false
}
