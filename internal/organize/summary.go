package organize

import (
	"time"

	"filenest/internal/journal"
	"filenest/pkg/types"
)

// Summary is the outcome of one Run.
type Summary struct {
	SessionID      string                  `json:"session_id"`
	Dir            string                  `json:"dir"`
	Preview        bool                    `json:"preview"`
	Strategy       types.DuplicateStrategy `json:"strategy"`
	Started        time.Time               `json:"started"`
	Finished       time.Time               `json:"finished"`
	Moved          int                     `json:"moved"`
	Skipped        int                     `json:"skipped"`
	Errors         int                     `json:"errors"`
	FoldersCreated int                     `json:"folders_created"`
	Interrupted    bool                    `json:"interrupted,omitempty"`
	Records        []journal.Record        `json:"records"`
}

func (s *Summary) add(rec journal.Record) {
	s.Records = append(s.Records, rec)
	switch rec.Action {
	case journal.ActionMoved:
		s.Moved++
	case journal.ActionSkipped:
		s.Skipped++
	case journal.ActionError:
		s.Errors++
	case journal.ActionCreatedFolder:
		s.FoldersCreated++
	}
}

// HasErrors reports whether any file failed.
func (s *Summary) HasErrors() bool {
	return s.Errors > 0
}

// Duration returns the wall time of the run.
func (s *Summary) Duration() time.Duration {
	return s.Finished.Sub(s.Started)
}

// Filter returns the records with the given action.
func (s *Summary) Filter(action journal.Action) []journal.Record {
	var out []journal.Record
	for _, rec := range s.Records {
		if rec.Action == action {
			out = append(out, rec)
		}
	}
	return out
}
