package logview

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"filenest/internal/journal"

	"github.com/dustin/go-humanize"
)

const dayLayout = "2006-01-02"

// Stats aggregates a set of log entries. Simulated records are counted in
// Simulated only; everything else describes what actually happened.
type Stats struct {
	Total      int
	Malformed  int
	Simulated  int
	ByAction   map[journal.Action]int
	ByCategory map[string]int // Moves per destination folder
	ByDay      map[string]int // Records per UTC day, keyed 2006-01-02
	First      time.Time
	Last       time.Time
}

// Compute builds statistics for entries.
func Compute(entries []Entry) Stats {
	s := Stats{
		ByAction:   make(map[journal.Action]int),
		ByCategory: make(map[string]int),
		ByDay:      make(map[string]int),
	}
	for _, e := range entries {
		s.Total++
		if e.Malformed {
			s.Malformed++
			continue
		}
		if e.Simulated {
			s.Simulated++
			continue
		}
		s.ByAction[e.Action]++
		if e.Action == journal.ActionMoved && !e.Undo && e.DestDir != "" {
			s.ByCategory[filepath.Base(e.DestDir)]++
		}
		s.ByDay[e.Time.UTC().Format(dayLayout)]++
		if s.First.IsZero() || e.Time.Before(s.First) {
			s.First = e.Time
		}
		if e.Time.After(s.Last) {
			s.Last = e.Time
		}
	}
	return s
}

// ErrorRate is the share of file outcomes (moved, skipped, error) that failed.
func (s Stats) ErrorRate() float64 {
	files := s.ByAction[journal.ActionMoved] + s.ByAction[journal.ActionSkipped] + s.ByAction[journal.ActionError]
	if files == 0 {
		return 0
	}
	return float64(s.ByAction[journal.ActionError]) / float64(files)
}

// BusiestDay returns the day with most records; ties go to the earlier day.
func (s Stats) BusiestDay() (string, int) {
	var (
		day   string
		count int
	)
	for _, d := range sortedKeys(s.ByDay) {
		if s.ByDay[d] > count {
			day, count = d, s.ByDay[d]
		}
	}
	return day, count
}

// Categories returns category names ordered by move count, then name.
func (s Stats) Categories() []string {
	names := sortedKeys(s.ByCategory)
	sort.SliceStable(names, func(i, j int) bool {
		return s.ByCategory[names[i]] > s.ByCategory[names[j]]
	})
	return names
}

// Lines renders the statistics as human-readable summary lines.
func (s Stats) Lines(now time.Time) []string {
	lines := []string{fmt.Sprintf("Records: %s", humanize.Comma(int64(s.Total)))}
	if s.Total == 0 {
		return lines
	}
	for _, a := range journal.Actions() {
		if n := s.ByAction[a]; n > 0 {
			lines = append(lines, fmt.Sprintf("  %s: %s", a, humanize.Comma(int64(n))))
		}
	}
	if s.Simulated > 0 {
		lines = append(lines, fmt.Sprintf("  Dry-run: %s", humanize.Comma(int64(s.Simulated))))
	}
	if s.Malformed > 0 {
		lines = append(lines, fmt.Sprintf("  Unreadable lines: %s", humanize.Comma(int64(s.Malformed))))
	}
	lines = append(lines, fmt.Sprintf("Error rate: %.1f%%", s.ErrorRate()*100))
	if day, n := s.BusiestDay(); n > 0 {
		lines = append(lines, fmt.Sprintf("Busiest day: %s (%s records)", day, humanize.Comma(int64(n))))
	}
	if !s.Last.IsZero() {
		lines = append(lines, fmt.Sprintf("Last activity: %s", humanize.RelTime(s.Last, now, "ago", "from now")))
	}
	if cats := s.Categories(); len(cats) > 0 {
		lines = append(lines, "Moves by category:")
		for _, c := range cats {
			lines = append(lines, fmt.Sprintf("  %s: %s", c, humanize.Comma(int64(s.ByCategory[c]))))
		}
	}
	return lines
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
