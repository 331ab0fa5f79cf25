package rules

import (
	"path/filepath"

	"filenest/internal/errors"

	"github.com/gobwas/glob"
)

// Exclusions matches filenames against user-supplied glob patterns
// (e.g. "*.part", "desktop.ini", "{Thumbs,thumbs}.db").
type Exclusions struct {
	patterns []string
	globs    []glob.Glob
}

// NewExclusions compiles patterns. An invalid pattern is reported as a rule error.
func NewExclusions(patterns []string) (*Exclusions, error) {
	ex := &Exclusions{}
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, errors.NewRuleError("invalid exclude pattern", p, errors.InvalidRule, err)
		}
		ex.patterns = append(ex.patterns, p)
		ex.globs = append(ex.globs, g)
	}
	return ex, nil
}

// Match reports whether the base name of path matches any pattern, and which one.
func (e *Exclusions) Match(path string) (string, bool) {
	if e == nil {
		return "", false
	}
	name := filepath.Base(path)
	for i, g := range e.globs {
		if g.Match(name) {
			return e.patterns[i], true
		}
	}
	return "", false
}

// Patterns returns the source patterns.
func (e *Exclusions) Patterns() []string {
	if e == nil {
		return nil
	}
	return append([]string(nil), e.patterns...)
}
