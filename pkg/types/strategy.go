package types

import (
	"fmt"
	"strings"
)

// DuplicateStrategy is the policy applied when a destination filename is already taken.
type DuplicateStrategy string

const (
	// StrategyRename keeps both files by adding a " (N)" counter to the incoming name.
	StrategyRename DuplicateStrategy = "rename"
	// StrategySkip leaves the incoming file where it is.
	StrategySkip DuplicateStrategy = "skip"
	// StrategyOverwrite replaces the existing destination file.
	StrategyOverwrite DuplicateStrategy = "overwrite"
)

// DuplicateStrategies lists every supported strategy.
func DuplicateStrategies() []DuplicateStrategy {
	return []DuplicateStrategy{StrategyRename, StrategySkip, StrategyOverwrite}
}

// Valid reports whether s is a known strategy.
func (s DuplicateStrategy) Valid() bool {
	switch s {
	case StrategyRename, StrategySkip, StrategyOverwrite:
		return true
	}
	return false
}

// ParseDuplicateStrategy converts user input into a DuplicateStrategy.
func ParseDuplicateStrategy(value string) (DuplicateStrategy, error) {
	s := DuplicateStrategy(strings.ToLower(strings.TrimSpace(value)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown duplicate strategy %q (want rename, skip or overwrite)", value)
	}
	return s, nil
}
