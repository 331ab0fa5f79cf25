package organize

import (
	"filenest/internal/config"
	"filenest/internal/journal"
	"filenest/pkg/types"
)

// Overrides are per-invocation settings layered over the configuration.
// Zero values keep the configured behavior.
type Overrides struct {
	Preview   bool
	Strategy  types.DuplicateStrategy
	Workers   int
	MaxSize   int64
	Sink      journal.Sink
	SessionID string
}

// FromConfig builds an Engine from a loaded configuration.
func FromConfig(cfg *config.Config, o Overrides) (*Engine, error) {
	exclusions, err := cfg.Exclusions()
	if err != nil {
		return nil, err
	}

	strategy := cfg.DuplicateStrategy
	if o.Strategy != "" {
		strategy = o.Strategy
	}
	workers := cfg.Workers
	if o.Workers > 0 {
		workers = o.Workers
	}
	maxSize := cfg.MaxFileSizeBytes()
	if o.MaxSize > 0 {
		maxSize = o.MaxSize
	}

	return New(Options{
		Rules:      cfg.RuleSet(),
		Exclusions: exclusions,
		Strategy:   strategy,
		Preview:    o.Preview,
		Workers:    workers,
		SkipHidden: cfg.HideHidden(),
		MaxSize:    maxSize,
		OwnFiles:   cfg.OwnFiles(),
		Sink:       o.Sink,
		SessionID:  o.SessionID,
	}), nil
}

// OrganizerFactory is a function that creates an Organizer
// This allows for dependency injection in tests
type OrganizerFactory func(cfg *config.Config, o Overrides) (Organizer, error)

// Default factory that creates a real organizer
var DefaultOrganizerFactory OrganizerFactory = func(cfg *config.Config, o Overrides) (Organizer, error) {
	return FromConfig(cfg, o)
}

// CurrentOrganizerFactory is the currently active factory
// This can be swapped in tests
var CurrentOrganizerFactory = DefaultOrganizerFactory

// SetOrganizerFactory sets a custom organizer factory for dependency injection
func SetOrganizerFactory(factory OrganizerFactory) {
	CurrentOrganizerFactory = factory
}

// ResetOrganizerFactory resets to the default organizer factory
func ResetOrganizerFactory() {
	CurrentOrganizerFactory = DefaultOrganizerFactory
}
