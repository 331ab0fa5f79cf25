package organize

import "context"

// Organizer runs the organizer over a directory. The CLI and the watch
// runner depend on this interface so tests can substitute a fake.
type Organizer interface {
	// Run organizes the direct entries of dir and returns the run summary.
	Run(ctx context.Context, dir string) (*Summary, error)
}

// Ensure Engine implements the Organizer interface
var _ Organizer = (*Engine)(nil)
