// Package storage implements the navigation-state persistence collaborator
// and its reference adapters.
package storage

import (
	"context"

	"github.com/starford/navkit/internal/state"
)

// Provider saves and restores navigation snapshots. Failures are returned as
// apperr persistence or restoration errors; they never panic.
type Provider interface {
	// Save replaces any previously saved snapshot with s.
	Save(ctx context.Context, s *state.NavigationState) error
	// Restore returns the saved snapshot, or (nil, nil) when none exists.
	Restore(ctx context.Context) (*state.NavigationState, error)
	// Clear removes the saved snapshot. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}

// Verify adapters satisfy Provider at compile time.
var (
	_ Provider = (*Memory)(nil)
	_ Provider = (*File)(nil)
	_ Provider = (*SQLite)(nil)
)
