// Package state holds the UI-facing view of one open profile.
//
// # Overview
//
// The Store is the single source of truth for what the profile screen shows:
// the resolved connection view, whether a resolve or action is in flight, and
// the last error. The Bubble Tea model mutates it from Update and renders
// from Snapshot; commands running on other goroutines only report results
// back as messages.
//
// # Busy guard
//
// BeginResolve and BeginAction refuse to start while another call for the
// profile is pending. ControlsEnabled on a Snapshot is false for the whole
// interval between Begin and Settle, so a button can never fire twice.
//
// # Generations
//
// Open bumps a generation counter every time a different profile is opened.
// Commands carry the generation they were started under, and Settle drops
// results whose generation is no longer current:
//
//	gen := store.Open("ann", "bob")
//	store.BeginResolve()
//	// ... user opens another profile, gen is now stale
//	store.Settle(gen, view, nil) // false, ignored
//
// # Errors
//
// A failed Settle keeps the last known-good view and records the error.
// ConsecutiveFailures counts failures in a row and resets on success;
// IsOffline reports two or more.
//
// The zero Store is ready to use.
package state
