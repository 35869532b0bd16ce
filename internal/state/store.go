package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/gigon/gigon/internal/connection"
)

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Viewer string
	Other  string

	View    connection.View
	HasView bool
	Loading bool // resolve in flight
	Busy    bool // primary or remove action in flight

	Network        connection.Network
	HasNetwork     bool
	NetworkLoading bool

	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int
}

// IsOffline returns true when the collaborator has failed several calls in a row.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// ControlsEnabled reports whether the profile affordances accept input.
func (s Snapshot) ControlsEnabled() bool {
	return s.HasView && !s.Loading && !s.Busy
}

// Store coordinates updates to the snapshot. Each Begin* call that returns
// true must be followed by the matching Settle* call.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
	gen      uint64
}

// Open switches the store to a new profile pair and returns its generation.
// Results settled with an older generation are dropped.
func (s *Store) Open(viewer, other string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	s.snapshot.Viewer = viewer
	s.snapshot.Other = other
	s.snapshot.View = connection.View{}
	s.snapshot.HasView = false
	s.snapshot.Loading = false
	s.snapshot.Busy = false
	s.snapshot.LastError = nil
	return s.gen
}

// Generation returns the current profile generation.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

// BeginResolve marks a resolve as in flight. It returns false when a resolve
// or action is already running for this profile.
func (s *Store) BeginResolve() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot.Loading || s.snapshot.Busy {
		return false
	}
	s.snapshot.Loading = true
	return true
}

// BeginAction marks a mutation as in flight. It returns false while another
// call is pending or before the first resolve has settled, which keeps the
// triggering control disabled.
func (s *Store) BeginAction() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot.Loading || s.snapshot.Busy || !s.snapshot.HasView {
		return false
	}
	s.snapshot.Busy = true
	return true
}

// Settle records the outcome of a resolve or action. When err is non-nil the
// previous view is kept and the error recorded. It reports whether gen was
// current.
func (s *Store) Settle(gen uint64, view connection.View, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return false
	}

	s.snapshot.Loading = false
	s.snapshot.Busy = false
	s.snapshot.LastUpdated = time.Now()
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.ConsecutiveFailures++
		return true
	}
	s.snapshot.View = view
	s.snapshot.HasView = true
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
	return true
}

// BeginNetwork marks a network listing as in flight.
func (s *Store) BeginNetwork() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot.NetworkLoading {
		return false
	}
	s.snapshot.NetworkLoading = true
	return true
}

// SettleNetwork records a network listing result, keeping the previous
// listing on error.
func (s *Store) SettleNetwork(net connection.Network, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.NetworkLoading = false
	s.snapshot.LastUpdated = time.Now()
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.ConsecutiveFailures++
		return
	}
	s.snapshot.Network = cloneNetwork(net)
	s.snapshot.HasNetwork = true
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
}

// ClearError drops the recorded error without touching data.
func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.LastError = nil
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Network = cloneNetwork(s.snapshot.Network)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func cloneNetwork(n connection.Network) connection.Network {
	return connection.Network{
		Connected: cloneEntries(n.Connected),
		Sent:      cloneEntries(n.Sent),
		Received:  cloneEntries(n.Received),
	}
}

func cloneEntries(entries []connection.Entry) []connection.Entry {
	if len(entries) == 0 {
		return nil
	}
	dup := make([]connection.Entry, len(entries))
	copy(dup, entries)
	return dup
}
