package state

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/gigon/gigon/internal/connection"
	"github.com/gigon/gigon/internal/gigon"
)

func TestStore_ResolveLifecycle(t *testing.T) {
	var s Store

	gen := s.Open("ann", "bob")
	snap := s.Snapshot()
	if snap.Viewer != "ann" || snap.Other != "bob" || snap.HasView {
		t.Fatalf("snapshot after Open = %#v", snap)
	}
	if snap.ControlsEnabled() {
		t.Fatal("controls enabled before first resolve")
	}

	if !s.BeginResolve() {
		t.Fatal("BeginResolve returned false on idle store")
	}
	if s.BeginResolve() {
		t.Fatal("BeginResolve should refuse overlapping resolve")
	}
	if s.BeginAction() {
		t.Fatal("BeginAction should refuse while resolving")
	}
	if !s.Snapshot().Loading {
		t.Fatal("Loading = false during resolve")
	}

	before := time.Now()
	view := connection.View{State: connection.StateRequestedByOther, ID: 4}
	if !s.Settle(gen, view, nil) {
		t.Fatal("Settle returned false for current generation")
	}
	snap = s.Snapshot()
	if !snap.HasView || snap.View != view || snap.Loading {
		t.Fatalf("snapshot after Settle = %#v", snap)
	}
	if snap.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", snap.LastUpdated, before)
	}
	if !snap.ControlsEnabled() {
		t.Fatal("controls disabled after resolve")
	}
}

func TestStore_ActionGuardDisablesControls(t *testing.T) {
	var s Store
	gen := s.Open("ann", "bob")
	s.BeginResolve()
	s.Settle(gen, connection.View{State: connection.StateNone}, nil)

	if !s.BeginAction() {
		t.Fatal("BeginAction returned false on idle store")
	}
	if s.BeginAction() {
		t.Fatal("BeginAction should refuse a duplicate submission")
	}
	if s.Snapshot().ControlsEnabled() {
		t.Fatal("controls enabled while action in flight")
	}
	s.Settle(gen, connection.View{State: connection.StateRequestedByViewer, ID: 1}, nil)
	if !s.BeginAction() {
		t.Fatal("BeginAction should succeed once the previous action settled")
	}
}

func TestStore_ErrorKeepsLastKnownGoodView(t *testing.T) {
	var s Store
	gen := s.Open("ann", "bob")
	good := connection.View{State: connection.StateConnected, ID: 2}
	s.Settle(gen, good, nil)

	origErr := &gigon.NetworkError{Op: "GET", Err: errors.New("boom")}
	s.BeginAction()
	s.Settle(gen, connection.View{}, origErr)

	snap := s.Snapshot()
	if snap.View != good || !snap.HasView {
		t.Fatalf("view changed on error: got %#v want %#v", snap.View, good)
	}
	if snap.Busy {
		t.Fatal("Busy still set after error")
	}
	if !errors.Is(snap.LastError, gigon.ErrNetwork) {
		t.Fatalf("LastError = %v, want network error", snap.LastError)
	}
	if reflect.ValueOf(snap.LastError).Pointer() == reflect.ValueOf(origErr).Pointer() {
		t.Fatalf("Snapshot should clone error instance")
	}

	s.ClearError()
	if s.Snapshot().LastError != nil {
		t.Fatal("ClearError did not clear")
	}
}

func TestStore_StaleGenerationIgnored(t *testing.T) {
	var s Store
	old := s.Open("ann", "bob")
	s.BeginResolve()
	cur := s.Open("ann", "cat")

	if s.Settle(old, connection.View{State: connection.StateConnected}, nil) {
		t.Fatal("Settle accepted a stale generation")
	}
	snap := s.Snapshot()
	if snap.HasView || snap.Other != "cat" {
		t.Fatalf("stale result leaked into snapshot: %#v", snap)
	}
	if cur != s.Generation() {
		t.Fatalf("Generation = %d, want %d", s.Generation(), cur)
	}
}

func TestStore_NetworkCloneAndErrors(t *testing.T) {
	var s Store
	net := connection.Network{
		Connected: []connection.Entry{{Peer: "bob"}},
		Received:  []connection.Entry{{Peer: "eve"}},
	}

	if !s.BeginNetwork() {
		t.Fatal("BeginNetwork returned false on idle store")
	}
	if s.BeginNetwork() {
		t.Fatal("BeginNetwork should refuse overlapping listing")
	}
	s.SettleNetwork(net, nil)

	snap := s.Snapshot()
	if !snap.HasNetwork || len(snap.Network.Connected) != 1 || snap.NetworkLoading {
		t.Fatalf("network snapshot = %#v", snap.Network)
	}
	snap.Network.Connected[0].Peer = "mutated"
	if s.Snapshot().Network.Connected[0].Peer != "bob" {
		t.Fatal("Snapshot should clone network entries")
	}

	s.BeginNetwork()
	s.SettleNetwork(connection.Network{}, errors.New("down"))
	snap = s.Snapshot()
	if len(snap.Network.Received) != 1 || snap.LastError == nil {
		t.Fatalf("network changed on error: %#v", snap)
	}
}

func TestStore_ConsecutiveFailures(t *testing.T) {
	var s Store
	gen := s.Open("ann", "bob")

	if s.Snapshot().IsOffline() {
		t.Fatal("IsOffline() = true, want false with 0 failures")
	}
	s.Settle(gen, connection.View{}, errors.New("fail 1"))
	if s.Snapshot().IsOffline() {
		t.Fatal("IsOffline() = true, want false with 1 failure")
	}
	s.SettleNetwork(connection.Network{}, errors.New("fail 2"))
	snap := s.Snapshot()
	if snap.ConsecutiveFailures != 2 || !snap.IsOffline() {
		t.Fatalf("ConsecutiveFailures = %d, want 2 and offline", snap.ConsecutiveFailures)
	}
	s.Settle(gen, connection.View{State: connection.StateNone}, nil)
	snap = s.Snapshot()
	if snap.ConsecutiveFailures != 0 || snap.IsOffline() {
		t.Fatalf("ConsecutiveFailures = %d, want 0 after success", snap.ConsecutiveFailures)
	}
}
