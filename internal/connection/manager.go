package connection

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/gigon/gigon/internal/gigon"
	"github.com/gigon/gigon/internal/logging"
)

var (
	// ErrInvalidPair is returned when viewer or other is empty, or both are the same user.
	ErrInvalidPair = errors.New("viewer and other must be two distinct users")
	// ErrActionUnavailable is returned when an action does not apply to the current state.
	ErrActionUnavailable = errors.New("action not available in this state")
	// ErrMalformedRecord is returned when the collaborator answers with a record
	// that does not belong to the pair or carries an unknown status.
	ErrMalformedRecord = errors.New("malformed connection record")
)

// sharedResolveTimeout bounds a coalesced fetch once it is detached from the
// caller that started it.
const sharedResolveTimeout = 30 * time.Second

// Manager resolves and mutates the relationship between two users against
// the collaborator API. It holds no per-pair state; every call takes the
// viewer explicitly.
type Manager struct {
	api   gigon.ConnectionAPI
	log   *logging.Logger
	group singleflight.Group
}

// NewManager builds a Manager. logger may be nil.
func NewManager(api gigon.ConnectionAPI, logger *logging.Logger) *Manager {
	return &Manager{api: api, log: logger}
}

// Resolve queries the collaborator for the record between viewer and other.
// Overlapping calls for the same ordered pair share one request.
func (m *Manager) Resolve(ctx context.Context, viewer, other string) (View, error) {
	viewer, other, err := normalizePair(viewer, other)
	if err != nil {
		return View{}, err
	}

	key := viewer + "\x00" + other
	ch := m.group.DoChan(key, func() (any, error) {
		// The fetch is shared, so it must outlive any one caller's context.
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedResolveTimeout)
		defer cancel()
		return m.resolve(fetchCtx, viewer, other)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return View{}, fmt.Errorf("resolve %s/%s: %w", viewer, other, ctx.Err())
	case res = <-ch:
	}
	view, _ := res.Val.(View)
	err, shared := res.Err, res.Shared
	if err != nil {
		m.log.Warn("resolve failed", "viewer", viewer, "other", other, "kind", gigon.Kind(err), "error", err)
		return View{}, err
	}
	m.log.Debug("resolved", "viewer", viewer, "other", other, "state", view.State.String(), "id", view.ID, "shared", shared)
	return view, nil
}

func (m *Manager) resolve(ctx context.Context, viewer, other string) (View, error) {
	records, err := m.api.FetchConnection(ctx, viewer, other)
	if err != nil {
		return View{}, fmt.Errorf("resolve %s/%s: %w", viewer, other, err)
	}
	if len(records) == 0 {
		return View{State: StateNone}, nil
	}
	if len(records) > 1 {
		m.log.Warn("multiple records for pair", "viewer", viewer, "other", other, "count", len(records))
	}
	view, err := derive(viewer, other, records[0])
	if err != nil {
		return View{}, fmt.Errorf("resolve %s/%s: record %d: %w", viewer, other, records[0].ID, err)
	}
	return view, nil
}

// PrimaryAction performs the main affordance for view and returns the view the
// mutation leads to. Informational states return view unchanged without a
// network call. A ConflictError from a create means the other party won a
// race; callers should Resolve again.
func (m *Manager) PrimaryAction(ctx context.Context, viewer, other string, view View) (View, error) {
	viewer, other, err := normalizePair(viewer, other)
	if err != nil {
		return view, err
	}

	switch view.State {
	case StateNone:
		created, err := m.api.CreateConnection(ctx, viewer, other)
		if err != nil {
			m.logAction("create", viewer, other, view.State, view.State, err)
			return view, fmt.Errorf("request connection: %w", err)
		}
		next := View{State: StateRequestedByViewer, Requester: viewer, Acceptor: other}
		if created != nil {
			next.ID = created.ID
		}
		m.logAction("create", viewer, other, view.State, next.State, nil)
		return next, nil

	case StateRequestedByOther:
		if view.ID <= 0 {
			return view, fmt.Errorf("accept connection: %w: missing record id", ErrActionUnavailable)
		}
		if err := m.api.AcceptConnection(ctx, view.ID); err != nil {
			m.logAction("accept", viewer, other, view.State, view.State, err)
			return view, fmt.Errorf("accept connection: %w", err)
		}
		next := view
		next.State = StateConnected
		m.logAction("accept", viewer, other, view.State, next.State, nil)
		return next, nil

	default:
		return view, nil
	}
}

// RemoveAction deletes the record behind view. It is only offered for
// StateRequestedByViewer and StateConnected. A record that is already gone
// counts as removed.
func (m *Manager) RemoveAction(ctx context.Context, viewer, other string, view View) (View, error) {
	viewer, other, err := normalizePair(viewer, other)
	if err != nil {
		return view, err
	}
	if _, ok := SecondaryLabel(view.State); !ok {
		return view, fmt.Errorf("remove connection: %w", ErrActionUnavailable)
	}

	id := view.ID
	if id <= 0 {
		// Create answered without a body; look the record up.
		current, err := m.Resolve(ctx, viewer, other)
		if err != nil {
			return view, fmt.Errorf("remove connection: %w", err)
		}
		if current.State == StateNone {
			m.logAction("remove", viewer, other, view.State, StateNone, nil)
			return View{State: StateNone}, nil
		}
		id = current.ID
	}

	if err := m.api.DeleteConnection(ctx, id); err != nil && !errors.Is(err, gigon.ErrNotFound) {
		m.logAction("remove", viewer, other, view.State, view.State, err)
		return view, fmt.Errorf("remove connection: %w", err)
	}
	m.logAction("remove", viewer, other, view.State, StateNone, nil)
	return View{State: StateNone}, nil
}

// Network lists user's records split by relationship.
func (m *Manager) Network(ctx context.Context, user string) (Network, error) {
	user = strings.TrimSpace(user)
	if !validUsername(user) {
		return Network{}, ErrInvalidPair
	}
	records, err := m.api.ListConnections(ctx, user)
	if err != nil {
		m.log.Warn("network fetch failed", "user", user, "kind", gigon.Kind(err), "error", err)
		return Network{}, fmt.Errorf("list connections: %w", err)
	}
	net := Partition(user, records)
	m.log.Debug("network fetched", "user", user,
		"connected", len(net.Connected), "sent", len(net.Sent), "received", len(net.Received))
	return net, nil
}

// Accept approves a received request from the network list.
func (m *Manager) Accept(ctx context.Context, user string, conn gigon.Connection) error {
	user = strings.TrimSpace(user)
	if conn.Status != gigon.StatusRequested || conn.RequestedBy(user) || !conn.Involves(user) {
		return fmt.Errorf("accept connection: %w", ErrActionUnavailable)
	}
	err := m.api.AcceptConnection(ctx, conn.ID)
	m.logAction("accept", user, conn.Requester, StateRequestedByOther, StateConnected, err)
	if err != nil {
		return fmt.Errorf("accept connection: %w", err)
	}
	return nil
}

func (m *Manager) logAction(op, viewer, other string, from, to State, err error) {
	if err != nil {
		m.log.Warn("connection action failed", "op", op, "viewer", viewer, "other", other,
			"from", from.String(), "kind", gigon.Kind(err), "error", err)
		return
	}
	m.log.Info("connection action", "op", op, "viewer", viewer, "other", other,
		"from", from.String(), "to", to.String())
}

func normalizePair(viewer, other string) (string, string, error) {
	viewer, other = strings.TrimSpace(viewer), strings.TrimSpace(other)
	if !validUsername(viewer) || !validUsername(other) || viewer == other {
		return "", "", ErrInvalidPair
	}
	return viewer, other, nil
}

// validUsername rejects empty names and dot segments, which URL path
// cleaning would collapse onto a different endpoint.
func validUsername(name string) bool {
	return name != "" && name != "." && name != ".."
}
