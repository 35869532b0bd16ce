package connection

import "github.com/gigon/gigon/internal/gigon"

// State is the relationship between a viewer and another user, seen from the
// viewer's side.
type State int

const (
	StateNone State = iota
	StateRequestedByViewer
	StateRequestedByOther
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateNone:
		return "NONE"
	case StateRequestedByViewer:
		return "REQUESTED_BY_VIEWER"
	case StateRequestedByOther:
		return "REQUESTED_BY_OTHER"
	case StateConnected:
		return "CONNECTED"
	default:
		return "UNKNOWN"
	}
}

// View is the resolved relationship plus the record backing it.
// ID is zero when no record exists or the collaborator did not return one.
type View struct {
	State     State
	ID        int64
	Requester string
	Acceptor  string
}

// PrimaryLabel is the caption of the main affordance.
func PrimaryLabel(s State) string {
	switch s {
	case StateRequestedByViewer:
		return "Requested"
	case StateRequestedByOther:
		return "Accept Request"
	case StateConnected:
		return "Connected"
	default:
		return "Give Request"
	}
}

// PrimaryEnabled reports whether the primary affordance does anything.
// "Requested" and "Connected" are informational.
func PrimaryEnabled(s State) bool {
	return s == StateNone || s == StateRequestedByOther
}

// SecondaryLabel returns the remove caption and whether removal is offered.
func SecondaryLabel(s State) (string, bool) {
	switch s {
	case StateRequestedByViewer:
		return "Remove Request", true
	case StateConnected:
		return "Remove Connection", true
	default:
		return "", false
	}
}

// derive maps a collaborator record onto the viewer's state.
func derive(viewer, other string, rec gigon.Connection) (View, error) {
	if !rec.Matches(viewer, other) {
		return View{}, ErrMalformedRecord
	}
	view := View{ID: rec.ID, Requester: rec.Requester, Acceptor: rec.Acceptor}
	switch rec.Status {
	case gigon.StatusConnected:
		view.State = StateConnected
	case gigon.StatusRequested:
		if rec.RequestedBy(viewer) {
			view.State = StateRequestedByViewer
		} else {
			view.State = StateRequestedByOther
		}
	default:
		return View{}, ErrMalformedRecord
	}
	return view, nil
}
