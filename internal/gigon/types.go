package gigon

import "strings"

// Status is the collaborator's connection status code.
type Status int

const (
	// StatusRequested marks a pending request awaiting the acceptor.
	StatusRequested Status = 0
	// StatusConnected marks an accepted connection.
	StatusConnected Status = 1
)

func (s Status) String() string {
	switch s {
	case StatusRequested:
		return "requested"
	case StatusConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// Connection mirrors a record returned by /connections.
// Requester is user1_username, Acceptor is user2_username.
type Connection struct {
	ID        int64  `json:"id"`
	Requester string `json:"user1_username"`
	Acceptor  string `json:"user2_username"`
	Status    Status `json:"status"`
}

// Involves reports whether username is either side of the record.
func (c Connection) Involves(username string) bool {
	return sameUser(c.Requester, username) || sameUser(c.Acceptor, username)
}

// Peer returns the username on the other side of the record from username.
func (c Connection) Peer(username string) string {
	if sameUser(c.Requester, username) {
		return c.Acceptor
	}
	return c.Requester
}

// RequestedBy reports whether username initiated the record.
func (c Connection) RequestedBy(username string) bool {
	return sameUser(c.Requester, username)
}

// Matches reports whether the record links exactly a and b, in either order.
func (c Connection) Matches(a, b string) bool {
	return (sameUser(c.Requester, a) && sameUser(c.Acceptor, b)) ||
		(sameUser(c.Requester, b) && sameUser(c.Acceptor, a))
}

// ConnectionList mirrors the {results: [...]} envelope.
type ConnectionList struct {
	Results []Connection `json:"results"`
}

// CreateConnectionRequest is the POST /connections body.
type CreateConnectionRequest struct {
	Requester string `json:"user1_username"`
	Acceptor  string `json:"user2_username"`
}

// UpdateConnectionRequest is the PUT /connections/{id} body.
type UpdateConnectionRequest struct {
	Status Status `json:"status"`
}

func sameUser(a, b string) bool {
	return strings.TrimSpace(a) == strings.TrimSpace(b)
}
