package connection

import "github.com/gigon/gigon/internal/gigon"

// Entry is one record in a user's network together with the peer on the
// other side.
type Entry struct {
	Connection gigon.Connection
	Peer       string
}

// Network is a user's records grouped the way the connections page shows them.
type Network struct {
	Connected []Entry
	Sent      []Entry
	Received  []Entry
}

// Tab selects one group of a Network.
type Tab int

const (
	TabConnected Tab = iota
	TabSent
	TabReceived
)

func (t Tab) String() string {
	switch t {
	case TabSent:
		return "Sent"
	case TabReceived:
		return "Received"
	default:
		return "Connected"
	}
}

// Next cycles Connected → Sent → Received → Connected.
func (t Tab) Next() Tab {
	return (t + 1) % 3
}

// ParseTab accepts connected, sent or received.
func ParseTab(s string) (Tab, bool) {
	switch s {
	case "connected", "":
		return TabConnected, true
	case "sent", "requested":
		return TabSent, true
	case "received":
		return TabReceived, true
	default:
		return TabConnected, false
	}
}

// Entries returns the group for tab.
func (n Network) Entries(tab Tab) []Entry {
	switch tab {
	case TabSent:
		return n.Sent
	case TabReceived:
		return n.Received
	default:
		return n.Connected
	}
}

// Partition splits records involving user into connected, sent and received.
// Records that do not involve user or carry an unknown status are dropped.
func Partition(user string, records []gigon.Connection) Network {
	var net Network
	for _, rec := range records {
		if !rec.Involves(user) {
			continue
		}
		entry := Entry{Connection: rec, Peer: rec.Peer(user)}
		switch {
		case rec.Status == gigon.StatusConnected:
			net.Connected = append(net.Connected, entry)
		case rec.Status == gigon.StatusRequested && rec.RequestedBy(user):
			net.Sent = append(net.Sent, entry)
		case rec.Status == gigon.StatusRequested:
			net.Received = append(net.Received, entry)
		}
	}
	return net
}
