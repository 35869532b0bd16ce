// Package ui implements the gigon terminal interface with Bubble Tea.
//
// Two screens share a header and command bar:
//
//   - Profile: the connection with one other user, its primary button
//     (Give Request, Requested, Accept Request or Connected) and, when
//     offered, the remove button.
//   - Network: the viewer's connections split into Connected, Sent and
//     Received tabs, with accept and open-peer shortcuts.
//
// Network calls run as tea.Cmds and report back as messages. The model
// applies them to a state.Store, which disables controls while a call is
// pending and drops results for a profile that is no longer open. A create
// that loses a race to the other user re-resolves once and says so.
//
// Key bindings live in keys.go and are listed in the help overlay (h or ?).
// Themes cycle with T and the choice is saved to the preferences file along
// with recently opened profiles.
package ui
