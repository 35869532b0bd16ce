package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gigon/gigon/internal/connection"
	"github.com/gigon/gigon/internal/gigon"
)

// handleProfileKey processes keyboard input for the profile screen.
func (m Model) handleProfileKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Refresh):
		return m, m.resolve()

	case key.Matches(msg, m.keys.Primary):
		view := m.snapshot.View
		if !m.snapshot.ControlsEnabled() || !connection.PrimaryEnabled(view.State) {
			return m, nil
		}
		if !m.store.BeginAction() {
			return m, nil
		}
		m.notice = ""
		m.snapshot = m.store.Snapshot()
		return m, primaryCmd(m.ctx, m.manager, m.store.Generation(), m.viewer, m.snapshot.Other, view)

	case key.Matches(msg, m.keys.Remove):
		view := m.snapshot.View
		if _, ok := connection.SecondaryLabel(view.State); !ok || !m.snapshot.ControlsEnabled() {
			return m, nil
		}
		if !m.store.BeginAction() {
			return m, nil
		}
		m.notice = ""
		m.snapshot = m.store.Snapshot()
		return m, removeCmd(m.ctx, m.manager, m.store.Generation(), m.viewer, m.snapshot.Other, view)
	}
	return m, nil
}

// renderProfile renders the connection affordances for the open profile.
func (m Model) renderProfile() string {
	styles := m.theme.Styles()
	snap := m.snapshot

	if snap.Other == "" {
		return "\n  " + styles.MutedText.Render("No profile open. Press / to open one.")
	}

	var b strings.Builder
	b.WriteString("\n  ")
	b.WriteString(styles.Text.Bold(true).Render("@" + snap.Other))
	if snap.HasView {
		b.WriteString("  ")
		b.WriteString(styles.StateStyle(snap.View.State).Render(stateCaption(snap.View.State)))
	}
	b.WriteString("\n\n")

	switch {
	case !snap.HasView && snap.Loading:
		b.WriteString("  " + m.spinner.View() + " " + styles.MutedText.Render("Checking connection..."))
	case !snap.HasView:
		b.WriteString("  " + styles.MutedText.Render("Connection status unavailable."))
	default:
		b.WriteString(indent(m.renderButtons(), 2))
	}
	b.WriteString("\n")

	if snap.HasView && snap.View.ID != 0 {
		b.WriteString("\n  ")
		b.WriteString(styles.FaintText.Render(fmt.Sprintf("record #%d", snap.View.ID)))
	}
	if snap.LastError != nil {
		b.WriteString("\n\n")
		b.WriteString(indent(styles.Banner.Render(describeError(snap.LastError)), 2))
	}
	if m.notice != "" {
		b.WriteString("\n\n  ")
		b.WriteString(styles.SuccessText.Render(m.notice))
	}
	return b.String()
}

// renderButtons draws the primary button and, when available, the remove button.
func (m Model) renderButtons() string {
	styles := m.theme.Styles()
	snap := m.snapshot
	st := snap.View.State

	label := connection.PrimaryLabel(st)
	primaryStyle := styles.ButtonDisabled
	if connection.PrimaryEnabled(st) && snap.ControlsEnabled() {
		primaryStyle = styles.Button
	}
	if snap.Busy || snap.Loading {
		label = m.spinner.View() + " " + label
	}
	buttons := []string{primaryStyle.Render(label)}

	if secondary, ok := connection.SecondaryLabel(st); ok {
		style := styles.ButtonDanger
		if !snap.ControlsEnabled() {
			style = styles.ButtonDisabled
		}
		buttons = append(buttons, "  ", style.Render(secondary))
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, buttons...)
}

func stateCaption(st connection.State) string {
	switch st {
	case connection.StateRequestedByViewer:
		return "request sent"
	case connection.StateRequestedByOther:
		return "wants to connect"
	case connection.StateConnected:
		return "connected"
	default:
		return "not connected"
	}
}

func actionNotice(op string, view connection.View) string {
	switch {
	case op == "remove":
		return "Removed"
	case view.State == connection.StateRequestedByViewer:
		return "Request sent"
	case view.State == connection.StateConnected:
		return "Request accepted"
	default:
		return ""
	}
}

// describeError turns an error into a one-line banner with a retry hint.
func describeError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, gigon.ErrNetwork):
		return "Cannot reach Gig-On. Press r to retry."
	case errors.Is(err, gigon.ErrConflict):
		return "This connection changed elsewhere. Press r to refresh."
	case errors.Is(err, gigon.ErrNotFound):
		return "That request no longer exists. Press r to refresh."
	case errors.Is(err, connection.ErrMalformedRecord):
		return "Gig-On returned an unexpected record. Press r to retry."
	case errors.Is(err, connection.ErrInvalidPair):
		return "You cannot connect with yourself."
	case errors.Is(err, connection.ErrActionUnavailable):
		return "That action is not available right now."
	default:
		return truncate(err.Error(), 120)
	}
}

func indent(s string, n int) string {
	pad := strings.Repeat(" ", n)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = pad + line
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 1 {
		return string(r[:max])
	}
	return string(r[:max-1]) + "…"
}

// renderPrompt renders the open-profile input with recent profiles.
func (m Model) renderPrompt() string {
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render("Open profile"))
	b.WriteString("\n")
	b.WriteString(m.prompt.View())
	if len(m.prefs.Recent) > 0 {
		b.WriteString("\n")
		b.WriteString(styles.FaintText.Render("recent: " + strings.Join(m.prefs.Recent, ", ")))
	}
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("enter open · tab complete · esc cancel"))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(0, 1).
		Render(b.String())
}
