package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gigon/gigon/internal/connection"
	"github.com/gigon/gigon/internal/gigon"
)

// refreshNetwork lists the viewer's network, accepting conn first when set.
func (m *Model) refreshNetwork(accept *gigon.Connection) tea.Cmd {
	if !m.store.BeginNetwork() {
		return nil
	}
	m.notice = ""
	m.snapshot = m.store.Snapshot()
	return networkCmd(m.ctx, m.manager, m.viewer, accept)
}

// handleNetworkKey processes keyboard input for the network screen.
func (m Model) handleNetworkKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	entries := m.snapshot.Network.Entries(m.tab)

	switch {
	case key.Matches(msg, m.keys.NextTab):
		m.tab = m.tab.Next()
		m.selected = 0
		m.list.GotoTop()
	case key.Matches(msg, m.keys.Refresh):
		return m, m.refreshNetwork(nil)
	case key.Matches(msg, m.keys.Down):
		if m.selected < len(entries)-1 {
			m.selected++
		}
	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
	case key.Matches(msg, m.keys.Top):
		m.selected = 0
	case key.Matches(msg, m.keys.Bottom):
		m.selected = max(len(entries)-1, 0)
	case key.Matches(msg, m.keys.Accept):
		if m.tab != connection.TabReceived || len(entries) == 0 {
			return m, nil
		}
		conn := entries[m.selected].Connection
		return m, m.refreshNetwork(&conn)
	case key.Matches(msg, m.keys.OpenPeer):
		if len(entries) == 0 {
			return m, nil
		}
		return m, m.openProfile(entries[m.selected].Peer)
	default:
		return m, nil
	}

	m.updateNetworkList()
	return m, nil
}

func (m *Model) clampSelection() {
	n := len(m.snapshot.Network.Entries(m.tab))
	if m.selected >= n {
		m.selected = n - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

// updateNetworkList renders the current tab into the list viewport and keeps
// the selection visible.
func (m *Model) updateNetworkList() {
	if !m.ready {
		return
	}
	styles := m.theme.Styles()
	entries := m.snapshot.Network.Entries(m.tab)

	var b strings.Builder
	if len(entries) == 0 {
		b.WriteString(styles.MutedText.Render(emptyTabText(m.tab)))
	}
	for i, e := range entries {
		line := fmt.Sprintf("@%-24s #%d", e.Peer, e.Connection.ID)
		if i == m.selected {
			line = styles.Selected.Width(m.list.Width).Render("▸ " + line)
		} else {
			line = styles.Text.Render("  " + line)
		}
		b.WriteString(line)
		if i < len(entries)-1 {
			b.WriteString("\n")
		}
	}
	m.list.SetContent(b.String())

	switch {
	case m.selected < m.list.YOffset:
		m.list.SetYOffset(m.selected)
	case m.selected >= m.list.YOffset+m.list.Height:
		m.list.SetYOffset(m.selected - m.list.Height + 1)
	}
}

// renderNetwork renders the tab strip and the list.
func (m Model) renderNetwork() string {
	styles := m.theme.Styles()
	net := m.snapshot.Network

	tabs := make([]string, 0, 3)
	for _, tab := range []connection.Tab{connection.TabConnected, connection.TabSent, connection.TabReceived} {
		label := fmt.Sprintf("%s (%d)", tab, len(net.Entries(tab)))
		style := styles.TabInactive
		if tab == m.tab {
			style = styles.TabActive
		}
		tabs = append(tabs, style.Render(label))
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	b.WriteString("\n\n")

	switch {
	case !m.snapshot.HasNetwork && m.snapshot.NetworkLoading:
		b.WriteString(m.spinner.View() + " " + styles.MutedText.Render("Loading network..."))
	case !m.snapshot.HasNetwork && m.snapshot.LastError != nil:
		b.WriteString(styles.Banner.Render(describeError(m.snapshot.LastError)))
	default:
		b.WriteString(m.list.View())
		if m.snapshot.LastError != nil {
			b.WriteString("\n")
			b.WriteString(styles.Banner.Render(describeError(m.snapshot.LastError)))
		}
	}
	if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(styles.SuccessText.Render(m.notice))
	}
	return b.String()
}

func emptyTabText(tab connection.Tab) string {
	switch tab {
	case connection.TabSent:
		return "No pending requests sent."
	case connection.TabReceived:
		return "No requests waiting for you."
	default:
		return "No connections yet."
	}
}
