package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gigon/gigon/internal/gigon"
)

// renderHeader renders the status bar.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	sep := bg.Spaces(2)
	snap := m.snapshot

	parts := []string{
		bg.Render("gigon", styles.Logo),
		bg.Render("@"+m.viewer, styles.Text),
	}

	switch m.screen {
	case ScreenNetwork:
		parts = append(parts, bg.Render("network", styles.AccentText))
	default:
		if snap.Other != "" {
			parts = append(parts, bg.Render("→", styles.FaintText)+bg.Space()+bg.Render("@"+snap.Other, styles.AccentText))
		}
	}

	switch {
	case snap.Loading || snap.Busy || snap.NetworkLoading:
		parts = append(parts, bg.Render(m.spinner.View(), styles.WarningText)+bg.Space()+bg.Render("working", styles.WarningText))
	case snap.IsOffline():
		parts = append(parts, bg.Render("● OFFLINE", styles.DangerText))
	case snap.LastError != nil:
		parts = append(parts, bg.Render(classifyConnectionError(snap.LastError), styles.DangerText))
	}

	if ts := formatTimestamp(snap.LastUpdated, time.Now()); ts != "" {
		parts = append(parts, bg.Render(ts, styles.MutedText))
	}

	if snap.LastError != nil && m.logPath != "" {
		parts = append(parts,
			bg.Render("logs", styles.FaintText)+bg.Space()+
				bg.Render(truncateMiddle(m.logPath, 50), styles.MutedText))
	}

	return styles.Header.Width(m.width).Render(strings.Join(parts, sep))
}

// formatTimestamp formats the last update time with a relative indicator.
func formatTimestamp(last, now time.Time) string {
	if last.IsZero() {
		return ""
	}

	since := now.Sub(last)
	s := last.Format("15:04:05")
	switch {
	case since < time.Minute:
		s += " (now)"
	case since < time.Hour:
		s += fmt.Sprintf(" (%dm ago)", int(since.Minutes()))
	case since < 24*time.Hour:
		s += fmt.Sprintf(" (%dh ago)", int(since.Hours()))
	}
	return s
}

// classifyConnectionError returns a short badge for the header.
func classifyConnectionError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, gigon.ErrConflict):
		return "CONFLICT"
	case errors.Is(err, gigon.ErrNotFound):
		return "NOT FOUND"
	case errors.Is(err, gigon.ErrNetwork):
		if strings.Contains(err.Error(), "timeout") || strings.Contains(err.Error(), "deadline") {
			return "TIMEOUT"
		}
		return "OFFLINE"
	default:
		return "ERROR"
	}
}

// renderCommandBar renders the command hints bar.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.screen {
	case ScreenNetwork:
		commands = []cmd{
			{"tab", m.tab.String()},
			{"j/k", "Navigate"},
			{"a", "Accept"},
			{"enter", "Open"},
			{"r", "Refresh"},
			{"p", "Profile"},
		}
	default:
		commands = []cmd{
			{"enter", "Primary"},
			{"x", "Remove"},
			{"r", "Refresh"},
			{"/", "Open"},
			{"n", "Network"},
		}
	}
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		commands = append(commands, cmd{h.Key, h.Desc})
	}

	colon := bg.Sep(":")
	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}
	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Footer.Width(m.width).Render(strings.Join(segments, bg.Spaces(2)))
}

// truncateMiddle truncates a string in the middle, preserving start and end.
func truncateMiddle(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	if max <= 5 {
		return s[:max]
	}
	// Keep more of the end (file name) than the start
	endLen := (max - 3) * 2 / 3
	startLen := max - 3 - endLen
	return s[:startLen] + "..." + s[len(s)-endLen:]
}
