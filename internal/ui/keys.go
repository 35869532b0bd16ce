package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit        key.Binding
	Help        key.Binding
	CycleTheme  key.Binding
	Escape      key.Binding
	OpenProfile key.Binding

	// View switching
	ViewProfile key.Binding
	ViewNetwork key.Binding

	// Profile actions
	Primary key.Binding
	Remove  key.Binding
	Refresh key.Binding

	// Network actions
	NextTab  key.Binding
	Up       key.Binding
	Down     key.Binding
	Top      key.Binding
	Bottom   key.Binding
	Accept   key.Binding
	OpenPeer key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "e"),
			key.WithHelp("e", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h/?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Return to profile / dismiss error"),
		),
		OpenProfile: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "Open a profile"),
		),

		ViewProfile: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "Profile view"),
		),
		ViewNetwork: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "Network view"),
		),

		Primary: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Request/accept"),
		),
		Remove: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Remove request/connection"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Refresh"),
		),

		NextTab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Cycle tabs"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),
		Accept: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Accept received request"),
		),
		OpenPeer: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Open peer profile"),
		),
	}
}

// ShortHelp returns key bindings for the command bar.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings for the help overlay.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		// Navigation
		{k.ViewProfile, k.ViewNetwork, k.OpenProfile, k.Escape},
		// Profile
		{k.Primary, k.Remove, k.Refresh},
		// Network
		{k.NextTab, k.Up, k.Down, k.Top, k.Bottom, k.Accept, k.OpenPeer},
		// General
		{k.CycleTheme, k.Help, k.Quit},
	}
}
