package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/gigon/gigon/internal/connection"
	"github.com/gigon/gigon/internal/gigon"
	"github.com/gigon/gigon/internal/logging"
	"github.com/gigon/gigon/internal/prefs"
	"github.com/gigon/gigon/internal/state"
)

// Screen represents the current active screen.
type Screen int

const (
	ScreenProfile Screen = iota
	ScreenNetwork
)

// Options configures the UI.
type Options struct {
	Context   context.Context
	Manager   *connection.Manager
	Store     *state.Store
	Logger    *logging.Logger
	Viewer    string
	Profile   string // opened on start; empty shows the profile prompt
	Prefs     prefs.Prefs
	PrefsPath string
	LogPath   string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	manager   *connection.Manager
	store     *state.Store
	logger    *logging.Logger
	viewer    string
	prefs     prefs.Prefs
	prefsPath string
	logPath   string
	keys      keyMap

	// UI state
	theme  Theme
	screen Screen
	width  int
	height int
	ready  bool

	// Data state
	snapshot state.Snapshot

	// Profile state
	spinner         spinner.Model
	conflictRetried bool
	profileStale    bool // re-resolve when the profile screen is shown again
	notice          string

	// Network state
	tab      connection.Tab
	selected int
	list     viewport.Model

	// Profile prompt
	showPrompt bool
	prompt     textinput.Model

	showHelp bool

	initCmd tea.Cmd
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	store := opts.Store
	if store == nil {
		store = &state.Store{}
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	input := textinput.New()
	input.Placeholder = "username"
	input.Prompt = "@ "
	input.CharLimit = 64
	input.ShowSuggestions = true

	m := Model{
		ctx:       ctx,
		manager:   opts.Manager,
		store:     store,
		logger:    opts.Logger,
		viewer:    strings.TrimSpace(opts.Viewer),
		prefs:     opts.Prefs,
		prefsPath: prefsPath,
		logPath:   opts.LogPath,
		keys:      DefaultKeyMap(),
		theme:     GetTheme(opts.Prefs.Theme),
		screen:    ScreenProfile,
		spinner:   sp,
		prompt:    input,
	}
	m.prefs.Theme = m.theme.Name

	if profile := strings.TrimSpace(opts.Profile); profile != "" {
		m.initCmd = m.openProfile(profile)
	} else {
		m.initCmd = m.showProfilePrompt()
	}
	m.snapshot = m.store.Snapshot()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.initCmd)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.list = viewport.New(msg.Width, m.listHeight())
		}
		m.ready = true
		m.list.Width = msg.Width
		m.list.Height = m.listHeight()
		m.updateNetworkList()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case resolvedMsg:
		if m.store.Settle(msg.gen, msg.view, msg.err) && msg.err == nil && m.conflictRetried {
			m.notice = "Connection changed elsewhere, view refreshed"
		}
		m.snapshot = m.store.Snapshot()
		return m, nil

	case actionMsg:
		return m.handleActionResult(msg)

	case networkMsg:
		m.store.SettleNetwork(msg.network, msg.err)
		m.snapshot = m.store.Snapshot()
		if msg.err == nil && msg.notice != "" {
			m.notice = msg.notice
		}
		m.clampSelection()
		m.updateNetworkList()

		// An accept from the list changes the open profile's record too.
		var cmd tea.Cmd
		if msg.acceptedPeer != "" && msg.acceptedPeer == m.snapshot.Other {
			if cmd = m.resolve(); cmd == nil {
				m.profileStale = true
			}
		}
		return m, cmd
	}

	// Cursor blink and other input internals.
	if m.showPrompt {
		var cmd tea.Cmd
		m.prompt, cmd = m.prompt.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")

	switch m.screen {
	case ScreenNetwork:
		b.WriteString(m.renderNetwork())
	default:
		b.WriteString(m.renderProfile())
	}

	if m.showPrompt {
		b.WriteString("\n\n")
		b.WriteString(m.renderPrompt())
	}
	return b.String()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	if m.showPrompt {
		return m.handlePromptKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		m.savePrefs()
		m.updateNetworkList()
		return m, nil

	case key.Matches(msg, m.keys.OpenProfile):
		return m, m.showProfilePrompt()

	case key.Matches(msg, m.keys.ViewNetwork):
		m.screen = ScreenNetwork
		return m, m.refreshNetwork(nil)

	case key.Matches(msg, m.keys.ViewProfile), key.Matches(msg, m.keys.Escape):
		if m.screen == ScreenProfile && key.Matches(msg, m.keys.Escape) && m.snapshot.LastError != nil {
			m.store.ClearError()
			m.snapshot = m.store.Snapshot()
			return m, nil
		}
		m.screen = ScreenProfile
		if m.profileStale {
			return m, m.resolve()
		}
		return m, nil
	}

	switch m.screen {
	case ScreenNetwork:
		return m.handleNetworkKey(msg)
	default:
		return m.handleProfileKey(msg)
	}
}

// openProfile switches to other's profile and resolves it once.
func (m *Model) openProfile(other string) tea.Cmd {
	other = strings.TrimSpace(other)
	m.screen = ScreenProfile
	m.notice = ""
	m.conflictRetried = false
	m.profileStale = false

	gen := m.store.Open(m.viewer, other)
	if other == "" {
		m.snapshot = m.store.Snapshot()
		return nil
	}

	m.prefs.Remember(other)
	m.savePrefs()

	m.store.BeginResolve()
	m.snapshot = m.store.Snapshot()
	return resolveCmd(m.ctx, m.manager, gen, m.viewer, other)
}

// resolve re-runs the resolve for the open profile unless a call is pending.
func (m *Model) resolve() tea.Cmd {
	if m.snapshot.Other == "" || !m.store.BeginResolve() {
		return nil
	}
	m.profileStale = false
	m.snapshot = m.store.Snapshot()
	return resolveCmd(m.ctx, m.manager, m.store.Generation(), m.viewer, m.snapshot.Other)
}

func (m Model) handleActionResult(msg actionMsg) (tea.Model, tea.Cmd) {
	if !m.store.Settle(msg.gen, msg.view, msg.err) {
		return m, nil
	}
	m.snapshot = m.store.Snapshot()

	if msg.err == nil {
		m.conflictRetried = false
		m.notice = actionNotice(msg.op, msg.view)
		return m, nil
	}

	if errors.Is(msg.err, gigon.ErrConflict) && !m.conflictRetried {
		m.conflictRetried = true
		m.logger.Info("conflict, re-resolving", "other", m.snapshot.Other)
		return m, m.resolve()
	}
	m.notice = ""
	return m, nil
}

func (m *Model) showProfilePrompt() tea.Cmd {
	m.showPrompt = true
	m.prompt.SetValue("")
	m.prompt.SetSuggestions(m.prefs.Recent)
	return m.prompt.Focus()
}

func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.showPrompt = false
		m.prompt.Blur()
		return m, nil
	case tea.KeyEnter:
		name := strings.TrimSpace(m.prompt.Value())
		if name == "" {
			return m, nil
		}
		if name == m.viewer {
			m.notice = "That is your own profile"
			return m, nil
		}
		m.showPrompt = false
		m.prompt.Blur()
		return m, m.openProfile(name)
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		m.logger.Warn("save prefs failed", "path", m.prefsPath, "error", err)
	}
}

// listHeight is the space left for the network list below the header,
// command bar and tab strip.
func (m Model) listHeight() int {
	h := m.height - 6
	if h < 3 {
		return 3
	}
	return h
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}

// Messages

type resolvedMsg struct {
	gen  uint64
	view connection.View
	err  error
}

type actionMsg struct {
	gen  uint64
	op   string
	view connection.View
	err  error
}

type networkMsg struct {
	network      connection.Network
	notice       string
	acceptedPeer string // set whenever an accept was attempted
	err          error
}

// Commands

const callTimeout = 30 * time.Second

func resolveCmd(ctx context.Context, mgr *connection.Manager, gen uint64, viewer, other string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, callTimeout)
		defer cancel()
		view, err := mgr.Resolve(ctx, viewer, other)
		return resolvedMsg{gen: gen, view: view, err: err}
	}
}

func primaryCmd(ctx context.Context, mgr *connection.Manager, gen uint64, viewer, other string, view connection.View) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, callTimeout)
		defer cancel()
		next, err := mgr.PrimaryAction(ctx, viewer, other, view)
		return actionMsg{gen: gen, op: "primary", view: next, err: err}
	}
}

func removeCmd(ctx context.Context, mgr *connection.Manager, gen uint64, viewer, other string, view connection.View) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, callTimeout)
		defer cancel()
		next, err := mgr.RemoveAction(ctx, viewer, other, view)
		return actionMsg{gen: gen, op: "remove", view: next, err: err}
	}
}

func networkCmd(ctx context.Context, mgr *connection.Manager, user string, accept *gigon.Connection) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, callTimeout)
		defer cancel()
		var notice, peer string
		if accept != nil {
			peer = accept.Peer(user)
			if err := mgr.Accept(ctx, user, *accept); err != nil {
				return networkMsg{acceptedPeer: peer, err: err}
			}
			notice = "Accepted request from " + peer
		}
		net, err := mgr.Network(ctx, user)
		return networkMsg{network: net, notice: notice, acceptedPeer: peer, err: err}
	}
}
