package ui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gigon/gigon/internal/connection"
	"github.com/gigon/gigon/internal/gigon"
	"github.com/gigon/gigon/internal/gigon/gigontest"
	"github.com/gigon/gigon/internal/prefs"
	"github.com/gigon/gigon/internal/state"
)

type fixture struct {
	srv       *gigontest.Server
	manager   *connection.Manager
	prefsPath string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	srv := gigontest.NewServer()
	srv.Token = "1234"
	t.Cleanup(srv.Close)

	client, err := gigon.NewClient(gigon.Options{BaseURL: srv.URL, Token: "1234", Timeout: 2 * time.Second})
	require.NoError(t, err)
	return fixture{
		srv:       srv,
		manager:   connection.NewManager(client, nil),
		prefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
	}
}

// start builds a sized model and runs its startup commands.
func (f fixture) start(t *testing.T, profile string) Model {
	t.Helper()
	m := New(Options{
		Context:   context.Background(),
		Manager:   f.manager,
		Store:     &state.Store{},
		Viewer:    "ann",
		Profile:   profile,
		PrefsPath: f.prefsPath,
	})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = next.(Model)
	if profile == "" {
		return m
	}
	return drain(t, m, m.Init())
}

// drain runs cmd and every command it produces, feeding results back into
// the model. Animation ticks are dropped.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 50, "command loop did not settle")
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		msg := c()
		switch msg := msg.(type) {
		case nil, spinner.TickMsg, cursor.BlinkMsg:
			continue
		case tea.BatchMsg:
			queue = append(queue, msg...)
			continue
		}
		next, nextCmd := m.Update(msg)
		m = next.(Model)
		queue = append(queue, nextCmd)
	}
	return m
}

func press(m Model, k string) (Model, tea.Cmd) {
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestModel_OpenResolvesOnce(t *testing.T) {
	f := newFixture(t)
	m := f.start(t, "bob")

	assert.Equal(t, 1, f.srv.Calls("GET pair"))
	assert.True(t, m.snapshot.HasView)
	assert.Equal(t, connection.StateNone, m.snapshot.View.State)
	assert.Contains(t, m.View(), "Give Request")
	assert.NotContains(t, m.View(), "Remove Request")
	assert.NotContains(t, m.View(), "Remove Connection")
}

func TestModel_RequestDisablesControlUntilSettled(t *testing.T) {
	f := newFixture(t)
	m := f.start(t, "bob")

	m, cmd := press(m, "enter")
	require.NotNil(t, cmd)
	assert.True(t, m.snapshot.Busy)

	// A second press while the request is in flight is swallowed.
	m, again := press(m, "enter")
	assert.Nil(t, again)

	m = drain(t, m, cmd)
	assert.Equal(t, 1, f.srv.Calls("POST"))
	assert.False(t, m.snapshot.Busy)
	assert.Equal(t, connection.StateRequestedByViewer, m.snapshot.View.State)
	assert.Equal(t, "Request sent", m.notice)

	view := m.View()
	assert.Contains(t, view, "Requested")
	assert.Contains(t, view, "Remove Request")

	// The "Requested" affordance is informational.
	_, cmd = press(m, "enter")
	assert.Nil(t, cmd)
}

func TestModel_AcceptThenRemove(t *testing.T) {
	f := newFixture(t)
	f.srv.Seed("bob", "ann", gigon.StatusRequested)
	m := f.start(t, "bob")
	require.Equal(t, connection.StateRequestedByOther, m.snapshot.View.State)
	assert.Contains(t, m.View(), "Accept Request")

	m, cmd := press(m, "enter")
	m = drain(t, m, cmd)
	assert.Equal(t, connection.StateConnected, m.snapshot.View.State)
	assert.Contains(t, m.View(), "Remove Connection")

	m, cmd = press(m, "x")
	require.NotNil(t, cmd)
	m = drain(t, m, cmd)
	assert.Equal(t, connection.StateNone, m.snapshot.View.State)
	assert.Empty(t, f.srv.Records())
	assert.Equal(t, "Removed", m.notice)
}

func TestModel_RemoveUnavailableIsNoop(t *testing.T) {
	f := newFixture(t)
	m := f.start(t, "bob")

	_, cmd := press(m, "x")
	assert.Nil(t, cmd)
	assert.Zero(t, f.srv.Calls("DELETE"))
}

func TestModel_ConflictReResolvesOnce(t *testing.T) {
	f := newFixture(t)
	m := f.start(t, "bob")
	require.Equal(t, connection.StateNone, m.snapshot.View.State)

	// bob asks first while ann's view is stale.
	f.srv.Seed("bob", "ann", gigon.StatusRequested)

	m, cmd := press(m, "enter")
	m = drain(t, m, cmd)

	assert.Equal(t, 1, f.srv.Calls("POST"))
	assert.Equal(t, 2, f.srv.Calls("GET pair"))
	assert.Equal(t, connection.StateRequestedByOther, m.snapshot.View.State)
	assert.NoError(t, m.snapshot.LastError)
	assert.Contains(t, m.notice, "changed elsewhere")
}

func TestModel_FailureKeepsLastKnownView(t *testing.T) {
	f := newFixture(t)
	m := f.start(t, "bob")

	f.srv.Close()
	m, cmd := press(m, "enter")
	m = drain(t, m, cmd)

	assert.Equal(t, connection.StateNone, m.snapshot.View.State)
	assert.ErrorIs(t, m.snapshot.LastError, gigon.ErrNetwork)
	assert.False(t, m.snapshot.Busy)

	view := m.View()
	assert.Contains(t, view, "Cannot reach Gig-On")
	assert.Contains(t, view, "Give Request")
}

func TestModel_StaleResolveDropped(t *testing.T) {
	f := newFixture(t)
	m := f.start(t, "bob")
	gen := m.store.Generation()

	m, _ = press(m, "/")
	m, _ = press(m, "cat")
	m, cmd := press(m, "enter")
	require.NotNil(t, cmd)

	next, _ := m.Update(resolvedMsg{gen: gen, view: connection.View{State: connection.StateConnected}})
	m = next.(Model)
	assert.Equal(t, "cat", m.snapshot.Other)
	assert.False(t, m.snapshot.HasView)

	m = drain(t, m, cmd)
	assert.Equal(t, connection.StateNone, m.snapshot.View.State)
}

func TestModel_PromptRemembersProfile(t *testing.T) {
	f := newFixture(t)
	m := f.start(t, "")
	require.True(t, m.showPrompt)

	m, _ = press(m, "ann")
	m, cmd := press(m, "enter")
	assert.Nil(t, cmd)
	assert.True(t, m.showPrompt)
	assert.Contains(t, m.notice, "own profile")

	m.prompt.SetValue("")
	m, _ = press(m, "bob")
	m, cmd = press(m, "enter")
	require.NotNil(t, cmd)
	assert.False(t, m.showPrompt)
	m = drain(t, m, cmd)
	assert.Equal(t, "bob", m.snapshot.Other)
	assert.True(t, m.snapshot.HasView)

	saved, err := prefs.Load(f.prefsPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, saved.Recent)
}

func TestModel_NetworkAcceptAndOpenPeer(t *testing.T) {
	f := newFixture(t)
	f.srv.Seed("ann", "bob", gigon.StatusConnected)
	f.srv.Seed("ann", "dan", gigon.StatusRequested)
	f.srv.Seed("eve", "ann", gigon.StatusRequested)
	m := f.start(t, "bob")

	m, cmd := press(m, "n")
	require.Equal(t, ScreenNetwork, m.screen)
	m = drain(t, m, cmd)
	require.True(t, m.snapshot.HasNetwork)
	assert.Len(t, m.snapshot.Network.Connected, 1)
	assert.Contains(t, m.View(), "@bob")

	// Accept only works from the received tab.
	_, cmd = press(m, "a")
	assert.Nil(t, cmd)

	m, _ = press(m, "tab")
	m, _ = press(m, "tab")
	require.Equal(t, connection.TabReceived, m.tab)
	assert.Contains(t, m.View(), "@eve")

	m, cmd = press(m, "a")
	require.NotNil(t, cmd)
	m = drain(t, m, cmd)
	assert.Equal(t, "Accepted request from eve", m.notice)
	assert.Empty(t, m.snapshot.Network.Received)
	assert.Len(t, m.snapshot.Network.Connected, 2)

	m, _ = press(m, "tab")
	require.Equal(t, connection.TabConnected, m.tab)
	m, _ = press(m, "j")
	assert.Equal(t, 1, m.selected)
	m, cmd = press(m, "enter")
	require.NotNil(t, cmd)
	assert.Equal(t, ScreenProfile, m.screen)
	assert.Equal(t, "eve", m.snapshot.Other)

	m = drain(t, m, cmd)
	assert.Equal(t, connection.StateConnected, m.snapshot.View.State)
}

func TestModel_NetworkAcceptRefreshesOpenProfile(t *testing.T) {
	f := newFixture(t)
	f.srv.Seed("eve", "ann", gigon.StatusRequested)
	m := f.start(t, "eve")
	require.Equal(t, connection.StateRequestedByOther, m.snapshot.View.State)

	m, cmd := press(m, "n")
	m = drain(t, m, cmd)
	m, _ = press(m, "tab")
	m, _ = press(m, "tab")
	m, cmd = press(m, "a")
	require.NotNil(t, cmd)
	m = drain(t, m, cmd)
	assert.Equal(t, 1, f.srv.Calls("PUT"))
	assert.Equal(t, 2, f.srv.Calls("GET pair"))

	m, _ = press(m, "p")
	require.Equal(t, ScreenProfile, m.screen)
	assert.Equal(t, connection.StateConnected, m.snapshot.View.State)
	assert.Contains(t, m.View(), "Remove Connection")
	assert.NotContains(t, m.View(), "Accept Request")

	m, cmd = press(m, "enter")
	assert.Nil(t, cmd)
	assert.Equal(t, 1, f.srv.Calls("PUT"))
}

func TestModel_NetworkAcceptWhileProfileBusyResolvesOnReturn(t *testing.T) {
	f := newFixture(t)
	rec := f.srv.Seed("eve", "ann", gigon.StatusRequested)
	m := f.start(t, "eve")
	require.NoError(t, f.manager.Accept(context.Background(), "ann", rec))

	m.screen = ScreenNetwork
	require.True(t, m.store.BeginResolve())
	next, cmd := m.Update(networkMsg{acceptedPeer: "eve"})
	m = next.(Model)
	assert.Nil(t, cmd)
	assert.True(t, m.profileStale)

	m.store.Settle(m.store.Generation(), m.snapshot.View, nil)
	m, cmd = press(m, "p")
	require.NotNil(t, cmd)
	m = drain(t, m, cmd)
	assert.False(t, m.profileStale)
	assert.Equal(t, connection.StateConnected, m.snapshot.View.State)
}

func TestModel_EscapeDismissesErrorBanner(t *testing.T) {
	f := newFixture(t)
	m := f.start(t, "bob")

	f.srv.Close()
	m, cmd := press(m, "r")
	m = drain(t, m, cmd)
	require.Error(t, m.snapshot.LastError)
	require.Contains(t, m.View(), "Cannot reach Gig-On")

	m, cmd = press(m, "esc")
	assert.Nil(t, cmd)
	assert.NoError(t, m.snapshot.LastError)
	assert.True(t, m.snapshot.HasView)
	assert.NotContains(t, m.View(), "Cannot reach Gig-On")
	assert.Contains(t, m.View(), "Give Request")
}

func TestModel_ThemeCycleSavesPrefs(t *testing.T) {
	f := newFixture(t)
	m := f.start(t, "bob")
	first := m.theme.Name

	m, _ = press(m, "T")
	assert.Equal(t, NextTheme(first), m.theme.Name)

	saved, err := prefs.Load(f.prefsPath)
	require.NoError(t, err)
	assert.Equal(t, m.theme.Name, saved.Theme)
}

func TestModel_HelpOverlay(t *testing.T) {
	f := newFixture(t)
	m := f.start(t, "bob")

	m, _ = press(m, "?")
	assert.True(t, m.showHelp)
	assert.Contains(t, m.View(), "Keyboard Shortcuts")

	m, _ = press(m, "x")
	assert.False(t, m.showHelp)

	_, cmd := press(m, "e")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestDescribeError(t *testing.T) {
	status := &gigon.StatusError{Method: "POST", Path: "/connections", Code: 409}
	assert.Contains(t, describeError(&gigon.ConflictError{StatusError: status}), "changed elsewhere")
	assert.Contains(t, describeError(&gigon.NotFoundError{StatusError: status}), "no longer exists")
	assert.Contains(t, describeError(&gigon.NetworkError{Op: "GET", Err: context.DeadlineExceeded}), "Cannot reach")
	assert.Contains(t, describeError(connection.ErrInvalidPair), "yourself")
	assert.Equal(t, "", describeError(nil))

	long := strings.Repeat("x", 200)
	assert.Len(t, []rune(describeError(assertErr(long))), 120)
}

func TestClassifyConnectionError(t *testing.T) {
	status := &gigon.StatusError{Code: 404}
	assert.Equal(t, "NOT FOUND", classifyConnectionError(&gigon.NotFoundError{StatusError: status}))
	assert.Equal(t, "TIMEOUT", classifyConnectionError(&gigon.NetworkError{Op: "GET", Err: context.DeadlineExceeded}))
	assert.Equal(t, "ERROR", classifyConnectionError(assertErr("boom")))
}

func TestFormatTimestamp(t *testing.T) {
	now := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, "", formatTimestamp(time.Time{}, now))
	assert.Equal(t, "15:04:00 (now)", formatTimestamp(now.Add(-5*time.Second), now))
	assert.Equal(t, "14:54:05 (10m ago)", formatTimestamp(now.Add(-10*time.Minute), now))
	assert.Equal(t, "12:04:05 (3h ago)", formatTimestamp(now.Add(-3*time.Hour), now))
}

func TestTruncateMiddle(t *testing.T) {
	assert.Equal(t, "short", truncateMiddle("short", 10))
	got := truncateMiddle("/home/ann/.local/share/gigon/logs/gigon.log", 20)
	assert.Len(t, got, 20)
	assert.True(t, strings.HasSuffix(got, "gigon.log"))
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
