package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vidyasagar/pagenav/internal/pages"
	"github.com/vidyasagar/pagenav/internal/routing"
	"github.com/vidyasagar/pagenav/internal/storage"
	"github.com/vidyasagar/pagenav/internal/ui"
)

var site = map[string]string{
	"index.md":       "# Home\n\nStart with the [guide](guide.md).\n",
	"guide.md":       "# Guide\n\nNext: [setup](setup/index.md) or [Go](https://go.dev).\n",
	"setup/index.md": "# Setup\n\nBack to the [guide](../guide.md).\n\n" +
		strings.Repeat("Some filler text.\n\n", 30) +
		"## Getting Started\n\nInstall it.\n",
}

func writeSite(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, body := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
	return root
}

func newTestModel(t *testing.T, files map[string]string, opts Options) Model {
	t.Helper()
	src, err := pages.NewSource(writeSite(t, files), 16, nil)
	require.NoError(t, err)
	opts.Source = src

	m := New(opts)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model)
}

// run executes cmd and feeds any page loads back into the model. Other
// messages are dropped so cursor blink ticks never run.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for _, msg := range collect(cmd) {
		if loaded, ok := msg.(pageLoadedMsg); ok {
			next, more := m.Update(loaded)
			m = run(t, next.(Model), more)
		}
	}
	return m
}

func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, cmd := m.Update(msg)
		m = next.(Model)
		if m.mode == ModeNormal || m.mode == ModeHistory {
			m = run(t, m, cmd)
		}
	}
	return m
}

func names(items []routing.PageInfo) []string {
	out := make([]string, len(items))
	for i, p := range items {
		out[i] = p.String()
	}
	return out
}

// assertHistory checks the active tab's stacks and that the status bar agrees.
func assertHistory(t *testing.T, m Model, visited, forward []string) {
	t.Helper()
	ts := m.activeTabState()
	require.NotNil(t, ts)
	if diff := cmp.Diff(visited, names(ts.history.Items())); diff != "" {
		t.Errorf("visited mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(forward, names(ts.history.Forward())); diff != "" {
		t.Errorf("forward mismatch (-want +got):\n%s", diff)
	}

	count, back, fwd := m.statusBar.NavState()
	assert.Equal(t, ts.history.Count(), count, "count")
	assert.Equal(t, ts.history.CanGoBack(), back, "can go back")
	assert.Equal(t, ts.history.CanGoForward(), fwd, "can go forward")
}

func TestInitOpensIndex(t *testing.T) {
	m := newTestModel(t, site, Options{})
	m = run(t, m, m.Init())

	ts := m.activeTabState()
	require.NotNil(t, ts.page)
	assert.Equal(t, "Home", ts.page.Title)
	assert.Equal(t, "index.md", ts.page.File)
	assert.True(t, ts.viewport.HasContent())
	assertHistory(t, m, []string{"index"}, []string{})
	assert.Equal(t, "Home", m.tabBar.ActiveTab().Title)
}

func TestInitWithoutIndexShowsWelcome(t *testing.T) {
	m := newTestModel(t, map[string]string{"other.md": "# Other"}, Options{})
	assert.Nil(t, m.Init())
	assert.False(t, m.activeTabState().viewport.HasContent())
}

func TestFollowBackForward(t *testing.T) {
	m := newTestModel(t, site, Options{})
	m = run(t, m, m.Init())

	m = press(t, m, "1", "f")
	assert.Equal(t, "Guide", m.activeTabState().page.Title)
	assertHistory(t, m, []string{"index", "guide.md"}, []string{})

	m = press(t, m, "1", "f")
	assert.Equal(t, "Setup", m.activeTabState().page.Title)
	assertHistory(t, m, []string{"index", "guide.md", "setup/index.md"}, []string{})

	m = press(t, m, "2", "H")
	assert.Equal(t, "Home", m.activeTabState().page.Title)
	assertHistory(t, m, []string{"index"}, []string{"guide.md", "setup/index.md"})

	m = press(t, m, "L")
	assert.Equal(t, "Guide", m.activeTabState().page.Title)
	assertHistory(t, m, []string{"index", "guide.md"}, []string{"setup/index.md"})

	// Navigating discards the forward history.
	m = press(t, m, "1", "f")
	assertHistory(t, m, []string{"index", "guide.md", "setup/index.md"}, []string{})
}

func TestFollowExternalLink(t *testing.T) {
	m := newTestModel(t, site, Options{})
	m = run(t, m, m.Init())
	m = press(t, m, "1", "f")

	m = press(t, m, "2", "f")
	assert.Equal(t, "External link: https://go.dev", m.statusBar.Message())
	assertHistory(t, m, []string{"index", "guide.md"}, []string{})

	m = press(t, m, "9", "f")
	assert.Equal(t, "Link [9] not found", m.statusBar.Message())
}

func TestBackPastFirstPage(t *testing.T) {
	m := newTestModel(t, site, Options{})
	m = run(t, m, m.Init())

	m = press(t, m, "H")
	assertHistory(t, m, []string{}, []string{"index"})
	assert.Nil(t, m.activeTabState().page)
	assert.False(t, m.activeTabState().viewport.HasContent())

	m = press(t, m, "H")
	assert.Equal(t, "cannot go back with empty history", m.statusBar.Message())

	m = press(t, m, "L")
	assert.Equal(t, "Home", m.activeTabState().page.Title)
	assertHistory(t, m, []string{"index"}, []string{})

	m = press(t, m, "L")
	assert.Equal(t, "cannot go forward with empty forward history", m.statusBar.Message())
}

func TestHistoryPanelJumps(t *testing.T) {
	m := newTestModel(t, site, Options{})
	m = run(t, m, m.Init())
	m = press(t, m, "1", "f", "1", "f")

	m = press(t, m, "h")
	require.Equal(t, ModeHistory, m.mode)
	sel := m.historyPanel.SelectedEntry()
	require.NotNil(t, sel)
	assert.Equal(t, ui.PositionCurrent, sel.Position)
	assert.Equal(t, "Setup", sel.Title)

	m = press(t, m, "j", "j", "enter")
	assert.Equal(t, ModeNormal, m.mode)
	assert.Equal(t, "Home", m.activeTabState().page.Title)
	assertHistory(t, m, []string{"index"}, []string{"guide.md", "setup/index.md"})

	// Forward entries are listed farthest first.
	m = press(t, m, "h", "k", "k", "enter")
	assert.Equal(t, "Setup", m.activeTabState().page.Title)
	assertHistory(t, m, []string{"index", "guide.md", "setup/index.md"}, []string{})

	// Selecting the current page changes nothing.
	m = press(t, m, "h", "enter")
	assertHistory(t, m, []string{"index", "guide.md", "setup/index.md"}, []string{})
}

func TestHistoryPanelOlderDuplicate(t *testing.T) {
	m := newTestModel(t, site, Options{})
	m = run(t, m, m.Init())
	// index -> guide -> setup -> guide
	m = press(t, m, "1", "f", "1", "f", "1", "f")
	assertHistory(t, m, []string{"index", "guide.md", "setup/index.md", "guide.md"}, []string{})

	// The older guide entry is two steps back even though the current page
	// is also guide.
	m = press(t, m, "h", "j", "j")
	sel := m.historyPanel.SelectedEntry()
	require.NotNil(t, sel)
	require.Equal(t, ui.PositionBack, sel.Position)
	require.Equal(t, 2, sel.Steps)

	m = press(t, m, "enter")
	assertHistory(t, m, []string{"index", "guide.md"}, []string{"setup/index.md", "guide.md"})
	assert.Equal(t, "Guide", m.activeTabState().page.Title)

	// The farthest forward entry is reached the same way.
	m = press(t, m, "h", "k", "k", "enter")
	assertHistory(t, m, []string{"index", "guide.md", "setup/index.md", "guide.md"}, []string{})
}

func TestClearCommand(t *testing.T) {
	m := newTestModel(t, site, Options{})
	m = run(t, m, m.Init())
	m = press(t, m, "1", "f", "H")

	next, cmd := m.executeCommand("clear")
	m = run(t, next.(Model), cmd)
	assertHistory(t, m, []string{}, []string{})
	assert.Equal(t, "History cleared", m.statusBar.Message())
	assert.Nil(t, m.activeTabState().page)
	assert.False(t, m.activeTabState().viewport.HasContent())
}

func TestOpenCommandResolvesRelative(t *testing.T) {
	m := newTestModel(t, site, Options{})
	m = run(t, m, m.Init())
	m = press(t, m, "1", "f", "1", "f")

	next, cmd := m.executeCommand("open ../index#top")
	m = run(t, next.(Model), cmd)
	assertHistory(t, m, []string{"index", "guide.md", "setup/index.md", "index#top"}, []string{})

	next, cmd = m.executeCommand("open /setup#getting-started")
	m = run(t, next.(Model), cmd)
	ts := m.activeTabState()
	assert.Equal(t, "Setup", ts.page.Title)
	assert.Positive(t, ts.viewport.YOffset())

	next, _ = m.executeCommand("open")
	nm := next.(Model)
	assert.Equal(t, "Usage: :open <page>", nm.statusBar.Message())
}

func TestMissingPageShowsError(t *testing.T) {
	m := newTestModel(t, site, Options{})
	next, cmd := m.executeCommand("open nowhere")
	m = run(t, next.(Model), cmd)

	ts := m.activeTabState()
	assert.Nil(t, ts.page)
	assert.Contains(t, m.statusBar.Message(), "page not found")
	assert.Contains(t, ts.viewport.View(), "Page not found")
	assertHistory(t, m, []string{"nowhere"}, []string{})
}

func TestSupersededLoadIgnored(t *testing.T) {
	m := newTestModel(t, site, Options{})
	first := m.navigateTo(routing.PageInfo{Name: "guide.md"})
	second := m.navigateTo(routing.PageInfo{Name: "index.md"})

	m = run(t, m, second)
	m = run(t, m, first)
	assert.Equal(t, "Home", m.activeTabState().page.Title)
}

func TestPageChangedReloads(t *testing.T) {
	m := newTestModel(t, site, Options{})
	m = run(t, m, m.Init())

	root := m.source.Root()
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.md"), []byte("# Welcome\n"), 0o644))
	m.source.Invalidate("index.md")

	next, cmd := m.Update(PageChangedMsg{Name: "guide.md"})
	assert.Nil(t, cmd)
	m = next.(Model)

	next, cmd = m.Update(PageChangedMsg{Name: "index.md"})
	m = run(t, next.(Model), cmd)
	assert.Equal(t, "Welcome", m.activeTabState().page.Title)
	assertHistory(t, m, []string{"index"}, []string{})
}

func TestTabsKeepSeparateHistory(t *testing.T) {
	m := newTestModel(t, site, Options{})
	m = run(t, m, m.Init())
	m = press(t, m, "1", "f")

	next, cmd := m.executeCommand("tabnew setup")
	m = run(t, next.(Model), cmd)
	assert.Equal(t, 2, m.tabBar.Count())
	assertHistory(t, m, []string{"setup"}, []string{})

	m = press(t, m, "g", "t")
	assertHistory(t, m, []string{"index", "guide.md"}, []string{})
	assert.Equal(t, "guide.md", m.tabBar.ActiveTab().Page)

	next, _ = m.executeCommand("tabclose")
	m = next.(Model)
	assert.Equal(t, 1, m.tabBar.Count())
	assert.Len(t, m.tabStates, 1)
	assertHistory(t, m, []string{"setup"}, []string{})
}

func TestVisitLog(t *testing.T) {
	db, err := storage.OpenDB(t.TempDir())
	require.NoError(t, err)

	m := newTestModel(t, site, Options{DB: db, RecordVisits: true})
	m = run(t, m, m.Init())
	m = press(t, m, "1", "f", "H")

	n, err := m.visits.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	m = press(t, m, "v")
	require.Equal(t, ModeHistory, m.mode)
	assert.Equal(t, "Visits", m.historyPanel.Title())
	assert.Equal(t, 3, m.historyPanel.Len())
	sel := m.historyPanel.SelectedEntry()
	require.NotNil(t, sel)
	assert.Equal(t, ui.PositionVisit, sel.Position)
	assert.Equal(t, "index", sel.Page.Name)

	// Opening a visit is a new navigation.
	m = press(t, m, "j", "enter")
	assertHistory(t, m, []string{"index", "guide.md"}, []string{})

	next, _ := m.executeCommand("clearvisits")
	m = next.(Model)
	n, err = m.visits.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, m.Close())
}

func TestVisitLogDisabled(t *testing.T) {
	m := newTestModel(t, site, Options{})
	m = press(t, m, "v")
	assert.Equal(t, ModeNormal, m.mode)
	assert.Equal(t, "Visit log is disabled", m.statusBar.Message())
	assert.NoError(t, m.Close())
}

func TestHistoryNotificationsAreLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	m := newTestModel(t, site, Options{Logger: zap.New(core)})
	m = run(t, m, m.Init())

	var props []string
	for _, e := range logs.FilterMessage("history changed").All() {
		props = append(props, e.ContextMap()["property"].(string))
	}
	assert.Equal(t, []string{"Count", "Current", "CanGoBack"}, props)

	activated := logs.FilterMessage("page activated").All()
	require.Len(t, activated, 1)
	assert.Equal(t, "Home", activated[0].ContextMap()["title"])
	assert.Equal(t, "index", activated[0].ContextMap()["page"])
}

func TestActivationChainFailure(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	src, err := pages.NewSource(writeSite(t, site), 0, nil)
	require.NoError(t, err)

	activate := newActivation(src, nil, zap.New(core))

	act := &activation{tab: 1, width: 80}
	err = activate(context.Background(), &routing.RouteContext{Page: routing.PageInfo{Name: "missing"}, Services: act})
	require.ErrorIs(t, err, pages.ErrPageNotFound)
	assert.Nil(t, act.page)
	assert.Equal(t, 1, logs.FilterMessage("page activation failed").Len())

	err = activate(context.Background(), &routing.RouteContext{Page: routing.PageInfo{Name: "index"}})
	assert.Error(t, err)
}

func TestUnknownCommand(t *testing.T) {
	m := newTestModel(t, site, Options{})
	next, _ := m.executeCommand("frobnicate now")
	nm := next.(Model)
	assert.Equal(t, "Unknown command: frobnicate", nm.statusBar.Message())
}
