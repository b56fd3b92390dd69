package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/vidyasagar/pagenav/internal/builder"
	"github.com/vidyasagar/pagenav/internal/navigation"
	"github.com/vidyasagar/pagenav/internal/observable"
	"github.com/vidyasagar/pagenav/internal/pages"
	"github.com/vidyasagar/pagenav/internal/routing"
	"github.com/vidyasagar/pagenav/internal/storage"
	"github.com/vidyasagar/pagenav/internal/theme"
	"github.com/vidyasagar/pagenav/internal/ui"
)

// visitPanelLimit caps how many visit log entries the panel lists.
const visitPanelLimit = 200

// Mode represents the current input mode.
type Mode int

const (
	ModeNormal  Mode = iota
	ModeOpen         // open-page prompt active
	ModeCommand      // command bar active
	ModeFollow       // link follow prompt active
	ModeHistory      // history or visit panel active
	ModeHelp         // help overlay shown
)

func (md Mode) String() string {
	switch md {
	case ModeOpen:
		return ui.ModeOpen
	case ModeCommand:
		return ui.ModeCommand
	case ModeFollow:
		return ui.ModeFollow
	case ModeHistory:
		return ui.ModeHistory
	case ModeHelp:
		return ui.ModeHelp
	default:
		return ui.ModeNormal
	}
}

// Options configures a Model.
type Options struct {
	Source       *pages.Source
	DB           *storage.DB // optional; required for the visit log
	RecordVisits bool
	Logger       *zap.Logger
	StartPage    string // opened on start; empty opens the root index if there is one
	Home         string // page opened by :home
}

// tabState holds per-tab state. Each tab owns its navigation history.
type tabState struct {
	id          int
	viewport    ui.PageViewport
	history     *navigation.Stack[routing.PageInfo]
	unsubscribe func()
	page        *pages.RenderedPage
	titles      map[string]string // page name -> last loaded title
	loading     bool
	loadSeq     int
	cancelFunc  context.CancelFunc

	// Mirrors of the history state, written only by change notifications.
	count      int
	current    routing.PageInfo
	canBack    bool
	canForward bool
}

func (ts *tabState) historyChanged(p observable.Property) {
	switch p {
	case navigation.PropertyCount:
		ts.count = ts.history.Count()
	case navigation.PropertyCurrent:
		ts.current, _ = ts.history.Current()
	case navigation.PropertyCanGoBack:
		ts.canBack = ts.history.CanGoBack()
	case navigation.PropertyCanGoForward:
		ts.canForward = ts.history.CanGoForward()
	}
}

func (ts *tabState) title(p routing.PageInfo) string {
	return ts.titles[p.Name]
}

func (ts *tabState) cancelLoad() {
	if ts.cancelFunc != nil {
		ts.cancelFunc()
		ts.cancelFunc = nil
	}
	ts.loading = false
}

// Model is the top-level bubbletea model for pagenav.
type Model struct {
	// UI components
	tabBar       ui.TabBar
	statusBar    ui.StatusBar
	commandBar   ui.CommandBar
	historyPanel ui.HistoryPanel
	helpPanel    ui.HelpPanel

	// Per-tab state
	tabStates map[int]*tabState

	// Shared state
	source    *pages.Source
	activate  builder.HandlerFunc
	db        *storage.DB
	visits    *storage.VisitLog
	log       *zap.Logger
	keys      KeyMap
	mode      Mode
	width     int
	height    int
	lastGKey  bool   // for "gg" detection
	count     string // pending numeric prefix
	ready     bool
	startPage string
	home      string
}

// PageChangedMsg reports that the page file with the given root-relative
// name changed on disk. Send it to the program from a pages.Source watcher.
type PageChangedMsg struct {
	Name string
}

// pageLoadedMsg is sent when a page activation finishes.
type pageLoadedMsg struct {
	tabID      int
	seq        int
	page       routing.PageInfo
	rendered   *pages.RenderedPage
	keepScroll bool
	err        error
}

// New creates a new pagenav Model.
func New(opts Options) Model {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	keys := DefaultKeyMap()
	m := Model{
		tabBar:       ui.NewTabBar(),
		statusBar:    ui.NewStatusBar(),
		commandBar:   ui.NewCommandBar(),
		historyPanel: ui.NewHistoryPanel(),
		helpPanel:    ui.NewHelpPanel(keys),
		tabStates:    make(map[int]*tabState),
		source:       opts.Source,
		db:           opts.DB,
		log:          log,
		keys:         keys,
		mode:         ModeNormal,
		startPage:    opts.StartPage,
		home:         opts.Home,
	}
	if opts.DB != nil && opts.RecordVisits {
		m.visits = storage.NewVisitLog(opts.DB)
	}
	m.activate = newActivation(opts.Source, m.visits, log)

	m.newTabState(m.tabBar.ActiveTab().ID)
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	start := m.startPage
	if start == "" {
		if _, _, err := m.source.Resolve("index"); err != nil {
			return nil
		}
		start = "index"
	}
	return m.navigateTo(routing.ParsePageInfo(start))
}

// Close cancels pending loads, detaches from every history and closes the
// database. Call it once the program has exited.
func (m Model) Close() error {
	var result *multierror.Error
	for _, ts := range m.tabStates {
		ts.cancelLoad()
		ts.unsubscribe()
	}
	if m.db != nil {
		if err := m.db.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("closing database: %w", err))
		}
	}
	if err := m.log.Sync(); err != nil {
		result = multierror.Append(result, fmt.Errorf("flushing log: %w", err))
	}
	return result.ErrorOrNil()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		resized := m.ready && msg.Width != m.width
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layout()
		if resized {
			return m, m.reloadAll(func(*tabState) bool { return true })
		}
		return m, nil

	case pageLoadedMsg:
		return m.handlePageLoaded(msg)

	case PageChangedMsg:
		return m, m.reloadAll(func(ts *tabState) bool {
			return ts.page != nil && ts.page.File == msg.Name
		})

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	// Forward to the viewport for mouse scroll, etc.
	var cmds []tea.Cmd
	if ts := m.activeTabState(); ts != nil {
		vp, cmd := ts.viewport.Update(msg)
		ts.viewport = *vp
		m.syncStatusBar()
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "\n  Loading pagenav..."
	}

	// Layout:
	// [tab bar]
	// [history panel | viewport]
	// [status bar]
	// [command bar] (if active)

	var sections []string
	sections = append(sections, m.tabBar.View())

	ts := m.activeTabState()
	switch {
	case ts == nil:
		sections = append(sections, "")
	case m.historyPanel.IsVisible():
		t := theme.Current
		dividerStyle := lipgloss.NewStyle().
			Foreground(t.Border).
			Background(t.Background)

		dividerHeight := m.viewportHeight()
		divider := dividerStyle.Render(strings.TrimSuffix(strings.Repeat("│\n", dividerHeight), "\n"))

		sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top,
			m.historyPanel.View(),
			divider,
			ts.viewport.View(),
		))
	default:
		sections = append(sections, ts.viewport.View())
	}

	sections = append(sections, m.statusBar.View())
	if m.commandBar.IsActive() {
		sections = append(sections, m.commandBar.View())
	}

	result := lipgloss.JoinVertical(lipgloss.Left, sections...)

	if m.helpPanel.IsVisible() {
		result = lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.helpPanel.View(),
			lipgloss.WithWhitespaceChars(" "),
			lipgloss.WithWhitespaceForeground(theme.Current.Background),
		)
	}

	return result
}

func (m *Model) viewportHeight() int {
	const tabBarHeight, statusBarHeight = 1, 1
	commandBarHeight := 0
	if m.commandBar.IsActive() {
		commandBarHeight = 1
	}
	h := m.height - tabBarHeight - statusBarHeight - commandBarHeight
	if h < 1 {
		h = 1
	}
	return h
}

// layout recalculates dimensions for all components.
func (m *Model) layout() {
	m.tabBar.SetWidth(m.width)
	m.statusBar.SetWidth(m.width)
	m.commandBar.SetWidth(m.width)
	m.helpPanel.SetSize(m.width, m.height)

	viewportHeight := m.viewportHeight()

	// Narrower when the history panel is shown.
	viewportWidth := m.width
	if m.historyPanel.IsVisible() {
		panelWidth := m.width * 30 / 100
		if panelWidth < 20 {
			panelWidth = 20
		}
		m.historyPanel.SetSize(panelWidth, viewportHeight)
		viewportWidth = m.width - panelWidth - 1 // -1 for divider
	}

	for _, ts := range m.tabStates {
		ts.viewport.SetSize(viewportWidth, viewportHeight)
		// A load may have finished before the first size message.
		if ts.page != nil && !ts.viewport.HasContent() {
			ts.viewport.SetContent(ts.page.Content)
		}
	}
	m.syncStatusBar()
}

// setMode switches input mode and keeps the status bar in step.
func (m *Model) setMode(mode Mode) {
	m.mode = mode
	m.statusBar.SetMode(mode.String())
}

// handleKeyMsg processes key events based on current mode.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.mode {
	case ModeOpen, ModeCommand, ModeFollow:
		return m.handleCommandMode(msg)
	case ModeHistory:
		return m.handleHistoryMode(msg)
	case ModeHelp:
		m.helpPanel.Hide()
		m.setMode(ModeNormal)
		return m, nil
	default:
		return m.handleNormalMode(msg)
	}
}

// takeCount consumes the pending numeric prefix; 0 means none was typed.
func (m *Model) takeCount() int {
	n, _ := strconv.Atoi(m.count)
	m.count = ""
	return n
}

// handleNormalMode processes keys in normal (browsing) mode.
func (m Model) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ts := m.activeTabState()
	s := msg.String()

	// Numeric prefix for f, H and L.
	if len(s) == 1 && s[0] >= '0' && s[0] <= '9' && (m.count != "" || s != "0") {
		m.lastGKey = false
		m.count += s
		m.statusBar.SetMessage(m.count)
		return m, nil
	}
	count := m.takeCount()
	if count > 0 {
		m.statusBar.SetMessage("")
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	// gg detection: first "g" sets flag, second "g" goes to top.
	case s == "g":
		if m.lastGKey {
			m.lastGKey = false
			if ts != nil {
				ts.viewport.GotoTop()
				m.syncStatusBar()
			}
			return m, nil
		}
		m.lastGKey = true
		return m, nil

	// gt / gT switch tabs.
	case s == "t" && m.lastGKey:
		m.lastGKey = false
		m.tabBar.NextTab()
		m.syncTabUI()
		return m, nil

	case s == "T" && m.lastGKey:
		m.lastGKey = false
		m.tabBar.PrevTab()
		m.syncTabUI()
		return m, nil
	}
	m.lastGKey = false

	switch {
	case key.Matches(msg, m.keys.ScrollDown):
		if ts != nil {
			ts.viewport.LineDown(1)
		}

	case key.Matches(msg, m.keys.ScrollUp):
		if ts != nil {
			ts.viewport.LineUp(1)
		}

	case key.Matches(msg, m.keys.HalfPageDown):
		if ts != nil {
			ts.viewport.HalfPageDown()
		}

	case key.Matches(msg, m.keys.HalfPageUp):
		if ts != nil {
			ts.viewport.HalfPageUp()
		}

	case key.Matches(msg, m.keys.GotoBottom):
		if ts != nil {
			ts.viewport.GotoBottom()
		}

	case key.Matches(msg, m.keys.Back):
		return m, m.goBack(max(count, 1))

	case key.Matches(msg, m.keys.Forward):
		return m, m.goForward(max(count, 1))

	case key.Matches(msg, m.keys.Reload):
		if ts != nil {
			m.source.Invalidate(m.currentFile(ts))
			return m, m.load(ts, true)
		}

	case key.Matches(msg, m.keys.FollowLink):
		if count > 0 {
			return m.followLink(strconv.Itoa(count))
		}
		return m, m.openCommandBar(ModeFollow, ui.CommandFollow)

	case key.Matches(msg, m.keys.OpenPage):
		if names, err := m.source.Pages(); err == nil {
			m.commandBar.SetPages(names)
		} else {
			m.log.Warn("listing pages", zap.Error(err))
		}
		return m, m.openCommandBar(ModeOpen, ui.CommandOpen)

	case key.Matches(msg, m.keys.CommandMode):
		return m, m.openCommandBar(ModeCommand, ui.CommandEx)

	case key.Matches(msg, m.keys.HistoryToggle):
		m.showHistory()
		return m, nil

	case key.Matches(msg, m.keys.VisitLog):
		m.showVisits()
		return m, nil

	case key.Matches(msg, m.keys.NewTab):
		m.openTab()
		return m, nil

	case key.Matches(msg, m.keys.CloseTab):
		if !m.closeTab() {
			return m, tea.Quit
		}
		return m, nil

	case key.Matches(msg, m.keys.NextTab):
		m.tabBar.NextTab()
		m.syncTabUI()
		return m, nil

	case key.Matches(msg, m.keys.PrevTab):
		m.tabBar.PrevTab()
		m.syncTabUI()
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.helpPanel.Show()
		m.setMode(ModeHelp)
		return m, nil

	default:
		if ts != nil {
			vp, cmd := ts.viewport.Update(msg)
			ts.viewport = *vp
			m.syncStatusBar()
			return m, cmd
		}
		return m, nil
	}

	m.syncStatusBar()
	return m, nil
}

func (m *Model) openCommandBar(mode Mode, ct ui.CommandType) tea.Cmd {
	m.setMode(mode)
	cmd := m.commandBar.Open(ct)
	m.layout()
	return cmd
}

// handleCommandMode processes keys while the command bar is open.
func (m Model) handleCommandMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.commandBar.Close()
		m.setMode(ModeNormal)
		m.layout()
		return m, nil

	case tea.KeyEnter:
		result := m.commandBar.Submit()
		m.setMode(ModeNormal)
		m.layout()
		return m.handleCommandResult(result)
	}

	cb, cmd := m.commandBar.Update(msg)
	m.commandBar = *cb
	return m, cmd
}

// handleCommandResult processes a submitted command.
func (m Model) handleCommandResult(result ui.CommandResult) (tea.Model, tea.Cmd) {
	switch result.Type {
	case ui.CommandEx:
		return m.executeCommand(result.Value)
	case ui.CommandOpen:
		return m, m.open(result.Value)
	case ui.CommandFollow:
		return m.followLink(result.Value)
	}
	return m, nil
}

// executeCommand handles :commands.
func (m Model) executeCommand(cmd string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return m, nil
	}
	arg := strings.Join(parts[1:], " ")
	ts := m.activeTabState()

	switch parts[0] {
	case "q", "quit":
		return m, tea.Quit

	case "o", "open", "e", "edit":
		if arg == "" {
			m.statusBar.SetMessage("Usage: :open <page>")
			return m, nil
		}
		return m, m.open(arg)

	case "back":
		return m, m.goBack(parseCount(arg))

	case "forward":
		return m, m.goForward(parseCount(arg))

	case "home":
		return m, m.open(m.home)

	case "reload":
		if ts != nil {
			m.source.Invalidate(m.currentFile(ts))
			return m, m.load(ts, true)
		}

	case "clear":
		if ts != nil {
			ts.history.Clear()
			m.load(ts, false) // nothing current; cancels any pending load
			m.statusBar.SetMessage("History cleared")
		}

	case "history":
		m.showHistory()

	case "visits":
		m.showVisits()

	case "clearvisits":
		if m.visits == nil {
			m.statusBar.SetMessage("Visit log is disabled")
			return m, nil
		}
		if err := m.visits.Clear(context.Background()); err != nil {
			m.statusBar.SetMessage(fmt.Sprintf("Error: %s", err))
			return m, nil
		}
		m.statusBar.SetMessage("Visit log cleared")

	case "tab", "tabnew":
		m.openTab()
		if arg != "" {
			return m, m.open(arg)
		}

	case "tabclose":
		if !m.closeTab() {
			return m, tea.Quit
		}

	case "theme":
		if arg == "" {
			m.statusBar.SetMessage(fmt.Sprintf("Current: %s | Available: %s", theme.Current.Name, strings.Join(theme.List(), ", ")))
		} else if theme.Set(arg) {
			m.statusBar.SetMessage(fmt.Sprintf("Theme: %s", arg))
		} else {
			m.statusBar.SetMessage(fmt.Sprintf("Unknown theme: %s (available: %s)", arg, strings.Join(theme.List(), ", ")))
		}

	case "help":
		m.helpPanel.Show()
		m.setMode(ModeHelp)

	default:
		m.statusBar.SetMessage(fmt.Sprintf("Unknown command: %s", parts[0]))
	}

	m.syncStatusBar()
	return m, nil
}

func parseCount(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// followLink navigates to the numbered link on the current page.
func (m Model) followLink(input string) (tea.Model, tea.Cmd) {
	ts := m.activeTabState()
	if ts == nil || ts.page == nil {
		m.statusBar.SetMessage("No page loaded")
		return m, nil
	}

	num, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		m.statusBar.SetMessage(fmt.Sprintf("Invalid link number: %s", input))
		return m, nil
	}

	for _, link := range ts.page.Links {
		if link.Index != num {
			continue
		}
		if link.External {
			m.statusBar.SetMessage(fmt.Sprintf("External link: %s", link.Target))
			return m, nil
		}
		return m, m.navigateTo(link.Page)
	}

	m.statusBar.SetMessage(fmt.Sprintf("Link [%d] not found", num))
	return m, nil
}

// open navigates the active tab to a page typed by the user. Relative names
// resolve against the current page's directory; a leading "/" is root
// relative.
func (m *Model) open(ref string) tea.Cmd {
	ts := m.activeTabState()
	if ts == nil {
		return nil
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		ref = "index"
	}
	if cur, ok := ts.history.Current(); ok {
		return m.navigateTo(cur.Resolve(ref))
	}
	return m.navigateTo(routing.ParsePageInfo(ref))
}

// navigateTo records page in the active tab's history and loads it.
func (m *Model) navigateTo(page routing.PageInfo) tea.Cmd {
	ts := m.activeTabState()
	if ts == nil {
		return nil
	}
	ts.history.NavigateTo(page)
	return m.load(ts, false)
}

// goBack steps the active tab back up to n times.
func (m *Model) goBack(n int) tea.Cmd {
	ts := m.activeTabState()
	if ts == nil {
		return nil
	}
	for i := 0; i < n; i++ {
		if err := ts.history.GoBack(); err != nil {
			if i == 0 {
				m.statusBar.SetMessage(err.Error())
				return nil
			}
			break
		}
	}
	return m.load(ts, false)
}

// goForward steps the active tab forward up to n times.
func (m *Model) goForward(n int) tea.Cmd {
	ts := m.activeTabState()
	if ts == nil {
		return nil
	}
	for i := 0; i < n; i++ {
		if err := ts.history.GoForward(); err != nil {
			if i == 0 {
				m.statusBar.SetMessage(err.Error())
				return nil
			}
			break
		}
	}
	return m.load(ts, false)
}

// load activates the current page of ts. With no current page the tab falls
// back to the welcome screen.
func (m *Model) load(ts *tabState, keepScroll bool) tea.Cmd {
	ts.cancelLoad()
	ts.loadSeq++

	page, ok := ts.history.Current()
	if !ok {
		m.showCurrent(ts)
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	ts.cancelFunc = cancel
	ts.loading = true
	if m.isActive(ts) {
		m.statusBar.SetMessage("")
		m.syncStatusBar()
	}

	width := ts.viewport.Width()
	if width <= 0 {
		width = m.width
	}
	activate := m.activate
	tabID, seq := ts.id, ts.loadSeq

	return func() tea.Msg {
		act := &activation{tab: tabID, width: width}
		rc := &routing.RouteContext{Page: page, Services: act}
		err := activate(ctx, rc)
		return pageLoadedMsg{
			tabID:      tabID,
			seq:        seq,
			page:       page,
			rendered:   act.page,
			keepScroll: keepScroll,
			err:        err,
		}
	}
}

// reloadAll reloads every tab matching keep, preserving scroll positions.
func (m *Model) reloadAll(keep func(*tabState) bool) tea.Cmd {
	var cmds []tea.Cmd
	for _, ts := range m.tabStates {
		if _, ok := ts.history.Current(); ok && keep(ts) {
			cmds = append(cmds, m.load(ts, true))
		}
	}
	return tea.Batch(cmds...)
}

// handlePageLoaded displays a finished load, ignoring superseded ones.
func (m Model) handlePageLoaded(msg pageLoadedMsg) (tea.Model, tea.Cmd) {
	ts, ok := m.tabStates[msg.tabID]
	if !ok || msg.seq != ts.loadSeq {
		return m, nil
	}
	ts.cancelLoad()

	if msg.err != nil {
		ts.page = nil
		ts.viewport.SetContent(errorContent(msg.page, msg.err))
		if m.isActive(ts) {
			m.syncTabUI()
			m.statusBar.SetMessage(fmt.Sprintf("Error: %s", msg.err))
		}
		return m, nil
	}

	ts.page = msg.rendered
	ts.titles[msg.page.Name] = msg.rendered.Title
	if msg.keepScroll && ts.viewport.HasContent() {
		ts.viewport.ReplaceContent(msg.rendered.Content)
	} else {
		ts.viewport.SetContent(msg.rendered.Content)
		if msg.page.Fragment != "" {
			ts.viewport.ScrollToText(strings.ReplaceAll(msg.page.Fragment, "-", " "))
		}
	}

	if m.isActive(ts) {
		m.syncTabUI()
	}
	return m, nil
}

func errorContent(page routing.PageInfo, err error) string {
	errStyle := lipgloss.NewStyle().
		Foreground(theme.Current.Error).
		Bold(true).
		Padding(2, 4)
	detailStyle := lipgloss.NewStyle().
		Foreground(theme.Current.TextDim).
		Padding(0, 4)

	headline := "Failed to load page"
	if errors.Is(err, pages.ErrPageNotFound) {
		headline = "Page not found"
	}
	return errStyle.Render(headline) + "\n\n" +
		detailStyle.Render(fmt.Sprintf("Page: %s\nError: %s", page, err))
}

// showCurrent refreshes ts when its history has no page to load.
func (m *Model) showCurrent(ts *tabState) {
	if _, ok := ts.history.Current(); !ok {
		ts.page = nil
		ts.viewport.ClearContent()
	}
	if m.isActive(ts) {
		m.syncTabUI()
	}
}

// currentFile returns the root-relative file of the page shown in ts.
func (m *Model) currentFile(ts *tabState) string {
	if ts.page != nil {
		return ts.page.File
	}
	return ""
}

// showHistory opens the panel on the active tab's back/forward history.
func (m *Model) showHistory() {
	ts := m.activeTabState()
	if ts == nil {
		return
	}
	m.historyPanel.SetEntries("History", ui.HistoryEntries(ts.history.Items(), ts.history.Forward(), ts.title))
	m.historyPanel.Show()
	m.setMode(ModeHistory)
	m.layout()
}

// showVisits opens the panel on the visit log.
func (m *Model) showVisits() {
	if m.visits == nil {
		m.statusBar.SetMessage("Visit log is disabled")
		return
	}
	visits, err := m.visits.List(context.Background(), visitPanelLimit)
	if err != nil {
		m.statusBar.SetMessage(fmt.Sprintf("Error: %s", err))
		return
	}
	entries := make([]ui.HistoryEntry, 0, len(visits))
	for _, v := range visits {
		entries = append(entries, ui.HistoryEntry{
			Page:      routing.PageInfo{Name: v.Page},
			Title:     v.Title,
			Position:  ui.PositionVisit,
			VisitedAt: v.VisitedAt,
		})
	}
	m.historyPanel.SetEntries("Visits", entries)
	m.historyPanel.Show()
	m.setMode(ModeHistory)
	m.layout()
}

func (m *Model) hideHistory() {
	m.historyPanel.Hide()
	m.setMode(ModeNormal)
	m.layout()
}

// handleHistoryMode processes keys when the history panel is active.
func (m Model) handleHistoryMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		m.historyPanel.CursorDown()
		return m, nil

	case "k", "up":
		m.historyPanel.CursorUp()
		return m, nil

	case "g":
		m.historyPanel.HandleGKey()
		return m, nil

	case "G":
		m.historyPanel.GotoBottom()
		return m, nil

	case "ctrl+d":
		m.historyPanel.HalfPageDown()
		return m, nil

	case "ctrl+u":
		m.historyPanel.HalfPageUp()
		return m, nil

	case "enter":
		entry := m.historyPanel.SelectedEntry()
		m.hideHistory()
		if entry == nil {
			return m, nil
		}
		return m, m.selectHistoryEntry(*entry)

	case "esc", "h", "v", "q":
		m.hideHistory()
		return m, nil
	}

	m.historyPanel.ResetGKey()
	return m, nil
}

// selectHistoryEntry jumps to a back or forward entry of the active tab, or
// opens a visit log entry as a new navigation.
func (m *Model) selectHistoryEntry(entry ui.HistoryEntry) tea.Cmd {
	ts := m.activeTabState()
	if ts == nil {
		return nil
	}

	var err error
	switch entry.Position {
	case ui.PositionCurrent:
		return nil
	case ui.PositionBack:
		err = jumpTo(entry.Steps, backSteps(ts.history.Items(), entry.Page),
			ts.history.GoBackTo, ts.history.GoBack, entry.Page)
	case ui.PositionForward:
		err = jumpTo(entry.Steps, forwardSteps(ts.history.Forward(), entry.Page),
			ts.history.GoForwardTo, ts.history.GoForward, entry.Page)
	case ui.PositionVisit:
		return m.navigateTo(entry.Page)
	}
	if err != nil {
		m.statusBar.SetMessage(err.Error())
		return nil
	}
	return m.load(ts, false)
}

// jumpTo moves steps entries through the history. When the entry is the
// nearest occurrence of its page, the move is a single jump call; an older
// duplicate is reached by stepping.
func jumpTo(
	steps, nearest int,
	jump func(routing.PageInfo) error,
	step func() error,
	page routing.PageInfo,
) error {
	if steps == nearest {
		return jump(page)
	}
	for i := 0; i < steps; i++ {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// backSteps is how many GoBack calls reach the nearest occurrence of page in
// visited, or -1. The current page is zero steps away.
func backSteps(visited []routing.PageInfo, page routing.PageInfo) int {
	for i := len(visited) - 1; i >= 0; i-- {
		if visited[i] == page {
			return len(visited) - 1 - i
		}
	}
	return -1
}

// forwardSteps is how many GoForward calls reach the nearest occurrence of
// page in forward, or -1.
func forwardSteps(forward []routing.PageInfo, page routing.PageInfo) int {
	for i, p := range forward {
		if p == page {
			return i + 1
		}
	}
	return -1
}

// newTabState creates the state for tab id and subscribes to its history.
func (m *Model) newTabState(id int) *tabState {
	ts := &tabState{
		id:       id,
		viewport: ui.NewPageViewport(),
		history:  navigation.NewStack[routing.PageInfo](),
		titles:   make(map[string]string),
	}
	log := m.log
	ts.unsubscribe = ts.history.Subscribe(func(_ any, p observable.Property) {
		ts.historyChanged(p)
		log.Debug("history changed",
			zap.Int("tab", id),
			zap.String("property", string(p)),
			zap.Int("count", ts.count),
			zap.Stringer("current", ts.current))
	})
	m.tabStates[id] = ts
	return ts
}

func (m *Model) openTab() {
	m.tabBar.NewTab()
	m.newTabState(m.tabBar.ActiveTab().ID)
	m.layout()
	m.syncTabUI()
}

// closeTab closes the active tab. It reports false when it was the last one.
func (m *Model) closeTab() bool {
	tab := m.tabBar.ActiveTab()
	if !m.tabBar.CloseCurrentTab() {
		return false
	}
	if ts, ok := m.tabStates[tab.ID]; ok {
		ts.cancelLoad()
		ts.unsubscribe()
		delete(m.tabStates, tab.ID)
	}
	m.syncTabUI()
	return true
}

func (m *Model) activeTabState() *tabState {
	tab := m.tabBar.ActiveTab()
	if tab == nil {
		return nil
	}
	return m.tabStates[tab.ID]
}

func (m *Model) isActive(ts *tabState) bool {
	return m.activeTabState() == ts
}

// syncTabUI copies the active tab's page into the tab bar and status bar.
func (m *Model) syncTabUI() {
	ts := m.activeTabState()
	if ts == nil {
		return
	}
	title := ""
	if ts.page != nil {
		title = ts.page.Title
	}
	m.tabBar.SetActiveTitle(title)
	m.tabBar.SetActivePage(ts.current.String())
	m.syncStatusBar()
}

// syncStatusBar refreshes the status bar from the active tab. History
// indicators come from the tab's notification mirrors.
func (m *Model) syncStatusBar() {
	ts := m.activeTabState()
	if ts == nil {
		return
	}
	m.statusBar.SetScrollInfo(ts.viewport.ScrollInfo())
	m.statusBar.SetNavState(ts.count, ts.canBack, ts.canForward)
	m.statusBar.SetLoading(ts.loading)

	if ts.count > 0 {
		m.statusBar.SetPage(ts.current.String())
	} else {
		m.statusBar.SetPage("")
	}
	if ts.page != nil {
		m.statusBar.SetTitle(ts.page.Title)
		m.statusBar.SetLinkCount(len(ts.page.Links))
	} else {
		m.statusBar.SetTitle("")
		m.statusBar.SetLinkCount(0)
	}
}
