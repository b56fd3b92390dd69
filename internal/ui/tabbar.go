package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vidyasagar/pagenav/internal/theme"
)

const (
	newTabTitle    = "New Tab"
	maxTabTitleLen = 30
)

// Tab is the label of one browsing tab. Each tab has its own history, owned
// by the app.
type Tab struct {
	ID    int
	Title string
	Page  string
}

func (t Tab) label() string {
	switch {
	case t.Title != "":
		return t.Title
	case t.Page != "":
		return t.Page
	default:
		return newTabTitle
	}
}

// TabBar keeps the ordered tab labels and which one is active.
type TabBar struct {
	tabs   []Tab
	active int
	lastID int
	width  int
}

// NewTabBar creates a tab bar with one empty tab.
func NewTabBar() TabBar {
	var tb TabBar
	tb.tabs = []Tab{tb.allocate()}
	return tb
}

func (tb *TabBar) allocate() Tab {
	tb.lastID++
	return Tab{ID: tb.lastID}
}

// SetWidth sets the rendered width.
func (tb *TabBar) SetWidth(w int) {
	tb.width = w
}

// capacity is how many labels fit at once, between 2 and 10.
func (tb *TabBar) capacity() int {
	return max(2, min(10, tb.width/20))
}

// NewTab inserts an empty tab right after the active one and activates it.
func (tb *TabBar) NewTab() int {
	at := tb.active + 1
	tb.tabs = append(tb.tabs, Tab{})
	copy(tb.tabs[at+1:], tb.tabs[at:])
	tb.tabs[at] = tb.allocate()
	tb.active = at
	return at
}

// CloseTab removes the tab at idx. The last remaining tab is never closed.
func (tb *TabBar) CloseTab(idx int) bool {
	if len(tb.tabs) <= 1 || idx < 0 || idx >= len(tb.tabs) {
		return false
	}
	tb.tabs = append(tb.tabs[:idx], tb.tabs[idx+1:]...)
	if tb.active > idx || tb.active == len(tb.tabs) {
		tb.active--
	}
	return true
}

// CloseCurrentTab closes the active tab.
func (tb *TabBar) CloseCurrentTab() bool {
	return tb.CloseTab(tb.active)
}

// NextTab activates the tab to the right, wrapping around.
func (tb *TabBar) NextTab() {
	tb.active = (tb.active + 1) % len(tb.tabs)
}

// PrevTab activates the tab to the left, wrapping around.
func (tb *TabBar) PrevTab() {
	tb.active = (tb.active - 1 + len(tb.tabs)) % len(tb.tabs)
}

// Active returns the active tab index.
func (tb *TabBar) Active() int {
	return tb.active
}

// ActiveTab returns the active tab.
func (tb *TabBar) ActiveTab() *Tab {
	return &tb.tabs[tb.active]
}

// SetActiveTitle sets the active tab's title, cut to fit a label.
func (tb *TabBar) SetActiveTitle(title string) {
	tb.ActiveTab().Title = truncate(title, maxTabTitleLen)
}

// SetActivePage sets the active tab's page name.
func (tb *TabBar) SetActivePage(page string) {
	tb.ActiveTab().Page = page
}

// Tabs returns a copy of the tab labels.
func (tb *TabBar) Tabs() []Tab {
	return append([]Tab(nil), tb.tabs...)
}

// Count returns the number of tabs.
func (tb *TabBar) Count() int {
	return len(tb.tabs)
}

// window returns the [start, end) range of tabs to draw, keeping the active
// tab roughly centered.
func (tb *TabBar) window() (int, int) {
	n := tb.capacity()
	if len(tb.tabs) <= n {
		return 0, len(tb.tabs)
	}
	start := max(0, tb.active-n/2)
	end := min(len(tb.tabs), start+n)
	return max(0, end-n), end
}

// View renders the tab bar.
func (tb *TabBar) View() string {
	t := theme.Current

	activeStyle := lipgloss.NewStyle().
		Foreground(t.TextBright).
		Background(t.TabActive).
		Bold(true).
		Padding(0, 1)
	inactiveStyle := lipgloss.NewStyle().
		Foreground(t.TextDim).
		Background(t.TabInactive).
		Padding(0, 1)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim)
	sepStyle := lipgloss.NewStyle().Foreground(t.Border)

	start, end := tb.window()
	titleLen := max(8, tb.width/tb.capacity()-4)

	var sb strings.Builder
	if start > 0 {
		sb.WriteString(dimStyle.Render(fmt.Sprintf(" +%d ", start)))
	}
	for i := start; i < end; i++ {
		if i > start {
			sb.WriteString(sepStyle.Render("|"))
		}
		style := inactiveStyle
		if i == tb.active {
			style = activeStyle
		}
		sb.WriteString(style.Render(fmt.Sprintf(" %d:%s ", i+1, truncate(tb.tabs[i].label(), titleLen))))
	}
	if rest := len(tb.tabs) - end; rest > 0 {
		sb.WriteString(dimStyle.Render(fmt.Sprintf(" +%d ", rest)))
	}

	return lipgloss.NewStyle().
		Background(t.Surface).
		Width(tb.width).
		Render(sb.String())
}
