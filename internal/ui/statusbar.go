package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/vidyasagar/pagenav/internal/theme"
)

// Modes shown in the status bar.
const (
	ModeNormal  = "NORMAL"
	ModeOpen    = "OPEN"
	ModeCommand = "COMMAND"
	ModeFollow  = "FOLLOW"
	ModeHistory = "HISTORY"
	ModeHelp    = "HELP"
)

// StatusBar shows the current page and history state at the bottom of the
// screen. The navigation fields are only written by SetNavState, which the
// app calls from history change notifications.
type StatusBar struct {
	page       string
	title      string
	loading    bool
	scrollInfo string
	mode       string
	linkCount  int
	width      int
	message    string // temporary status message

	count      int
	canBack    bool
	canForward bool
}

// NewStatusBar creates a new status bar.
func NewStatusBar() StatusBar {
	return StatusBar{
		mode: ModeNormal,
	}
}

// SetWidth sets the status bar width.
func (s *StatusBar) SetWidth(w int) {
	s.width = w
}

// SetPage updates the displayed page name.
func (s *StatusBar) SetPage(page string) {
	s.page = page
}

// SetTitle updates the page title.
func (s *StatusBar) SetTitle(title string) {
	s.title = title
}

// SetLoading sets the loading indicator state.
func (s *StatusBar) SetLoading(loading bool) {
	s.loading = loading
}

// SetScrollInfo sets the scroll position string (e.g. "42%", "TOP", "BOT").
func (s *StatusBar) SetScrollInfo(info string) {
	s.scrollInfo = info
}

// SetMode sets the current mode indicator.
func (s *StatusBar) SetMode(mode string) {
	s.mode = mode
}

// Mode returns the current mode indicator.
func (s *StatusBar) Mode() string {
	return s.mode
}

// SetLinkCount sets the total link count displayed.
func (s *StatusBar) SetLinkCount(n int) {
	s.linkCount = n
}

// SetMessage sets a temporary status message.
func (s *StatusBar) SetMessage(msg string) {
	s.message = msg
}

// Message returns the temporary status message.
func (s *StatusBar) Message() string {
	return s.message
}

// SetNavState updates the history indicators.
func (s *StatusBar) SetNavState(count int, canBack, canForward bool) {
	s.count = count
	s.canBack = canBack
	s.canForward = canForward
}

// NavState returns the history indicators last set.
func (s *StatusBar) NavState() (count int, canBack, canForward bool) {
	return s.count, s.canBack, s.canForward
}

// NavIndicator renders the history state, e.g. "◀ 3 ▷".
func (s *StatusBar) NavIndicator() string {
	back, forward := "◁", "▷"
	if s.canBack {
		back = "◀"
	}
	if s.canForward {
		forward = "▶"
	}
	return fmt.Sprintf("%s %d %s", back, s.count, forward)
}

// View renders the status bar.
func (s *StatusBar) View() string {
	t := theme.Current

	modeStyle := lipgloss.NewStyle().
		Bold(true).
		Padding(0, 1).
		Foreground(t.Background)

	switch s.mode {
	case ModeNormal:
		modeStyle = modeStyle.Background(t.Primary)
	case ModeOpen:
		modeStyle = modeStyle.Background(t.Success)
	case ModeCommand:
		modeStyle = modeStyle.Background(t.Accent)
	case ModeFollow:
		modeStyle = modeStyle.Background(t.Link)
	case ModeHelp:
		modeStyle = modeStyle.Background(t.Warning)
	default:
		modeStyle = modeStyle.Background(t.Secondary)
	}

	mode := modeStyle.Render(s.mode)

	barStyle := lipgloss.NewStyle().
		Foreground(t.Text).
		Background(t.Surface)

	// Left side: mode + message, or page and title
	var left string
	switch {
	case s.loading:
		loadStyle := lipgloss.NewStyle().
			Foreground(t.Warning).
			Background(t.Surface).
			Bold(true).
			Padding(0, 1)
		left = loadStyle.Render("Loading...")
	case s.message != "":
		msgStyle := lipgloss.NewStyle().
			Foreground(t.Info).
			Background(t.Surface).
			Padding(0, 1)
		left = msgStyle.Render(s.message)
	case s.page != "":
		pageStyle := lipgloss.NewStyle().
			Foreground(t.Link).
			Background(t.Surface).
			Padding(0, 1)
		left = pageStyle.Render(s.page)
		if s.title != "" {
			titleStyle := lipgloss.NewStyle().
				Foreground(t.Text).
				Background(t.Surface).
				Padding(0, 1)
			left += titleStyle.Render(s.title)
		}
	}

	rightStyle := lipgloss.NewStyle().
		Foreground(t.TextDim).
		Background(t.Surface).
		Padding(0, 1)

	var right string
	if s.linkCount > 0 {
		right += rightStyle.Render(fmt.Sprintf("%d links", s.linkCount))
	}

	navStyle := rightStyle.Foreground(t.Accent)
	right += navStyle.Render(s.NavIndicator())

	scrollStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Secondary).
		Background(t.Surface).
		Padding(0, 1)
	right += scrollStyle.Render(s.scrollInfo)

	modeWidth := lipgloss.Width(mode)
	leftWidth := lipgloss.Width(left)
	rightWidth := lipgloss.Width(right)
	spacerWidth := s.width - modeWidth - leftWidth - rightWidth
	if spacerWidth < 0 {
		spacerWidth = 0
	}

	spacerStyle := lipgloss.NewStyle().
		Background(t.Surface)
	spacer := spacerStyle.Render(fmt.Sprintf("%*s", spacerWidth, ""))

	return barStyle.Render(mode + left + spacer + right)
}
