package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/vidyasagar/pagenav/internal/routing"
	"github.com/vidyasagar/pagenav/internal/theme"
)

// Position places a history entry relative to the current page.
type Position int

const (
	PositionBack Position = iota
	PositionCurrent
	PositionForward
	PositionVisit // from the visit log, not the back/forward history
)

// HistoryEntry is one row of the history panel.
type HistoryEntry struct {
	Page      routing.PageInfo
	Title     string
	Position  Position
	Steps     int       // GoBack or GoForward calls that reach this entry
	VisitedAt time.Time // zero for back/forward entries
}

// HistoryEntries lays out a back/forward history for display: forward
// entries farthest first, then the current page, then back entries newest
// first. visited is oldest first; forward is nearest first.
func HistoryEntries(visited, forward []routing.PageInfo, title func(routing.PageInfo) string) []HistoryEntry {
	entries := make([]HistoryEntry, 0, len(visited)+len(forward))
	for i := len(forward) - 1; i >= 0; i-- {
		entries = append(entries, HistoryEntry{Page: forward[i], Title: title(forward[i]), Position: PositionForward, Steps: i + 1})
	}
	for i := len(visited) - 1; i >= 0; i-- {
		steps := len(visited) - 1 - i
		pos := PositionBack
		if steps == 0 {
			pos = PositionCurrent
		}
		entries = append(entries, HistoryEntry{Page: visited[i], Title: title(visited[i]), Position: pos, Steps: steps})
	}
	return entries
}

// HistoryPanel displays a scrollable history list with vim navigation.
type HistoryPanel struct {
	title    string
	entries  []HistoryEntry
	cursor   int
	offset   int // scroll offset for visible window
	width    int
	height   int
	visible  bool
	lastGKey bool // for gg detection within the panel
}

// NewHistoryPanel creates a new history panel.
func NewHistoryPanel() HistoryPanel {
	return HistoryPanel{title: "History"}
}

// SetEntries updates the entries displayed under the given heading and puts
// the cursor on the current page, if listed.
func (hp *HistoryPanel) SetEntries(title string, entries []HistoryEntry) {
	hp.title = title
	hp.entries = entries
	hp.cursor = 0
	hp.offset = 0
	for i, e := range entries {
		if e.Position == PositionCurrent {
			hp.cursor = i
			break
		}
	}
	hp.ensureVisible()
}

// Title returns the panel heading.
func (hp *HistoryPanel) Title() string {
	return hp.title
}

// SetSize updates the panel dimensions.
func (hp *HistoryPanel) SetSize(w, h int) {
	hp.width = w
	hp.height = h
	hp.ensureVisible()
}

// Show makes the panel visible.
func (hp *HistoryPanel) Show() {
	hp.visible = true
	hp.lastGKey = false
}

// Hide closes the panel.
func (hp *HistoryPanel) Hide() {
	hp.visible = false
	hp.lastGKey = false
}

// IsVisible reports whether the panel is shown.
func (hp *HistoryPanel) IsVisible() bool {
	return hp.visible
}

// CursorUp moves the cursor up one entry.
func (hp *HistoryPanel) CursorUp() {
	hp.lastGKey = false
	if hp.cursor > 0 {
		hp.cursor--
		hp.ensureVisible()
	}
}

// CursorDown moves the cursor down one entry.
func (hp *HistoryPanel) CursorDown() {
	hp.lastGKey = false
	if hp.cursor < len(hp.entries)-1 {
		hp.cursor++
		hp.ensureVisible()
	}
}

// GotoTop moves to the first entry.
func (hp *HistoryPanel) GotoTop() {
	hp.lastGKey = false
	hp.cursor = 0
	hp.offset = 0
}

// GotoBottom moves to the last entry.
func (hp *HistoryPanel) GotoBottom() {
	hp.lastGKey = false
	if len(hp.entries) > 0 {
		hp.cursor = len(hp.entries) - 1
		hp.ensureVisible()
	}
}

// HalfPageDown moves the cursor down by half the visible entries.
func (hp *HistoryPanel) HalfPageDown() {
	hp.lastGKey = false
	if len(hp.entries) == 0 {
		return
	}
	hp.cursor += max(hp.visibleCount()/2, 1)
	if hp.cursor >= len(hp.entries) {
		hp.cursor = len(hp.entries) - 1
	}
	hp.ensureVisible()
}

// HalfPageUp moves the cursor up by half the visible entries.
func (hp *HistoryPanel) HalfPageUp() {
	hp.lastGKey = false
	hp.cursor -= max(hp.visibleCount()/2, 1)
	if hp.cursor < 0 {
		hp.cursor = 0
	}
	hp.ensureVisible()
}

// Len returns the number of entries.
func (hp *HistoryPanel) Len() int {
	return len(hp.entries)
}

// HandleGKey handles the "g" key for gg detection.
// Returns true if "gg" was completed (go to top).
func (hp *HistoryPanel) HandleGKey() bool {
	if hp.lastGKey {
		hp.GotoTop()
		return true
	}
	hp.lastGKey = true
	return false
}

// ResetGKey resets the g key state (called on any non-g key press).
func (hp *HistoryPanel) ResetGKey() {
	hp.lastGKey = false
}

// SelectedEntry returns the entry at the cursor, or nil if empty.
func (hp *HistoryPanel) SelectedEntry() *HistoryEntry {
	if len(hp.entries) == 0 || hp.cursor < 0 || hp.cursor >= len(hp.entries) {
		return nil
	}
	e := hp.entries[hp.cursor]
	return &e
}

// SelectedIndex returns the cursor index.
func (hp *HistoryPanel) SelectedIndex() int {
	return hp.cursor
}

// visibleCount returns how many entries fit in the visible area.
// Each entry takes 2 lines (title + page), after a 2 line header.
func (hp *HistoryPanel) visibleCount() int {
	available := hp.height - 3
	if available <= 0 {
		return 1
	}
	count := available / 2
	if count < 1 {
		count = 1
	}
	return count
}

// ensureVisible adjusts offset so the cursor is within the visible window.
func (hp *HistoryPanel) ensureVisible() {
	visible := hp.visibleCount()
	if hp.cursor < hp.offset {
		hp.offset = hp.cursor
	}
	if hp.cursor >= hp.offset+visible {
		hp.offset = hp.cursor - visible + 1
	}
	if hp.offset < 0 {
		hp.offset = 0
	}
}

// View renders the history panel.
func (hp *HistoryPanel) View() string {
	if !hp.visible {
		return ""
	}

	t := theme.Current

	panelStyle := lipgloss.NewStyle().
		Width(hp.width).
		Height(hp.height).
		Background(t.Background)

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Primary).
		Background(t.Surface).
		Width(hp.width).
		Padding(0, 1)

	separatorStyle := lipgloss.NewStyle().
		Foreground(t.Border)

	selectedStyle := lipgloss.NewStyle().
		Foreground(t.TextBright).
		Background(t.TabActive).
		Bold(true).
		Width(hp.width).
		Padding(0, 1)

	normalStyle := lipgloss.NewStyle().
		Foreground(t.Text).
		Width(hp.width).
		Padding(0, 1)

	backStyle := normalStyle.
		Foreground(t.Back)

	forwardStyle := normalStyle.
		Foreground(t.Forward).
		Italic(true)

	pageStyle := lipgloss.NewStyle().
		Foreground(t.TextDim).
		Width(hp.width).
		Padding(0, 1)

	dimStyle := lipgloss.NewStyle().
		Foreground(t.TextDim).
		Padding(0, 1)

	var sb strings.Builder

	sb.WriteString(titleStyle.Render(hp.title))
	sb.WriteString("\n")

	sepWidth := hp.width - 2
	if sepWidth < 1 {
		sepWidth = 1
	}
	sb.WriteString(separatorStyle.Render(strings.Repeat("─", sepWidth)))
	sb.WriteString("\n")

	if len(hp.entries) == 0 {
		sb.WriteString(dimStyle.Render("Nothing here yet."))
		sb.WriteString("\n")
		return panelStyle.Render(sb.String())
	}

	visible := hp.visibleCount()
	end := hp.offset + visible
	if end > len(hp.entries) {
		end = len(hp.entries)
	}

	maxLen := hp.width - 6
	if maxLen < 10 {
		maxLen = 10
	}

	for i := hp.offset; i < end; i++ {
		entry := hp.entries[i]

		title := entry.Title
		if title == "" {
			title = entry.Page.String()
		}
		label := truncate(marker(entry.Position)+" "+title, maxLen)

		detail := entry.Page.String()
		if !entry.VisitedAt.IsZero() {
			detail += "  " + timeAgo(entry.VisitedAt)
		}
		detail = truncate(detail, maxLen)

		style := normalStyle
		switch {
		case i == hp.cursor:
			style = selectedStyle
		case entry.Position == PositionForward:
			style = forwardStyle
		case entry.Position == PositionBack:
			style = backStyle
		}
		sb.WriteString(style.Render(label))
		sb.WriteString("\n")
		sb.WriteString(pageStyle.Render("  " + detail))
		sb.WriteString("\n")
	}

	linesUsed := 2 + (end-hp.offset)*2
	remaining := hp.height - linesUsed
	if remaining > 1 {
		for i := 0; i < remaining-1; i++ {
			sb.WriteString("\n")
		}
		hintStyle := lipgloss.NewStyle().
			Foreground(t.TextDim).
			Italic(true).
			Padding(0, 1)
		sb.WriteString(hintStyle.Render("j/k:move  Enter:go  Esc:close"))
	}

	return panelStyle.Render(sb.String())
}

func marker(p Position) string {
	switch p {
	case PositionCurrent:
		return "●"
	case PositionForward:
		return "↷"
	case PositionVisit:
		return "·"
	default:
		return "↶"
	}
}

// truncate shortens s to n terminal cells, ending in "..." when cut.
func truncate(s string, n int) string {
	if runewidth.StringWidth(s) <= n {
		return s
	}
	if n <= 3 {
		return runewidth.Truncate(s, n, "")
	}
	return runewidth.Truncate(s, n, "...")
}

// timeAgo returns a human-readable relative time string.
func timeAgo(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
