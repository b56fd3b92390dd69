package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"

	"github.com/vidyasagar/pagenav/internal/theme"
)

// HelpPanel renders every keybinding as a centered popup overlay.
type HelpPanel struct {
	help    help.Model
	keys    help.KeyMap
	visible bool
	width   int
	height  int
}

// NewHelpPanel creates a help panel listing keys.
func NewHelpPanel(keys help.KeyMap) HelpPanel {
	h := help.New()
	h.ShowAll = true
	return HelpPanel{help: h, keys: keys}
}

// Show makes the panel visible.
func (hp *HelpPanel) Show() {
	hp.visible = true
}

// Hide closes the panel.
func (hp *HelpPanel) Hide() {
	hp.visible = false
}

// IsVisible reports whether the panel is shown.
func (hp *HelpPanel) IsVisible() bool {
	return hp.visible
}

// SetSize sets the available area for rendering.
func (hp *HelpPanel) SetSize(w, h int) {
	hp.width = w
	hp.height = h
	hp.help.Width = w - 8
}

// View renders the keybinding columns inside a rounded box.
func (hp *HelpPanel) View() string {
	if !hp.visible {
		return ""
	}

	t := theme.Current

	hp.help.Styles.FullKey = lipgloss.NewStyle().Foreground(t.Secondary).Bold(true)
	hp.help.Styles.FullDesc = lipgloss.NewStyle().Foreground(t.Text)
	hp.help.Styles.FullSeparator = lipgloss.NewStyle().Foreground(t.Border)
	hp.help.Styles.Ellipsis = lipgloss.NewStyle().Foreground(t.TextDim)
	hp.help.FullSeparator = "   │   "

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Primary)

	separatorStyle := lipgloss.NewStyle().
		Foreground(t.Border)

	dimStyle := lipgloss.NewStyle().
		Foreground(t.TextDim).
		Italic(true)

	body := hp.help.View(hp.keys)
	bodyWidth := lipgloss.Width(body)

	rule := separatorStyle.Render(strings.Repeat("─", bodyWidth))

	footer := dimStyle.Render("press any key to dismiss")
	footerPad := ""
	if fw := lipgloss.Width(footer); fw < bodyWidth {
		footerPad = strings.Repeat(" ", (bodyWidth-fw)/2)
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Keybindings"),
		rule,
		"",
		body,
		"",
		rule,
		footerPad+footer,
	)

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary).
		Padding(1, 2)

	return boxStyle.Render(content)
}
