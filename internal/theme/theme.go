// Package theme holds the color palettes for the pagenav TUI.
package theme

import (
	"sort"

	"github.com/charmbracelet/lipgloss"
)

// Theme is the set of colors every view draws with.
type Theme struct {
	Name string

	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color

	Text       lipgloss.Color
	TextDim    lipgloss.Color
	TextBright lipgloss.Color

	Background lipgloss.Color
	Surface    lipgloss.Color
	Border     lipgloss.Color

	Link    lipgloss.Color
	Error   lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Info    lipgloss.Color

	// History entries behind and ahead of the current page.
	Back    lipgloss.Color
	Forward lipgloss.Color

	TabActive   lipgloss.Color
	TabInactive lipgloss.Color
}

// palette is the handful of base colors a Theme is derived from.
type palette struct {
	primary, secondary, accent string
	fg, dim, bright            string
	bg, surface, border        string
	red, green, yellow, blue   string
}

func build(name string, p palette) Theme {
	c := func(hex string) lipgloss.Color { return lipgloss.Color(hex) }
	return Theme{
		Name:        name,
		Primary:     c(p.primary),
		Secondary:   c(p.secondary),
		Accent:      c(p.accent),
		Text:        c(p.fg),
		TextDim:     c(p.dim),
		TextBright:  c(p.bright),
		Background:  c(p.bg),
		Surface:     c(p.surface),
		Border:      c(p.border),
		Link:        c(p.secondary),
		Error:       c(p.red),
		Success:     c(p.green),
		Warning:     c(p.yellow),
		Info:        c(p.blue),
		Back:        c(p.fg),
		Forward:     c(p.dim),
		TabActive:   c(p.primary),
		TabInactive: c(p.border),
	}
}

var (
	Default = build("default", palette{
		primary: "#7C3AED", secondary: "#38BDF8", accent: "#F59E0B",
		fg: "#E2E8F0", dim: "#64748B", bright: "#F8FAFC",
		bg: "#0F172A", surface: "#1E293B", border: "#334155",
		red: "#EF4444", green: "#22C55E", yellow: "#F59E0B", blue: "#3B82F6",
	})

	Gruvbox = build("gruvbox", palette{
		primary: "#D65D0E", secondary: "#83A598", accent: "#D79921",
		fg: "#EBDBB2", dim: "#928374", bright: "#FBF1C7",
		bg: "#282828", surface: "#3C3836", border: "#504945",
		red: "#FB4934", green: "#B8BB26", yellow: "#FABD2F", blue: "#458588",
	})

	Nord = build("nord", palette{
		primary: "#88C0D0", secondary: "#81A1C1", accent: "#EBCB8B",
		fg: "#ECEFF4", dim: "#4C566A", bright: "#ECEFF4",
		bg: "#2E3440", surface: "#3B4252", border: "#434C5E",
		red: "#BF616A", green: "#A3BE8C", yellow: "#EBCB8B", blue: "#5E81AC",
	})

	Dracula = build("dracula", palette{
		primary: "#BD93F9", secondary: "#8BE9FD", accent: "#F1FA8C",
		fg: "#F8F8F2", dim: "#6272A4", bright: "#F8F8F2",
		bg: "#282A36", surface: "#44475A", border: "#6272A4",
		red: "#FF5555", green: "#50FA7B", yellow: "#F1FA8C", blue: "#8BE9FD",
	})
)

var themes = map[string]Theme{}

func init() {
	for _, t := range []Theme{Default, Gruvbox, Nord, Dracula} {
		themes[t.Name] = t
	}
}

// Current is the active theme.
var Current = Default

// Set switches the active theme. Unknown names leave Current unchanged.
func Set(name string) bool {
	t, ok := themes[name]
	if !ok {
		return false
	}
	Current = t
	return true
}

// List returns the theme names in sorted order.
func List() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
