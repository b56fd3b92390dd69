package app

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keybindings for pagenav.
type KeyMap struct {
	// Scrolling
	ScrollDown   key.Binding
	ScrollUp     key.Binding
	HalfPageDown key.Binding
	HalfPageUp   key.Binding
	GotoTop      key.Binding
	GotoBottom   key.Binding

	// History
	Back          key.Binding
	Forward       key.Binding
	HistoryToggle key.Binding
	VisitLog      key.Binding

	// Pages
	OpenPage   key.Binding
	FollowLink key.Binding
	Reload     key.Binding

	// Tabs
	NewTab   key.Binding
	CloseTab key.Binding
	NextTab  key.Binding
	PrevTab  key.Binding

	// Modes
	CommandMode key.Binding

	// Actions
	Quit key.Binding
	Help key.Binding
}

// DefaultKeyMap returns the default vim-style keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		ScrollDown: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "scroll down"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "scroll up"),
		),
		HalfPageDown: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("Ctrl+d", "half page down"),
		),
		HalfPageUp: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("Ctrl+u", "half page up"),
		),
		GotoTop: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("gg", "go to top"),
		),
		GotoBottom: key.NewBinding(
			key.WithKeys("G"),
			key.WithHelp("G", "go to bottom"),
		),
		Back: key.NewBinding(
			key.WithKeys("H"),
			key.WithHelp("H", "go back"),
		),
		Forward: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "go forward"),
		),
		HistoryToggle: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "history panel"),
		),
		VisitLog: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "visit log"),
		),
		OpenPage: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open page"),
		),
		FollowLink: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("[n]f", "follow link"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload page"),
		),
		NewTab: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("Ctrl+t", "new tab"),
		),
		CloseTab: key.NewBinding(
			key.WithKeys("ctrl+w"),
			key.WithHelp("Ctrl+w", "close tab"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("gt/Tab", "next tab"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("gT/S-Tab", "prev tab"),
		),
		CommandMode: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command mode"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Back, k.Forward, k.FollowLink, k.OpenPage, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.ScrollDown, k.ScrollUp, k.HalfPageDown, k.HalfPageUp, k.GotoTop, k.GotoBottom},
		{k.Back, k.Forward, k.HistoryToggle, k.VisitLog},
		{k.OpenPage, k.FollowLink, k.Reload, k.CommandMode},
		{k.NewTab, k.CloseTab, k.NextTab, k.PrevTab, k.Help, k.Quit},
	}
}
