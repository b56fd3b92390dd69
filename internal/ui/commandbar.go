package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vidyasagar/pagenav/internal/theme"
)

// CommandType identifies the kind of command bar interaction.
type CommandType int

const (
	CommandNone   CommandType = iota
	CommandEx                 // : commands
	CommandOpen               // o open page by name
	CommandFollow             // f link follow
)

// CommandResult is what the bar yields on Enter.
type CommandResult struct {
	Type  CommandType
	Value string
}

type prompt struct {
	prefix      string
	placeholder string
}

var prompts = map[CommandType]prompt{
	CommandEx:     {":", "command..."},
	CommandOpen:   {"open ", "page..."},
	CommandFollow: {"f", "link #..."},
}

// exHistory remembers submitted : commands, newest last. pos counts back
// from the newest entry; -1 means the user is editing a fresh line.
type exHistory struct {
	lines []string
	pos   int
}

func (h *exHistory) add(line string) {
	if n := len(h.lines); n > 0 && h.lines[n-1] == line {
		return
	}
	h.lines = append(h.lines, line)
}

func (h *exHistory) rewind() { h.pos = -1 }

// older steps toward the oldest entry and returns it.
func (h *exHistory) older() (string, bool) {
	if len(h.lines) == 0 {
		return "", false
	}
	h.pos = min(h.pos+1, len(h.lines)-1)
	return h.lines[len(h.lines)-1-h.pos], true
}

// newer steps back toward the fresh line, which is returned as "".
func (h *exHistory) newer() string {
	if h.pos <= 0 {
		h.pos = -1
		return ""
	}
	h.pos--
	return h.lines[len(h.lines)-1-h.pos]
}

// CommandBar is the one-line prompt for : commands, the open prompt and
// link following.
type CommandBar struct {
	input   textinput.Model
	kind    CommandType
	width   int
	history exHistory
	pages   []string
}

// NewCommandBar returns a closed command bar.
func NewCommandBar() CommandBar {
	in := textinput.New()
	in.CharLimit = 256
	return CommandBar{input: in, history: exHistory{pos: -1}}
}

// SetWidth sets the rendered width.
func (c *CommandBar) SetWidth(w int) {
	c.width = w
	c.input.Width = w - 4
}

// SetPages sets the completions offered by the open prompt.
func (c *CommandBar) SetPages(pages []string) {
	c.pages = pages
}

// Open focuses the bar with an empty line for the given kind of input.
func (c *CommandBar) Open(ct CommandType) tea.Cmd {
	p := prompts[ct]
	c.kind = ct
	c.history.rewind()

	c.input.Reset()
	c.input.Prompt = p.prefix
	c.input.Placeholder = p.placeholder
	c.input.ShowSuggestions = ct == CommandOpen
	if ct == CommandOpen {
		c.input.SetSuggestions(c.pages)
	} else {
		c.input.SetSuggestions(nil)
	}
	return c.input.Focus()
}

// Close blurs and clears the bar.
func (c *CommandBar) Close() {
	c.kind = CommandNone
	c.input.Blur()
	c.input.Reset()
}

// IsActive reports whether the bar is open.
func (c *CommandBar) IsActive() bool {
	return c.kind != CommandNone
}

// SetValue replaces the line and moves the cursor to its end.
func (c *CommandBar) SetValue(val string) {
	c.input.SetValue(val)
	c.input.CursorEnd()
}

// Value returns the text typed so far.
func (c *CommandBar) Value() string {
	return c.input.Value()
}

// Type returns the kind of input the bar is open for.
func (c *CommandBar) Type() CommandType {
	return c.kind
}

// Submit closes the bar and returns the trimmed line. Non-empty : commands
// are remembered for Up/Down.
func (c *CommandBar) Submit() CommandResult {
	res := CommandResult{Type: c.kind, Value: strings.TrimSpace(c.input.Value())}
	if res.Type == CommandEx && res.Value != "" {
		c.history.add(res.Value)
	}
	c.Close()
	return res
}

// Update handles Esc and, for : commands, history recall. Everything else,
// including suggestion cycling in the open prompt, goes to the text input.
func (c *CommandBar) Update(msg tea.Msg) (*CommandBar, tea.Cmd) {
	if !c.IsActive() {
		return c, nil
	}
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEsc:
			c.Close()
			return c, nil
		case tea.KeyEnter:
			// The app reads the result with Submit.
			return c, nil
		}
		if c.kind == CommandEx {
			switch key.Type {
			case tea.KeyUp:
				if line, ok := c.history.older(); ok {
					c.SetValue(line)
				}
				return c, nil
			case tea.KeyDown:
				c.SetValue(c.history.newer())
				return c, nil
			}
		}
	}

	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	return c, cmd
}

// View renders the bar, or nothing when closed.
func (c *CommandBar) View() string {
	if !c.IsActive() {
		return ""
	}
	return lipgloss.NewStyle().
		Foreground(theme.Current.Text).
		Background(theme.Current.Surface).
		Width(c.width).
		Render(c.input.View())
}
