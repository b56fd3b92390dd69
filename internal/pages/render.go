package pages

import (
	"sync"

	"github.com/charmbracelet/glamour"
)

// Cached glamour renderer; building one is expensive.
var (
	cachedRenderer      *glamour.TermRenderer
	cachedRendererWidth int
	rendererMu          sync.Mutex
)

// renderMarkdownText renders markdown into styled terminal output.
func renderMarkdownText(markdown string, width int) (string, error) {
	rendererMu.Lock()
	defer rendererMu.Unlock()

	if cachedRenderer == nil || cachedRendererWidth != width {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return "", err
		}
		cachedRenderer = renderer
		cachedRendererWidth = width
	}

	return cachedRenderer.Render(markdown)
}

// contentWidth constrains the wrap width for readability.
func contentWidth(width int) int {
	w := width - 4
	if w > 100 {
		w = 100
	}
	if w < 20 {
		w = 20
	}
	return w
}
