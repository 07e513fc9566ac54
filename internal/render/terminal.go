package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

// DefaultWidth is the word-wrap width used when none is given.
const DefaultWidth = 100

// Terminal renders markdown for display in a terminal. style is a glamour
// standard style name ("dark", "light", "notty", ...) or "auto".
func Terminal(markdown, style string, width int) (string, error) {
	if strings.TrimSpace(markdown) == "" {
		return "", nil
	}
	if width <= 0 {
		width = DefaultWidth
	}

	styleOpt := glamour.WithAutoStyle()
	if style != "" && style != "auto" {
		styleOpt = glamour.WithStandardStyle(style)
	}
	r, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
	if err != nil {
		return "", fmt.Errorf("creating markdown renderer: %w", err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return out, nil
}
