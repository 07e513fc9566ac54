package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/TobiSchelling/LitReview/internal/chat"
)

var (
	userLabel      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#1d4ed8", Dark: "#60a5fa"})
	assistantLabel = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#047857", Dark: "#34d399"})
	systemText     = lipgloss.NewStyle().Italic(true).Faint(true)
	refsText       = lipgloss.NewStyle().Faint(true)
	body           = lipgloss.NewStyle().PaddingLeft(2)
)

// Message formats one transcript entry.
func Message(m chat.Message, width int) string {
	if width <= 0 {
		width = DefaultWidth
	}
	content := strings.TrimSpace(m.Content)

	switch m.Role {
	case chat.RoleSystem:
		return systemText.Render(content)
	case chat.RoleUser:
		return userLabel.Render("You") + "\n" + body.Width(width).Render(content)
	}

	out := assistantLabel.Render("Assistant") + "\n" + body.Width(width).Render(content)
	if len(m.ReferencedPaperIDs) > 0 {
		out += "\n" + body.Render(refsText.Render("papers: "+strings.Join(m.ReferencedPaperIDs, ", ")))
	}
	return out
}

// Transcript formats a whole conversation, one blank line between entries.
func Transcript(msgs []chat.Message, width int) string {
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		parts = append(parts, Message(m, width))
	}
	return strings.Join(parts, "\n\n")
}
