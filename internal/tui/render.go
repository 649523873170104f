package tui

import (
	"strings"

	markdown "github.com/MichaelMure/go-term-markdown"
	"github.com/charmbracelet/lipgloss"
	gomarkdown "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/parser"

	"contextchat/internal/models"
)

const emptyTranscript = "Your chat will appear here..."

const minRenderWidth = 20

// renderMarkdown turns a bot reply into styled terminal text wrapped to width.
// Plain URLs are left alone so the terminal can make them clickable.
func renderMarkdown(content string, width int) string {
	if width < minRenderWidth {
		width = minRenderWidth
	}
	ext := markdown.Extensions() &^ parser.Autolink
	p := parser.NewWithExtensions(ext)
	doc := p.Parse([]byte(content))
	rendered := gomarkdown.Render(doc, markdown.NewRenderer(width, 0))
	return strings.TrimRight(string(rendered), "\n")
}

// renderTranscript lays out every turn in order, oldest first.
func renderTranscript(turns []models.ChatTurn, width int) string {
	if len(turns) == 0 {
		return DimStyle.Render(emptyTranscript)
	}
	if width < minRenderWidth {
		width = minRenderWidth
	}

	var b strings.Builder
	for i, turn := range turns {
		if i > 0 {
			b.WriteString("\n\n")
		}
		switch turn.Type {
		case models.TurnUser:
			b.WriteString(UserStyle.Render("You"))
			b.WriteString("\n")
			b.WriteString(lipgloss.NewStyle().Width(width).Render(turn.Content))
		default:
			b.WriteString(AssistantStyle.Render("Assistant"))
			b.WriteString("\n")
			b.WriteString(renderMarkdown(turn.Content, width))
		}
	}
	return b.String()
}
