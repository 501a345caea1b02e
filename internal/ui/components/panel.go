package components

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/rebeliceyang/lazyca/internal/ui/theme"
)

// Panel frames a screen with a title line
type Panel struct {
	Title   string
	Badge   string
	Content string
	Width   int
	Height  int
	Focused bool
	Theme   theme.Theme
}

// InnerSize returns the space left for content inside the border and title
func (p *Panel) InnerSize() (int, int) {
	return max(p.Width-2, 0), max(p.Height-3, 0)
}

// View renders the panel
func (p *Panel) View() string {
	if p.Width <= 2 || p.Height <= 2 {
		return ""
	}

	border := p.Theme.Border
	if p.Focused {
		border = p.Theme.BorderFocused
	}
	style := lipgloss.NewStyle().
		Width(p.Width - 2).
		Height(p.Height - 2).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border)

	content := p.Content
	if p.Title != "" {
		title := lipgloss.NewStyle().Bold(true).Foreground(border).Padding(0, 1).Render(p.Title)
		if p.Badge != "" {
			title += lipgloss.NewStyle().Foreground(p.Theme.Muted).Render(p.Badge)
		}
		content = title + "\n" + content
	}

	return style.Render(content)
}
