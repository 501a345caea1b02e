package components

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/rebeliceyang/lazyca/internal/alert"
	"github.com/rebeliceyang/lazyca/internal/ui/theme"
)

// RenderAlert renders an alert as a single status line of the given width
func RenderAlert(a alert.Alert, width int, th theme.Theme) string {
	color := th.Info
	icon := "i"
	switch a.Level {
	case alert.Success:
		color, icon = th.Success, "✓"
	case alert.Warn:
		color, icon = th.Warning, "!"
	case alert.Danger:
		color, icon = th.Error, "✗"
	}

	text := icon + " " + a.Message
	if width > 4 && runewidth.StringWidth(text) > width-4 {
		text = runewidth.Truncate(text, width-4, "…")
	}
	return lipgloss.NewStyle().
		Width(width).
		Foreground(lipgloss.Color("0")).
		Background(color).
		Bold(true).
		Padding(0, 2).
		Render(text)
}
