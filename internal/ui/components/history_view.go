package components

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rebeliceyang/lazyca/internal/history"
	"github.com/rebeliceyang/lazyca/internal/ui/theme"
)

// CloseHistoryMsg is sent when the history view should close
type CloseHistoryMsg struct{}

// HistoryView lists the locally recorded actions, newest first
type HistoryView struct {
	Width  int
	Height int
	Theme  theme.Theme

	entries []history.Entry
	offset  int
}

// NewHistoryView creates a new history view
func NewHistoryView(th theme.Theme) *HistoryView {
	return &HistoryView{Width: 90, Height: 24, Theme: th}
}

// SetEntries replaces the listed entries
func (hv *HistoryView) SetEntries(entries []history.Entry) {
	hv.entries = entries
	hv.offset = 0
}

// Update handles keyboard input
func (hv *HistoryView) Update(msg tea.KeyMsg) (*HistoryView, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "H":
		return hv, func() tea.Msg { return CloseHistoryMsg{} }
	case "up", "k":
		hv.offset = max(hv.offset-1, 0)
	case "down", "j":
		hv.offset = max(min(hv.offset+1, len(hv.entries)-hv.visible()), 0)
	}
	return hv, nil
}

func (hv *HistoryView) visible() int {
	return max(hv.Height-6, 1)
}

// View renders the history
func (hv *HistoryView) View() string {
	titleStyle := lipgloss.NewStyle().
		Foreground(hv.Theme.Foreground).
		Background(hv.Theme.Info).
		Padding(0, 1).
		Bold(true)

	lines := []string{titleStyle.Render("Action History"), ""}
	if len(hv.entries) == 0 {
		lines = append(lines, "Nothing recorded yet.")
	}

	end := min(hv.offset+hv.visible(), len(hv.entries))
	for _, e := range hv.entries[hv.offset:end] {
		status := lipgloss.NewStyle().Foreground(hv.Theme.Success).Render("ok")
		if !e.Success {
			status = lipgloss.NewStyle().Foreground(hv.Theme.Error).Render("failed")
		}
		line := fmt.Sprintf("%s  %-20s %-8s %-6s", e.ExecutedAt.Local().Format("2006-01-02 15:04:05"), e.Kind, e.TargetID, status)
		if e.ResultID != "" {
			line += " -> " + e.ResultID
		}
		if e.ErrorMessage != "" {
			line += "  " + lipgloss.NewStyle().Foreground(hv.Theme.Muted).Render(e.ErrorMessage)
		}
		lines = append(lines, line)
	}

	lines = append(lines, "", lipgloss.NewStyle().Foreground(hv.Theme.Muted).Italic(true).Render("↑↓: scroll  Esc: close"))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(hv.Theme.Border).
		Width(hv.Width).
		Height(hv.Height).
		Padding(1).
		Render(strings.Join(lines, "\n"))
}
