package help

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rebeliceyang/lazyca/internal/ui/theme"
)

// KeyBinding represents a keyboard shortcut
type KeyBinding struct {
	Key         string
	Description string
}

// Section is a titled group of key bindings
type Section struct {
	Title string
	Keys  []KeyBinding
}

// GetGlobalKeys returns global key bindings
func GetGlobalKeys() []KeyBinding {
	return []KeyBinding{
		{"?", "Toggle help"},
		{"q, Ctrl+C", "Quit application"},
		{"1 / 2", "Requests / certificates"},
		{"Esc, Backspace", "Back / dismiss"},
		{"H", "Action history"},
		{"N", "Send notification"},
		{"r, F5", "Reload current view"},
	}
}

// GetListKeys returns list view key bindings
func GetListKeys() []KeyBinding {
	return []KeyBinding{
		{"↑/k ↓/j", "Move selection"},
		{"Ctrl+U / Ctrl+D", "Previous / next page"},
		{"Enter", "Open detail"},
		{"s", "Sort by next column"},
		{"S", "Toggle sort direction"},
		{"c", "Copy id"},
		{"x", "Download list as CSV"},
	}
}

// GetFilterKeys returns filter key bindings
func GetFilterKeys() []KeyBinding {
	return []KeyBinding{
		{"f", "Open filter builder"},
		{"a", "Add filter"},
		{"d", "Remove filter"},
		{"Tab", "Next field"},
		{"Space", "Toggle pipeline"},
		{"Enter", "Apply filters now"},
		{"p", "Presets"},
		{"P", "Save filters as preset"},
	}
}

// GetDetailKeys returns detail view key bindings
func GetDetailKeys() []KeyBinding {
	return []KeyBinding{
		{"↑/k ↓/j", "Scroll"},
		{"a", "Administration actions"},
		{"d", "Download certificate / keystore"},
		{"y", "Copy PEM"},
		{"c", "Copy id"},
		{"v", "Toggle raw JSON"},
	}
}

// Sections returns all help sections in display order
func Sections() []Section {
	return []Section{
		{"Global", GetGlobalKeys()},
		{"Lists", GetListKeys()},
		{"Filters", GetFilterKeys()},
		{"Detail", GetDetailKeys()},
	}
}

// Render creates the help view
func Render(width, height int, th theme.Theme) string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(th.BorderFocused).
		Padding(1, 0)

	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(th.Info).
		Padding(0, 0, 0, 2)

	keyStyle := lipgloss.NewStyle().
		Foreground(th.Warning).
		Width(20)

	descStyle := lipgloss.NewStyle().
		Foreground(th.Foreground)

	var b strings.Builder

	b.WriteString(titleStyle.Render("lazyca - Keyboard Shortcuts"))
	b.WriteString("\n\n")

	for _, section := range Sections() {
		b.WriteString(sectionStyle.Render(section.Title))
		b.WriteString("\n")
		for _, kb := range section.Keys {
			b.WriteString("  ")
			b.WriteString(keyStyle.Render(kb.Key))
			b.WriteString(descStyle.Render(kb.Description))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(lipgloss.NewStyle().Faint(true).Render("Press '?' or Esc to close help"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(th.BorderFocused).
		Padding(1, 2).
		Width(max(width-4, 20)).
		Height(max(height-4, 10))

	return boxStyle.Render(b.String())
}
