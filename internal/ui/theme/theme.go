package theme

import "github.com/charmbracelet/lipgloss"

// Theme defines the color scheme and styling
type Theme struct {
	Name string

	// Background colors
	Background lipgloss.Color
	Foreground lipgloss.Color

	// UI elements
	Border        lipgloss.Color
	BorderFocused lipgloss.Color
	Selection     lipgloss.Color
	Cursor        lipgloss.Color
	Muted         lipgloss.Color

	// Status colors
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color

	// Table colors
	TableHeader      lipgloss.Color
	TableRowEven     lipgloss.Color
	TableRowOdd      lipgloss.Color
	TableRowSelected lipgloss.Color

	// Certificate validity
	ValidityOK    lipgloss.Color
	ValidityWarn  lipgloss.Color
	ValidityAlarm lipgloss.Color
	Revoked       lipgloss.Color

	// Request status
	StatusPending  lipgloss.Color
	StatusIssued   lipgloss.Color
	StatusRejected lipgloss.Color

	// Detail view JSON highlighting, a chroma style name
	SyntaxStyle string
}

// Names lists the available themes
func Names() []string {
	return []string{"default", "catppuccin-mocha"}
}

// GetTheme returns a theme by name
func GetTheme(name string) Theme {
	switch name {
	case "catppuccin-mocha", "catppuccin":
		return CatppuccinMochaTheme()
	default:
		return DefaultTheme()
	}
}
