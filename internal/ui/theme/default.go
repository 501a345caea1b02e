package theme

import "github.com/charmbracelet/lipgloss"

// DefaultTheme returns the default dark theme
func DefaultTheme() Theme {
	return Theme{
		Name: "default",

		// Background colors
		Background: lipgloss.Color("235"),
		Foreground: lipgloss.Color("252"),

		// UI elements
		Border:        lipgloss.Color("240"),
		BorderFocused: lipgloss.Color("62"),
		Selection:     lipgloss.Color("25"),
		Cursor:        lipgloss.Color("248"),
		Muted:         lipgloss.Color("245"),

		// Status colors
		Success: lipgloss.Color("42"),
		Warning: lipgloss.Color("220"),
		Error:   lipgloss.Color("196"),
		Info:    lipgloss.Color("75"),

		// Table colors
		TableHeader:      lipgloss.Color("105"),
		TableRowEven:     lipgloss.Color("235"),
		TableRowOdd:      lipgloss.Color("236"),
		TableRowSelected: lipgloss.Color("25"),

		ValidityOK:    lipgloss.Color("42"),
		ValidityWarn:  lipgloss.Color("214"),
		ValidityAlarm: lipgloss.Color("196"),
		Revoked:       lipgloss.Color("244"),

		StatusPending:  lipgloss.Color("75"),
		StatusIssued:   lipgloss.Color("42"),
		StatusRejected: lipgloss.Color("203"),

		SyntaxStyle: "monokai",
	}
}
