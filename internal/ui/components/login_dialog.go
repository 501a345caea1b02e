package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rebeliceyang/lazyca/internal/ui/theme"
)

// LoginMsg is sent when credentials have been entered
type LoginMsg struct {
	User     string
	Password string
	Remember bool
}

// LoginDialog asks for the backend credentials
type LoginDialog struct {
	Width  int
	Height int
	Theme  theme.Theme
	Server string
	Error  string

	user        textinput.Model
	password    textinput.Model
	remember    bool
	activeField int // 0=user, 1=password, 2=remember
}

// NewLoginDialog creates a login dialog, prefilling the user name
func NewLoginDialog(th theme.Theme, server, user string) *LoginDialog {
	u := textinput.New()
	u.CharLimit = 128
	u.Width = 40
	u.SetValue(user)

	p := textinput.New()
	p.CharLimit = 256
	p.Width = 40
	p.EchoMode = textinput.EchoPassword
	p.EchoCharacter = '*'

	d := &LoginDialog{Width: 60, Height: 14, Theme: th, Server: server, user: u, password: p, remember: true}
	if user == "" {
		d.focus(0)
	} else {
		d.focus(1)
	}
	return d
}

func (d *LoginDialog) focus(field int) {
	d.activeField = field
	d.user.Blur()
	d.password.Blur()
	switch field {
	case 0:
		d.user.Focus()
	case 1:
		d.password.Focus()
	}
}

// Update handles keyboard input
func (d *LoginDialog) Update(msg tea.KeyMsg) (*LoginDialog, tea.Cmd) {
	switch msg.String() {
	case "tab", "down":
		d.focus((d.activeField + 1) % 3)
		return d, nil
	case "shift+tab", "up":
		d.focus((d.activeField + 2) % 3)
		return d, nil
	case " ":
		if d.activeField == 2 {
			d.remember = !d.remember
			return d, nil
		}
	case "enter":
		user := strings.TrimSpace(d.user.Value())
		if user == "" {
			d.Error = "User name is required"
			d.focus(0)
			return d, nil
		}
		if d.password.Value() == "" {
			d.Error = "Password is required"
			d.focus(1)
			return d, nil
		}
		d.Error = ""
		msg := LoginMsg{User: user, Password: d.password.Value(), Remember: d.remember}
		return d, func() tea.Msg { return msg }
	}

	var cmd tea.Cmd
	switch d.activeField {
	case 0:
		d.user, cmd = d.user.Update(msg)
	case 1:
		d.password, cmd = d.password.Update(msg)
	}
	return d, cmd
}

// View renders the login dialog
func (d *LoginDialog) View() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(d.Theme.BorderFocused)
	b.WriteString(titleStyle.Render("Sign in"))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(d.Theme.Muted).Render(d.Server))
	b.WriteString("\n\n")

	prefix := func(i int) string {
		if i == d.activeField {
			return "> "
		}
		return "  "
	}
	remember := "[ ]"
	if d.remember {
		remember = "[x]"
	}

	b.WriteString(fmt.Sprintf("%s%-10s %s\n", prefix(0), "User:", d.user.View()))
	b.WriteString(fmt.Sprintf("%s%-10s %s\n", prefix(1), "Password:", d.password.View()))
	b.WriteString(fmt.Sprintf("%s%s remember in keyring\n", prefix(2), remember))

	if d.Error != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(d.Theme.Error).Bold(true).Render(d.Error))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(d.Theme.Muted).Render("Tab: Navigate | Enter: Sign in | Ctrl+C: Quit"))

	return lipgloss.NewStyle().
		Width(d.Width).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(d.Theme.BorderFocused).
		Padding(1, 2).
		Render(b.String())
}
