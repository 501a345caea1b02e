package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rebeliceyang/lazyca/internal/api"
	"github.com/rebeliceyang/lazyca/internal/ui/theme"
)

// SendNotificationMsg is sent when a notification trigger is confirmed
type SendNotificationMsg struct {
	Notification api.Notification
	ID           string
}

// CloseNotificationDialogMsg is sent when the dialog should close
type CloseNotificationDialogMsg struct{}

var notificationLabels = map[api.Notification]string{
	api.NotifyUserCertificateIssued:   "Notify requestor: certificate issued",
	api.NotifyUserCertificateRejected: "Notify requestor: request rejected",
	api.NotifyUserCertificateRevoked:  "Notify requestor: certificate revoked",
	api.NotifyRAOfficerOnRequest:      "Notify RA officers: new request",
	api.NotifyExpiryPendingSummary:    "Send expiry summary",
}

// NotificationDialog picks a notification trigger and its target id
type NotificationDialog struct {
	Width int
	Theme theme.Theme

	selected int
	askID    bool
	input    textinput.Model
	err      string
}

// NewNotificationDialog creates a new notification dialog
func NewNotificationDialog(th theme.Theme) *NotificationDialog {
	ti := textinput.New()
	ti.CharLimit = 20
	ti.Width = 20
	return &NotificationDialog{Width: 60, Theme: th, input: ti}
}

// Reset starts over, prefilling the id used by triggers that need one
func (nd *NotificationDialog) Reset(id string) {
	nd.selected = 0
	nd.askID = false
	nd.err = ""
	nd.input.SetValue(id)
	nd.input.Blur()
}

// Update handles keyboard input
func (nd *NotificationDialog) Update(msg tea.KeyMsg) (*NotificationDialog, tea.Cmd) {
	n := nd.current()

	if nd.askID {
		switch msg.String() {
		case "esc":
			nd.askID = false
			nd.input.Blur()
			return nd, nil
		case "enter":
			id := strings.TrimSpace(nd.input.Value())
			if id == "" {
				nd.err = "The " + n.IDKind() + " id is required"
				return nd, nil
			}
			nd.err = ""
			return nd, func() tea.Msg { return SendNotificationMsg{Notification: n, ID: id} }
		}
		var cmd tea.Cmd
		nd.input, cmd = nd.input.Update(msg)
		return nd, cmd
	}

	switch msg.String() {
	case "esc", "q":
		return nd, func() tea.Msg { return CloseNotificationDialogMsg{} }
	case "up", "k":
		nd.selected = max(nd.selected-1, 0)
	case "down", "j":
		nd.selected = min(nd.selected+1, len(api.Notifications)-1)
	case "enter":
		if !n.NeedsID() {
			return nd, func() tea.Msg { return SendNotificationMsg{Notification: n} }
		}
		nd.askID = true
		nd.input.Placeholder = n.IDKind() + " id"
		nd.input.CursorEnd()
		nd.input.Focus()
	}
	return nd, nil
}

// View renders the dialog
func (nd *NotificationDialog) View() string {
	var sections []string

	titleStyle := lipgloss.NewStyle().
		Foreground(nd.Theme.Foreground).
		Background(nd.Theme.Info).
		Padding(0, 1).
		Bold(true)
	sections = append(sections, titleStyle.Render("Notifications"), "")

	for i, n := range api.Notifications {
		style := lipgloss.NewStyle().Padding(0, 1)
		if i == nd.selected {
			style = style.Background(nd.Theme.Selection).Foreground(nd.Theme.Foreground)
		}
		sections = append(sections, style.Render(notificationLabels[n]))
	}

	if nd.askID {
		sections = append(sections, "", nd.current().IDKind()+" id: "+nd.input.View())
	}
	if nd.err != "" {
		sections = append(sections, lipgloss.NewStyle().Foreground(nd.Theme.Error).Bold(true).Render(nd.err))
	}
	sections = append(sections, "", lipgloss.NewStyle().Foreground(nd.Theme.Muted).Italic(true).Render("↑↓: select  Enter: send  Esc: close"))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(nd.Theme.BorderFocused).
		Width(nd.Width).
		Padding(1).
		Render(strings.Join(sections, "\n"))
}

func (nd *NotificationDialog) current() api.Notification {
	return api.Notifications[nd.selected]
}
