package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rebeliceyang/lazyca/internal/admin"
	"github.com/rebeliceyang/lazyca/internal/models"
	"github.com/rebeliceyang/lazyca/internal/ui/theme"
)

// ExecuteActionMsg is sent when an administration action is confirmed
type ExecuteActionMsg struct {
	Action admin.Action
}

// CloseActionDialogMsg is sent when the dialog should close
type CloseActionDialogMsg struct{}

// Action dialog steps
const (
	stepChoose           = "choose"
	stepRevocationReason = "revocationReason"
	stepRejectionReason  = "rejectionReason"
	stepComment          = "comment"
	stepTrusted          = "trusted"
	stepConfirm          = "confirm"
)

var actionLabels = map[admin.Kind]string{
	admin.AcceptCSR:           "Accept request",
	admin.RejectCSR:           "Reject request",
	admin.UpdateCSR:           "Update request",
	admin.WithdrawCSR:         "Withdraw request",
	admin.UpdateCertificate:   "Update certificate",
	admin.UpdateCRL:           "Update CRL",
	admin.RevokeCertificate:   "Revoke certificate",
	admin.RemoveFromCRL:       "Remove from CRL",
	admin.SelfAdminister:      "Update comment",
	admin.WithdrawCertificate: "Withdraw certificate",
}

// ActionLabel returns the menu label of an action kind
func ActionLabel(k admin.Kind) string {
	if label, ok := actionLabels[k]; ok {
		return label
	}
	return string(k)
}

// ActionDialog collects the input of an administration action
type ActionDialog struct {
	Width  int
	Height int
	Theme  theme.Theme

	kinds     []admin.Kind
	csr       *models.CSR
	cert      *models.CertificateView
	trustable bool

	steps    []string
	step     int
	selected int
	action   admin.Action
	input    textinput.Model
	trusted  bool
}

// NewActionDialog creates a new action dialog
func NewActionDialog(th theme.Theme) *ActionDialog {
	ti := textinput.New()
	ti.CharLimit = 1024
	ti.Width = 50
	return &ActionDialog{Width: 70, Height: 20, Theme: th, input: ti}
}

// SetCSR offers the given actions on a request
func (d *ActionDialog) SetCSR(csr models.CSR, kinds []admin.Kind) {
	d.reset(kinds)
	d.csr = &csr
	d.cert = nil
}

// SetCertificate offers the given actions on a certificate
func (d *ActionDialog) SetCertificate(cert models.CertificateView, kinds []admin.Kind, trustable bool) {
	d.reset(kinds)
	d.cert = &cert
	d.csr = nil
	d.trustable = trustable
	d.trusted = cert.IsTrusted()
}

func (d *ActionDialog) reset(kinds []admin.Kind) {
	d.kinds = kinds
	d.steps = []string{stepChoose}
	d.step = 0
	d.selected = 0
	d.action = admin.Action{}
	d.trustable = false
	d.input.SetValue("")
	d.input.Blur()
}

func (d *ActionDialog) stepsFor(k admin.Kind) []string {
	steps := []string{stepChoose}
	switch k {
	case admin.RejectCSR, admin.WithdrawCSR:
		steps = append(steps, stepRejectionReason)
	case admin.AcceptCSR, admin.UpdateCSR, admin.SelfAdminister:
		steps = append(steps, stepComment)
	case admin.UpdateCertificate:
		steps = append(steps, stepComment)
		if d.trustable {
			steps = append(steps, stepTrusted)
		}
	case admin.RevokeCertificate, admin.WithdrawCertificate:
		steps = append(steps, stepRevocationReason, stepComment)
	}
	return append(steps, stepConfirm)
}

func (d *ActionDialog) currentStep() string {
	return d.steps[d.step]
}

func (d *ActionDialog) enterStep() {
	d.selected = 0
	d.input.Blur()
	switch d.currentStep() {
	case stepRejectionReason:
		d.input.SetValue(d.action.RejectionReason)
		d.input.Placeholder = "reason"
		d.input.Focus()
	case stepComment:
		d.input.SetValue(d.action.Comment)
		d.input.Placeholder = "comment (optional)"
		d.input.Focus()
	}
}

func (d *ActionDialog) next() tea.Cmd {
	if d.step == len(d.steps)-1 {
		action := d.action
		return func() tea.Msg { return ExecuteActionMsg{Action: action} }
	}
	d.step++
	d.enterStep()
	return nil
}

func (d *ActionDialog) back() tea.Cmd {
	if d.step == 0 {
		return func() tea.Msg { return CloseActionDialogMsg{} }
	}
	d.step--
	d.enterStep()
	return nil
}

// Update handles keyboard input
func (d *ActionDialog) Update(msg tea.KeyMsg) (*ActionDialog, tea.Cmd) {
	key := msg.String()
	if key == "esc" {
		return d, d.back()
	}

	switch d.currentStep() {
	case stepChoose:
		switch key {
		case "up", "k":
			d.selected = max(d.selected-1, 0)
		case "down", "j":
			d.selected = min(d.selected+1, len(d.kinds)-1)
		case "enter":
			if len(d.kinds) == 0 {
				return d, nil
			}
			d.choose(d.kinds[d.selected])
			return d, d.next()
		}
	case stepRevocationReason:
		switch key {
		case "up", "k":
			d.selected = max(d.selected-1, 0)
		case "down", "j":
			d.selected = min(d.selected+1, len(models.RevocationReasons)-1)
		case "enter":
			d.action.RevocationReason = models.RevocationReasons[d.selected]
			return d, d.next()
		}
	case stepRejectionReason, stepComment:
		if key == "enter" {
			value := strings.TrimSpace(d.input.Value())
			if d.currentStep() == stepRejectionReason {
				d.action.RejectionReason = value
			} else {
				d.action.Comment = value
			}
			return d, d.next()
		}
		var cmd tea.Cmd
		d.input, cmd = d.input.Update(msg)
		return d, cmd
	case stepTrusted:
		switch key {
		case " ", "space", "t":
			d.trusted = !d.trusted
		case "enter":
			trusted := d.trusted
			d.action.Trusted = &trusted
			return d, d.next()
		}
	case stepConfirm:
		switch key {
		case "enter", "y":
			return d, d.next()
		case "n":
			return d, func() tea.Msg { return CloseActionDialogMsg{} }
		}
	}
	return d, nil
}

func (d *ActionDialog) choose(k admin.Kind) {
	d.action = admin.Action{Kind: k}
	if d.csr != nil {
		d.action.CSRID = d.csr.ID
		d.action.ArAttributes = d.csr.ArAttributes()
	}
	if d.cert != nil {
		d.action.CertificateID = d.cert.ID
		d.action.Comment = d.cert.Comment
		d.action.ArAttributes = d.cert.ArArr
		if d.cert.SelfSigned {
			trusted := d.cert.IsTrusted()
			d.action.Trusted = &trusted
		}
	}
	d.steps = d.stepsFor(k)
}

func (d *ActionDialog) target() string {
	if d.csr != nil {
		return fmt.Sprintf("Request %d: %s", d.csr.ID, d.csr.Subject)
	}
	if d.cert != nil {
		return fmt.Sprintf("Certificate %d: %s", d.cert.ID, d.cert.Subject)
	}
	return ""
}

// View renders the dialog
func (d *ActionDialog) View() string {
	var sections []string

	titleStyle := lipgloss.NewStyle().
		Foreground(d.Theme.Foreground).
		Background(d.Theme.Info).
		Padding(0, 1).
		Bold(true)
	sections = append(sections, titleStyle.Render("Administration"))
	sections = append(sections, lipgloss.NewStyle().Foreground(d.Theme.Muted).Padding(0, 1).Render(d.target()), "")

	choice := func(i int, label string) string {
		style := lipgloss.NewStyle().Padding(0, 1)
		if i == d.selected {
			style = style.Background(d.Theme.Selection).Foreground(d.Theme.Foreground)
		}
		return style.Render(label)
	}

	switch d.currentStep() {
	case stepChoose:
		if len(d.kinds) == 0 {
			sections = append(sections, "No actions available for your account.")
		}
		for i, k := range d.kinds {
			sections = append(sections, choice(i, ActionLabel(k)))
		}
	case stepRevocationReason:
		sections = append(sections, "Revocation reason:")
		for i, r := range models.RevocationReasons {
			sections = append(sections, choice(i, r))
		}
	case stepRejectionReason:
		sections = append(sections, "Rejection reason: "+d.input.View())
	case stepComment:
		sections = append(sections, "Comment: "+d.input.View())
	case stepTrusted:
		mark := "[ ]"
		if d.trusted {
			mark = "[x]"
		}
		sections = append(sections, mark+" trusted (space to toggle)")
	case stepConfirm:
		sections = append(sections, fmt.Sprintf("%s?", ActionLabel(d.action.Kind)))
		if d.action.RevocationReason != "" {
			sections = append(sections, "  reason:  "+d.action.RevocationReason)
		}
		if d.action.RejectionReason != "" {
			sections = append(sections, "  reason:  "+d.action.RejectionReason)
		}
		if d.action.Comment != "" {
			sections = append(sections, "  comment: "+d.action.Comment)
		}
		if d.action.Trusted != nil && d.action.Kind == admin.UpdateCertificate {
			sections = append(sections, fmt.Sprintf("  trusted: %t", *d.action.Trusted))
		}
		sections = append(sections, "", lipgloss.NewStyle().Foreground(d.Theme.Warning).Bold(true).Render("Enter/y: execute  n: cancel"))
	}

	sections = append(sections, "", lipgloss.NewStyle().Foreground(d.Theme.Muted).Italic(true).Render("Esc: back"))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(d.Theme.BorderFocused).
		Width(d.Width).
		Padding(1).
		Render(strings.Join(sections, "\n"))
}
