package components

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rebeliceyang/lazyca/internal/download"
	"github.com/rebeliceyang/lazyca/internal/models"
	"github.com/rebeliceyang/lazyca/internal/ui/theme"
)

// DownloadMsg is sent when a download has been chosen
type DownloadMsg struct {
	Request download.Request
}

// CloseDownloadDialogMsg is sent when the dialog should close
type CloseDownloadDialogMsg struct{}

type downloadChoice struct {
	label    string
	format   download.Format
	keystore download.KeystoreType
}

var formatLabels = map[download.Format]string{
	download.PKIX:    "Certificate (DER, .crt)",
	download.PEM:     "Certificate (PEM)",
	download.PEMPart: "Certificate chain without root (PEM)",
	download.PEMFull: "Full certificate chain (PEM)",
}

// DownloadDialog offers the download formats of a certificate
type DownloadDialog struct {
	Width int
	Theme theme.Theme

	// Keystore defaults
	Keystore download.KeystoreOptions
	UIConfig *models.UIConfig

	cert     models.CertificateView
	choices  []downloadChoice
	selected int
	err      string
}

// NewDownloadDialog creates a new download dialog
func NewDownloadDialog(th theme.Theme) *DownloadDialog {
	return &DownloadDialog{Width: 60, Theme: th}
}

// SetCertificate lists the downloads available for a certificate.
// Keystores are only offered for server-generated keys.
func (dd *DownloadDialog) SetCertificate(cert models.CertificateView) {
	dd.cert = cert
	dd.selected = 0
	dd.err = ""
	dd.choices = dd.choices[:0]
	for _, f := range download.Formats {
		dd.choices = append(dd.choices, downloadChoice{label: formatLabels[f], format: f})
	}
	if cert.ServersideKeyGen {
		dd.choices = append(dd.choices,
			downloadChoice{label: "Keystore (PKCS#12, .p12)", keystore: download.P12},
			downloadChoice{label: "Keystore (Java, .jks)", keystore: download.JKS},
		)
	}
}

// Update handles keyboard input
func (dd *DownloadDialog) Update(msg tea.KeyMsg) (*DownloadDialog, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		return dd, func() tea.Msg { return CloseDownloadDialogMsg{} }
	case "up", "k":
		dd.selected = max(dd.selected-1, 0)
	case "down", "j":
		dd.selected = min(dd.selected+1, len(dd.choices)-1)
	case "x":
		dd.Keystore.KeyEx = !dd.Keystore.KeyEx
	case "enter":
		if dd.selected >= len(dd.choices) {
			return dd, nil
		}
		req, err := dd.request(dd.choices[dd.selected])
		if err != nil {
			dd.err = err.Error()
			return dd, nil
		}
		return dd, func() tea.Msg { return DownloadMsg{Request: req} }
	}
	return dd, nil
}

func (dd *DownloadDialog) request(c downloadChoice) (download.Request, error) {
	if c.keystore != "" {
		opts := dd.Keystore
		opts.Type = c.keystore
		return download.KeystoreRequest(dd.cert, opts, dd.UIConfig)
	}
	return download.CertificateRequest(dd.cert, c.format)
}

// View renders the dialog
func (dd *DownloadDialog) View() string {
	var sections []string

	titleStyle := lipgloss.NewStyle().
		Foreground(dd.Theme.Foreground).
		Background(dd.Theme.Info).
		Padding(0, 1).
		Bold(true)
	sections = append(sections, titleStyle.Render("Download"), "")

	for i, c := range dd.choices {
		style := lipgloss.NewStyle().Padding(0, 1)
		if i == dd.selected {
			style = style.Background(dd.Theme.Selection).Foreground(dd.Theme.Foreground)
		}
		sections = append(sections, style.Render(c.label))
	}

	if dd.cert.ServersideKeyGen {
		keyEx := "off"
		if dd.Keystore.KeyEx {
			keyEx = "on"
		}
		pbe := dd.Keystore.PBEAlgo
		if pbe == "" {
			pbe = dd.UIConfig.DefaultPBEAlgo(download.DefaultPBEAlgo)
		}
		sections = append(sections, "", lipgloss.NewStyle().Foreground(dd.Theme.Muted).
			Render("keystore: pbe "+pbe+", key exchange "+keyEx+" (x toggles)"))
	}
	if dd.err != "" {
		sections = append(sections, lipgloss.NewStyle().Foreground(dd.Theme.Error).Bold(true).Render(dd.err))
	}
	sections = append(sections, "", lipgloss.NewStyle().Foreground(dd.Theme.Muted).Italic(true).Render("↑↓: select  Enter: download  Esc: close"))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dd.Theme.BorderFocused).
		Width(dd.Width).
		Padding(1).
		Render(strings.Join(sections, "\n"))
}
