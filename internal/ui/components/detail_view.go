package components

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/rebeliceyang/lazyca/internal/jsonfmt"
	"github.com/rebeliceyang/lazyca/internal/models"
	"github.com/rebeliceyang/lazyca/internal/ui/theme"
)

// DetailField is one labelled line of a detail view
type DetailField struct {
	Label string
	Value string
	Tone  Tone
}

// DetailView shows a single request or certificate. It renders either the
// labelled fields or the raw document as highlighted JSON.
type DetailView struct {
	Title   string
	Fields  []DetailField
	Actions []string
	Width   int
	Height  int
	Theme   theme.Theme
	ShowRaw bool

	raw    string
	offset int
}

// NewDetailView creates an empty detail view
func NewDetailView(th theme.Theme) *DetailView {
	return &DetailView{Theme: th}
}

// SetContent replaces what is shown and scrolls to the top
func (dv *DetailView) SetContent(title string, fields []DetailField, document any) {
	dv.Title = title
	dv.Fields = fields
	dv.offset = 0
	raw, err := jsonfmt.Format(document)
	if err != nil {
		raw = err.Error()
	}
	dv.raw = raw
}

// ToggleRaw switches between fields and JSON
func (dv *DetailView) ToggleRaw() {
	dv.ShowRaw = !dv.ShowRaw
	dv.offset = 0
}

// Scroll moves the view by delta lines
func (dv *DetailView) Scroll(delta int) {
	dv.offset = max(min(dv.offset+delta, len(dv.lines())-1), 0)
}

func (dv *DetailView) lines() []string {
	if dv.ShowRaw {
		return strings.Split(jsonfmt.Highlight(dv.raw, dv.Theme.SyntaxStyle), "\n")
	}

	labelWidth := 0
	for _, f := range dv.Fields {
		labelWidth = max(labelWidth, runewidth.StringWidth(f.Label))
	}
	labelStyle := lipgloss.NewStyle().Foreground(dv.Theme.Info).Bold(true)
	valueWidth := max(dv.Width-labelWidth-4, 10)

	var out []string
	for _, f := range dv.Fields {
		if f.Value == "" {
			continue
		}
		value := f.Value
		if runewidth.StringWidth(value) > valueWidth {
			value = runewidth.Truncate(value, valueWidth, "…")
		}
		style := lipgloss.NewStyle().Foreground(dv.Theme.Foreground)
		switch f.Tone {
		case ToneAlarm:
			style = style.Foreground(dv.Theme.ValidityAlarm).Bold(true)
		case ToneWarn:
			style = style.Foreground(dv.Theme.ValidityWarn).Bold(true)
		case ToneValid:
			style = style.Foreground(dv.Theme.ValidityOK)
		case ToneRevoked:
			style = style.Foreground(dv.Theme.Revoked).Strikethrough(true)
		}
		out = append(out, labelStyle.Render(runewidth.FillRight(f.Label, labelWidth))+"  "+style.Render(value))
	}
	return out
}

// View renders the detail view
func (dv *DetailView) View() string {
	titleStyle := lipgloss.NewStyle().
		Foreground(dv.Theme.Foreground).
		Background(dv.Theme.Info).
		Padding(0, 1).
		Bold(true)

	header := titleStyle.Render(dv.Title)
	if len(dv.Actions) > 0 {
		header += "  " + lipgloss.NewStyle().Foreground(dv.Theme.Muted).Render("a: "+strings.Join(dv.Actions, ", "))
	}

	lines := dv.lines()
	visible := max(dv.Height-3, 1)
	end := min(dv.offset+visible, len(lines))
	body := ""
	if dv.offset < end {
		body = strings.Join(lines[dv.offset:end], "\n")
	}

	mode := "j: json"
	if dv.ShowRaw {
		mode = "j: fields"
	}
	footer := lipgloss.NewStyle().Foreground(dv.Theme.Muted).Italic(true).
		Render(fmt.Sprintf(" %d/%d │ %s │ d: download │ y: copy PEM │ Esc: back", min(dv.offset+1, len(lines)), len(lines), mode))

	return lipgloss.NewStyle().Width(dv.Width).Height(dv.Height).
		Render(header + "\n\n" + body + "\n" + footer)
}

// CertificateFields lists the fields shown for a certificate
func CertificateFields(c models.CertificateView, now time.Time) []DetailField {
	validTo := DetailField{Label: "Valid to", Value: models.FormatDate(c.ValidTo)}
	switch c.Validity(now) {
	case models.ValidityAlarm:
		validTo.Tone = ToneAlarm
	case models.ValidityWarn:
		validTo.Tone = ToneWarn
	case models.ValidityOK:
		validTo.Tone = ToneValid
	}

	fields := []DetailField{
		{Label: "Id", Value: strconv.FormatInt(c.ID, 10)},
		{Label: "Subject", Value: c.Subject},
		{Label: "Issuer", Value: c.Issuer},
		{Label: "Serial", Value: c.Serial},
		{Label: "Valid from", Value: models.FormatDate(c.ValidFrom)},
		validTo,
		{Label: "Type", Value: c.Type},
		{Label: "Key", Value: strings.TrimSpace(c.KeyAlgorithm + " " + c.Cell("keyLength"))},
		{Label: "Hash", Value: c.HashAlgorithm},
		{Label: "Padding", Value: c.PaddingAlgorithm},
		{Label: "Fingerprint", Value: c.Fingerprint},
		{Label: "Requested by", Value: c.RequestedBy},
		{Label: "SANs", Value: strings.Join(c.SanArr, ", ")},
		{Label: "Comment", Value: c.Comment},
	}
	if c.CSRID != 0 {
		fields = append(fields, DetailField{Label: "Request", Value: strconv.FormatInt(c.CSRID, 10)})
	}
	if c.SelfSigned {
		fields = append(fields, DetailField{Label: "Trusted", Value: strconv.FormatBool(c.IsTrusted())})
	}
	if c.Revoked {
		fields = append(fields,
			DetailField{Label: "Revoked since", Value: models.FormatDate(c.RevokedSince), Tone: ToneRevoked},
			DetailField{Label: "Reason", Value: c.RevocationReason},
		)
	}
	for _, ar := range c.ArArr {
		fields = append(fields, DetailField{Label: ar.Name, Value: ar.Value})
	}
	return fields
}

// CSRFields lists the fields shown for a request
func CSRFields(c models.CSR) []DetailField {
	fields := []DetailField{
		{Label: "Id", Value: strconv.FormatInt(c.ID, 10)},
		{Label: "Status", Value: c.Status},
		{Label: "Subject", Value: c.Subject},
		{Label: "SANs", Value: strings.Join(c.Sans(), ", ")},
		{Label: "Requested on", Value: models.FormatDate(c.RequestedOn)},
		{Label: "Requested by", Value: c.RequestedBy},
		{Label: "Pipeline type", Value: c.PipelineType},
		{Label: "Key", Value: strings.TrimSpace(c.PublicKeyAlgo + " " + formatKeyLength(c.KeyLength))},
		{Label: "Comment", Value: c.RequestorComment()},
	}
	if c.CertificateID != 0 {
		fields = append(fields, DetailField{Label: "Certificate", Value: strconv.FormatInt(c.CertificateID, 10)})
	}
	if c.Status == models.StatusRejected {
		fields = append(fields,
			DetailField{Label: "Rejected on", Value: models.FormatDate(c.RejectedOn)},
			DetailField{Label: "Reason", Value: c.RejectionReason},
		)
	}
	for _, ar := range c.ArAttributes() {
		fields = append(fields, DetailField{Label: ar.Name, Value: ar.Value})
	}
	return fields
}

func formatKeyLength(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}
