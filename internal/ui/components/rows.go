package components

import (
	"time"

	"github.com/rebeliceyang/lazyca/internal/models"
)

// Column sets shown in the two list views
var (
	CSRColumns = []string{"id", "status", "subject", "sans", "requestedOn", "requestedBy", "pipelineName", "certificateId"}

	CertificateColumns = []string{"id", "subject", "issuer", "serial", "validFrom", "validTo", "type", "keyLength", "revocationReason"}
)

// Row renders its cells by column name
type Row interface {
	Cell(field string) string
}

// Cells renders rows into table cells
func Cells[T Row](rows []T, columns []string) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		cells := make([]string, len(columns))
		for j, col := range columns {
			cells[j] = row.Cell(col)
		}
		out[i] = cells
	}
	return out
}

// CertificateTone colours a certificate row by revocation and expiry
func CertificateTone(c models.CertificateView, now time.Time) Tone {
	if c.Revoked {
		return ToneRevoked
	}
	switch c.Validity(now) {
	case models.ValidityAlarm:
		return ToneAlarm
	case models.ValidityWarn:
		return ToneWarn
	case models.ValidityOK:
		return ToneValid
	}
	return ToneNormal
}

// CertificateTones returns the tones of a page of certificates
func CertificateTones(certs []models.CertificateView, now time.Time) []Tone {
	tones := make([]Tone, len(certs))
	for i, c := range certs {
		tones[i] = CertificateTone(c, now)
	}
	return tones
}

// CSRTones returns the tones of a page of requests
func CSRTones(csrs []models.CSRView) []Tone {
	tones := make([]Tone, len(csrs))
	for i, c := range csrs {
		switch c.Status {
		case models.StatusPending, models.StatusProcessing:
			tones[i] = TonePending
		case models.StatusIssued:
			tones[i] = ToneValid
		case models.StatusRejected:
			tones[i] = ToneRejected
		}
	}
	return tones
}
