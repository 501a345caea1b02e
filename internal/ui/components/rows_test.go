package components

import (
	"testing"
	"time"

	"github.com/rebeliceyang/lazyca/internal/models"
)

func TestCertificateTone(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	from := now.AddDate(-1, 0, 0)

	tests := []struct {
		name string
		cert models.CertificateView
		want Tone
	}{
		{"revoked", models.CertificateView{Revoked: true, ValidFrom: from, ValidTo: now.AddDate(1, 0, 0)}, ToneRevoked},
		{"expires in 5 days", models.CertificateView{ValidFrom: from, ValidTo: now.AddDate(0, 0, 5)}, ToneAlarm},
		{"expires in 20 days", models.CertificateView{ValidFrom: from, ValidTo: now.AddDate(0, 0, 20)}, ToneWarn},
		{"valid", models.CertificateView{ValidFrom: from, ValidTo: now.AddDate(1, 0, 0)}, ToneValid},
		{"expired", models.CertificateView{ValidFrom: from, ValidTo: now.AddDate(0, 0, -1)}, ToneNormal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CertificateTone(tt.cert, now); got != tt.want {
				t.Errorf("expected tone %d, got %d", tt.want, got)
			}
		})
	}
}

func TestCSRTones(t *testing.T) {
	csrs := []models.CSRView{
		{Status: models.StatusPending},
		{Status: models.StatusIssued},
		{Status: models.StatusRejected},
		{Status: "REVOKED"},
	}
	want := []Tone{TonePending, ToneValid, ToneRejected, ToneNormal}

	got := CSRTones(csrs)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d: expected tone %d, got %d", i, want[i], got[i])
		}
	}
}

func TestCells(t *testing.T) {
	csrs := []models.CSRView{{ID: 7, Status: models.StatusIssued, Subject: "CN=a"}}

	cells := Cells(csrs, []string{"id", "status", "subject", "unknown"})
	if len(cells) != 1 {
		t.Fatalf("expected 1 row, got %d", len(cells))
	}
	want := []string{"7", "ISSUED", "CN=a", ""}
	for i, w := range want {
		if cells[0][i] != w {
			t.Errorf("column %d: expected %q, got %q", i, w, cells[0][i])
		}
	}
}
