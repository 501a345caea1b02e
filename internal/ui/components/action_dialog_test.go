package components

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rebeliceyang/lazyca/internal/admin"
	"github.com/rebeliceyang/lazyca/internal/models"
	"github.com/rebeliceyang/lazyca/internal/ui/theme"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press feeds keys and returns the message of the last command
func press(t *testing.T, d *ActionDialog, keys ...string) tea.Msg {
	t.Helper()
	var msg tea.Msg
	for _, k := range keys {
		var cmd tea.Cmd
		d, cmd = d.Update(key(k))
		msg = nil
		if cmd != nil {
			msg = cmd()
		}
	}
	return msg
}

func TestActionDialog_RejectRequest(t *testing.T) {
	d := NewActionDialog(theme.DefaultTheme())
	d.SetCSR(models.CSR{ID: 7, Subject: "CN=a"}, []admin.Kind{admin.AcceptCSR, admin.RejectCSR})

	press(t, d, "down", "enter")
	if d.currentStep() != stepRejectionReason {
		t.Fatalf("expected rejection reason step, got %s", d.currentStep())
	}
	press(t, d, "weak key", "enter")
	if !strings.Contains(d.View(), "weak key") {
		t.Error("expected reason in confirmation")
	}

	msg := press(t, d, "enter")
	exec, ok := msg.(ExecuteActionMsg)
	if !ok {
		t.Fatalf("expected ExecuteActionMsg, got %T", msg)
	}
	if exec.Action.Kind != admin.RejectCSR || exec.Action.CSRID != 7 || exec.Action.RejectionReason != "weak key" {
		t.Errorf("unexpected action %+v", exec.Action)
	}
}

func TestActionDialog_RevokeCertificate(t *testing.T) {
	d := NewActionDialog(theme.DefaultTheme())
	d.SetCertificate(models.CertificateView{ID: 9, Comment: "old"}, []admin.Kind{admin.RevokeCertificate}, false)

	msg := press(t, d, "enter", "down", "enter", "enter", "enter")
	exec, ok := msg.(ExecuteActionMsg)
	if !ok {
		t.Fatalf("expected ExecuteActionMsg, got %T", msg)
	}
	if exec.Action.CertificateID != 9 {
		t.Errorf("expected certificate 9, got %d", exec.Action.CertificateID)
	}
	if exec.Action.RevocationReason != models.RevocationReasons[1] {
		t.Errorf("expected second reason, got %q", exec.Action.RevocationReason)
	}
	if exec.Action.Comment != "old" {
		t.Errorf("expected comment kept, got %q", exec.Action.Comment)
	}
}

func TestActionDialog_TrustedToggle(t *testing.T) {
	d := NewActionDialog(theme.DefaultTheme())
	d.SetCertificate(models.CertificateView{ID: 3, SelfSigned: true}, []admin.Kind{admin.UpdateCertificate}, true)

	press(t, d, "enter", "enter")
	if d.currentStep() != stepTrusted {
		t.Fatalf("expected trusted step, got %s", d.currentStep())
	}
	msg := press(t, d, " ", "enter", "y")
	exec, ok := msg.(ExecuteActionMsg)
	if !ok {
		t.Fatalf("expected ExecuteActionMsg, got %T", msg)
	}
	if exec.Action.Trusted == nil || !*exec.Action.Trusted {
		t.Errorf("expected trusted=true, got %v", exec.Action.Trusted)
	}
}

func TestActionDialog_EscapeGoesBackThenCloses(t *testing.T) {
	d := NewActionDialog(theme.DefaultTheme())
	d.SetCSR(models.CSR{ID: 1}, []admin.Kind{admin.AcceptCSR})

	press(t, d, "enter")
	if msg := press(t, d, "esc"); msg != nil {
		t.Errorf("expected first esc to step back, got %T", msg)
	}
	if _, ok := press(t, d, "esc").(CloseActionDialogMsg); !ok {
		t.Error("expected second esc to close")
	}
}

func TestActionDialog_NoActions(t *testing.T) {
	d := NewActionDialog(theme.DefaultTheme())
	d.SetCSR(models.CSR{ID: 1}, nil)

	if msg := press(t, d, "enter"); msg != nil {
		t.Errorf("expected no command, got %T", msg)
	}
	if !strings.Contains(d.View(), "No actions available") {
		t.Error("expected empty hint")
	}
}
