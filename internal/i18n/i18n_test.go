package i18n

import (
	"errors"
	"testing"
)

func TestPrinter(t *testing.T) {
	err := errors.New("timeout")

	if got := New("en").Sprintf(ProblemProcessing, err); got != "problem processing request: timeout" {
		t.Errorf("Unexpected english message '%s'", got)
	}
	if got := New("de-DE").Sprintf(ProblemProcessing, err); got != "Problem bei der Verarbeitung der Anfrage: timeout" {
		t.Errorf("Unexpected german message '%s'", got)
	}
	if got := New("xx-invalid").Sprintf(ActionNotAllowed); got != "Action not allowed" {
		t.Errorf("Expected english fallback, got '%s'", got)
	}
}
