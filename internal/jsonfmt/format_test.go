package jsonfmt

import (
	"strings"
	"testing"
)

func TestFormat(t *testing.T) {
	got, err := Format(`{"id":7,"subject":"CN=a"}`)
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	expected := "{\n  \"id\": 7,\n  \"subject\": \"CN=a\"\n}"
	if got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}

	got, err = Format(map[string]int{"a": 1})
	if err != nil || got != "{\n  \"a\": 1\n}" {
		t.Errorf("Unexpected struct formatting %q (%v)", got, err)
	}

	if got, _ := Format(nil); got != "null" {
		t.Errorf("Expected null, got %q", got)
	}

	if _, err := Format("{broken"); err == nil {
		t.Error("Expected error for invalid JSON")
	}
}

func TestCompact(t *testing.T) {
	got, err := Compact([]byte("{\n  \"a\": [1, 2]\n}"))
	if err != nil {
		t.Fatalf("Compact failed: %v", err)
	}
	if got != `{"a":[1,2]}` {
		t.Errorf("Expected compact JSON, got %q", got)
	}
}

func TestHighlight(t *testing.T) {
	src := `{"revoked": true}`
	got := Highlight(src, "monokai")
	if !strings.Contains(got, "revoked") {
		t.Errorf("Expected highlighted text to keep content, got %q", got)
	}
	if got == src {
		t.Error("Expected escape sequences in highlighted output")
	}

	if got := Highlight(src, "no-such-style"); !strings.Contains(got, "revoked") {
		t.Errorf("Expected fallback style, got %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("Expected unchanged string, got %q", got)
	}
	got := Truncate(`{"subject": "CN=very long name", "issuer": "CN=ca"}`, 30)
	if len(got) > 30 || !strings.HasSuffix(got, "...") {
		t.Errorf("Expected at most 30 chars ending in ..., got %q", got)
	}
}
