package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rebeliceyang/lazyca/internal/admin"
)

func newTestStore(t *testing.T, maxEntries int) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "history.db"), maxEntries)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_AddAndRecent(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	at := time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)
	if err := s.Add(ctx, Entry{Kind: KindDownload, Endpoint: "/publicapi/certPEM/4/a.pem", TargetID: "4", Status: 200, Success: true, ExecutedAt: at}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := s.RecordAction(ctx, admin.Entry{Kind: "accept", Endpoint: "api/administerRequest", TargetID: "9", Status: 201, ResultID: "4"}); err != nil {
		t.Fatalf("RecordAction failed: %v", err)
	}
	if err := s.RecordAction(ctx, admin.Entry{Kind: "revoke", TargetID: "4", Err: errors.New("action not allowed")}); err != nil {
		t.Fatalf("RecordAction failed: %v", err)
	}

	entries, err := s.GetRecent(ctx, 10)
	if err != nil {
		t.Fatalf("GetRecent failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}
	if entries[0].Kind != "revoke" || entries[0].Success || entries[0].ErrorMessage != "action not allowed" {
		t.Errorf("Unexpected newest entry %+v", entries[0])
	}
	if !entries[2].ExecutedAt.Equal(at) {
		t.Errorf("Expected executed at %v, got %v", at, entries[2].ExecutedAt)
	}

	related, err := s.ForTarget(ctx, "4", 10)
	if err != nil {
		t.Fatalf("ForTarget failed: %v", err)
	}
	if len(related) != 3 {
		t.Errorf("Expected 3 entries touching certificate 4, got %d", len(related))
	}
}

func TestStore_TrimsToMaxEntries(t *testing.T) {
	s := newTestStore(t, 2)
	ctx := context.Background()

	for _, kind := range []string{"a", "b", "c"} {
		if err := s.Add(ctx, Entry{Kind: kind, Success: true}); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	entries, err := s.GetRecent(ctx, 10)
	if err != nil {
		t.Fatalf("GetRecent failed: %v", err)
	}
	if len(entries) != 2 || entries[0].Kind != "c" || entries[1].Kind != "b" {
		t.Errorf("Expected [c b], got %+v", entries)
	}
}
