package alert

import (
	"testing"
	"time"
)

func TestStore_Latest(t *testing.T) {
	s := NewStore(2)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	if _, ok := s.Latest(0); ok {
		t.Error("Expected no alert in empty store")
	}

	s.ShowAlert("first", Info)
	s.ShowAlert("second", Warn)
	s.ShowAlert("third", Danger)

	all := s.All()
	if len(all) != 2 || all[0].Message != "second" {
		t.Errorf("Expected oldest alert dropped, got %+v", all)
	}

	a, ok := s.Latest(time.Minute)
	if !ok || a.Message != "third" || a.Level != Danger {
		t.Errorf("Unexpected latest alert %+v", a)
	}

	now = now.Add(2 * time.Minute)
	if _, ok := s.Latest(time.Minute); ok {
		t.Error("Expected expired alert to be hidden")
	}
}

func TestStore_Dismiss(t *testing.T) {
	s := NewStore(10)
	s.ShowAlert("a", Info)
	s.ShowAlert("b", Info)

	s.Dismiss(s.All()[0].ID)

	all := s.All()
	if len(all) != 1 || all[0].Message != "b" {
		t.Errorf("Expected only 'b' left, got %+v", all)
	}
}
