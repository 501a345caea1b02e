package alert

import (
	"sync"
	"time"
)

// Level is the severity of an alert
type Level string

const (
	Info    Level = "info"
	Success Level = "success"
	Warn    Level = "warn"
	Danger  Level = "danger"
)

// Alert is a user-visible message
type Alert struct {
	ID      int
	Message string
	Level   Level
	Created time.Time
}

// Sink receives alerts
type Sink interface {
	ShowAlert(message string, level Level)
}

// Store keeps the most recent alerts and is shared by all views
type Store struct {
	mu     sync.Mutex
	alerts []Alert
	nextID int
	limit  int
	now    func() time.Time
}

// NewStore creates a store keeping at most limit alerts
func NewStore(limit int) *Store {
	if limit <= 0 {
		limit = 50
	}
	return &Store{limit: limit, now: time.Now}
}

// ShowAlert appends an alert, dropping the oldest beyond the limit
func (s *Store) ShowAlert(message string, level Level) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	s.alerts = append(s.alerts, Alert{ID: s.nextID, Message: message, Level: level, Created: s.now()})
	if len(s.alerts) > s.limit {
		s.alerts = s.alerts[len(s.alerts)-s.limit:]
	}
}

// Latest returns the newest alert not older than maxAge
func (s *Store) Latest(maxAge time.Duration) (Alert, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.alerts) == 0 {
		return Alert{}, false
	}
	a := s.alerts[len(s.alerts)-1]
	if maxAge > 0 && s.now().Sub(a.Created) > maxAge {
		return Alert{}, false
	}
	return a, true
}

// All returns a copy of the stored alerts, oldest first
func (s *Store) All() []Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Alert(nil), s.alerts...)
}

// Dismiss removes an alert by id
func (s *Store) Dismiss(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, a := range s.alerts {
		if a.ID == id {
			s.alerts = append(s.alerts[:i], s.alerts[i+1:]...)
			return
		}
	}
}
