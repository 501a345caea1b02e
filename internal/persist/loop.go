package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rebeliceyang/lazyca/internal/alert"
	"github.com/rebeliceyang/lazyca/internal/i18n"
	"github.com/rebeliceyang/lazyca/internal/models"
	"github.com/rs/zerolog"
)

// DefaultInterval is the polling period of the loop
const DefaultInterval = 3 * time.Second

// Saver stores a filter list for the user and returns the response status
type Saver interface {
	PutFilterList(ctx context.Context, kind models.ListKind, list models.FilterList) (int, error)
}

// SnapshotFunc returns the current filter list with list values aligned
type SnapshotFunc func() models.FilterList

// Loop saves the filter state whenever it differs from the last saved one.
// Saves are not serialized: when a previous save is still in flight and a
// tick detects another change, both requests run and the last write wins.
type Loop struct {
	kind     models.ListKind
	saver    Saver
	snapshot SnapshotFunc
	interval time.Duration
	logger   zerolog.Logger
	alerts   alert.Sink
	printer  *i18n.Printer

	mu        sync.Mutex
	lastSaved string
	failing   bool
}

// NewLoop creates a persistence loop for one list
func NewLoop(kind models.ListKind, saver Saver, snapshot SnapshotFunc, interval time.Duration, logger zerolog.Logger) *Loop {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Loop{
		kind:     kind,
		saver:    saver,
		snapshot: snapshot,
		interval: interval,
		logger:   logger.With().Str("component", "persist").Str("list", string(kind)).Logger(),
	}
}

// SetAlerts raises an alert when saving starts failing. Retries of the same
// failure stay quiet until a save succeeds again.
func (l *Loop) SetAlerts(sink alert.Sink, printer *i18n.Printer) {
	l.alerts = sink
	l.printer = printer
}

// MarkSaved records a list as already stored, e.g. right after loading it
func (l *Loop) MarkSaved(list models.FilterList) error {
	data, err := serialize(list)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.lastSaved = data
	l.mu.Unlock()
	return nil
}

// Tick compares the current state with the last saved snapshot and sends one
// save when they differ. It reports whether a save was sent.
func (l *Loop) Tick(ctx context.Context) (bool, error) {
	list := l.snapshot()
	current, err := serialize(list)
	if err != nil {
		return false, err
	}

	l.mu.Lock()
	unchanged := current == l.lastSaved
	l.mu.Unlock()
	if unchanged {
		return false, nil
	}

	l.logger.Debug().Msg("filter change detected")
	status, err := l.saver.PutFilterList(ctx, l.kind, list)
	if err != nil {
		err = fmt.Errorf("failed to save filter list: %w", err)
		l.failed(err)
		return true, err
	}
	if status != http.StatusNoContent {
		l.logger.Warn().Int("status", status).Msg("filter list not saved")
		l.failed(fmt.Errorf("status %d", status))
		return true, nil
	}

	l.mu.Lock()
	l.lastSaved = current
	l.failing = false
	l.mu.Unlock()
	return true, nil
}

func (l *Loop) failed(err error) {
	l.mu.Lock()
	first := !l.failing
	l.failing = true
	l.mu.Unlock()
	if first && l.alerts != nil && l.printer != nil {
		l.alerts.ShowAlert(l.printer.Sprintf(i18n.FilterSaveFailed, err), alert.Warn)
	}
}

// Run ticks until the context is cancelled. Every tick runs in its own
// goroutine so a stalled save never delays change detection.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := l.Tick(ctx); err != nil {
					l.logger.Warn().Err(err).Msg("persist tick failed")
				}
			}()
		}
	}
}

func serialize(list models.FilterList) (string, error) {
	data, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("failed to serialize filter list: %w", err)
	}
	return string(data), nil
}
