package persist

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/rebeliceyang/lazyca/internal/alert"
	"github.com/rebeliceyang/lazyca/internal/i18n"
	"github.com/rebeliceyang/lazyca/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSaver struct {
	mu     sync.Mutex
	calls  []models.FilterList
	status int
	err    error
}

func (f *fakeSaver) PutFilterList(_ context.Context, _ models.ListKind, list models.FilterList) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, list.Clone())
	return f.status, f.err
}

func (f *fakeSaver) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type state struct {
	mu   sync.Mutex
	list models.FilterList
}

func (s *state) get() models.FilterList {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.Clone()
}

func (s *state) set(list models.FilterList) {
	s.mu.Lock()
	s.list = list
	s.mu.Unlock()
}

func pending() models.FilterList {
	return models.FilterList{FilterList: []models.FilterItem{{AttributeName: "status", AttributeValue: "PENDING", Selector: models.SelEqual}}}
}

func TestTick_UnchangedSendsNothing(t *testing.T) {
	saver := &fakeSaver{status: http.StatusNoContent}
	st := &state{list: pending()}
	loop := NewLoop(models.CSRList, saver, st.get, 0, zerolog.Nop())
	require.NoError(t, loop.MarkSaved(st.get()))

	for range 3 {
		sent, err := loop.Tick(context.Background())
		require.NoError(t, err)
		assert.False(t, sent)
	}
	assert.Equal(t, 0, saver.count())
}

func TestTick_OneSavePerChange(t *testing.T) {
	saver := &fakeSaver{status: http.StatusNoContent}
	st := &state{list: pending()}
	loop := NewLoop(models.CSRList, saver, st.get, 0, zerolog.Nop())
	require.NoError(t, loop.MarkSaved(st.get()))

	changed := pending()
	changed.FilterList[0].AttributeValue = "ISSUED"
	st.set(changed)

	sent, err := loop.Tick(context.Background())
	require.NoError(t, err)
	assert.True(t, sent)

	sent, err = loop.Tick(context.Background())
	require.NoError(t, err)
	assert.False(t, sent)

	require.Equal(t, 1, saver.count())
	assert.Equal(t, "ISSUED", saver.calls[0].FilterList[0].AttributeValue)
}

func TestTick_SnapshotOnlyUpdatedOn204(t *testing.T) {
	saver := &fakeSaver{status: http.StatusOK}
	st := &state{list: pending()}
	loop := NewLoop(models.CSRList, saver, st.get, 0, zerolog.Nop())

	_, err := loop.Tick(context.Background())
	require.NoError(t, err)
	_, err = loop.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, saver.count(), "a non-204 save is retried on the next tick")

	saver.status = http.StatusNoContent
	_, _ = loop.Tick(context.Background())
	sent, _ := loop.Tick(context.Background())
	assert.False(t, sent)
	assert.Equal(t, 3, saver.count())
}

func TestTick_ErrorKeepsSnapshot(t *testing.T) {
	saver := &fakeSaver{err: errors.New("timeout")}
	st := &state{list: pending()}
	loop := NewLoop(models.CSRList, saver, st.get, 0, zerolog.Nop())

	_, err := loop.Tick(context.Background())
	assert.Error(t, err)

	saver.err = nil
	saver.status = http.StatusNoContent
	sent, err := loop.Tick(context.Background())
	require.NoError(t, err)
	assert.True(t, sent)
}

func TestRun_StopsOnCancel(t *testing.T) {
	saver := &fakeSaver{status: http.StatusNoContent}
	st := &state{list: pending()}
	loop := NewLoop(models.CSRList, saver, st.get, 10*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return saver.count() >= 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop after cancel")
	}
	assert.Equal(t, 1, saver.count())
}

func TestTick_SaveFailureRaisesOneAlert(t *testing.T) {
	saver := &fakeSaver{err: errors.New("timeout")}
	st := &state{list: pending()}
	alerts := alert.NewStore(10)
	loop := NewLoop(models.CSRList, saver, st.get, 0, zerolog.Nop())
	loop.SetAlerts(alerts, i18n.New("en"))

	_, err := loop.Tick(context.Background())
	assert.Error(t, err)
	_, err = loop.Tick(context.Background())
	assert.Error(t, err)
	require.Len(t, alerts.All(), 1, "retries of the same failure stay quiet")
	assert.Contains(t, alerts.All()[0].Message, "filter list could not be saved")
	assert.Contains(t, alerts.All()[0].Message, "timeout")
	assert.Equal(t, alert.Warn, alerts.All()[0].Level)

	saver.err = nil
	saver.status = http.StatusNoContent
	_, err = loop.Tick(context.Background())
	require.NoError(t, err)

	saver.status = http.StatusInternalServerError
	st.set(models.FilterList{})
	_, err = loop.Tick(context.Background())
	require.NoError(t, err)
	require.Len(t, alerts.All(), 2)
	assert.Contains(t, alerts.All()[1].Message, "status 500")
}
