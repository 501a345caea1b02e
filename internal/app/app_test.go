package app

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
	"github.com/rebeliceyang/lazyca/internal/admin"
	"github.com/rebeliceyang/lazyca/internal/api"
	"github.com/rebeliceyang/lazyca/internal/config"
	"github.com/rebeliceyang/lazyca/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	zone.NewGlobal()
}

type fakeBackend struct {
	mu       sync.Mutex
	csrQuery string
	puts     int
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/csrList", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.csrQuery = r.URL.RawQuery
		f.mu.Unlock()
		w.Header().Set(api.TotalCountHeader, "42")
		_, _ = w.Write([]byte(`[{"id":1,"status":"PENDING","subject":"CN=a"},{"id":2,"status":"ISSUED","subject":"CN=b"}]`))
	})
	mux.HandleFunc("/api/userProperties/filterList/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			f.mu.Lock()
			f.puts++
			f.mu.Unlock()
			w.WriteHeader(http.StatusNoContent)
			return
		}
		http.NotFound(w, r)
	})
	mux.HandleFunc("/api/certificateSelectionAttributes", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`["department"]`))
	})
	mux.HandleFunc("/api/pipeline/getWebPipelines", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":1,"name":"web","type":"WEB"}]`))
	})
	mux.HandleFunc("/api/ui/config", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"cryptoConfigView":{"defaultPBEAlgo":"aes-sha256"}}`))
	})
	mux.HandleFunc("/api/account", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"login":"ra","authorities":["ROLE_USER","ROLE_RA"]}`))
	})
	mux.HandleFunc("/api/csrViews/7", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":7,"status":"PENDING","subject":"CN=x","requestedBy":"user"}`))
	})
	mux.HandleFunc("/api/certificateViews/9", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":9,"subject":"CN=x","issuer":"CN=ca","serial":"0a"}`))
	})
	return mux
}

func (f *fakeBackend) lastQuery() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.csrQuery
}

func newTestApp(t *testing.T) (*App, *fakeBackend) {
	t.Helper()
	backend := &fakeBackend{}
	ts := httptest.NewServer(backend.handler())
	t.Cleanup(ts.Close)

	cfg := config.GetDefaults()
	cfg.Server.BaseURL = ts.URL
	cfg.Downloads.Dir = t.TempDir()

	client, err := api.NewClient(api.Config{BaseURL: ts.URL, Token: "tok", Logger: zerolog.Nop()})
	require.NoError(t, err)

	a := New(Options{Config: cfg, Client: client, Logger: zerolog.Nop()})
	t.Cleanup(a.Close)
	return a, backend
}

// run executes a command and feeds its messages back into the app
func run(t *testing.T, a *App, cmd tea.Cmd) tea.Cmd {
	t.Helper()
	require.NotNil(t, cmd)
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var next []tea.Cmd
		for _, c := range batch {
			if c != nil {
				next = append(next, run(t, a, c))
			}
		}
		return tea.Batch(next...)
	}
	_, next := a.Update(msg)
	return next
}

func TestMountLoadsListAndFetchesFirstPage(t *testing.T) {
	a, backend := newTestApp(t)
	ls := a.lists[models.CSRList]

	next := run(t, a, a.mountList(ls))
	assert.True(t, ls.mounted)
	require.NotNil(t, a.state.UIConfig)
	assert.Equal(t, "aes-sha256", a.state.UIConfig.DefaultPBEAlgo(""))

	run(t, a, next)
	assert.Len(t, ls.table.Rows, 2)
	assert.Equal(t, 42, ls.table.TotalRows)
	assert.Equal(t, "1", ls.selectedID())

	query := backend.lastQuery()
	assert.Contains(t, query, "attributeName_1=status")
	assert.Contains(t, query, "attributeValue_1=PENDING")
	assert.Contains(t, query, "limit=20")
	assert.Contains(t, query, "order=desc")
}

func TestFilterBuilderWaitsForMount(t *testing.T) {
	a, _ := newTestApp(t)
	ls := a.lists[models.CSRList]
	f := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f")}

	a.handleListKey(ls, f)
	assert.NotEqual(t, models.FilterMode, a.state.ViewMode)

	run(t, a, run(t, a, a.mountList(ls)))
	a.handleListKey(ls, f)
	assert.Equal(t, models.FilterMode, a.state.ViewMode)
}

func TestDebounceRefetchesAfterStableChange(t *testing.T) {
	a, _ := newTestApp(t)
	ls := a.lists[models.CSRList]
	run(t, a, run(t, a, a.mountList(ls)))

	ls.controller.AddSelector()
	assert.Nil(t, a.recompute(), "first step only records the change")
	ls.turnPage(1)

	cmd := a.recompute()
	require.NotNil(t, cmd, "second step propagates the change")
	assert.Equal(t, 1, ls.page.Index)
	assert.Nil(t, a.recompute())
}

func TestPagingAndSorting(t *testing.T) {
	a, backend := newTestApp(t)
	ls := a.lists[models.CSRList]
	run(t, a, run(t, a, a.mountList(ls)))

	run(t, a, a.handleListKey(ls, tea.KeyMsg{Type: tea.KeyCtrlD}))
	assert.Equal(t, 2, ls.page.Index)
	assert.Contains(t, backend.lastQuery(), "offset=20")

	run(t, a, a.handleListKey(ls, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")}))
	assert.Equal(t, "status", ls.sort.Column)
	assert.Contains(t, backend.lastQuery(), "sort=status")

	run(t, a, a.handleListKey(ls, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("S")}))
	assert.Contains(t, backend.lastQuery(), "order=asc")
}

func TestDetailNavigation(t *testing.T) {
	a, _ := newTestApp(t)
	ls := a.lists[models.CSRList]
	run(t, a, run(t, a, a.mountList(ls)))
	a.state.Account = &models.Account{Login: "ra", Authorities: []string{"ROLE_RA"}}

	run(t, a, a.openDetail(models.CSRDetailScreen, "7"))
	assert.Equal(t, models.CSRDetailScreen, a.location.screen)
	require.NotNil(t, a.csr)
	assert.Equal(t, int64(7), a.csr.ID)
	assert.NotEmpty(t, a.detail.Actions)
	assert.Nil(t, a.currentList())

	_, cmd := a.Update(ActionDoneMsg{Outcome: admin.Outcome{Status: 201, NewID: "9"}, Nav: navTarget{certificateID: "9"}})
	run(t, a, cmd)
	assert.Equal(t, models.CertDetailScreen, a.location.screen)
	require.NotNil(t, a.cert)
	assert.Len(t, a.navStack, 2)

	a.back()
	assert.Equal(t, models.CSRDetailScreen, a.location.screen)

	_, cmd = a.Update(ActionDoneMsg{Outcome: admin.Outcome{Status: 200}, Nav: navTarget{back: true}})
	assert.NotNil(t, cmd)
	assert.Equal(t, models.CSRListScreen, a.location.screen)
	assert.Empty(t, a.navStack)
}

func TestCreatedWithoutIDFallsBack(t *testing.T) {
	nav := &navIntent{}
	nav.ShowCertificate("")
	assert.Equal(t, navTarget{back: true}, nav.get())

	a, _ := newTestApp(t)
	run(t, a, a.openDetail(models.CSRDetailScreen, "7"))
	_, cmd := a.Update(ActionDoneMsg{Outcome: admin.Outcome{Status: 201}, Nav: nav.get()})
	assert.NotNil(t, cmd)
	assert.Equal(t, models.CSRListScreen, a.location.screen)
	assert.Nil(t, a.cert)
}

func TestListLeaveFlushesFilters(t *testing.T) {
	a, backend := newTestApp(t)
	ls := a.lists[models.CSRList]
	a.location = location{screen: models.CSRListScreen}
	run(t, a, run(t, a, a.mountList(ls)))
	require.NotNil(t, ls.stop)

	ls.controller.AddSelector()
	flush := ls.leave(a.ctx, a.logger)
	require.NotNil(t, flush)
	flush()

	assert.Nil(t, ls.stop)
	backend.mu.Lock()
	defer backend.mu.Unlock()
	assert.Equal(t, 1, backend.puts)
}

func TestCertificatePEM(t *testing.T) {
	der := []byte{0x30, 0x03, 0x02, 0x01, 0x01}
	block, err := certificatePEM(base64.StdEncoding.EncodeToString(der))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(block, "-----BEGIN CERTIFICATE-----\n"))

	_, err = certificatePEM("")
	assert.Error(t, err)
	_, err = certificatePEM("not base64!")
	assert.Error(t, err)
}

func TestFormatStatusBar(t *testing.T) {
	a, _ := newTestApp(t)
	a.state.Width = 30

	got := a.formatStatusBar("left", "right")
	assert.Equal(t, 26, len(got))
	assert.True(t, strings.HasPrefix(got, "left"))
	assert.True(t, strings.HasSuffix(got, "right"))

	got = a.formatStatusBar(strings.Repeat("x", 40), "right")
	assert.True(t, strings.HasSuffix(got, "right"))
}

func TestViewRendersOverlays(t *testing.T) {
	a, _ := newTestApp(t)
	a.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	assert.Contains(t, a.View(), "Requests")

	a.state.ViewMode = models.HelpMode
	assert.Contains(t, a.View(), "Filter")

	a.state.ViewMode = models.LoginMode
	assert.Contains(t, a.View(), "Sign in")
}
