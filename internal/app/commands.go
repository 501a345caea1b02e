package app

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rebeliceyang/lazyca/internal/admin"
	"github.com/rebeliceyang/lazyca/internal/api"
	"github.com/rebeliceyang/lazyca/internal/auth"
	"github.com/rebeliceyang/lazyca/internal/datasource"
	"github.com/rebeliceyang/lazyca/internal/download"
	"github.com/rebeliceyang/lazyca/internal/history"
	"github.com/rebeliceyang/lazyca/internal/listview"
	"github.com/rebeliceyang/lazyca/internal/models"
	"github.com/rebeliceyang/lazyca/internal/ui/components"
)

// ListMountedMsg is sent when a list view finished its parallel load
type ListMountedMsg struct {
	Kind   models.ListKind
	Result listview.LoadResult
}

// PageLoadedMsg carries one page of a list
type PageLoadedMsg struct {
	Kind  models.ListKind
	CSRs  datasource.Result[models.CSRView]
	Certs datasource.Result[models.CertificateView]
	Err   error
}

// RecomputeTickMsg drives the access URL debounce
type RecomputeTickMsg time.Time

// AccountLoadedMsg is sent when the logged-in account is known
type AccountLoadedMsg struct {
	Account *models.Account
	Err     error
}

// LoggedInMsg is sent when a login attempt completed
type LoggedInMsg struct {
	User     string
	Password string
	Remember bool
	Err      error
}

// DetailLoadedMsg carries the entity opened in a detail screen
type DetailLoadedMsg struct {
	CSR  *models.CSR
	Cert *models.CertificateView
	Err  error
}

// ActionDoneMsg is sent when an administration action completed
type ActionDoneMsg struct {
	Outcome admin.Outcome
	Nav     navTarget
}

// DownloadDoneMsg is sent when a file was written
type DownloadDoneMsg struct {
	Kind     string
	TargetID string
	Path     string
	Err      error
}

// NotificationDoneMsg is sent when a notification trigger returned
type NotificationDoneMsg struct {
	Notification api.Notification
	ID           string
	Problem      models.ProblemDetail
	Err          error
}

// HistoryLoadedMsg carries the recent local history
type HistoryLoadedMsg struct {
	Entries []history.Entry
	Err     error
}

// navTarget is where an action asked to go next
type navTarget struct {
	certificateID string
	back          bool
}

// navIntent records the dispatcher's navigation. The dispatcher runs off the
// UI goroutine, so the move is applied once ActionDoneMsg arrives.
type navIntent struct {
	mu     sync.Mutex
	target navTarget
}

func (n *navIntent) ShowCertificate(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.target.certificateID = id
	// a 201 without an id has no certificate to open
	if id == "" {
		n.target.back = true
	}
}

func (n *navIntent) Back() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.target.back = true
}

func (n *navIntent) get() navTarget {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.target
}

// busyCounter implements admin.BusyIndicator for requests running in commands
type busyCounter struct {
	n atomic.Int32
}

func (b *busyCounter) SetBusy(busy bool) {
	if busy {
		b.n.Add(1)
	} else {
		b.n.Add(-1)
	}
}

func (b *busyCounter) Busy() bool {
	return b.n.Load() > 0
}

func recomputeTick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return RecomputeTickMsg(t)
	})
}

// mountList loads attributes, stored filters, pipelines and UI config
func (a *App) mountList(ls *listState) tea.Cmd {
	ctx := a.ctx
	return func() tea.Msg {
		result := ls.controller.Load(ctx, a.client)
		return ListMountedMsg{Kind: ls.kind, Result: result}
	}
}

// fetchPage loads the current page of a list. Responses are applied in
// arrival order; a slow stale response may overwrite a newer one.
func (a *App) fetchPage(ls *listState) tea.Cmd {
	ctx := a.ctx
	req := ls.request()
	kind := ls.kind
	return func() tea.Msg {
		if kind == models.CertList {
			res, err := a.certSource.Fetch(ctx, req)
			return PageLoadedMsg{Kind: kind, Certs: res, Err: err}
		}
		res, err := a.csrSource.Fetch(ctx, req)
		return PageLoadedMsg{Kind: kind, CSRs: res, Err: err}
	}
}

func (a *App) loadAccount() tea.Cmd {
	ctx := a.ctx
	return func() tea.Msg {
		account, err := a.client.Account(ctx)
		if err != nil && a.client.Token() != "" {
			if fromToken, tokenErr := auth.AccountFromToken(a.client.Token(), time.Now()); tokenErr == nil {
				return AccountLoadedMsg{Account: fromToken}
			}
		}
		return AccountLoadedMsg{Account: account, Err: err}
	}
}

func (a *App) login(msg components.LoginMsg) tea.Cmd {
	ctx := a.ctx
	return func() tea.Msg {
		_, err := a.client.Authenticate(ctx, msg.User, msg.Password)
		return LoggedInMsg{User: msg.User, Password: msg.Password, Remember: msg.Remember, Err: err}
	}
}

func (a *App) loadCSR(id string) tea.Cmd {
	ctx := a.ctx
	return func() tea.Msg {
		csr, err := a.client.CSR(ctx, id)
		return DetailLoadedMsg{CSR: csr, Err: err}
	}
}

func (a *App) loadCertificate(id string) tea.Cmd {
	ctx := a.ctx
	return func() tea.Msg {
		cert, err := a.client.Certificate(ctx, id)
		return DetailLoadedMsg{Cert: cert, Err: err}
	}
}

// dispatch posts an administration action. The dispatcher is built per call
// so its navigation lands in the message instead of racing the UI.
func (a *App) dispatch(action admin.Action) tea.Cmd {
	ctx := a.ctx
	return func() tea.Msg {
		nav := &navIntent{}
		d := admin.NewDispatcher(a.client, nav, a.busy, a.alerts, a.printer, a.recorder(), a.logger)
		outcome := d.Dispatch(ctx, action)
		return ActionDoneMsg{Outcome: outcome, Nav: nav.get()}
	}
}

func (a *App) download(req download.Request, targetID string) tea.Cmd {
	ctx := a.ctx
	return func() tea.Msg {
		a.busy.SetBusy(true)
		defer a.busy.SetBusy(false)
		path, err := a.downloader.Fetch(ctx, req)
		return DownloadDoneMsg{Kind: history.KindDownload, TargetID: targetID, Path: path, Err: err}
	}
}

// exportCSV downloads the list restricted to the propagated filters
func (a *App) exportCSV(ls *listState) tea.Cmd {
	ctx := a.ctx
	kind := ls.kind
	query := ls.controller.AccessQuery()
	return func() tea.Msg {
		a.busy.SetBusy(true)
		defer a.busy.SetBusy(false)
		data, err := a.client.ListCSV(ctx, kind, query, download.CSVColumns)
		if err != nil {
			return DownloadDoneMsg{Kind: history.KindCSVExport, Err: err}
		}
		name := "csrList.csv"
		if kind == models.CertList {
			name = "certList.csv"
		}
		path, err := a.downloader.Save(name, data)
		return DownloadDoneMsg{Kind: history.KindCSVExport, Path: path, Err: err}
	}
}

func (a *App) notify(n api.Notification, id string) tea.Cmd {
	ctx := a.ctx
	return func() tea.Msg {
		a.busy.SetBusy(true)
		defer a.busy.SetBusy(false)
		problem, err := a.client.Notify(ctx, n, id)
		return NotificationDoneMsg{Notification: n, ID: id, Problem: problem, Err: err}
	}
}

func (a *App) loadHistory() tea.Cmd {
	ctx := a.ctx
	store := a.history
	return func() tea.Msg {
		if store == nil {
			return HistoryLoadedMsg{Err: fmt.Errorf("history is disabled")}
		}
		entries, err := store.GetRecent(ctx, 200)
		return HistoryLoadedMsg{Entries: entries, Err: err}
	}
}

// record adds a history entry in the background
func (a *App) record(e history.Entry) tea.Cmd {
	if a.history == nil {
		return nil
	}
	ctx := a.ctx
	store := a.history
	return func() tea.Msg {
		if err := store.Add(ctx, e); err != nil {
			a.logger.Debug().Err(err).Msg("failed to record history")
		}
		return nil
	}
}

func (a *App) recorder() admin.Recorder {
	if a.history == nil {
		return nil
	}
	return a.history
}

func saveCredentials(store *auth.SecretStore, baseURL, user, password string) error {
	if store == nil {
		return nil
	}
	return store.Save(baseURL, user, auth.KindPassword, password)
}
