package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rebeliceyang/lazyca/internal/api"
	"github.com/rebeliceyang/lazyca/internal/datasource"
	"github.com/rebeliceyang/lazyca/internal/listview"
	"github.com/rebeliceyang/lazyca/internal/models"
	"github.com/rebeliceyang/lazyca/internal/persist"
	"github.com/rebeliceyang/lazyca/internal/ui/components"
	"github.com/rs/zerolog"
)

// listState is one of the two list screens: its filters, table and the
// persistence loop that runs while the screen is shown
type listState struct {
	kind       models.ListKind
	controller *listview.Controller
	table      *components.TableView
	loop       *persist.Loop
	columns    []string

	mounted bool
	loading bool
	stop    context.CancelFunc

	page datasource.Page
	sort datasource.Sort

	csrs  []models.CSRView
	certs []models.CertificateView
}

func newListState(kind models.ListKind, app *App, logger zerolog.Logger) *listState {
	endpoint, _ := api.ListEndpoint(kind)

	ls := &listState{
		kind: kind,
		page: datasource.Page{Size: app.config.UI.PageSize, Index: 1},
		sort: datasource.Sort{Column: "id", Direction: datasource.Desc},
	}
	if kind == models.CertList {
		ls.controller = listview.NewCertificateController(endpoint, logger)
		ls.columns = components.CertificateColumns
		ls.table = components.NewTableView(app.theme, "cert")
	} else {
		ls.controller = listview.NewCSRController(endpoint, logger)
		ls.columns = components.CSRColumns
		ls.table = components.NewTableView(app.theme, "csr")
	}
	ls.table.PageSize = ls.page.Size
	ls.table.SortColumn = ls.sort.Column
	ls.table.SortDesc = true
	ls.loop = persist.NewLoop(kind, app.client, ls.controller.Snapshot, app.config.Filters.PersistInterval, logger)
	ls.loop.SetAlerts(app.alerts, app.printer)
	return ls
}

// request returns the table state a fetch is derived from
func (ls *listState) request() datasource.Request {
	return datasource.Request{Page: ls.page, Sort: ls.sort, FilterQuery: ls.controller.AccessQuery()}
}

// setCSRs shows a page of requests
func (ls *listState) setCSRs(result datasource.Result[models.CSRView]) {
	ls.csrs = result.Rows
	ls.table.SetData(ls.columns, components.Cells(result.Rows, ls.columns), components.CSRTones(result.Rows), result.TotalRowCount)
}

// setCertificates shows a page of certificates
func (ls *listState) setCertificates(result datasource.Result[models.CertificateView], now time.Time) {
	ls.certs = result.Rows
	ls.table.SetData(ls.columns, components.Cells(result.Rows, ls.columns), components.CertificateTones(result.Rows, now), result.TotalRowCount)
}

// selectedID returns the id of the selected row
func (ls *listState) selectedID() string {
	row := ls.table.SelectedRow
	if ls.kind == models.CertList {
		if row >= 0 && row < len(ls.certs) {
			return ls.certs[row].RowID()
		}
		return ""
	}
	if row >= 0 && row < len(ls.csrs) {
		return ls.csrs[row].RowID()
	}
	return ""
}

// cycleSort moves the sort to the next column
func (ls *listState) cycleSort() {
	next := ls.columns[0]
	for i, c := range ls.columns {
		if c == ls.sort.Column && i+1 < len(ls.columns) {
			next = ls.columns[i+1]
		}
	}
	ls.sort.Column = next
	ls.table.SortColumn = next
}

// toggleSortDirection flips the sort direction
func (ls *listState) toggleSortDirection() {
	ls.sort.Direction = ls.sort.Direction.Toggle()
	ls.table.SortDesc = ls.sort.Direction == datasource.Desc
}

// turnPage moves by delta pages and reports whether the page changed
func (ls *listState) turnPage(delta int) bool {
	index := ls.page.Index + delta
	if index < 1 || index > ls.table.PageCount() {
		return false
	}
	ls.page.Index = index
	ls.table.PageIndex = index
	return true
}

// firstPage rewinds to the first page after the filters changed
func (ls *listState) firstPage() {
	ls.page.Index = 1
	ls.table.PageIndex = 1
	ls.table.ResetSelection()
}

// start runs the persistence loop until stop is called
func (ls *listState) start(parent context.Context) {
	if ls.stop != nil {
		return
	}
	ctx, cancel := context.WithCancel(parent)
	ls.stop = cancel
	go ls.loop.Run(ctx)
}

// leave stops the loop and returns a final save of pending changes
func (ls *listState) leave(ctx context.Context, logger zerolog.Logger) tea.Cmd {
	if ls.stop == nil {
		return nil
	}
	ls.stop()
	ls.stop = nil

	loop := ls.loop
	return func() tea.Msg {
		if _, err := loop.Tick(ctx); err != nil {
			logger.Warn().Err(err).Str("list", string(ls.kind)).Msg("final filter save failed")
		}
		return nil
	}
}
