package app

import (
	"context"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/mattn/go-runewidth"
	"github.com/rebeliceyang/lazyca/internal/admin"
	"github.com/rebeliceyang/lazyca/internal/alert"
	"github.com/rebeliceyang/lazyca/internal/api"
	"github.com/rebeliceyang/lazyca/internal/auth"
	"github.com/rebeliceyang/lazyca/internal/config"
	"github.com/rebeliceyang/lazyca/internal/datasource"
	"github.com/rebeliceyang/lazyca/internal/download"
	"github.com/rebeliceyang/lazyca/internal/export"
	"github.com/rebeliceyang/lazyca/internal/history"
	"github.com/rebeliceyang/lazyca/internal/i18n"
	"github.com/rebeliceyang/lazyca/internal/models"
	"github.com/rebeliceyang/lazyca/internal/presets"
	"github.com/rebeliceyang/lazyca/internal/ui/components"
	"github.com/rebeliceyang/lazyca/internal/ui/help"
	"github.com/rebeliceyang/lazyca/internal/ui/theme"
	"github.com/rs/zerolog"
)

// alertTTL is how long an alert stays in the bottom bar
const alertTTL = 6 * time.Second

// Options carries what the application is wired with
type Options struct {
	Config  *config.Config
	Client  *api.Client
	Secrets *auth.SecretStore
	Presets *presets.Manager
	History *history.Store
	Logger  zerolog.Logger

	// NeedLogin opens the login dialog before anything is loaded
	NeedLogin bool
}

// location is an entry of the navigation stack
type location struct {
	screen models.Screen
	id     string
}

// App is the main application model
type App struct {
	state   models.AppState
	config  *config.Config
	theme   theme.Theme
	logger  zerolog.Logger
	printer *i18n.Printer
	alerts  *alert.Store
	busy    *busyCounter
	spinner spinner.Model

	ctx    context.Context
	cancel context.CancelFunc

	client     *api.Client
	secrets    *auth.SecretStore
	presets    *presets.Manager
	history    *history.Store
	downloader *download.Downloader
	csrSource  *datasource.Source[models.CSRView]
	certSource *datasource.Source[models.CertificateView]

	lists map[models.ListKind]*listState
	panel components.Panel

	// Detail screen
	location location
	navStack []location
	detail   *components.DetailView
	csr      *models.CSR
	cert     *models.CertificateView

	// Overlays
	filterBuilder      *components.FilterBuilder
	presetsDialog      *components.PresetsDialog
	actionDialog       *components.ActionDialog
	notificationDialog *components.NotificationDialog
	downloadDialog     *components.DownloadDialog
	historyView        *components.HistoryView
	loginDialog        *components.LoginDialog

	started bool
	now     func() time.Time
}

// New creates a new App instance
func New(opts Options) *App {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.GetDefaults()
	}
	th := theme.GetTheme(cfg.UI.Theme)
	ctx, cancel := context.WithCancel(context.Background())

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(th.Warning)

	csrEndpoint, _ := api.ListEndpoint(models.CSRList)
	certEndpoint, _ := api.ListEndpoint(models.CertList)

	a := &App{
		state:              models.NewAppState(),
		config:             cfg,
		theme:              th,
		logger:             opts.Logger.With().Str("component", "app").Logger(),
		printer:            i18n.New(cfg.UI.Language),
		alerts:             alert.NewStore(100),
		busy:               &busyCounter{},
		spinner:            sp,
		ctx:                ctx,
		cancel:             cancel,
		client:             opts.Client,
		secrets:            opts.Secrets,
		presets:            opts.Presets,
		history:            opts.History,
		downloader:         download.New(opts.Client, cfg.Downloads.Dir, opts.Logger),
		csrSource:          datasource.New[models.CSRView](opts.Client, csrEndpoint),
		certSource:         datasource.New[models.CertificateView](opts.Client, certEndpoint),
		panel:              components.Panel{Theme: th, Focused: true},
		detail:             components.NewDetailView(th),
		filterBuilder:      components.NewFilterBuilder(th),
		presetsDialog:      components.NewPresetsDialog(th),
		actionDialog:       components.NewActionDialog(th),
		notificationDialog: components.NewNotificationDialog(th),
		downloadDialog:     components.NewDownloadDialog(th),
		historyView:        components.NewHistoryView(th),
		loginDialog:        components.NewLoginDialog(th, cfg.Server.BaseURL, cfg.Auth.User),
		now:                time.Now,
	}
	a.downloadDialog.Keystore = download.KeystoreOptions{
		Alias:   cfg.Downloads.Alias,
		PBEAlgo: cfg.Downloads.PBEAlgo,
		KeyEx:   cfg.Downloads.KeyEx,
	}
	a.lists = map[models.ListKind]*listState{
		models.CSRList:  newListState(models.CSRList, a, opts.Logger),
		models.CertList: newListState(models.CertList, a, opts.Logger),
	}
	a.location = location{screen: models.CSRListScreen}
	if opts.NeedLogin {
		a.state.ViewMode = models.LoginMode
	}
	a.updatePanelDimensions()
	return a
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	if a.state.ViewMode == models.LoginMode {
		return a.spinner.Tick
	}
	return tea.Batch(a.spinner.Tick, a.start())
}

// start loads the account and the request list once credentials are known
func (a *App) start() tea.Cmd {
	if a.started {
		return nil
	}
	a.started = true
	return tea.Batch(
		a.loadAccount(),
		a.showList(models.CSRList),
		recomputeTick(a.config.Filters.URLRecomputeInterval),
	)
}

// Close stops all background work. It is called after the program exited.
func (a *App) Close() {
	for _, ls := range a.lists {
		if ls.stop != nil {
			ls.stop()
			ls.stop = nil
		}
	}
	a.cancel()
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.state.Width = msg.Width
		a.state.Height = msg.Height
		a.updatePanelDimensions()
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case RecomputeTickMsg:
		return a, tea.Batch(a.recompute(), recomputeTick(a.config.Filters.URLRecomputeInterval))

	case tea.MouseMsg:
		if ls := a.currentList(); ls != nil && a.state.ViewMode == models.NormalMode {
			return a, ls.table.HandleMouse(msg)
		}
		return a, nil

	case components.RowClickedMsg:
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	if cmd, handled := a.handleDialogMsg(msg); handled {
		return a, cmd
	}
	return a, a.handleResultMsg(msg)
}

// recompute runs one debounce step of the visible list
func (a *App) recompute() tea.Cmd {
	ls := a.currentList()
	if ls == nil || !ls.mounted {
		return nil
	}
	changed, err := ls.controller.RecomputeAccessURL()
	if err != nil {
		// incomplete predicates are normal while editing
		a.logger.Debug().Err(err).Msg("filter query not ready")
		return nil
	}
	if !changed {
		return nil
	}
	ls.firstPage()
	return a.fetchPage(ls)
}

func (a *App) handleDialogMsg(msg tea.Msg) (tea.Cmd, bool) {
	switch msg := msg.(type) {
	case components.SubmitFiltersMsg:
		a.state.ViewMode = models.NormalMode
		return a.submitFilters(), true

	case components.CloseFilterBuilderMsg:
		a.state.ViewMode = models.NormalMode
		return nil, true

	case components.SavePresetMsg:
		ls := a.currentList()
		if ls == nil || a.presets == nil {
			return nil, true
		}
		if _, err := a.presets.Add(msg.Name, "", ls.kind, ls.controller.Snapshot(), nil); err != nil {
			a.alerts.ShowAlert(err.Error(), alert.Danger)
			return nil, true
		}
		a.alerts.ShowAlert(a.printer.Sprintf(i18n.PresetSaved, msg.Name), alert.Success)
		return nil, true

	case components.ApplyPresetMsg:
		a.state.ViewMode = models.NormalMode
		return a.applyPreset(msg.Preset), true

	case components.DeletePresetMsg:
		if a.presets != nil {
			if err := a.presets.Delete(msg.ID); err != nil {
				a.alerts.ShowAlert(err.Error(), alert.Danger)
			}
			if ls := a.currentList(); ls != nil {
				a.presetsDialog.SetPresets(a.presets.ForList(ls.kind))
			}
		}
		return nil, true

	case components.ClosePresetsDialogMsg:
		a.state.ViewMode = models.NormalMode
		return nil, true

	case components.ExecuteActionMsg:
		a.state.ViewMode = models.NormalMode
		return a.dispatch(msg.Action), true

	case components.CloseActionDialogMsg:
		a.state.ViewMode = models.NormalMode
		return nil, true

	case components.SendNotificationMsg:
		a.state.ViewMode = models.NormalMode
		return a.notify(msg.Notification, msg.ID), true

	case components.CloseNotificationDialogMsg:
		a.state.ViewMode = models.NormalMode
		return nil, true

	case components.DownloadMsg:
		a.state.ViewMode = models.NormalMode
		return a.download(msg.Request, a.location.id), true

	case components.CloseDownloadDialogMsg:
		a.state.ViewMode = models.NormalMode
		return nil, true

	case components.CloseHistoryMsg:
		a.state.ViewMode = models.NormalMode
		return nil, true

	case components.LoginMsg:
		a.loginDialog.Error = ""
		return a.login(msg), true
	}
	return nil, false
}

func (a *App) handleResultMsg(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case LoggedInMsg:
		if msg.Err != nil {
			if api.IsUnauthorized(msg.Err) {
				a.loginDialog.Error = "Invalid user name or password"
			} else {
				a.loginDialog.Error = msg.Err.Error()
			}
			return nil
		}
		if msg.Remember {
			if err := saveCredentials(a.secrets, a.config.Server.BaseURL, msg.User, msg.Password); err != nil {
				a.logger.Warn().Err(err).Msg("failed to store credentials")
			}
		}
		a.logger.Info().Str("user", msg.User).Msg("logged in")
		a.state.ViewMode = models.NormalMode
		if a.started {
			return tea.Batch(a.loadAccount(), a.reload())
		}
		return a.start()

	case AccountLoadedMsg:
		if msg.Err != nil {
			if api.IsUnauthorized(msg.Err) {
				a.state.ViewMode = models.LoginMode
				return nil
			}
			a.alerts.ShowAlert(a.printer.Sprintf(i18n.LoadFailed, "account", msg.Err), alert.Warn)
			return nil
		}
		a.state.Account = msg.Account
		if msg.Account != nil {
			a.filterBuilder.Login = msg.Account.Login
		}
		return nil

	case ListMountedMsg:
		return a.listMounted(msg)

	case PageLoadedMsg:
		ls := a.lists[msg.Kind]
		if msg.Err != nil {
			a.alerts.ShowAlert(a.printer.Sprintf(i18n.LoadFailed, ls.kind, msg.Err), alert.Danger)
			return nil
		}
		if msg.Kind == models.CertList {
			ls.setCertificates(msg.Certs, a.now())
		} else {
			ls.setCSRs(msg.CSRs)
		}
		return nil

	case DetailLoadedMsg:
		if msg.Err != nil {
			a.alerts.ShowAlert(a.printer.Sprintf(i18n.LoadFailed, a.location.screen, msg.Err), alert.Danger)
			return nil
		}
		a.showDetail(msg)
		return nil

	case ActionDoneMsg:
		switch {
		case msg.Nav.certificateID != "":
			return a.openDetail(models.CertDetailScreen, msg.Nav.certificateID)
		case msg.Nav.back:
			return a.back()
		}
		return nil

	case DownloadDoneMsg:
		entry := history.Entry{Kind: msg.Kind, TargetID: msg.TargetID, ResultID: msg.Path, Success: msg.Err == nil}
		if msg.Err != nil {
			entry.ErrorMessage = msg.Err.Error()
			a.alerts.ShowAlert(a.printer.Sprintf(i18n.ProblemProcessing, msg.Err), alert.Danger)
		} else {
			a.alerts.ShowAlert(a.printer.Sprintf(i18n.Downloaded, msg.Path), alert.Success)
		}
		return a.record(entry)

	case NotificationDoneMsg:
		entry := history.Entry{Kind: history.KindNotification, Endpoint: string(msg.Notification), TargetID: msg.ID}
		switch {
		case msg.Err != nil:
			entry.ErrorMessage = msg.Err.Error()
			a.alerts.ShowAlert(a.printer.Sprintf(i18n.ProblemProcessing, msg.Err), alert.Danger)
		case !msg.Problem.IsEmpty():
			entry.ErrorMessage = msg.Problem.Title
			a.alerts.ShowAlert(a.printer.Sprintf(i18n.ProblemProcessing, msg.Problem.Title), alert.Warn)
		default:
			entry.Success = true
			a.alerts.ShowAlert(a.printer.Sprintf(i18n.NotificationSent, msg.Notification), alert.Success)
		}
		return a.record(entry)

	case HistoryLoadedMsg:
		if msg.Err != nil {
			a.alerts.ShowAlert(a.printer.Sprintf(i18n.LoadFailed, "history", msg.Err), alert.Warn)
			return nil
		}
		a.historyView.SetEntries(msg.Entries)
		a.state.ViewMode = models.HistoryMode
		return nil
	}
	return nil
}

// listMounted applies the load result and starts persisting the filters
func (a *App) listMounted(msg ListMountedMsg) tea.Cmd {
	ls := a.lists[msg.Kind]
	ls.mounted = true
	ls.loading = false

	for part, err := range msg.Result.Errors {
		a.alerts.ShowAlert(a.printer.Sprintf(i18n.LoadFailed, part, err), alert.Warn)
	}
	if cfg := ls.controller.UIConfig(); cfg != nil {
		a.state.UIConfig = cfg
		a.downloadDialog.UIConfig = cfg
	}
	if err := ls.loop.MarkSaved(ls.controller.Snapshot()); err != nil {
		a.logger.Warn().Err(err).Msg("failed to mark loaded filters")
	}
	if _, err := ls.controller.Submit(); err != nil {
		a.alerts.ShowAlert(a.printer.Sprintf(i18n.InvalidFilter, err), alert.Warn)
	}
	ls.firstPage()

	if a.currentList() != ls {
		return nil
	}
	ls.start(a.ctx)
	return a.fetchPage(ls)
}

func (a *App) submitFilters() tea.Cmd {
	ls := a.currentList()
	if ls == nil {
		return nil
	}
	changed, err := ls.controller.Submit()
	if err != nil {
		a.alerts.ShowAlert(a.printer.Sprintf(i18n.InvalidFilter, err), alert.Warn)
		return nil
	}
	if !changed {
		return nil
	}
	ls.firstPage()
	return a.fetchPage(ls)
}

func (a *App) applyPreset(p models.Preset) tea.Cmd {
	ls := a.lists[p.List]
	if ls == nil {
		return nil
	}
	if err := ls.controller.SetFilters(p.Filters); err != nil {
		a.alerts.ShowAlert(a.printer.Sprintf(i18n.InvalidFilter, err), alert.Warn)
		return nil
	}
	if a.presets != nil {
		if err := a.presets.RecordUsage(p.ID); err != nil {
			a.logger.Debug().Err(err).Msg("failed to record preset usage")
		}
	}
	a.alerts.ShowAlert(a.printer.Sprintf(i18n.PresetApplied, p.Name), alert.Info)
	return a.submitFilters()
}

// handleKey routes key presses to the active overlay or screen
func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, a.quit()
	}

	var cmd tea.Cmd
	switch a.state.ViewMode {
	case models.LoginMode:
		if msg.String() == "esc" {
			return a, a.quit()
		}
		a.loginDialog, cmd = a.loginDialog.Update(msg)
		return a, cmd
	case models.HelpMode:
		switch msg.String() {
		case "?", "esc", "q":
			a.state.ViewMode = models.NormalMode
		}
		return a, nil
	case models.FilterMode:
		a.filterBuilder, cmd = a.filterBuilder.Update(msg)
		return a, cmd
	case models.PresetsMode:
		a.presetsDialog, cmd = a.presetsDialog.Update(msg)
		return a, cmd
	case models.ActionMode:
		a.actionDialog, cmd = a.actionDialog.Update(msg)
		return a, cmd
	case models.NotificationMode:
		a.notificationDialog, cmd = a.notificationDialog.Update(msg)
		return a, cmd
	case models.DownloadMode:
		a.downloadDialog, cmd = a.downloadDialog.Update(msg)
		return a, cmd
	case models.HistoryMode:
		a.historyView, cmd = a.historyView.Update(msg)
		return a, cmd
	}

	switch msg.String() {
	case "q":
		return a, a.quit()
	case "?":
		a.state.ViewMode = models.HelpMode
		return a, nil
	case "1":
		return a, a.showList(models.CSRList)
	case "2":
		return a, a.showList(models.CertList)
	case "H":
		return a, a.loadHistory()
	case "N":
		a.notificationDialog.Reset(a.location.id)
		a.state.ViewMode = models.NotificationMode
		return a, nil
	case "r", "f5":
		return a, a.reload()
	}

	if ls := a.currentList(); ls != nil {
		return a, a.handleListKey(ls, msg)
	}
	return a, a.handleDetailKey(msg)
}

func (a *App) handleListKey(ls *listState, msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "up", "k":
		ls.table.MoveSelection(-1)
	case "down", "j":
		ls.table.MoveSelection(1)
	case "ctrl+d", "pgdown":
		if ls.turnPage(1) {
			ls.table.ResetSelection()
			return a.fetchPage(ls)
		}
	case "ctrl+u", "pgup":
		if ls.turnPage(-1) {
			ls.table.ResetSelection()
			return a.fetchPage(ls)
		}
	case "s":
		ls.cycleSort()
		return a.fetchPage(ls)
	case "S":
		ls.toggleSortDirection()
		return a.fetchPage(ls)
	case "enter":
		id := ls.selectedID()
		if id == "" {
			return nil
		}
		if ls.kind == models.CertList {
			return a.openDetail(models.CertDetailScreen, id)
		}
		return a.openDetail(models.CSRDetailScreen, id)
	case "c":
		return a.copyToClipboard("id", ls.selectedID())
	case "x":
		return a.exportCSV(ls)
	case "f":
		if !ls.mounted {
			return nil
		}
		a.filterBuilder.SetSource(ls.controller)
		a.state.ViewMode = models.FilterMode
	case "p":
		if a.presets == nil {
			return nil
		}
		a.presetsDialog.SetPresets(a.presets.ForList(ls.kind))
		a.state.ViewMode = models.PresetsMode
	}
	return nil
}

func (a *App) handleDetailKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc", "backspace":
		return a.back()
	case "up", "k":
		a.detail.Scroll(-1)
	case "down", "j":
		a.detail.Scroll(1)
	case "v":
		a.detail.ToggleRaw()
	case "c":
		return a.copyToClipboard("id", a.location.id)
	case "y":
		if a.cert == nil {
			return nil
		}
		block, err := certificatePEM(a.cert.CertB64)
		if err != nil {
			a.alerts.ShowAlert(a.printer.Sprintf(i18n.ProblemProcessing, err), alert.Warn)
			return nil
		}
		return a.copyToClipboard("PEM", block)
	case "d":
		if a.cert == nil {
			return nil
		}
		a.downloadDialog.SetCertificate(*a.cert)
		a.state.ViewMode = models.DownloadMode
	case "a":
		return a.openActions()
	}
	return nil
}

// openActions offers the actions the account may run on the open entity
func (a *App) openActions() tea.Cmd {
	gate := admin.Gate{Account: a.state.Account}
	var kinds []admin.Kind
	switch {
	case a.cert != nil:
		kinds = gate.CertificateActions(*a.cert)
		a.actionDialog.SetCertificate(*a.cert, kinds, gate.Trustable(*a.cert))
	case a.csr != nil:
		kinds = gate.CSRActions(*a.csr)
		a.actionDialog.SetCSR(*a.csr, kinds)
	default:
		return nil
	}
	if len(kinds) == 0 {
		a.alerts.ShowAlert(a.printer.Sprintf(i18n.ActionNotAllowed), alert.Info)
		return nil
	}
	a.state.ViewMode = models.ActionMode
	return nil
}

func (a *App) copyToClipboard(what, text string) tea.Cmd {
	if text == "" {
		return nil
	}
	if err := clipboard.WriteAll(text); err != nil {
		a.alerts.ShowAlert(a.printer.Sprintf(i18n.ClipboardFailed, err), alert.Warn)
		return nil
	}
	a.alerts.ShowAlert(a.printer.Sprintf(i18n.CopiedToClipboard, what), alert.Info)
	return nil
}

// certificatePEM wraps the base64 DER of a certificate into a PEM block
func certificatePEM(certB64 string) (string, error) {
	der, err := base64.StdEncoding.DecodeString(strings.TrimSpace(certB64))
	if err != nil {
		return "", fmt.Errorf("invalid certificate encoding: %w", err)
	}
	if len(der) == 0 {
		return "", fmt.Errorf("certificate content not available")
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})), nil
}

// currentList returns the list shown, or nil on a detail screen
func (a *App) currentList() *listState {
	switch a.location.screen {
	case models.CSRListScreen:
		return a.lists[models.CSRList]
	case models.CertListScreen:
		return a.lists[models.CertList]
	}
	return nil
}

// showList switches to a list screen. The first visit loads the list's
// filters; the persistence loop only runs while the list is shown.
func (a *App) showList(kind models.ListKind) tea.Cmd {
	var cmds []tea.Cmd
	if current := a.currentList(); current != nil && current.kind != kind {
		cmds = append(cmds, current.leave(a.ctx, a.logger))
	}

	ls := a.lists[kind]
	screen := models.CSRListScreen
	if kind == models.CertList {
		screen = models.CertListScreen
	}
	a.location = location{screen: screen}
	a.navStack = nil
	a.csr, a.cert = nil, nil
	a.state.Screen = screen

	if !ls.mounted {
		if !ls.loading {
			ls.loading = true
			cmds = append(cmds, a.mountList(ls))
		}
		return tea.Batch(cmds...)
	}
	ls.start(a.ctx)
	cmds = append(cmds, a.fetchPage(ls))
	return tea.Batch(cmds...)
}

// openDetail pushes the current location and loads an entity
func (a *App) openDetail(screen models.Screen, id string) tea.Cmd {
	var cmds []tea.Cmd
	if current := a.currentList(); current != nil {
		cmds = append(cmds, current.leave(a.ctx, a.logger))
	}
	a.navStack = append(a.navStack, a.location)
	cmds = append(cmds, a.goTo(location{screen: screen, id: id}))
	return tea.Batch(cmds...)
}

// goTo shows a detail location and starts loading it
func (a *App) goTo(loc location) tea.Cmd {
	a.location = loc
	a.state.Screen = loc.screen
	a.csr, a.cert = nil, nil
	a.detail.SetContent(loc.screen.String()+" "+loc.id, nil, nil)
	if loc.screen == models.CertDetailScreen {
		return a.loadCertificate(loc.id)
	}
	return a.loadCSR(loc.id)
}

// back returns to the previous location
func (a *App) back() tea.Cmd {
	if len(a.navStack) == 0 {
		if a.currentList() != nil {
			return nil
		}
		return a.showList(models.CSRList)
	}
	prev := a.navStack[len(a.navStack)-1]
	a.navStack = a.navStack[:len(a.navStack)-1]

	switch prev.screen {
	case models.CSRListScreen:
		return a.showList(models.CSRList)
	case models.CertListScreen:
		return a.showList(models.CertList)
	}
	return a.goTo(prev)
}

// reload refetches what the current screen shows
func (a *App) reload() tea.Cmd {
	if ls := a.currentList(); ls != nil {
		if !ls.mounted {
			return nil
		}
		return a.fetchPage(ls)
	}
	return a.goTo(a.location)
}

func (a *App) showDetail(msg DetailLoadedMsg) {
	gate := admin.Gate{Account: a.state.Account}
	var kinds []admin.Kind
	switch {
	case msg.Cert != nil:
		a.cert = msg.Cert
		kinds = gate.CertificateActions(*msg.Cert)
		a.detail.SetContent(models.CertDetailScreen.String()+" "+msg.Cert.RowID(), components.CertificateFields(*msg.Cert, a.now()), msg.Cert)
	case msg.CSR != nil:
		a.csr = msg.CSR
		kinds = gate.CSRActions(*msg.CSR)
		a.detail.SetContent(models.CSRDetailScreen.String()+" "+a.location.id, components.CSRFields(*msg.CSR), msg.CSR)
	}
	a.detail.Actions = a.detail.Actions[:0]
	for _, k := range kinds {
		a.detail.Actions = append(a.detail.Actions, components.ActionLabel(k))
	}
}

func (a *App) quit() tea.Cmd {
	if ls := a.currentList(); ls != nil {
		return tea.Sequence(ls.leave(a.ctx, a.logger), tea.Quit)
	}
	return tea.Quit
}

// View implements tea.Model
func (a *App) View() string {
	switch a.state.ViewMode {
	case models.LoginMode:
		return a.place(a.dialogBox(a.loginDialog.View()))
	case models.HelpMode:
		return help.Render(a.state.Width, a.state.Height, a.theme)
	case models.FilterMode:
		a.filterBuilder.Width = min(a.state.Width-4, 100)
		a.filterBuilder.Height = a.state.Height - 4
		return a.place(a.dialogBox(a.filterBuilder.View()))
	case models.PresetsMode:
		return a.place(a.dialogBox(a.presetsDialog.View()))
	case models.ActionMode:
		return a.place(a.dialogBox(a.actionDialog.View()))
	case models.NotificationMode:
		return a.place(a.dialogBox(a.notificationDialog.View()))
	case models.DownloadMode:
		return a.place(a.dialogBox(a.downloadDialog.View()))
	case models.HistoryMode:
		a.historyView.Width = min(a.state.Width-4, 120)
		a.historyView.Height = a.state.Height - 4
		return a.place(a.dialogBox(a.historyView.View()))
	}
	return zone.Scan(a.renderNormalView())
}

func (a *App) place(content string) string {
	return lipgloss.Place(a.state.Width, a.state.Height, lipgloss.Center, lipgloss.Center, content)
}

func (a *App) dialogBox(content string) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(a.theme.BorderFocused).
		Padding(1, 2).
		Render(content)
}

// renderNormalView renders the screen with its top and bottom bars
func (a *App) renderNormalView() string {
	right := a.config.Server.BaseURL
	if a.state.Account != nil {
		right = a.state.Account.Login + " @ " + right
	}
	if a.busy.Busy() {
		right = a.spinner.View() + " " + right
	}
	topBar := lipgloss.NewStyle().
		Width(a.state.Width).
		Background(a.theme.BorderFocused).
		Foreground(lipgloss.Color("230")).
		Padding(0, 2).
		Render(a.formatStatusBar("lazyca │ "+a.location.screen.String(), right))

	innerWidth, innerHeight := a.panel.InnerSize()
	if ls := a.currentList(); ls != nil {
		a.panel.Title = a.location.screen.String()
		a.panel.Badge = ""
		if terms := export.FormatFilters(ls.controller.Filters()); terms != "" {
			a.panel.Badge = " " + runewidth.Truncate(terms, max(innerWidth-20, 0), "…")
		}
		ls.table.Width = innerWidth
		ls.table.Height = innerHeight
		a.panel.Content = ls.table.View()
	} else {
		a.panel.Title = ""
		a.panel.Badge = ""
		a.detail.Width = innerWidth
		a.detail.Height = innerHeight + 1
		a.panel.Content = a.detail.View()
	}

	var bottomBar string
	if latest, ok := a.alerts.Latest(alertTTL); ok {
		bottomBar = components.RenderAlert(latest, a.state.Width, a.theme)
	} else {
		bottomBar = lipgloss.NewStyle().
			Width(a.state.Width).
			Background(a.theme.Selection).
			Foreground(a.theme.Foreground).
			Padding(0, 2).
			Render(a.formatStatusBar(a.keyHints(), "? Help"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, topBar, a.panel.View(), bottomBar)
}

func (a *App) keyHints() string {
	if a.currentList() != nil {
		return "enter Open │ f Filter │ p Presets │ s Sort │ x CSV │ 1/2 Lists │ q Quit"
	}
	return "esc Back │ a Actions │ d Download │ y PEM │ v Raw │ q Quit"
}

// updatePanelDimensions calculates the panel size from the window size
func (a *App) updatePanelDimensions() {
	if a.state.Width <= 0 || a.state.Height <= 0 {
		return
	}
	// top and bottom bar take one line each
	a.panel.Width = a.state.Width
	a.panel.Height = max(a.state.Height-2, 5)
}

// formatStatusBar formats a status bar with left and right aligned content
func (a *App) formatStatusBar(left, right string) string {
	availableWidth := max(a.state.Width-4, 0)

	leftLen := runewidth.StringWidth(left)
	rightLen := runewidth.StringWidth(right)

	if leftLen+rightLen > availableWidth {
		if availableWidth > rightLen {
			return runewidth.Truncate(left, availableWidth-rightLen, "") + right
		}
		return runewidth.Truncate(left, availableWidth, "")
	}

	spacing := availableWidth - leftLen - rightLen
	return left + strings.Repeat(" ", spacing) + right
}
