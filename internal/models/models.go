package models

// AppState holds the application state
type AppState struct {
	Width    int
	Height   int
	Screen   Screen
	ViewMode ViewMode

	// Logged-in account, nil until loaded
	Account *Account

	// Backend UI configuration, nil until loaded
	UIConfig *UIConfig
}

// Screen identifies the main screen
type Screen int

const (
	CSRListScreen Screen = iota
	CertListScreen
	CSRDetailScreen
	CertDetailScreen
)

// String returns the screen title
func (s Screen) String() string {
	switch s {
	case CSRListScreen:
		return "Requests"
	case CertListScreen:
		return "Certificates"
	case CSRDetailScreen:
		return "Request"
	case CertDetailScreen:
		return "Certificate"
	}
	return ""
}

// ViewMode identifies overlays drawn above the current screen
type ViewMode int

const (
	NormalMode ViewMode = iota
	HelpMode
	FilterMode
	NotificationMode
	DownloadMode
	HistoryMode
	ActionMode
	PresetsMode
	LoginMode
)

// NewAppState creates a new AppState with defaults
func NewAppState() AppState {
	return AppState{
		Width:    80,
		Height:   24,
		Screen:   CSRListScreen,
		ViewMode: NormalMode,
	}
}

// ListKind identifies one of the two filterable lists
type ListKind string

const (
	CSRList  ListKind = "CSRList"
	CertList ListKind = "CertList"
)
