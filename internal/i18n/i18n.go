package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Message keys
const (
	ProblemProcessing = "problem processing request: %v"
	ActionNotAllowed  = "Action not allowed"
	FilterSaveFailed  = "filter list could not be saved: %v"
	LoadFailed        = "loading %s failed: %v"
	Downloaded        = "saved %s"
	NotificationSent  = "notification %s sent"
	CopiedToClipboard = "copied %s to clipboard"
	ClipboardFailed   = "clipboard unavailable: %v"
	PresetSaved       = "preset %q saved"
	PresetApplied     = "preset %q applied"
	InvalidFilter     = "invalid filter: %v"
)

var translations = map[language.Tag]map[string]string{
	language.German: {
		ProblemProcessing: "Problem bei der Verarbeitung der Anfrage: %v",
		ActionNotAllowed:  "Aktion nicht erlaubt",
		FilterSaveFailed:  "Filterliste konnte nicht gespeichert werden: %v",
		LoadFailed:        "Laden von %s fehlgeschlagen: %v",
		Downloaded:        "%s gespeichert",
		NotificationSent:  "Benachrichtigung %s gesendet",
		CopiedToClipboard: "%s in die Zwischenablage kopiert",
		ClipboardFailed:   "Zwischenablage nicht verfügbar: %v",
		PresetSaved:       "Vorlage %q gespeichert",
		PresetApplied:     "Vorlage %q angewendet",
		InvalidFilter:     "ungültiger Filter: %v",
	},
}

func init() {
	for tag, msgs := range translations {
		for key, msg := range msgs {
			_ = message.SetString(tag, key, msg)
		}
	}
}

// Printer formats translated messages
type Printer struct {
	p *message.Printer
}

// New returns a printer for a language such as "en" or "de".
// Unknown languages fall back to English.
func New(lang string) *Printer {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.English
	}
	matcher := language.NewMatcher([]language.Tag{language.English, language.German})
	_, idx, _ := matcher.Match(tag)
	if idx == 1 {
		tag = language.German
	} else {
		tag = language.English
	}
	return &Printer{p: message.NewPrinter(tag)}
}

// Sprintf formats a message key in the printer's language
func (p *Printer) Sprintf(key string, args ...any) string {
	return p.p.Sprintf(key, args...)
}
