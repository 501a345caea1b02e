package components

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rebeliceyang/lazyca/internal/api"
	"github.com/rebeliceyang/lazyca/internal/listview"
	"github.com/rebeliceyang/lazyca/internal/models"
	"github.com/rebeliceyang/lazyca/internal/ui/theme"
	"github.com/rs/zerolog"
)

func newTestBuilder() (*FilterBuilder, *listview.Controller) {
	ctrl := listview.NewCSRController(api.CSRListEndpoint, zerolog.Nop())
	fb := NewFilterBuilder(theme.DefaultTheme())
	fb.SetSource(ctrl)
	return fb, ctrl
}

func send(fb *FilterBuilder, keys ...string) tea.Msg {
	var msg tea.Msg
	for _, k := range keys {
		var cmd tea.Cmd
		fb, cmd = fb.Update(key(k))
		msg = nil
		if cmd != nil {
			msg = cmd()
		}
	}
	return msg
}

func TestFilterBuilder_SetValueFromChoices(t *testing.T) {
	fb, ctrl := newTestBuilder()

	send(fb, "v")
	if fb.editMode != "set" {
		t.Fatalf("expected set editor, got %q", fb.editMode)
	}
	send(fb, "down", "enter")

	item := ctrl.Filters().FilterList[0]
	if item.AttributeValue != models.StatusIssued {
		t.Errorf("expected ISSUED, got %q", item.AttributeValue)
	}
	if fb.Editing() {
		t.Error("expected editor closed")
	}
}

func TestFilterBuilder_AddAndChangeAttribute(t *testing.T) {
	fb, ctrl := newTestBuilder()

	send(fb, "a")
	if n := len(ctrl.Filters().FilterList); n != 2 {
		t.Fatalf("expected 2 filters, got %d", n)
	}

	send(fb, "e", "subj", "enter")
	item := ctrl.Filters().FilterList[1]
	if item.AttributeName != "subject" || item.Selector != models.SelLike {
		t.Fatalf("expected subject LIKE, got %+v", item)
	}

	send(fb, "v", "X", "enter")
	if got := ctrl.Filters().FilterList[1].AttributeValue; got != "trustableX" {
		t.Errorf("expected edited value, got %q", got)
	}

	send(fb, "d")
	if n := len(ctrl.Filters().FilterList); n != 1 {
		t.Errorf("expected 1 filter after delete, got %d", n)
	}
	if fb.currentIndex != 0 {
		t.Errorf("expected cursor on remaining filter, got %d", fb.currentIndex)
	}
}

func TestFilterBuilder_UnknownAttribute(t *testing.T) {
	fb, ctrl := newTestBuilder()

	send(fb, "e", "zzz", "enter")
	if fb.validationError == "" {
		t.Error("expected validation error")
	}
	if ctrl.Filters().FilterList[0].AttributeName != "status" {
		t.Error("expected filter unchanged")
	}
	send(fb, "esc")
	if fb.Editing() {
		t.Error("expected editor closed after esc")
	}
}

func TestFilterBuilder_SavePreset(t *testing.T) {
	fb, _ := newTestBuilder()

	send(fb, "P")
	if msg := send(fb, "enter"); msg != nil {
		t.Errorf("expected empty name rejected, got %T", msg)
	}
	msg := send(fb, "mine", "enter")
	save, ok := msg.(SavePresetMsg)
	if !ok || save.Name != "mine" {
		t.Errorf("expected SavePresetMsg{mine}, got %#v", msg)
	}
}

func TestFilterBuilder_SubmitAndClose(t *testing.T) {
	fb, _ := newTestBuilder()

	if _, ok := send(fb, "enter").(SubmitFiltersMsg); !ok {
		t.Error("expected SubmitFiltersMsg")
	}
	if _, ok := send(fb, "esc").(CloseFilterBuilderMsg); !ok {
		t.Error("expected CloseFilterBuilderMsg")
	}
}

func TestValidateValue(t *testing.T) {
	tests := []struct {
		itemType models.ItemType
		value    string
		wantErr  bool
	}{
		{models.TypeNumber, "1, 2,3", false},
		{models.TypeNumber, "1,x", true},
		{models.TypeDate, "2024-05-01", false},
		{models.TypeDate, "01.05.2024", true},
		{models.TypeString, "anything", false},
		{models.TypeDate, "", false},
	}

	for _, tt := range tests {
		err := validateValue(tt.itemType, tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("validateValue(%s, %q): err=%v, wantErr=%v", tt.itemType, tt.value, err, tt.wantErr)
		}
	}
}
