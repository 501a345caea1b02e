package filter

import (
	"strings"
	"testing"
	"time"

	"github.com/rebeliceyang/lazyca/internal/models"
)

func TestGetSelectorsForType(t *testing.T) {
	tests := []struct {
		itemType models.ItemType
		expected []models.Selector
	}{
		{models.TypeDate, []models.Selector{models.SelOn, models.SelBefore, models.SelAfter}},
		{models.TypeBoolean, []models.Selector{models.SelIsTrue, models.SelIsFalse}},
		{models.TypePipelineList, []models.Selector{models.SelIn, models.SelNotIn}},
		{models.TypeSet, []models.Selector{models.SelEqual, models.SelNotEqual}},
	}

	for _, tt := range tests {
		got := GetSelectorsForType(tt.itemType)
		if len(got) != len(tt.expected) {
			t.Errorf("%s: expected %v, got %v", tt.itemType, tt.expected, got)
			continue
		}
		for i := range got {
			if got[i] != tt.expected[i] {
				t.Errorf("%s: expected %v, got %v", tt.itemType, tt.expected, got)
				break
			}
		}
	}

	if got := GetSelectorsForType("unknown"); got != nil {
		t.Errorf("Expected nil for unknown type, got %v", got)
	}
}

func TestCatalog_SelectorChoices(t *testing.T) {
	c := NewCSRCatalog()

	got := c.SelectorChoices("requestedOn")
	if len(got) != 3 || got[0] != models.SelOn || got[1] != models.SelBefore || got[2] != models.SelAfter {
		t.Errorf("Expected [ON BEFORE AFTER], got %v", got)
	}
	if !c.HasValue("requestedOn") {
		t.Error("Expected date attribute to take a value")
	}

	got = c.SelectorChoices("isAdministrable")
	if len(got) != 2 || got[0] != models.SelIsTrue || got[1] != models.SelIsFalse {
		t.Errorf("Expected [ISTRUE ISFALSE], got %v", got)
	}
	if c.HasValue("isAdministrable") {
		t.Error("Expected boolean attribute without value input")
	}

	if got := c.SelectorChoices("nope"); len(got) != 0 {
		t.Errorf("Expected no choices for unknown attribute, got %v", got)
	}
}

func TestCatalog_MergeAttributes(t *testing.T) {
	c := NewCSRCatalog()
	before := len(c.Items())

	c.MergeAttributes([]string{"department", "status", "", "costCenter"})

	if len(c.Items()) != before+2 {
		t.Fatalf("Expected %d items, got %d", before+2, len(c.Items()))
	}
	item, ok := c.Find("department")
	if !ok {
		t.Fatal("Expected merged attribute 'department'")
	}
	if item.ItemType != models.TypeString || item.ItemDefaultSelector != models.SelEqual || item.ItemDefaultValue != "X" {
		t.Errorf("Unexpected merged item %+v", item)
	}
	if c.Items()[len(c.Items())-1].ItemName != "costCenter" {
		t.Error("Expected merged attributes appended in order")
	}
}

func TestCatalog_Validate(t *testing.T) {
	c := NewCSRCatalog()

	valid := models.FilterList{FilterList: []models.FilterItem{
		{AttributeName: "status", AttributeValue: "ISSUED", Selector: models.SelEqual},
		{AttributeName: "requestedOn", AttributeValue: "2024-01-01", Selector: models.SelBefore},
	}}
	if err := c.Validate(valid); err != nil {
		t.Errorf("Expected valid list, got %v", err)
	}

	unknown := models.FilterList{FilterList: []models.FilterItem{{AttributeName: "color", Selector: models.SelEqual}}}
	if err := c.Validate(unknown); err == nil || !strings.Contains(err.Error(), "unknown attribute") {
		t.Errorf("Expected unknown attribute error, got %v", err)
	}

	badSelector := models.FilterList{FilterList: []models.FilterItem{{AttributeName: "requestedOn", Selector: models.SelLike}}}
	if err := c.Validate(badSelector); err == nil {
		t.Error("Expected selector error for LIKE on date")
	}

	badValue := models.FilterList{FilterList: []models.FilterItem{{AttributeName: "status", AttributeValue: "LOST", Selector: models.SelEqual}}}
	if err := c.Validate(badValue); err == nil {
		t.Error("Expected error for value outside the set")
	}
}

func TestCatalog_NewItem(t *testing.T) {
	c := NewCSRCatalog()
	now := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

	item, err := c.NewItem("requestedBy", now, "alice")
	if err != nil {
		t.Fatalf("NewItem failed: %v", err)
	}
	if item.AttributeValue != "alice" || item.Selector != models.SelEqual {
		t.Errorf("Unexpected item %+v", item)
	}

	item, _ = c.NewItem("requestedOn", now, "alice")
	if item.AttributeValue != "2024-03-05" || item.Selector != models.SelAfter {
		t.Errorf("Unexpected item %+v", item)
	}

	item, _ = c.NewItem("id", now, "alice")
	if item.Selector != models.SelEqual {
		t.Errorf("Expected first number selector for missing default, got %s", item.Selector)
	}

	item, _ = c.NewItem("pipelineId", now, "alice")
	if item.AttributeValueArr == nil || item.AttributeValue != "" {
		t.Errorf("Expected empty multi-select, got %+v", item)
	}

	if _, err := c.NewItem("nope", now, "alice"); err == nil {
		t.Error("Expected error for unknown attribute")
	}
}

func TestCatalog_DefaultList(t *testing.T) {
	list := NewCSRCatalog().DefaultList()
	if len(list.FilterList) != 1 {
		t.Fatalf("Expected one default filter, got %d", len(list.FilterList))
	}
	fi := list.FilterList[0]
	if fi.AttributeName != "status" || fi.AttributeValue != "PENDING" || fi.Selector != models.SelEqual {
		t.Errorf("Unexpected default filter %+v", list.FilterList[0])
	}
}

func TestCatalog_ItemsReturnsCopy(t *testing.T) {
	c := NewCSRCatalog()
	items := c.Items()
	items[0].ItemName = "changed"

	if _, ok := c.Find("status"); !ok {
		t.Error("expected catalog unchanged by edits to the returned items")
	}
}

func TestCatalog_MergeWhileReading(t *testing.T) {
	c := NewCSRCatalog()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			c.MergeAttributes([]string{"attr" + strings.Repeat("x", i)})
		}
	}()
	for i := 0; i < 100; i++ {
		_ = c.Items()
		_ = c.SelectorChoices("status")
		_ = c.ValueChoices("status")
	}
	<-done

	if _, ok := c.Find("attr"); !ok {
		t.Error("expected merged attribute")
	}
}
