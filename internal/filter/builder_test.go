package filter

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/rebeliceyang/lazyca/internal/models"
)

func TestBuildQuery_Triples(t *testing.T) {
	b := NewBuilder(NewCSRCatalog())
	list := models.FilterList{FilterList: []models.FilterItem{
		{AttributeName: "status", AttributeValue: "PENDING", Selector: models.SelEqual},
		{AttributeName: "subject", AttributeValue: "trustable", Selector: models.SelLike},
		{AttributeName: "isAdministrable", Selector: models.SelIsTrue},
	}}

	query, err := b.BuildQuery(&list)
	if err != nil {
		t.Fatalf("BuildQuery failed: %v", err)
	}

	expected := "attributeName_1=status&attributeValue_1=PENDING&attributeSelector_1=EQUAL" +
		"&attributeName_2=subject&attributeValue_2=trustable&attributeSelector_2=LIKE" +
		"&attributeName_3=isAdministrable&attributeValue_3=&attributeSelector_3=ISTRUE"
	if query != expected {
		t.Errorf("Query mismatch.\nExpected: %s\nGot: %s", expected, query)
	}

	values, err := url.ParseQuery(query)
	if err != nil {
		t.Fatalf("ParseQuery failed: %v", err)
	}
	if len(values) != 9 {
		t.Errorf("Expected 9 parameters (3 triples), got %d", len(values))
	}
}

func TestBuildQuery_KeepsListOrder(t *testing.T) {
	b := NewBuilder(NewCSRCatalog())
	list := models.FilterList{FilterList: []models.FilterItem{
		{AttributeName: "subject", AttributeValue: "b", Selector: models.SelEqual},
		{AttributeName: "id", AttributeValue: "7", Selector: models.SelGreaterThan},
	}}

	query, err := b.BuildQuery(&list)
	if err != nil {
		t.Fatalf("BuildQuery failed: %v", err)
	}

	first := strings.Index(query, "attributeName_1=subject")
	second := strings.Index(query, "attributeName_2=id")
	if first < 0 || second < 0 || first > second {
		t.Errorf("Expected subject before id, got %s", query)
	}

	again, _ := b.BuildQuery(&list)
	if again != query {
		t.Errorf("Expected deterministic output, got %s and %s", query, again)
	}
}

func TestBuildQuery_Empty(t *testing.T) {
	b := NewBuilder(NewCSRCatalog())
	query, err := b.BuildQuery(&models.FilterList{})
	if err != nil {
		t.Fatalf("BuildQuery failed: %v", err)
	}
	if query != "" {
		t.Errorf("Expected empty query, got '%s'", query)
	}
}

func TestBuildQuery_MissingAttribute(t *testing.T) {
	b := NewBuilder(NewCSRCatalog())
	list := models.FilterList{FilterList: []models.FilterItem{
		{AttributeName: "status", AttributeValue: "PENDING", Selector: models.SelEqual},
		{AttributeValue: "x", Selector: models.SelEqual},
	}}

	_, err := b.BuildQuery(&list)
	if !errors.Is(err, ErrMissingAttribute) {
		t.Errorf("Expected ErrMissingAttribute, got %v", err)
	}
}

func TestAlignValues_PipelineList(t *testing.T) {
	b := NewBuilder(NewCSRCatalog())
	list := models.FilterList{FilterList: []models.FilterItem{
		{AttributeName: "pipelineId", Selector: models.SelIn, AttributeValueArr: []string{"1", "2", "3"}},
		{AttributeName: "subject", AttributeValue: "keep", Selector: models.SelLike, AttributeValueArr: []string{"x"}},
	}}

	query, err := b.BuildQuery(&list)
	if err != nil {
		t.Fatalf("BuildQuery failed: %v", err)
	}

	if list.FilterList[0].AttributeValue != "1, 2, 3" {
		t.Errorf("Expected '1, 2, 3', got '%s'", list.FilterList[0].AttributeValue)
	}
	if list.FilterList[1].AttributeValue != "keep" {
		t.Errorf("Expected non-list attribute untouched, got '%s'", list.FilterList[1].AttributeValue)
	}

	values, _ := url.ParseQuery(query)
	if values.Get("attributeValue_1") != "1, 2, 3" {
		t.Errorf("Expected attributeValue_1 '1, 2, 3', got '%s'", values.Get("attributeValue_1"))
	}
}

func TestSplitValues(t *testing.T) {
	b := NewBuilder(nil)
	list := models.FilterList{FilterList: []models.FilterItem{
		{AttributeName: "pipelineId", AttributeValue: "4, 5", Selector: models.SelNotIn},
		{AttributeName: "pipelineId", AttributeValue: "", Selector: models.SelIn},
	}}

	b.SplitValues(&list)

	arr := list.FilterList[0].AttributeValueArr
	if len(arr) != 2 || arr[0] != "4" || arr[1] != "5" {
		t.Errorf("Expected [4 5], got %v", arr)
	}
	if list.FilterList[1].AttributeValueArr == nil || len(list.FilterList[1].AttributeValueArr) != 0 {
		t.Errorf("Expected empty array, got %v", list.FilterList[1].AttributeValueArr)
	}
}

func TestJoinQuery(t *testing.T) {
	if got := JoinQuery("api/csrList", "a=1"); got != "api/csrList?a=1" {
		t.Errorf("Expected '?', got '%s'", got)
	}
	if got := JoinQuery("api/csrList?x=1", "a=1"); got != "api/csrList?x=1&a=1" {
		t.Errorf("Expected '&', got '%s'", got)
	}
	if got := JoinQuery("api/csrList", ""); got != "api/csrList" {
		t.Errorf("Expected base url, got '%s'", got)
	}
}
