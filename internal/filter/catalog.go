package filter

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rebeliceyang/lazyca/internal/models"
)

// Placeholders allowed in default values
const (
	placeholderNow  = "{now}"
	placeholderUser = "{user}"
)

var selectionChoices = []models.SelectionChoices{
	{ItemType: models.TypeString, HasValue: true, Choices: []models.Selector{
		models.SelEqual, models.SelNotEqual, models.SelLike, models.SelNotLike, models.SelLessThan, models.SelGreaterThan,
	}},
	{ItemType: models.TypeNumber, HasValue: true, Choices: []models.Selector{
		models.SelEqual, models.SelNotEqual, models.SelLessThan, models.SelGreaterThan, models.SelIn,
	}},
	{ItemType: models.TypeDate, HasValue: true, Choices: []models.Selector{
		models.SelOn, models.SelBefore, models.SelAfter,
	}},
	{ItemType: models.TypeBoolean, HasValue: false, Choices: []models.Selector{
		models.SelIsTrue, models.SelIsFalse,
	}},
	{ItemType: models.TypePipelineList, HasValue: true, Choices: []models.Selector{
		models.SelIn, models.SelNotIn,
	}},
	{ItemType: models.TypeSet, HasValue: false, Choices: []models.Selector{
		models.SelEqual, models.SelNotEqual,
	}},
}

// GetSelectorsForType returns the selectors valid for an item type
func GetSelectorsForType(itemType models.ItemType) []models.Selector {
	if c, ok := ChoicesForType(itemType); ok {
		return slices.Clone(c.Choices)
	}
	return nil
}

// ChoicesForType returns the selector set and value flag of an item type
func ChoicesForType(itemType models.ItemType) (models.SelectionChoices, bool) {
	for _, c := range selectionChoices {
		if c.ItemType == itemType {
			return c, true
		}
	}
	return models.SelectionChoices{}, false
}

// Catalog is the ordered set of filterable attributes of one list. Backend
// attributes are merged in while the UI reads it, so items are lock guarded.
type Catalog struct {
	mu            sync.RWMutex
	items         []models.SelectionItem
	defaultFilter models.FilterItem
}

// NewCSRCatalog returns the static catalog of the CSR list
func NewCSRCatalog() *Catalog {
	return &Catalog{
		items: []models.SelectionItem{
			{ItemName: "status", ItemType: models.TypeSet, ItemDefaultSelector: models.SelEqual, ItemDefaultValue: models.StatusPending,
				Values: []string{models.StatusPending, models.StatusIssued, models.StatusRejected, models.StatusProcessing}},
			{ItemName: "subject", ItemType: models.TypeString, ItemDefaultSelector: models.SelLike, ItemDefaultValue: "trustable"},
			{ItemName: "sans", ItemType: models.TypeString, ItemDefaultSelector: models.SelLike, ItemDefaultValue: "trustable"},
			{ItemName: "pipelineId", ItemType: models.TypePipelineList, ItemDefaultSelector: models.SelIn, ItemDefaultValue: "1,2,3"},
			{ItemName: "isAdministrable", ItemType: models.TypeBoolean, ItemDefaultSelector: models.SelIsTrue},
			{ItemName: "id", ItemType: models.TypeNumber},
			{ItemName: "pipelineType", ItemType: models.TypeSet, ItemDefaultSelector: models.SelEqual, ItemDefaultValue: "WEB",
				Values: []string{"WEB", "ACME", "SCEP"}},
			{ItemName: "requestedOn", ItemType: models.TypeDate, ItemDefaultSelector: models.SelAfter, ItemDefaultValue: placeholderNow},
			{ItemName: "requestedBy", ItemType: models.TypeString, ItemDefaultSelector: models.SelEqual, ItemDefaultValue: placeholderUser},
			{ItemName: "rejectedOn", ItemType: models.TypeDate, ItemDefaultSelector: models.SelAfter, ItemDefaultValue: placeholderNow},
			{ItemName: "rejectionReason", ItemType: models.TypeString, ItemDefaultSelector: models.SelEqual},
		},
		defaultFilter: models.FilterItem{AttributeName: "status", AttributeValue: models.StatusPending, Selector: models.SelEqual},
	}
}

// NewCertificateCatalog returns the static catalog of the certificate list
func NewCertificateCatalog() *Catalog {
	return &Catalog{
		items: []models.SelectionItem{
			{ItemName: "id", ItemType: models.TypeNumber},
			{ItemName: "subject", ItemType: models.TypeString, ItemDefaultSelector: models.SelLike, ItemDefaultValue: "trustable"},
			{ItemName: "issuer", ItemType: models.TypeString, ItemDefaultSelector: models.SelLike},
			{ItemName: "sans", ItemType: models.TypeString, ItemDefaultSelector: models.SelLike},
			{ItemName: "serial", ItemType: models.TypeString, ItemDefaultSelector: models.SelEqual},
			{ItemName: "validFrom", ItemType: models.TypeDate, ItemDefaultSelector: models.SelBefore, ItemDefaultValue: placeholderNow},
			{ItemName: "validTo", ItemType: models.TypeDate, ItemDefaultSelector: models.SelAfter, ItemDefaultValue: placeholderNow},
			{ItemName: "revoked", ItemType: models.TypeBoolean, ItemDefaultSelector: models.SelIsFalse},
			{ItemName: "revocationReason", ItemType: models.TypeString, ItemDefaultSelector: models.SelEqual},
			{ItemName: "keyLength", ItemType: models.TypeNumber, ItemDefaultSelector: models.SelGreaterThan, ItemDefaultValue: "2048"},
			{ItemName: "type", ItemType: models.TypeSet, ItemDefaultSelector: models.SelEqual, ItemDefaultValue: "RSA",
				Values: []string{"RSA", "EC", "DSA"}},
			{ItemName: "hashAlgorithm", ItemType: models.TypeString, ItemDefaultSelector: models.SelEqual, ItemDefaultValue: "sha256"},
			{ItemName: "requestedBy", ItemType: models.TypeString, ItemDefaultSelector: models.SelEqual, ItemDefaultValue: placeholderUser},
		},
		defaultFilter: models.FilterItem{AttributeName: "revoked", Selector: models.SelIsFalse},
	}
}

// Items returns the catalog items in display order
func (c *Catalog) Items() []models.SelectionItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.items)
}

// Find looks up an item by name
func (c *Catalog) Find(name string) (models.SelectionItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.find(name)
}

func (c *Catalog) find(name string) (models.SelectionItem, bool) {
	for _, item := range c.items {
		if item.ItemName == name {
			return item, true
		}
	}
	return models.SelectionItem{}, false
}

// MergeAttributes appends backend-provided attribute names as string items.
// Names already present are skipped.
func (c *Catalog) MergeAttributes(names []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, exists := c.find(name); exists {
			continue
		}
		c.items = append(c.items, models.SelectionItem{
			ItemName:            name,
			ItemType:            models.TypeString,
			ItemDefaultSelector: models.SelEqual,
			ItemDefaultValue:    "X",
		})
	}
}

// DefaultFilter returns the predicate a fresh list starts with
func (c *Catalog) DefaultFilter() models.FilterItem {
	return c.defaultFilter
}

// DefaultList returns a filter list holding only the default predicate
func (c *Catalog) DefaultList() models.FilterList {
	return models.FilterList{FilterList: []models.FilterItem{c.defaultFilter}}
}

// InputType returns the item type of an attribute, or "" when unknown
func (c *Catalog) InputType(name string) models.ItemType {
	if item, ok := c.Find(name); ok {
		return item.ItemType
	}
	return ""
}

// ValueChoices returns the fixed values of a set attribute
func (c *Catalog) ValueChoices(name string) []string {
	if item, ok := c.Find(name); ok {
		return item.Values
	}
	return []string{}
}

// SelectorChoices returns the selectors valid for an attribute
func (c *Catalog) SelectorChoices(name string) []models.Selector {
	item, ok := c.Find(name)
	if !ok {
		return []models.Selector{}
	}
	return GetSelectorsForType(item.ItemType)
}

// HasValue reports whether the attribute takes a free value input
func (c *Catalog) HasValue(name string) bool {
	item, ok := c.Find(name)
	if !ok {
		return false
	}
	choices, ok := ChoicesForType(item.ItemType)
	return ok && choices.HasValue
}

// NewItem builds a predicate for the attribute from its defaults.
// {now} resolves to the given date and {user} to the login.
func (c *Catalog) NewItem(name string, now time.Time, login string) (models.FilterItem, error) {
	item, ok := c.Find(name)
	if !ok {
		return models.FilterItem{}, fmt.Errorf("unknown filter attribute %q", name)
	}

	selector := item.ItemDefaultSelector
	choices := GetSelectorsForType(item.ItemType)
	if selector == "" || !slices.Contains(choices, selector) {
		selector = choices[0]
	}

	value := item.ItemDefaultValue
	value = strings.ReplaceAll(value, placeholderNow, now.Format("2006-01-02"))
	value = strings.ReplaceAll(value, placeholderUser, login)

	fi := models.FilterItem{AttributeName: name, AttributeValue: value, Selector: selector}
	if item.ItemType == models.TypeBoolean {
		fi.AttributeValue = ""
	}
	if item.ItemType == models.TypePipelineList {
		fi.AttributeValueArr = []string{}
		fi.AttributeValue = ""
	}
	return fi, nil
}

// Validate checks that every predicate references a catalog item and uses a
// selector valid for the item's type.
func (c *Catalog) Validate(list models.FilterList) error {
	for i, fi := range list.FilterList {
		if fi.AttributeName == "" {
			return fmt.Errorf("filter %d: %w", i+1, ErrMissingAttribute)
		}
		item, ok := c.Find(fi.AttributeName)
		if !ok {
			return fmt.Errorf("filter %d: unknown attribute %q", i+1, fi.AttributeName)
		}
		if !slices.Contains(GetSelectorsForType(item.ItemType), fi.Selector) {
			return fmt.Errorf("filter %d: selector %s not valid for %s attribute %q", i+1, fi.Selector, item.ItemType, fi.AttributeName)
		}
		if item.ItemType == models.TypeSet && fi.AttributeValue != "" && len(item.Values) > 0 && !slices.Contains(item.Values, fi.AttributeValue) {
			return fmt.Errorf("filter %d: value %q not in %v", i+1, fi.AttributeValue, item.Values)
		}
	}
	return nil
}
