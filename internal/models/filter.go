package models

// Selector represents a filter comparison operator understood by the backend
type Selector string

const (
	SelEqual       Selector = "EQUAL"
	SelNotEqual    Selector = "NOT_EQUAL"
	SelLike        Selector = "LIKE"
	SelNotLike     Selector = "NOTLIKE"
	SelLessThan    Selector = "LESSTHAN"
	SelGreaterThan Selector = "GREATERTHAN"
	SelIn          Selector = "IN"
	SelNotIn       Selector = "NOT_IN"
	SelOn          Selector = "ON"
	SelBefore      Selector = "BEFORE"
	SelAfter       Selector = "AFTER"
	SelIsTrue      Selector = "ISTRUE"
	SelIsFalse     Selector = "ISFALSE"
)

// ItemType is the value type of a filterable attribute
type ItemType string

const (
	TypeString       ItemType = "string"
	TypeNumber       ItemType = "number"
	TypeDate         ItemType = "date"
	TypeBoolean      ItemType = "boolean"
	TypeSet          ItemType = "set"
	TypePipelineList ItemType = "pipelineList"
)

// FilterItem is one predicate of a conjunctive filter set.
// AttributeValueArr is only used for pipelineList attributes and is joined
// into AttributeValue before submission.
type FilterItem struct {
	AttributeName     string   `json:"attributeName" yaml:"attribute_name"`
	AttributeValue    string   `json:"attributeValue" yaml:"attribute_value"`
	Selector          Selector `json:"selector" yaml:"selector"`
	AttributeValueArr []string `json:"attributeValueArr,omitempty" yaml:"attribute_value_arr,omitempty"`
}

// FilterList is the ordered filter set, serialized the way the backend stores it
type FilterList struct {
	FilterList []FilterItem `json:"filterList" yaml:"filter_list"`
}

// Clone returns a deep copy of the list
func (fl FilterList) Clone() FilterList {
	items := make([]FilterItem, len(fl.FilterList))
	for i, item := range fl.FilterList {
		items[i] = item
		if item.AttributeValueArr != nil {
			items[i].AttributeValueArr = append([]string(nil), item.AttributeValueArr...)
		}
	}
	return FilterList{FilterList: items}
}

// SelectionItem describes a filterable attribute and its defaults
type SelectionItem struct {
	ItemName            string   `json:"itemName"`
	ItemType            ItemType `json:"itemType"`
	ItemDefaultSelector Selector `json:"itemDefaultSelector,omitempty"`
	ItemDefaultValue    string   `json:"itemDefaultValue,omitempty"`
	Values              []string `json:"values,omitempty"`
}

// SelectionChoices lists the selectors valid for an item type
type SelectionChoices struct {
	ItemType ItemType
	HasValue bool // whether a free value input is shown
	Choices  []Selector
}
