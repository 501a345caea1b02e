package filter

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/rebeliceyang/lazyca/internal/models"
)

// ListValueSeparator joins multi-select values into a single attribute value
const ListValueSeparator = ", "

// ErrMissingAttribute is returned for a predicate without attribute name
var ErrMissingAttribute = errors.New("filter has no attribute name")

// Builder generates REST query strings from filter lists
type Builder struct {
	catalog *Catalog
}

// NewBuilder creates a new filter builder. The catalog decides which
// attributes are multi-valued; a nil catalog treats pipelineId as the only one.
func NewBuilder(catalog *Catalog) *Builder {
	return &Builder{catalog: catalog}
}

// AlignValues flattens the multi-select values of list attributes into
// AttributeValue. The list is modified in place.
func (b *Builder) AlignValues(list *models.FilterList) {
	for i := range list.FilterList {
		item := &list.FilterList[i]
		if !b.isListAttribute(item.AttributeName) {
			continue
		}
		if item.AttributeValueArr != nil {
			item.AttributeValue = strings.Join(item.AttributeValueArr, ListValueSeparator)
		}
	}
}

// SplitValues is the inverse of AlignValues, used after loading a stored list
func (b *Builder) SplitValues(list *models.FilterList) {
	for i := range list.FilterList {
		item := &list.FilterList[i]
		if !b.isListAttribute(item.AttributeName) {
			continue
		}
		if item.AttributeValue == "" {
			item.AttributeValueArr = []string{}
			continue
		}
		item.AttributeValueArr = strings.Split(item.AttributeValue, ListValueSeparator)
	}
}

// BuildQuery encodes the list as 1-indexed attributeName_i, attributeValue_i,
// attributeSelector_i parameters, in list order. List values are aligned first.
func (b *Builder) BuildQuery(list *models.FilterList) (string, error) {
	b.AlignValues(list)

	var sb strings.Builder
	for i, item := range list.FilterList {
		if item.AttributeName == "" {
			return "", fmt.Errorf("filter %d: %w", i+1, ErrMissingAttribute)
		}
		idx := strconv.Itoa(i + 1)
		if i > 0 {
			sb.WriteByte('&')
		}
		writeParam(&sb, "attributeName_"+idx, item.AttributeName)
		sb.WriteByte('&')
		writeParam(&sb, "attributeValue_"+idx, item.AttributeValue)
		sb.WriteByte('&')
		writeParam(&sb, "attributeSelector_"+idx, string(item.Selector))
	}
	return sb.String(), nil
}

// BuildURL appends the filter query to a base endpoint
func (b *Builder) BuildURL(baseURL string, list *models.FilterList) (string, error) {
	query, err := b.BuildQuery(list)
	if err != nil {
		return "", err
	}
	return JoinQuery(baseURL, query), nil
}

// JoinQuery appends a query string with the right delimiter
func JoinQuery(baseURL, query string) string {
	if query == "" {
		return baseURL
	}
	delim := "?"
	if strings.Contains(baseURL, "?") {
		delim = "&"
	}
	return baseURL + delim + query
}

func (b *Builder) isListAttribute(name string) bool {
	if b.catalog == nil {
		return name == "pipelineId"
	}
	item, ok := b.catalog.Find(name)
	return ok && item.ItemType == models.TypePipelineList
}

func writeParam(sb *strings.Builder, key, value string) {
	sb.WriteString(url.QueryEscape(key))
	sb.WriteByte('=')
	sb.WriteString(url.QueryEscape(value))
}
