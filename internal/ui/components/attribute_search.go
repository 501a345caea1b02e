package components

import (
	"sort"
	"strings"

	"github.com/rebeliceyang/lazyca/internal/models"
)

// SearchQuery represents a parsed attribute search
type SearchQuery struct {
	Pattern    string          // The search pattern (after removing prefix/type)
	Negate     bool            // True if query starts with !
	TypeFilter models.ItemType // Item type the attribute must have, "" for any
}

// Type prefix mappings
var typePrefixes = map[string]models.ItemType{
	// Short prefixes
	"s:": models.TypeString,
	"n:": models.TypeNumber,
	"d:": models.TypeDate,
	"b:": models.TypeBoolean,
	"e:": models.TypeSet,
	"p:": models.TypePipelineList,
	// Long prefixes
	"string:":   models.TypeString,
	"number:":   models.TypeNumber,
	"date:":     models.TypeDate,
	"bool:":     models.TypeBoolean,
	"boolean:":  models.TypeBoolean,
	"set:":      models.TypeSet,
	"pipeline:": models.TypePipelineList,
}

// ParseSearchQuery parses an attribute search
// Examples:
//   - "subj" → {Pattern: "subj"}
//   - "!req" → {Pattern: "req", Negate: true}
//   - "d:req" → {Pattern: "req", TypeFilter: date}
func ParseSearchQuery(query string) SearchQuery {
	q := SearchQuery{}

	if strings.HasPrefix(query, "!") {
		q.Negate = true
		query = query[1:]
	}

	queryLower := strings.ToLower(query)
	if i := strings.Index(queryLower, ":"); i > 0 {
		if itemType, ok := typePrefixes[queryLower[:i+1]]; ok {
			q.TypeFilter = itemType
			query = query[i+1:]
		}
	}

	q.Pattern = query
	return q
}

// FuzzyMatch performs fuzzy subsequence matching
// Returns whether the pattern matches and the positions of matched characters
// Matching is case-insensitive
func FuzzyMatch(pattern, target string) (bool, []int) {
	if pattern == "" {
		return true, []int{}
	}

	patternLower := strings.ToLower(pattern)
	targetLower := strings.ToLower(target)

	positions := make([]int, 0, len(pattern))
	patternIdx := 0

	for i := 0; i < len(targetLower) && patternIdx < len(patternLower); i++ {
		if targetLower[i] == patternLower[patternIdx] {
			positions = append(positions, i)
			patternIdx++
		}
	}

	if patternIdx == len(patternLower) {
		return true, positions
	}
	return false, nil
}

// matchScore favours prefix and contiguous matches; lower is better
func matchScore(positions []int) int {
	if len(positions) == 0 {
		return 0
	}
	return positions[0]*2 + positions[len(positions)-1] - positions[0]
}

// SearchAttributes returns the catalog items matching the query, best
// matches first. Catalog order breaks ties.
func SearchAttributes(items []models.SelectionItem, query SearchQuery) []models.SelectionItem {
	type scored struct {
		item  models.SelectionItem
		score int
	}
	var matches []scored

	for _, item := range items {
		typeMatches := query.TypeFilter == "" || item.ItemType == query.TypeFilter
		patternMatches, positions := FuzzyMatch(query.Pattern, item.ItemName)

		include := typeMatches && patternMatches
		if query.Negate {
			include = !include
		}
		if include {
			matches = append(matches, scored{item: item, score: matchScore(positions)})
		}
	}

	if !query.Negate && query.Pattern != "" {
		sort.SliceStable(matches, func(i, j int) bool { return matches[i].score < matches[j].score })
	}

	result := make([]models.SelectionItem, len(matches))
	for i, m := range matches {
		result[i] = m.item
	}
	return result
}
