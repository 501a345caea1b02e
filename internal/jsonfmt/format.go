// Package jsonfmt renders backend documents for the detail views.
package jsonfmt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Format pretty-prints a value. Strings and byte slices are taken as JSON
// text and re-indented; anything else is marshalled.
func Format(value any) (string, error) {
	if value == nil {
		return "null", nil
	}

	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to format: %w", err)
		}
		return string(out), nil
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return "", fmt.Errorf("invalid JSON: %w", err)
	}
	return buf.String(), nil
}

// Compact formats a value as single-line JSON
func Compact(value any) (string, error) {
	if value == nil {
		return "null", nil
	}
	switch v := value.(type) {
	case string:
		return compactRaw([]byte(v))
	case []byte:
		return compactRaw(v)
	}
	out, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("failed to compact: %w", err)
	}
	return string(out), nil
}

func compactRaw(raw []byte) (string, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", fmt.Errorf("invalid JSON: %w", err)
	}
	return buf.String(), nil
}

// Highlight colours JSON text for a 256 colour terminal with the named
// chroma style. The input is returned unchanged when highlighting fails.
func Highlight(src, styleName string) string {
	lexer := lexers.Get("json")
	if lexer == nil {
		return src
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, src)
	if err != nil {
		return src
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return src
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// Truncate shortens JSON text for one-line display
func Truncate(jsonStr string, maxLen int) string {
	if len(jsonStr) <= maxLen {
		return jsonStr
	}

	truncated := jsonStr[:maxLen-3]

	// Cut at the last structural boundary when it is not too far back
	lastGood := strings.LastIndexAny(truncated, " ,{}[]")
	if lastGood > maxLen/2 {
		truncated = truncated[:lastGood]
	}

	return truncated + "..."
}
