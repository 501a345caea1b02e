package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rebeliceyang/lazyca/internal/models"
)

const timeLayout = "2006-01-02 15:04:05"

// Row is a list row that renders its cells by column name
type Row interface {
	Cell(field string) string
}

// FormatFilters renders a filter list as "name SELECTOR value" terms joined by "; "
func FormatFilters(list models.FilterList) string {
	terms := make([]string, 0, len(list.FilterList))
	for _, fi := range list.FilterList {
		value := fi.AttributeValue
		if len(fi.AttributeValueArr) > 0 {
			value = strings.Join(fi.AttributeValueArr, ", ")
		}
		term := fi.AttributeName + " " + string(fi.Selector)
		if value != "" {
			term += " " + value
		}
		terms = append(terms, term)
	}
	return strings.Join(terms, "; ")
}

// PresetsToCSV exports presets to a CSV file
func PresetsToCSV(presets []models.Preset, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)

	header := []string{"Name", "Description", "List", "Filters", "Tags", "Created", "Updated", "Last Used", "Usage Count"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, p := range presets {
		lastUsed := ""
		if !p.LastUsed.IsZero() {
			lastUsed = p.LastUsed.Format(timeLayout)
		}
		row := []string{
			p.Name,
			p.Description,
			string(p.List),
			FormatFilters(p.Filters),
			strings.Join(p.Tags, ", "),
			p.CreatedAt.Format(timeLayout),
			p.UpdatedAt.Format(timeLayout),
			lastUsed,
			fmt.Sprintf("%d", p.UsageCount),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

// PresetsToJSON exports presets to a JSON file
func PresetsToJSON(presets []models.Preset, path string) error {
	data, err := json.MarshalIndent(presets, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal presets to JSON: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}
	return nil
}

// RowsToCSV writes the given columns of the rows as CSV with a header line
func RowsToCSV[T Row](w io.Writer, columns []string, rows []T) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	record := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			record[i] = row.Cell(col)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
