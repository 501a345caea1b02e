package components

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/mattn/go-runewidth"
	"github.com/rebeliceyang/lazyca/internal/ui/theme"
)

// Tone colours a whole table row
type Tone int

const (
	ToneNormal Tone = iota
	ToneValid
	ToneWarn
	ToneAlarm
	ToneRevoked
	TonePending
	ToneRejected
)

// TableView displays one page of a remote list
type TableView struct {
	Columns []string
	Rows    [][]string
	Tones   []Tone
	Width   int
	Height  int
	Theme   theme.Theme

	// Paging state, owned by the data source
	PageIndex int
	PageSize  int
	TotalRows int

	// Sort indicator
	SortColumn string
	SortDesc   bool

	// Virtual scrolling state
	TopRow      int
	VisibleRows int
	SelectedRow int

	// Column widths (calculated)
	ColumnWidths []int

	// ZonePrefix namespaces the mouse zones of the rows
	ZonePrefix string
}

// RowClickedMsg is sent when a row is clicked
type RowClickedMsg struct {
	Row int
}

// NewTableView creates a new table view
func NewTableView(th theme.Theme, zonePrefix string) *TableView {
	return &TableView{
		Columns:      []string{},
		Rows:         [][]string{},
		ColumnWidths: []int{},
		Theme:        th,
		PageIndex:    1,
		ZonePrefix:   zonePrefix,
	}
}

// SetData replaces the page shown. Tones may be nil.
func (tv *TableView) SetData(columns []string, rows [][]string, tones []Tone, totalRows int) {
	tv.Columns = columns
	tv.Rows = rows
	tv.Tones = tones
	tv.TotalRows = totalRows
	if tv.SelectedRow >= len(rows) {
		tv.SelectedRow = max(len(rows)-1, 0)
	}
	if tv.TopRow > tv.SelectedRow {
		tv.TopRow = tv.SelectedRow
	}
	tv.calculateColumnWidths()
}

// PageCount returns the number of pages for the total row count
func (tv *TableView) PageCount() int {
	if tv.PageSize <= 0 || tv.TotalRows <= 0 {
		return 1
	}
	return (tv.TotalRows + tv.PageSize - 1) / tv.PageSize
}

// calculateColumnWidths calculates optimal column widths
func (tv *TableView) calculateColumnWidths() {
	if len(tv.Columns) == 0 {
		return
	}

	tv.ColumnWidths = make([]int, len(tv.Columns))

	// Start with column header lengths, leaving room for the sort marker
	for i, col := range tv.Columns {
		tv.ColumnWidths[i] = runewidth.StringWidth(col) + 2
	}

	for _, row := range tv.Rows {
		for i, cell := range row {
			if i < len(tv.ColumnWidths) {
				if w := runewidth.StringWidth(cell); w > tv.ColumnWidths[i] {
					tv.ColumnWidths[i] = w
				}
			}
		}
	}

	maxWidth := 48
	for i := range tv.ColumnWidths {
		if tv.ColumnWidths[i] > maxWidth {
			tv.ColumnWidths[i] = maxWidth
		}
		if tv.ColumnWidths[i] < 4 {
			tv.ColumnWidths[i] = 4
		}
	}
}

// View renders the table
func (tv *TableView) View() string {
	if len(tv.Columns) == 0 {
		return lipgloss.NewStyle().Foreground(tv.Theme.Muted).Render("No data")
	}

	var b strings.Builder

	b.WriteString(tv.renderHeader())
	b.WriteString("\n")
	b.WriteString(tv.renderSeparator())
	b.WriteString("\n")

	tv.VisibleRows = max(tv.Height-3, 1) // Header + separator + status

	endRow := min(tv.TopRow+tv.VisibleRows, len(tv.Rows))

	if len(tv.Rows) == 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(tv.Theme.Muted).Italic(true).Render(" No rows match the filters"))
	}
	for i := tv.TopRow; i < endRow; i++ {
		b.WriteString(zone.Mark(tv.rowZoneID(i), tv.renderRow(i)))
		if i < endRow-1 {
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(tv.renderStatus())

	return lipgloss.NewStyle().Width(tv.Width).Height(tv.Height).Render(b.String())
}

func (tv *TableView) renderHeader() string {
	var parts []string
	for i, col := range tv.Columns {
		label := col
		if col == tv.SortColumn {
			if tv.SortDesc {
				label += " ▼"
			} else {
				label += " ▲"
			}
		}
		parts = append(parts, tv.pad(label, tv.ColumnWidths[i]))
	}
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(tv.Theme.TableHeader).
		Background(tv.Theme.TableRowOdd)
	return headerStyle.Render(" " + strings.Join(parts, " │ ") + " ")
}

func (tv *TableView) renderSeparator() string {
	var parts []string
	for _, width := range tv.ColumnWidths {
		parts = append(parts, strings.Repeat("─", width))
	}
	return lipgloss.NewStyle().
		Foreground(tv.Theme.Border).
		Render("─" + strings.Join(parts, "─┼─") + "─")
}

func (tv *TableView) renderRow(index int) string {
	row := tv.Rows[index]
	var parts []string
	for i, cell := range row {
		if i >= len(tv.ColumnWidths) {
			break
		}
		parts = append(parts, tv.pad(cell, tv.ColumnWidths[i]))
	}

	line := " " + strings.Join(parts, " │ ") + " "
	style := tv.toneStyle(tv.tone(index))

	if index == tv.SelectedRow {
		return style.
			Background(tv.Theme.TableRowSelected).
			Bold(true).
			Render(line)
	}
	return style.Render(line)
}

func (tv *TableView) tone(index int) Tone {
	if index < len(tv.Tones) {
		return tv.Tones[index]
	}
	return ToneNormal
}

func (tv *TableView) toneStyle(t Tone) lipgloss.Style {
	style := lipgloss.NewStyle()
	switch t {
	case ToneValid:
		return style.Foreground(tv.Theme.ValidityOK)
	case ToneWarn:
		return style.Foreground(tv.Theme.ValidityWarn)
	case ToneAlarm:
		return style.Foreground(tv.Theme.ValidityAlarm)
	case ToneRevoked:
		return style.Foreground(tv.Theme.Revoked).Strikethrough(true)
	case TonePending:
		return style.Foreground(tv.Theme.StatusPending)
	case ToneRejected:
		return style.Foreground(tv.Theme.StatusRejected)
	}
	return style.Foreground(tv.Theme.Foreground)
}

func (tv *TableView) renderStatus() string {
	first := 0
	if len(tv.Rows) > 0 {
		first = (tv.PageIndex-1)*tv.PageSize + 1
	}
	last := max(first+len(tv.Rows)-1, 0)

	showing := fmt.Sprintf(" rows %d-%d of %d │ page %d/%d", first, last, tv.TotalRows, tv.PageIndex, tv.PageCount())
	return lipgloss.NewStyle().
		Foreground(tv.Theme.Muted).
		Italic(true).
		Render(showing)
}

func (tv *TableView) pad(s string, width int) string {
	if runewidth.StringWidth(s) > width {
		return runewidth.Truncate(s, width, "…")
	}
	return runewidth.FillRight(s, width)
}

func (tv *TableView) rowZoneID(index int) string {
	return tv.ZonePrefix + "row-" + strconv.Itoa(index)
}

// HandleMouse selects the clicked row and reports it
func (tv *TableView) HandleMouse(msg tea.MouseMsg) tea.Cmd {
	if msg.Action != tea.MouseActionRelease || msg.Button != tea.MouseButtonLeft {
		return nil
	}
	endRow := min(tv.TopRow+tv.VisibleRows, len(tv.Rows))
	for i := tv.TopRow; i < endRow; i++ {
		if zone.Get(tv.rowZoneID(i)).InBounds(msg) {
			tv.SelectedRow = i
			row := i
			return func() tea.Msg { return RowClickedMsg{Row: row} }
		}
	}
	return nil
}

// SelectedCells returns the cells of the selected row
func (tv *TableView) SelectedCells() []string {
	if tv.SelectedRow < 0 || tv.SelectedRow >= len(tv.Rows) {
		return nil
	}
	return tv.Rows[tv.SelectedRow]
}

// MoveSelection moves the selection up or down
func (tv *TableView) MoveSelection(delta int) {
	if len(tv.Rows) == 0 {
		tv.SelectedRow = 0
		return
	}
	tv.SelectedRow += delta

	if tv.SelectedRow < 0 {
		tv.SelectedRow = 0
	}
	if tv.SelectedRow >= len(tv.Rows) {
		tv.SelectedRow = len(tv.Rows) - 1
	}

	if tv.SelectedRow < tv.TopRow {
		tv.TopRow = tv.SelectedRow
	}
	if tv.VisibleRows > 0 && tv.SelectedRow >= tv.TopRow+tv.VisibleRows {
		tv.TopRow = tv.SelectedRow - tv.VisibleRows + 1
	}
}

// ResetSelection moves to the first row, used when a new page arrives
func (tv *TableView) ResetSelection() {
	tv.SelectedRow = 0
	tv.TopRow = 0
}
