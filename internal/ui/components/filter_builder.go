package components

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rebeliceyang/lazyca/internal/filter"
	"github.com/rebeliceyang/lazyca/internal/models"
	"github.com/rebeliceyang/lazyca/internal/ui/theme"
)

// FilterSource is the filter state the builder edits in place
type FilterSource interface {
	Catalog() *filter.Catalog
	Filters() models.FilterList
	AddSelector()
	RemoveSelector(index int)
	UpdateSelector(index int, item models.FilterItem) error
	ChangeAttribute(index int, name string, now time.Time, login string) error
	Pipelines() []models.PipelineView
	FilterQuery() (string, error)
}

// SubmitFiltersMsg is sent when the filters should be applied at once
type SubmitFiltersMsg struct{}

// CloseFilterBuilderMsg is sent when the filter builder should close
type CloseFilterBuilderMsg struct{}

// SavePresetMsg asks to store the current filters as a named preset
type SavePresetMsg struct {
	Name string
}

// FilterBuilder edits the filter list of a list view. Edits go straight to
// the source; the list reloads once the debounce picks them up.
type FilterBuilder struct {
	Width  int
	Height int
	Theme  theme.Theme

	// Login resolves {user} in attribute defaults
	Login string

	source FilterSource
	now    func() time.Time

	// State
	currentIndex    int
	editMode        string // "", "attribute", "selector", "value", "set", "pipelines", "preset"
	input           textinput.Model
	choiceIndex     int
	matches         []models.SelectionItem
	selectors       []models.Selector
	validationError string
}

// NewFilterBuilder creates a new filter builder
func NewFilterBuilder(th theme.Theme) *FilterBuilder {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 40

	return &FilterBuilder{
		Width:  80,
		Height: 30,
		Theme:  th,
		input:  ti,
		now:    time.Now,
	}
}

// SetSource attaches the builder to a list's filter state
func (fb *FilterBuilder) SetSource(source FilterSource) {
	fb.source = source
	fb.currentIndex = 0
	fb.editMode = ""
	fb.validationError = ""
}

// Editing reports whether a field editor is open
func (fb *FilterBuilder) Editing() bool {
	return fb.editMode != ""
}

func (fb *FilterBuilder) current() (models.FilterItem, bool) {
	list := fb.source.Filters().FilterList
	if fb.currentIndex < 0 || fb.currentIndex >= len(list) {
		return models.FilterItem{}, false
	}
	return list[fb.currentIndex], true
}

// Update handles keyboard input
func (fb *FilterBuilder) Update(msg tea.KeyMsg) (*FilterBuilder, tea.Cmd) {
	if fb.source == nil {
		return fb, nil
	}
	switch fb.editMode {
	case "":
		return fb.handleNavigationMode(msg)
	case "attribute":
		return fb.handleAttributeMode(msg)
	case "selector":
		return fb.handleSelectorMode(msg)
	case "value":
		return fb.handleValueMode(msg)
	case "set":
		return fb.handleSetMode(msg)
	case "pipelines":
		return fb.handlePipelineMode(msg)
	case "preset":
		return fb.handlePresetMode(msg)
	}
	return fb, nil
}

// handleNavigationMode handles keys in navigation mode
func (fb *FilterBuilder) handleNavigationMode(msg tea.KeyMsg) (*FilterBuilder, tea.Cmd) {
	count := len(fb.source.Filters().FilterList)
	fb.validationError = ""

	switch msg.String() {
	case "up", "k":
		if fb.currentIndex > 0 {
			fb.currentIndex--
		}
	case "down", "j":
		if fb.currentIndex < count-1 {
			fb.currentIndex++
		}
	case "a", "n":
		fb.source.AddSelector()
		fb.currentIndex = count
	case "d", "x":
		if fb.currentIndex < count {
			fb.source.RemoveSelector(fb.currentIndex)
			if fb.currentIndex > 0 && fb.currentIndex >= count-1 {
				fb.currentIndex--
			}
		}
	case "tab", "e":
		fb.startAttribute()
	case "o":
		fb.startSelector()
	case "v":
		fb.startValue()
	case "P":
		fb.editMode = "preset"
		fb.input.SetValue("")
		fb.input.Placeholder = "preset name"
		fb.input.Focus()
	case "enter":
		return fb, func() tea.Msg { return SubmitFiltersMsg{} }
	case "esc":
		return fb, func() tea.Msg { return CloseFilterBuilderMsg{} }
	}
	return fb, nil
}

func (fb *FilterBuilder) startAttribute() {
	if _, ok := fb.current(); !ok {
		return
	}
	fb.editMode = "attribute"
	fb.input.SetValue("")
	fb.input.Placeholder = "attribute (d: date, b: boolean, !negate)"
	fb.input.Focus()
	fb.refreshMatches()
}

func (fb *FilterBuilder) refreshMatches() {
	fb.matches = SearchAttributes(fb.source.Catalog().Items(), ParseSearchQuery(fb.input.Value()))
	fb.choiceIndex = 0
}

func (fb *FilterBuilder) startSelector() {
	item, ok := fb.current()
	if !ok {
		return
	}
	fb.selectors = fb.source.Catalog().SelectorChoices(item.AttributeName)
	if len(fb.selectors) == 0 {
		fb.validationError = fmt.Sprintf("Attribute '%s' has no selectors", item.AttributeName)
		return
	}
	fb.editMode = "selector"
	fb.choiceIndex = max(slices.Index(fb.selectors, item.Selector), 0)
}

func (fb *FilterBuilder) startValue() {
	item, ok := fb.current()
	if !ok {
		return
	}
	catalog := fb.source.Catalog()
	switch catalog.InputType(item.AttributeName) {
	case models.TypeBoolean:
		fb.validationError = "Boolean filters take no value"
	case models.TypePipelineList:
		fb.editMode = "pipelines"
		fb.choiceIndex = 0
	case models.TypeSet:
		if len(catalog.ValueChoices(item.AttributeName)) == 0 {
			fb.startTextValue(item)
			return
		}
		fb.editMode = "set"
		fb.choiceIndex = max(slices.Index(catalog.ValueChoices(item.AttributeName), item.AttributeValue), 0)
	default:
		fb.startTextValue(item)
	}
}

func (fb *FilterBuilder) startTextValue(item models.FilterItem) {
	fb.editMode = "value"
	fb.input.SetValue(item.AttributeValue)
	fb.input.Placeholder = "value"
	if fb.source.Catalog().InputType(item.AttributeName) == models.TypeDate {
		fb.input.Placeholder = "YYYY-MM-DD"
	}
	fb.input.CursorEnd()
	fb.input.Focus()
}

func (fb *FilterBuilder) closeEditor() {
	fb.editMode = ""
	fb.input.Blur()
}

// handleAttributeMode picks an attribute with fuzzy completion
func (fb *FilterBuilder) handleAttributeMode(msg tea.KeyMsg) (*FilterBuilder, tea.Cmd) {
	switch msg.String() {
	case "esc":
		fb.closeEditor()
		fb.validationError = ""
		return fb, nil
	case "up", "ctrl+p":
		if fb.choiceIndex > 0 {
			fb.choiceIndex--
		}
		return fb, nil
	case "down", "ctrl+n":
		if fb.choiceIndex < len(fb.matches)-1 {
			fb.choiceIndex++
		}
		return fb, nil
	case "enter", "tab":
		if len(fb.matches) == 0 {
			fb.validationError = fmt.Sprintf("Attribute '%s' not found", fb.input.Value())
			return fb, nil
		}
		name := fb.matches[fb.choiceIndex].ItemName
		if err := fb.source.ChangeAttribute(fb.currentIndex, name, fb.now(), fb.Login); err != nil {
			fb.validationError = err.Error()
			return fb, nil
		}
		fb.validationError = ""
		fb.closeEditor()
		if msg.String() == "tab" {
			fb.startSelector()
		}
		return fb, nil
	}

	var cmd tea.Cmd
	fb.input, cmd = fb.input.Update(msg)
	fb.refreshMatches()
	return fb, cmd
}

// handleSelectorMode handles selector selection
func (fb *FilterBuilder) handleSelectorMode(msg tea.KeyMsg) (*FilterBuilder, tea.Cmd) {
	switch msg.String() {
	case "esc":
		fb.closeEditor()
	case "up", "k":
		if fb.choiceIndex > 0 {
			fb.choiceIndex--
		}
	case "down", "j":
		if fb.choiceIndex < len(fb.selectors)-1 {
			fb.choiceIndex++
		}
	case "enter", "tab":
		item, ok := fb.current()
		if !ok {
			fb.closeEditor()
			return fb, nil
		}
		item.Selector = fb.selectors[fb.choiceIndex]
		if err := fb.source.UpdateSelector(fb.currentIndex, item); err != nil {
			fb.validationError = err.Error()
			return fb, nil
		}
		fb.closeEditor()
		if msg.String() == "tab" {
			fb.startValue()
		}
	}
	return fb, nil
}

// handleValueMode handles free value input
func (fb *FilterBuilder) handleValueMode(msg tea.KeyMsg) (*FilterBuilder, tea.Cmd) {
	switch msg.String() {
	case "esc":
		fb.closeEditor()
		return fb, nil
	case "enter", "tab":
		item, ok := fb.current()
		if !ok {
			fb.closeEditor()
			return fb, nil
		}
		value := strings.TrimSpace(fb.input.Value())
		if err := validateValue(fb.source.Catalog().InputType(item.AttributeName), value); err != nil {
			fb.validationError = err.Error()
			return fb, nil
		}
		item.AttributeValue = value
		if err := fb.source.UpdateSelector(fb.currentIndex, item); err != nil {
			fb.validationError = err.Error()
			return fb, nil
		}
		fb.validationError = ""
		fb.closeEditor()
		return fb, nil
	}

	var cmd tea.Cmd
	fb.input, cmd = fb.input.Update(msg)
	return fb, cmd
}

func validateValue(itemType models.ItemType, value string) error {
	if value == "" {
		return nil
	}
	switch itemType {
	case models.TypeNumber:
		for _, part := range strings.Split(value, ",") {
			if _, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64); err != nil {
				return fmt.Errorf("'%s' is not a number", strings.TrimSpace(part))
			}
		}
	case models.TypeDate:
		if _, err := time.Parse("2006-01-02", value); err != nil {
			return fmt.Errorf("'%s' is not a date (YYYY-MM-DD)", value)
		}
	}
	return nil
}

// handleSetMode picks one of a fixed value set
func (fb *FilterBuilder) handleSetMode(msg tea.KeyMsg) (*FilterBuilder, tea.Cmd) {
	item, ok := fb.current()
	if !ok {
		fb.closeEditor()
		return fb, nil
	}
	values := fb.source.Catalog().ValueChoices(item.AttributeName)

	switch msg.String() {
	case "esc":
		fb.closeEditor()
	case "up", "k":
		if fb.choiceIndex > 0 {
			fb.choiceIndex--
		}
	case "down", "j":
		if fb.choiceIndex < len(values)-1 {
			fb.choiceIndex++
		}
	case "enter", "tab":
		if fb.choiceIndex < len(values) {
			item.AttributeValue = values[fb.choiceIndex]
			if err := fb.source.UpdateSelector(fb.currentIndex, item); err != nil {
				fb.validationError = err.Error()
				return fb, nil
			}
		}
		fb.closeEditor()
	}
	return fb, nil
}

// handlePipelineMode toggles pipelines of a multi-select filter
func (fb *FilterBuilder) handlePipelineMode(msg tea.KeyMsg) (*FilterBuilder, tea.Cmd) {
	item, ok := fb.current()
	if !ok {
		fb.closeEditor()
		return fb, nil
	}
	pipelines := fb.source.Pipelines()

	switch msg.String() {
	case "esc", "enter", "tab":
		fb.closeEditor()
	case "up", "k":
		if fb.choiceIndex > 0 {
			fb.choiceIndex--
		}
	case "down", "j":
		if fb.choiceIndex < len(pipelines)-1 {
			fb.choiceIndex++
		}
	case " ", "space":
		if fb.choiceIndex >= len(pipelines) {
			return fb, nil
		}
		id := strconv.FormatInt(pipelines[fb.choiceIndex].ID, 10)
		selected := slices.Clone(item.AttributeValueArr)
		if i := slices.Index(selected, id); i >= 0 {
			selected = slices.Delete(selected, i, i+1)
		} else {
			selected = append(selected, id)
		}
		if selected == nil {
			selected = []string{}
		}
		item.AttributeValueArr = selected
		if err := fb.source.UpdateSelector(fb.currentIndex, item); err != nil {
			fb.validationError = err.Error()
		}
	}
	return fb, nil
}

// handlePresetMode reads a preset name
func (fb *FilterBuilder) handlePresetMode(msg tea.KeyMsg) (*FilterBuilder, tea.Cmd) {
	switch msg.String() {
	case "esc":
		fb.closeEditor()
		return fb, nil
	case "enter":
		name := strings.TrimSpace(fb.input.Value())
		if name == "" {
			fb.validationError = "Preset name cannot be empty"
			return fb, nil
		}
		fb.validationError = ""
		fb.closeEditor()
		return fb, func() tea.Msg { return SavePresetMsg{Name: name} }
	}

	var cmd tea.Cmd
	fb.input, cmd = fb.input.Update(msg)
	return fb, cmd
}

func (fb *FilterBuilder) describe(item models.FilterItem) string {
	catalog := fb.source.Catalog()
	switch catalog.InputType(item.AttributeName) {
	case models.TypeBoolean:
		return fmt.Sprintf("%s %s", item.AttributeName, item.Selector)
	case models.TypePipelineList:
		names := make([]string, 0, len(item.AttributeValueArr))
		for _, id := range item.AttributeValueArr {
			names = append(names, fb.pipelineName(id))
		}
		return fmt.Sprintf("%s %s [%s]", item.AttributeName, item.Selector, strings.Join(names, ", "))
	}
	return fmt.Sprintf("%s %s %q", item.AttributeName, item.Selector, item.AttributeValue)
}

func (fb *FilterBuilder) pipelineName(id string) string {
	for _, p := range fb.source.Pipelines() {
		if strconv.FormatInt(p.ID, 10) == id {
			return p.Name
		}
	}
	return "#" + id
}

// View renders the filter builder
func (fb *FilterBuilder) View() string {
	if fb.source == nil {
		return ""
	}
	var sections []string

	titleStyle := lipgloss.NewStyle().
		Foreground(fb.Theme.Foreground).
		Background(fb.Theme.Info).
		Padding(0, 1).
		Bold(true)
	sections = append(sections, titleStyle.Render("Filters"))

	instructionStyle := lipgloss.NewStyle().
		Foreground(fb.Theme.Muted).
		Padding(0, 1)

	var instructions string
	switch fb.editMode {
	case "attribute":
		instructions = "Type to search, ↑↓ pick, Enter confirm, Tab confirm and edit selector, Esc cancel"
	case "selector", "set":
		instructions = "↑↓ Select, Enter confirm, Tab confirm and edit value, Esc cancel"
	case "value":
		instructions = "Type value, Enter confirm, Esc cancel"
	case "pipelines":
		instructions = "↑↓ Move, Space toggle, Enter done"
	case "preset":
		instructions = "Preset name, Enter save, Esc cancel"
	default:
		instructions = "a=Add d=Delete e=Attribute o=Selector v=Value P=Save preset Enter=Apply Esc=Close"
	}
	sections = append(sections, instructionStyle.Render(instructions))

	if fb.validationError != "" {
		errorStyle := lipgloss.NewStyle().
			Foreground(fb.Theme.Error).
			Padding(0, 1).
			Bold(true)
		sections = append(sections, errorStyle.Render("Error: "+fb.validationError))
	}

	list := fb.source.Filters().FilterList
	if len(list) == 0 {
		sections = append(sections, "\nNo filters, all rows are listed. Press 'a' to add one.")
	} else {
		sections = append(sections, "\nAll of:")
		for i, item := range list {
			style := lipgloss.NewStyle().Padding(0, 1)
			if i == fb.currentIndex {
				style = style.Background(fb.Theme.Selection).Foreground(fb.Theme.Foreground)
			}
			sections = append(sections, style.Render(fmt.Sprintf(" %d. %s", i+1, fb.describe(item))))
		}
	}

	if editor := fb.renderEditor(); editor != "" {
		sections = append(sections, "", editor)
	}

	if query, err := fb.source.FilterQuery(); err != nil {
		sections = append(sections, "\nQuery: "+err.Error())
	} else if query != "" {
		previewStyle := lipgloss.NewStyle().
			Foreground(fb.Theme.Muted).
			Padding(0, 1).
			Italic(true).
			Width(max(fb.Width-6, 20))
		sections = append(sections, "\nQuery:", previewStyle.Render(query))
	}

	containerStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(fb.Theme.BorderFocused).
		Foreground(fb.Theme.Foreground).
		Width(fb.Width).
		Height(fb.Height).
		Padding(1)

	return containerStyle.Render(strings.Join(sections, "\n"))
}

func (fb *FilterBuilder) renderEditor() string {
	choice := func(i int, label string) string {
		style := lipgloss.NewStyle().Padding(0, 1)
		if i == fb.choiceIndex {
			style = style.Background(fb.Theme.Selection).Foreground(fb.Theme.Foreground)
		}
		return style.Render("  " + label)
	}

	var lines []string
	switch fb.editMode {
	case "attribute":
		lines = append(lines, "Attribute: "+fb.input.View())
		for i, item := range fb.matches {
			if i >= 8 {
				lines = append(lines, fmt.Sprintf("  … %d more", len(fb.matches)-i))
				break
			}
			lines = append(lines, choice(i, fmt.Sprintf("%-20s %s", item.ItemName, item.ItemType)))
		}
	case "selector":
		lines = append(lines, "Selector:")
		for i, sel := range fb.selectors {
			lines = append(lines, choice(i, string(sel)))
		}
	case "set":
		item, _ := fb.current()
		lines = append(lines, "Value:")
		for i, v := range fb.source.Catalog().ValueChoices(item.AttributeName) {
			lines = append(lines, choice(i, v))
		}
	case "value":
		lines = append(lines, "Value: "+fb.input.View())
	case "pipelines":
		item, _ := fb.current()
		lines = append(lines, "Pipelines:")
		pipelines := fb.source.Pipelines()
		if len(pipelines) == 0 {
			lines = append(lines, "  (no pipelines loaded)")
		}
		for i, p := range pipelines {
			mark := "[ ]"
			if slices.Contains(item.AttributeValueArr, strconv.FormatInt(p.ID, 10)) {
				mark = "[x]"
			}
			lines = append(lines, choice(i, fmt.Sprintf("%s %s (%s)", mark, p.Name, p.Type)))
		}
	case "preset":
		lines = append(lines, "Save as: "+fb.input.View())
	}
	return strings.Join(lines, "\n")
}
