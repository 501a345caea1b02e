package components

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rebeliceyang/lazyca/internal/export"
	"github.com/rebeliceyang/lazyca/internal/models"
	"github.com/rebeliceyang/lazyca/internal/ui/theme"
)

// ApplyPresetMsg is sent when a preset should replace the current filters
type ApplyPresetMsg struct {
	Preset models.Preset
}

// DeletePresetMsg is sent when a preset should be removed
type DeletePresetMsg struct {
	ID string
}

// ClosePresetsDialogMsg is sent when dialog should close
type ClosePresetsDialogMsg struct{}

// PresetsDialog lists the saved filter presets of a list
type PresetsDialog struct {
	Width  int
	Height int
	Theme  theme.Theme

	presets  []models.Preset
	selected int
	offset   int
}

// NewPresetsDialog creates a new presets dialog
func NewPresetsDialog(th theme.Theme) *PresetsDialog {
	return &PresetsDialog{
		Width:   80,
		Height:  24,
		Theme:   th,
		presets: []models.Preset{},
	}
}

// SetPresets updates the presets list
func (pd *PresetsDialog) SetPresets(presets []models.Preset) {
	pd.presets = presets
	if pd.selected >= len(presets) {
		pd.selected = max(len(presets)-1, 0)
	}
	if pd.offset > pd.selected {
		pd.offset = pd.selected
	}
}

func (pd *PresetsDialog) visibleHeight() int {
	return max((pd.Height-8)/2, 1)
}

// Update handles keyboard input
func (pd *PresetsDialog) Update(msg tea.KeyMsg) (*PresetsDialog, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		return pd, func() tea.Msg { return ClosePresetsDialogMsg{} }
	case "up", "k":
		if pd.selected > 0 {
			pd.selected--
			if pd.selected < pd.offset {
				pd.offset = pd.selected
			}
		}
	case "down", "j":
		if pd.selected < len(pd.presets)-1 {
			pd.selected++
			if pd.selected >= pd.offset+pd.visibleHeight() {
				pd.offset = pd.selected - pd.visibleHeight() + 1
			}
		}
	case "enter":
		if pd.selected < len(pd.presets) {
			preset := pd.presets[pd.selected]
			return pd, func() tea.Msg { return ApplyPresetMsg{Preset: preset} }
		}
	case "d", "x":
		if pd.selected < len(pd.presets) {
			id := pd.presets[pd.selected].ID
			return pd, func() tea.Msg { return DeletePresetMsg{ID: id} }
		}
	}
	return pd, nil
}

// View renders the dialog
func (pd *PresetsDialog) View() string {
	var sections []string

	titleStyle := lipgloss.NewStyle().
		Foreground(pd.Theme.Foreground).
		Background(pd.Theme.Info).
		Padding(0, 1).
		Bold(true)
	sections = append(sections, titleStyle.Render("Filter Presets"))

	instrStyle := lipgloss.NewStyle().
		Foreground(pd.Theme.Muted).
		Padding(0, 1)
	sections = append(sections, instrStyle.Render("↑↓: Navigate  Enter: Apply  d: Delete  Esc: Close  (P in the filter builder saves)"))

	if len(pd.presets) == 0 {
		sections = append(sections, "\nNo presets yet. Open the filters with 'f' and press 'P' to save one.")
	} else {
		sections = append(sections, "")
		end := min(pd.offset+pd.visibleHeight(), len(pd.presets))

		for i := pd.offset; i < end; i++ {
			p := pd.presets[i]

			name := p.Name
			if len(name) > 40 {
				name = name[:37] + "..."
			}
			filters := export.FormatFilters(p.Filters)
			if len(filters) > pd.Width-10 && pd.Width > 20 {
				filters = filters[:pd.Width-13] + "..."
			}

			line := fmt.Sprintf("%s (used %d×)\n  %s", name, p.UsageCount, filters)
			if len(p.Tags) > 0 {
				line += fmt.Sprintf(" [%s]", strings.Join(p.Tags, ", "))
			}

			style := lipgloss.NewStyle().Padding(0, 1)
			if i == pd.selected {
				style = style.Background(pd.Theme.Selection).Foreground(pd.Theme.Foreground)
			}
			sections = append(sections, style.Render(line))
		}
	}

	containerStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(pd.Theme.Border).
		Width(pd.Width).
		Height(pd.Height).
		Padding(1)

	return containerStyle.Render(strings.Join(sections, "\n"))
}
