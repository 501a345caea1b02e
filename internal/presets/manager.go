package presets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rebeliceyang/lazyca/internal/export"
	"github.com/rebeliceyang/lazyca/internal/models"
	"gopkg.in/yaml.v3"
)

// Manager manages filter presets stored in a YAML file
type Manager struct {
	path    string
	presets []models.Preset
	now     func() time.Time
}

// NewManager creates a preset manager backed by path
func NewManager(path string) (*Manager, error) {
	m := &Manager{
		path:    path,
		presets: []models.Preset{},
		now:     time.Now,
	}

	if _, err := os.Stat(path); err == nil {
		if err := m.Load(); err != nil {
			return nil, fmt.Errorf("failed to load presets: %w", err)
		}
	}

	return m, nil
}

// Load loads presets from the YAML file
func (m *Manager) Load() error {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return fmt.Errorf("failed to read presets file: %w", err)
	}

	var presets []models.Preset
	if err := yaml.Unmarshal(data, &presets); err != nil {
		return fmt.Errorf("failed to parse presets: %w", err)
	}
	if presets == nil {
		presets = []models.Preset{}
	}
	m.presets = presets
	return nil
}

// Save writes presets to the YAML file
func (m *Manager) Save() error {
	data, err := yaml.Marshal(m.presets)
	if err != nil {
		return fmt.Errorf("failed to marshal presets: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(m.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write presets file: %w", err)
	}
	return nil
}

// Add stores the filter list under a new name. Names are unique per list,
// compared case-insensitively.
func (m *Manager) Add(name, description string, list models.ListKind, filters models.FilterList, tags []string) (*models.Preset, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("preset name cannot be empty")
	}
	if len(filters.FilterList) == 0 {
		return nil, fmt.Errorf("preset filter list cannot be empty")
	}
	if m.exists(list, name, "") {
		return nil, fmt.Errorf("a preset named '%s' already exists for %s", name, list)
	}

	now := m.now()
	preset := models.Preset{
		ID:          uuid.New().String(),
		Name:        name,
		Description: strings.TrimSpace(description),
		List:        list,
		Filters:     filters.Clone(),
		Tags:        tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	m.presets = append(m.presets, preset)
	if err := m.Save(); err != nil {
		return nil, fmt.Errorf("failed to save preset: %w", err)
	}
	return &preset, nil
}

// Update renames a preset and replaces its filter list
func (m *Manager) Update(id, name, description string, filters models.FilterList) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("preset name cannot be empty")
	}

	for i, p := range m.presets {
		if p.ID != id {
			continue
		}
		if m.exists(p.List, name, id) {
			return fmt.Errorf("a preset named '%s' already exists for %s", name, p.List)
		}
		m.presets[i].Name = name
		m.presets[i].Description = strings.TrimSpace(description)
		m.presets[i].Filters = filters.Clone()
		m.presets[i].UpdatedAt = m.now()
		if err := m.Save(); err != nil {
			return fmt.Errorf("failed to save preset: %w", err)
		}
		return nil
	}
	return fmt.Errorf("preset with ID '%s' was not found", id)
}

// Delete removes a preset by ID
func (m *Manager) Delete(id string) error {
	for i, p := range m.presets {
		if p.ID == id {
			m.presets = append(m.presets[:i], m.presets[i+1:]...)
			if err := m.Save(); err != nil {
				return fmt.Errorf("failed to save presets after deletion: %w", err)
			}
			return nil
		}
	}
	return fmt.Errorf("preset with ID '%s' was not found", id)
}

// Get returns a preset by ID or, failing that, by name
func (m *Manager) Get(idOrName string) (*models.Preset, error) {
	for _, p := range m.presets {
		if p.ID == idOrName {
			return &p, nil
		}
	}
	for _, p := range m.presets {
		if strings.EqualFold(p.Name, idOrName) {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("preset '%s' was not found", idOrName)
}

// GetAll returns all presets
func (m *Manager) GetAll() []models.Preset {
	return m.presets
}

// ForList returns the presets of one list, most used first
func (m *Manager) ForList(list models.ListKind) []models.Preset {
	var result []models.Preset
	for _, p := range m.presets {
		if p.List == list {
			result = append(result, p)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].UsageCount > result[j].UsageCount
	})
	return result
}

// Search matches presets by name, description or tag
func (m *Manager) Search(query string) []models.Preset {
	if query == "" {
		return m.presets
	}

	query = strings.ToLower(query)
	var results []models.Preset
	for _, p := range m.presets {
		if strings.Contains(strings.ToLower(p.Name), query) ||
			strings.Contains(strings.ToLower(p.Description), query) {
			results = append(results, p)
			continue
		}
		for _, tag := range p.Tags {
			if strings.Contains(strings.ToLower(tag), query) {
				results = append(results, p)
				break
			}
		}
	}
	return results
}

// RecordUsage updates usage statistics of a preset
func (m *Manager) RecordUsage(id string) error {
	for i, p := range m.presets {
		if p.ID == id {
			m.presets[i].UsageCount++
			m.presets[i].LastUsed = m.now()
			if err := m.Save(); err != nil {
				return fmt.Errorf("failed to save usage statistics: %w", err)
			}
			return nil
		}
	}
	return fmt.Errorf("preset with ID '%s' was not found", id)
}

// ExportToCSV exports all presets to a CSV file
func (m *Manager) ExportToCSV(customPath ...string) (string, error) {
	if len(m.presets) == 0 {
		return "", fmt.Errorf("no presets to export")
	}

	path := filepath.Join(filepath.Dir(m.path), "presets.csv")
	if len(customPath) > 0 && customPath[0] != "" {
		path = customPath[0]
	}

	if err := export.PresetsToCSV(m.presets, path); err != nil {
		return "", fmt.Errorf("failed to export presets to CSV: %w", err)
	}
	return path, nil
}

// ExportToJSON exports all presets to a JSON file
func (m *Manager) ExportToJSON(customPath ...string) (string, error) {
	if len(m.presets) == 0 {
		return "", fmt.Errorf("no presets to export")
	}

	path := filepath.Join(filepath.Dir(m.path), "presets.json")
	if len(customPath) > 0 && customPath[0] != "" {
		path = customPath[0]
	}

	if err := export.PresetsToJSON(m.presets, path); err != nil {
		return "", fmt.Errorf("failed to export presets to JSON: %w", err)
	}
	return path, nil
}

func (m *Manager) exists(list models.ListKind, name, exceptID string) bool {
	for _, p := range m.presets {
		if p.ID != exceptID && p.List == list && strings.EqualFold(p.Name, name) {
			return true
		}
	}
	return false
}
