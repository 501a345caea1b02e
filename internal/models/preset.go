package models

import "time"

// Preset is a named filter list saved locally for reuse
type Preset struct {
	ID          string     `yaml:"id" json:"id"`
	Name        string     `yaml:"name" json:"name"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	List        ListKind   `yaml:"list" json:"list"`
	Filters     FilterList `yaml:"filters" json:"filters"`
	Tags        []string   `yaml:"tags,omitempty" json:"tags,omitempty"`
	CreatedAt   time.Time  `yaml:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `yaml:"updated_at" json:"updatedAt"`
	UsageCount  int        `yaml:"usage_count" json:"usageCount"`
	LastUsed    time.Time  `yaml:"last_used,omitempty" json:"lastUsed,omitempty"`
}
