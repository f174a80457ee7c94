package importer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ImportSchema is the top-level structure of an import file. Every part is
// optional; a file may carry only templates, only a structure, or both.
type ImportSchema struct {
	Project   *ProjectImport   `json:"project,omitempty" yaml:"project,omitempty"`
	Templates []TemplateImport `json:"templates,omitempty" yaml:"templates,omitempty"`
	Users     []UserImport     `json:"users,omitempty" yaml:"users,omitempty"`
	Sections  []SectionImport  `json:"sections,omitempty" yaml:"sections,omitempty"`
}

// ProjectImport creates a new project to hold the imported structure.
type ProjectImport struct {
	ShortID   string `json:"short_id" yaml:"short_id"`
	Name      string `json:"name" yaml:"name"`
	StartDate string `json:"start_date" yaml:"start_date"`
}

type TemplateImport struct {
	Name  string       `json:"name" yaml:"name"`
	Steps []StepImport `json:"steps" yaml:"steps"`
}

// StepImport defines one step. Order defaults to the step's position in
// the list (1-based).
type StepImport struct {
	Activity     string `json:"activity" yaml:"activity"`
	Category     string `json:"category,omitempty" yaml:"category,omitempty"`
	Order        *int   `json:"order,omitempty" yaml:"order,omitempty"`
	DurationDays int    `json:"duration_days,omitempty" yaml:"duration_days,omitempty"`
	Parallel     bool   `json:"parallel,omitempty" yaml:"parallel,omitempty"`
}

type UserImport struct {
	Name string `json:"name" yaml:"name"`
	Role string `json:"role" yaml:"role"`
}

// Structure nodes reference templates by name. The name may point to a
// template in the same file or one that already exists.
type SectionImport struct {
	Name       string            `json:"name" yaml:"name"`
	Template   string            `json:"template,omitempty" yaml:"template,omitempty"`
	Stairwells []StairwellImport `json:"stairwells,omitempty" yaml:"stairwells,omitempty"`
}

type StairwellImport struct {
	Name     string        `json:"name" yaml:"name"`
	Template string        `json:"template,omitempty" yaml:"template,omitempty"`
	Levels   []LevelImport `json:"levels,omitempty" yaml:"levels,omitempty"`
}

type LevelImport struct {
	Name     string       `json:"name" yaml:"name"`
	Template string       `json:"template,omitempty" yaml:"template,omitempty"`
	Units    []UnitImport `json:"units,omitempty" yaml:"units,omitempty"`
}

type UnitImport struct {
	Name     string `json:"name" yaml:"name"`
	Template string `json:"template,omitempty" yaml:"template,omitempty"`
}

// LoadImportSchema reads an import file. Files ending in .json are parsed
// as JSON, everything else as YAML.
func LoadImportSchema(path string) (*ImportSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ParseJSON(data)
	}
	return ParseYAML(data)
}

func ParseJSON(data []byte) (*ImportSchema, error) {
	var schema ImportSchema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("parsing import file: %w", err)
	}
	return &schema, nil
}

func ParseYAML(data []byte) (*ImportSchema, error) {
	var schema ImportSchema
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("parsing import file: %w", err)
	}
	return &schema, nil
}
