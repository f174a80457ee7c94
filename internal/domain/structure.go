package domain

import "time"

// Location is a node in the Section > Stairwell > Level > Unit hierarchy.
// For sections ParentID holds the owning project ID.
type Location struct {
	ID         string
	Kind       LocationKind
	ParentID   string
	Name       string
	TemplateID *string
	CreatedAt  time.Time
}

// UnitRef is a unit together with the names and IDs of its ancestors.
type UnitRef struct {
	ProjectID     string
	UnitID        string
	UnitName      string
	LevelID       string
	LevelName     string
	StairwellID   string
	StairwellName string
	SectionID     string
	SectionName   string
}

// StructureFilter selects units by ancestor names or explicit IDs.
// Empty lists do not constrain; values within a list are OR-ed and lists
// are AND-ed together.
type StructureFilter struct {
	Sections   []string
	Stairwells []string
	Levels     []string
	Units      []string
	UnitIDs    []string
}

// IsEmpty reports whether the filter selects every unit.
func (f StructureFilter) IsEmpty() bool {
	return len(f.Sections) == 0 && len(f.Stairwells) == 0 && len(f.Levels) == 0 &&
		len(f.Units) == 0 && len(f.UnitIDs) == 0
}

// Matches evaluates the filter against a unit in memory.
func (f StructureFilter) Matches(u UnitRef) bool {
	return anyOf(f.Sections, u.SectionName) &&
		anyOf(f.Stairwells, u.StairwellName) &&
		anyOf(f.Levels, u.LevelName) &&
		anyOf(f.Units, u.UnitName) &&
		anyOf(f.UnitIDs, u.UnitID)
}

func anyOf(values []string, v string) bool {
	if len(values) == 0 {
		return true
	}
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
