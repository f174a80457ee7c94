package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/taktplan/internal/domain"
	"github.com/google/uuid"
)

// Converted holds the domain objects built from a schema.
type Converted struct {
	Project   *domain.Project // nil when the file names no project
	Templates []*domain.Template
	Users     []*domain.User
	// Locations lists parents before children. Section ParentIDs are left
	// empty when the file names no project; the caller fills them in.
	Locations []*domain.Location
	// Bindings maps a location ID to the template name it is bound to.
	Bindings map[string]string
}

// Convert transforms a validated ImportSchema into domain objects ready for persistence.
// Call ValidateImportSchema first; Convert assumes the schema is valid.
func Convert(schema *ImportSchema) (*Converted, error) {
	now := time.Now().UTC()
	out := &Converted{Bindings: make(map[string]string)}

	if p := schema.Project; p != nil {
		start, err := time.Parse("2006-01-02", p.StartDate)
		if err != nil {
			return nil, fmt.Errorf("parsing start_date: %w", err)
		}
		out.Project = &domain.Project{
			ID:        uuid.New().String(),
			ShortID:   strings.ToUpper(p.ShortID),
			Name:      p.Name,
			StartDate: start,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}

	for _, t := range schema.Templates {
		tpl := &domain.Template{ID: uuid.New().String(), Name: t.Name, CreatedAt: now, UpdatedAt: now}
		for i, s := range t.Steps {
			tpl.Steps = append(tpl.Steps, domain.Step{
				ID:           uuid.New().String(),
				TemplateID:   tpl.ID,
				Position:     i,
				Order:        domain.IntFromPtrWithDefault(i+1, s.Order),
				Activity:     s.Activity,
				Category:     s.Category,
				DurationDays: domain.IntFromPtrWithDefault(1, positive(s.DurationDays)),
				Parallel:     s.Parallel,
			})
		}
		out.Templates = append(out.Templates, tpl)
	}

	for _, u := range schema.Users {
		out.Users = append(out.Users, &domain.User{
			ID:        uuid.New().String(),
			Name:      u.Name,
			Role:      domain.UserRole(u.Role),
			CreatedAt: now,
		})
	}

	projectID := ""
	if out.Project != nil {
		projectID = out.Project.ID
	}
	// Creation timestamps increase so listings keep file order.
	clock := now
	add := func(kind domain.LocationKind, parentID, name, template string) string {
		clock = clock.Add(time.Microsecond)
		loc := &domain.Location{
			ID:        uuid.New().String(),
			Kind:      kind,
			ParentID:  parentID,
			Name:      name,
			CreatedAt: clock,
		}
		out.Locations = append(out.Locations, loc)
		if template != "" {
			out.Bindings[loc.ID] = template
		}
		return loc.ID
	}
	for _, s := range schema.Sections {
		secID := add(domain.KindSection, projectID, s.Name, s.Template)
		for _, sw := range s.Stairwells {
			swID := add(domain.KindStairwell, secID, sw.Name, sw.Template)
			for _, l := range sw.Levels {
				lvlID := add(domain.KindLevel, swID, l.Name, l.Template)
				for _, u := range l.Units {
					add(domain.KindUnit, lvlID, u.Name, u.Template)
				}
			}
		}
	}

	return out, nil
}

// TemplateNames lists the distinct template names the structure binds,
// in first-use order.
func (c *Converted) TemplateNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, loc := range c.Locations {
		name, ok := c.Bindings[loc.ID]
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

func positive(n int) *int {
	if n < 1 {
		return nil
	}
	return &n
}
