package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/taktplan/internal/domain"
)

// ValidateImportSchema checks the import schema for errors before conversion.
// Returns a slice of all validation errors found.
func ValidateImportSchema(schema *ImportSchema) []error {
	var errs []error

	if schema.Project != nil {
		errs = append(errs, validateProject(schema.Project)...)
	}

	templateNames := make(map[string]bool)
	errs = append(errs, validateTemplates(schema.Templates, templateNames)...)
	errs = append(errs, validateUsers(schema.Users)...)
	errs = append(errs, validateSections(schema.Sections)...)

	if len(schema.Templates) == 0 && len(schema.Users) == 0 && len(schema.Sections) == 0 && schema.Project == nil {
		errs = append(errs, fmt.Errorf("import file is empty"))
	}
	return errs
}

func validateProject(p *ProjectImport) []error {
	var errs []error

	if p.Name == "" {
		errs = append(errs, fmt.Errorf("project.name is required"))
	}
	if p.ShortID != "" {
		candidate := domain.Project{ShortID: strings.ToUpper(p.ShortID)}
		if err := candidate.ValidateShortID(); err != nil {
			errs = append(errs, fmt.Errorf("project.short_id: %w", err))
		}
	}
	if p.StartDate == "" {
		errs = append(errs, fmt.Errorf("project.start_date is required"))
	} else if _, err := time.Parse("2006-01-02", p.StartDate); err != nil {
		errs = append(errs, fmt.Errorf("project.start_date: invalid date format %q (expected YYYY-MM-DD)", p.StartDate))
	}
	return errs
}

func validateTemplates(templates []TemplateImport, names map[string]bool) []error {
	var errs []error

	for i, t := range templates {
		prefix := fmt.Sprintf("templates[%d]", i)

		if t.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		} else if names[t.Name] {
			errs = append(errs, fmt.Errorf("%s.name: duplicate template %q", prefix, t.Name))
		} else {
			names[t.Name] = true
		}

		if len(t.Steps) == 0 {
			errs = append(errs, fmt.Errorf("%s.steps: at least one step is required", prefix))
		}
		for j, s := range t.Steps {
			sp := fmt.Sprintf("%s.steps[%d]", prefix, j)
			if s.Activity == "" {
				errs = append(errs, fmt.Errorf("%s.activity is required", sp))
			}
			if s.DurationDays < 0 {
				errs = append(errs, fmt.Errorf("%s.duration_days must not be negative", sp))
			}
			if s.Order != nil && *s.Order < 0 {
				errs = append(errs, fmt.Errorf("%s.order must not be negative", sp))
			}
		}
	}
	return errs
}

func validateUsers(users []UserImport) []error {
	var errs []error

	for i, u := range users {
		prefix := fmt.Sprintf("users[%d]", i)
		if u.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		}
		if !domain.ValidUserRoles[u.Role] {
			errs = append(errs, fmt.Errorf("%s.role: invalid value %q", prefix, u.Role))
		}
	}
	return errs
}

func validateSections(sections []SectionImport) []error {
	var errs []error
	units := make(map[string]bool)

	for i, s := range sections {
		sp := fmt.Sprintf("sections[%d]", i)
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", sp))
		}
		for j, sw := range s.Stairwells {
			swp := fmt.Sprintf("%s.stairwells[%d]", sp, j)
			if sw.Name == "" {
				errs = append(errs, fmt.Errorf("%s.name is required", swp))
			}
			for k, l := range sw.Levels {
				lp := fmt.Sprintf("%s.levels[%d]", swp, k)
				if l.Name == "" {
					errs = append(errs, fmt.Errorf("%s.name is required", lp))
				}
				for m, u := range l.Units {
					up := fmt.Sprintf("%s.units[%d]", lp, m)
					key := s.Name + "/" + sw.Name + "/" + l.Name + "/" + u.Name
					switch {
					case u.Name == "":
						errs = append(errs, fmt.Errorf("%s.name is required", up))
					case units[key]:
						errs = append(errs, fmt.Errorf("%s.name: duplicate unit %q on %s", up, u.Name, l.Name))
					default:
						units[key] = true
					}
				}
			}
		}
	}
	return errs
}
