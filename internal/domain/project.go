package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var shortIDPattern = regexp.MustCompile(`^[A-Z]{3,6}[0-9]{2,4}$`)

// Project owns a start date and the location tree beneath it.
type Project struct {
	ID        string
	ShortID   string
	Name      string
	StartDate time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Normalize trims the name, upper-cases the short ID and cuts the start
// date down to its calendar day in UTC.
func (p *Project) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.ShortID = strings.ToUpper(strings.TrimSpace(p.ShortID))
	if !p.StartDate.IsZero() {
		p.StartDate = dayOf(p.StartDate)
	}
}

// Validate checks a project before it is stored. The short ID is optional;
// name and start date are not.
func (p *Project) Validate() error {
	var errs []error
	if p.Name == "" {
		errs = append(errs, errors.New("project name is required"))
	}
	if p.StartDate.IsZero() {
		errs = append(errs, errors.New("project start date is required"))
	}
	if p.ShortID != "" {
		if err := p.ValidateShortID(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ValidateShortID checks ShortID against the 3-6 letters, 2-4 digits
// format (WHA01, BAU0234).
func (p *Project) ValidateShortID() error {
	if p.ShortID == "" {
		return fmt.Errorf("short ID is required (use --id flag)")
	}
	if !shortIDPattern.MatchString(p.ShortID) {
		return fmt.Errorf("short ID %q must be 3-6 uppercase letters followed by 2-4 digits (e.g. WHA01)", p.ShortID)
	}
	return nil
}

// DisplayID prefers ShortID and falls back to the first 8 characters of ID.
func (p *Project) DisplayID() string {
	if p.ShortID != "" {
		return p.ShortID
	}
	if len(p.ID) >= 8 {
		return p.ID[:8]
	}
	return p.ID
}
