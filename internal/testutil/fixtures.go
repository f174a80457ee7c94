package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/alexanderramin/taktplan/internal/domain"
	"github.com/google/uuid"
)

var testShortIDCounter atomic.Int64

// Date returns a UTC calendar date.
func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DatePtr returns a pointer to a UTC calendar date.
func DatePtr(y int, m time.Month, d int) *time.Time {
	t := Date(y, m, d)
	return &t
}

// Project options
type ProjectOption func(*domain.Project)

func WithShortID(id string) ProjectOption {
	return func(p *domain.Project) {
		p.ShortID = id
	}
}

func WithStartDate(d time.Time) ProjectOption {
	return func(p *domain.Project) {
		p.StartDate = d
	}
}

func defaultShortID(name string) string {
	upper := strings.ToUpper(name)
	var letters []byte
	for i := 0; i < len(upper) && len(letters) < 3; i++ {
		if upper[i] >= 'A' && upper[i] <= 'Z' {
			letters = append(letters, upper[i])
		}
	}
	for len(letters) < 3 {
		letters = append(letters, 'X')
	}
	n := testShortIDCounter.Add(1)
	return fmt.Sprintf("%s%02d", string(letters), n)
}

func NewTestProject(name string, opts ...ProjectOption) *domain.Project {
	now := time.Now().UTC().Truncate(time.Second)
	p := &domain.Project{
		ID:        uuid.New().String(),
		ShortID:   defaultShortID(name),
		Name:      name,
		StartDate: Date(2025, 1, 6),
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Location options
type LocationOption func(*domain.Location)

func WithTemplate(templateID string) LocationOption {
	return func(l *domain.Location) {
		l.TemplateID = &templateID
	}
}

func NewTestLocation(kind domain.LocationKind, parentID, name string, opts ...LocationOption) *domain.Location {
	l := &domain.Location{
		ID:        uuid.New().String(),
		Kind:      kind,
		ParentID:  parentID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Building is an unsaved location tree. Nodes lists every location with
// parents before children, ready to be inserted in order.
type Building struct {
	Sections   []*domain.Location
	Stairwells []*domain.Location
	Levels     []*domain.Location
	Units      []*domain.Location
	Nodes      []*domain.Location
}

// NewBuilding creates sections x stairwells x levels x units nodes named
// "BT1", "Stiege 1", "E0", "Top 1" and so on. Unit names are unique per
// building. Creation timestamps increase strictly so listings keep the
// construction order.
func NewBuilding(projectID string, sections, stairwells, levels, units int) *Building {
	b := &Building{}
	clock := time.Now().UTC()
	next := func(kind domain.LocationKind, parentID, name string) *domain.Location {
		clock = clock.Add(time.Millisecond)
		l := NewTestLocation(kind, parentID, name)
		l.CreatedAt = clock
		b.Nodes = append(b.Nodes, l)
		return l
	}
	top := 0
	for s := 1; s <= sections; s++ {
		sec := next(domain.KindSection, projectID, fmt.Sprintf("BT%d", s))
		b.Sections = append(b.Sections, sec)
		for sw := 1; sw <= stairwells; sw++ {
			stw := next(domain.KindStairwell, sec.ID, fmt.Sprintf("Stiege %d", sw))
			b.Stairwells = append(b.Stairwells, stw)
			for l := 0; l < levels; l++ {
				lvl := next(domain.KindLevel, stw.ID, fmt.Sprintf("E%d", l))
				b.Levels = append(b.Levels, lvl)
				for u := 0; u < units; u++ {
					top++
					b.Units = append(b.Units, next(domain.KindUnit, lvl.ID, fmt.Sprintf("Top %d", top)))
				}
			}
		}
	}
	return b
}

// Step options
type StepOption func(*domain.Step)

func WithParallel() StepOption {
	return func(s *domain.Step) {
		s.Parallel = true
	}
}

func WithCategory(c string) StepOption {
	return func(s *domain.Step) {
		s.Category = c
	}
}

func NewTestStep(activity string, order, durationDays int, opts ...StepOption) domain.Step {
	s := domain.Step{
		ID:           uuid.New().String(),
		Order:        order,
		Activity:     activity,
		DurationDays: durationDays,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// NewTestTemplate assigns the template ID and insertion positions to steps.
func NewTestTemplate(name string, steps ...domain.Step) *domain.Template {
	now := time.Now().UTC().Truncate(time.Second)
	t := &domain.Template{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for i, s := range steps {
		s.TemplateID = t.ID
		s.Position = i
		t.Steps = append(t.Steps, s)
	}
	return t
}

func NewTestUser(name string, role domain.UserRole) *domain.User {
	return &domain.User{
		ID:        uuid.New().String(),
		Name:      name,
		Role:      role,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

// Task options
type TaskOption func(*domain.Task)

func WithPlanned(start, end time.Time) TaskOption {
	return func(t *domain.Task) {
		t.PlannedStart = &start
		t.PlannedEnd = &end
	}
}

func WithActualStart(d time.Time) TaskOption {
	return func(t *domain.Task) {
		t.ActualStart = &d
		t.Status = domain.StatusInProgress
	}
}

func WithActualEnd(d time.Time) TaskOption {
	return func(t *domain.Task) {
		t.ActualEnd = &d
		t.Status = domain.StatusDone
	}
}

func WithAssignee(userID string) TaskOption {
	return func(t *domain.Task) {
		t.AssigneeID = &userID
	}
}

func NewTestTask(projectID, unitID, stepID string, opts ...TaskOption) *domain.Task {
	now := time.Now().UTC().Truncate(time.Second)
	t := &domain.Task{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		UnitID:    unitID,
		StepID:    stepID,
		Status:    domain.StatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}
