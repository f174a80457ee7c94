package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexanderramin/taktplan/internal/domain"
)

// StructureReader looks up single nodes of the location tree.
type StructureReader interface {
	GetUnit(ctx context.Context, id string) (*domain.Location, error)
	GetLevel(ctx context.Context, id string) (*domain.Location, error)
	GetStairwell(ctx context.Context, id string) (*domain.Location, error)
	GetSection(ctx context.Context, id string) (*domain.Location, error)
}

type TemplateReader interface {
	GetByID(ctx context.Context, id string) (*domain.Template, error)
}

type lookup struct {
	kind domain.LocationKind
	get  func(ctx context.Context, id string) (*domain.Location, error)
}

// Resolver finds the template that applies to a unit: the unit's own
// binding, else the nearest bound ancestor (level, stairwell, section).
// Templates are cached for the lifetime of the resolver, so create one per
// operation.
type Resolver struct {
	chain     []lookup
	templates TemplateReader
	cache     map[string]*domain.Template
}

func NewResolver(structure StructureReader, templates TemplateReader) *Resolver {
	return &Resolver{
		chain: []lookup{
			{domain.KindUnit, structure.GetUnit},
			{domain.KindLevel, structure.GetLevel},
			{domain.KindStairwell, structure.GetStairwell},
			{domain.KindSection, structure.GetSection},
		},
		templates: templates,
		cache:     make(map[string]*domain.Template),
	}
}

// Resolve returns nil without error when no template is bound anywhere on
// the path, or when an ancestor is missing. A missing unit is an error.
func (r *Resolver) Resolve(ctx context.Context, unitID string) (*domain.Template, error) {
	id := unitID
	for i, step := range r.chain {
		loc, err := step.get(ctx, id)
		if err != nil {
			if i > 0 && errors.Is(err, domain.ErrNotFound) {
				return nil, nil
			}
			return nil, fmt.Errorf("resolving template for unit %s: %w", unitID, err)
		}
		if loc.TemplateID != nil {
			return r.template(ctx, *loc.TemplateID)
		}
		id = loc.ParentID
	}
	return nil, nil
}

func (r *Resolver) template(ctx context.Context, id string) (*domain.Template, error) {
	if t, ok := r.cache[id]; ok {
		return t, nil
	}
	t, err := r.templates.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading template %s: %w", id, err)
	}
	r.cache[id] = t
	return t, nil
}
