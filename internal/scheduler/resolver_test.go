package scheduler

import (
	"context"
	"fmt"
	"testing"

	"github.com/alexanderramin/taktplan/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStructure struct {
	nodes map[domain.LocationKind]map[string]*domain.Location
	calls int
}

func newFakeStructure() *fakeStructure {
	return &fakeStructure{nodes: map[domain.LocationKind]map[string]*domain.Location{
		domain.KindSection: {}, domain.KindStairwell: {}, domain.KindLevel: {}, domain.KindUnit: {},
	}}
}

func (f *fakeStructure) add(kind domain.LocationKind, id, parent string, templateID *string) {
	f.nodes[kind][id] = &domain.Location{ID: id, Kind: kind, ParentID: parent, Name: id, TemplateID: templateID}
}

func (f *fakeStructure) get(kind domain.LocationKind, id string) (*domain.Location, error) {
	f.calls++
	loc, ok := f.nodes[kind][id]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", kind, id, domain.ErrNotFound)
	}
	return loc, nil
}

func (f *fakeStructure) GetUnit(_ context.Context, id string) (*domain.Location, error) {
	return f.get(domain.KindUnit, id)
}
func (f *fakeStructure) GetLevel(_ context.Context, id string) (*domain.Location, error) {
	return f.get(domain.KindLevel, id)
}
func (f *fakeStructure) GetStairwell(_ context.Context, id string) (*domain.Location, error) {
	return f.get(domain.KindStairwell, id)
}
func (f *fakeStructure) GetSection(_ context.Context, id string) (*domain.Location, error) {
	return f.get(domain.KindSection, id)
}

type fakeTemplates struct {
	templates map[string]*domain.Template
	calls     int
}

func (f *fakeTemplates) GetByID(_ context.Context, id string) (*domain.Template, error) {
	f.calls++
	t, ok := f.templates[id]
	if !ok {
		return nil, fmt.Errorf("template %s: %w", id, domain.ErrNotFound)
	}
	return t, nil
}

func ptr(s string) *string { return &s }

func buildTree(unitTpl, levelTpl, stairwellTpl, sectionTpl *string) *fakeStructure {
	s := newFakeStructure()
	s.add(domain.KindSection, "bt1", "p1", sectionTpl)
	s.add(domain.KindStairwell, "st1", "bt1", stairwellTpl)
	s.add(domain.KindLevel, "e1", "st1", levelTpl)
	s.add(domain.KindUnit, "top1", "e1", unitTpl)
	return s
}

func TestResolver_NearestBindingWins(t *testing.T) {
	tpls := &fakeTemplates{templates: map[string]*domain.Template{
		"unit": {ID: "unit"}, "level": {ID: "level"}, "stairwell": {ID: "stairwell"}, "section": {ID: "section"},
	}}
	tests := []struct {
		name string
		tree *fakeStructure
		want string
	}{
		{"unit binding", buildTree(ptr("unit"), ptr("level"), ptr("stairwell"), ptr("section")), "unit"},
		{"level binding", buildTree(nil, ptr("level"), ptr("stairwell"), ptr("section")), "level"},
		{"stairwell binding", buildTree(nil, nil, ptr("stairwell"), ptr("section")), "stairwell"},
		{"section binding", buildTree(nil, nil, nil, ptr("section")), "section"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewResolver(tt.tree, tpls).Resolve(context.Background(), "top1")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.ID)
		})
	}
}

func TestResolver_NoBindingReturnsNil(t *testing.T) {
	got, err := NewResolver(buildTree(nil, nil, nil, nil), &fakeTemplates{}).Resolve(context.Background(), "top1")

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestResolver_MissingAncestorShortCircuits(t *testing.T) {
	s := newFakeStructure()
	s.add(domain.KindUnit, "top1", "gone", nil)
	s.add(domain.KindSection, "bt1", "p1", ptr("section"))

	got, err := NewResolver(s, &fakeTemplates{}).Resolve(context.Background(), "top1")

	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 2, s.calls, "lookup stops at the missing level")
}

func TestResolver_MissingUnitIsError(t *testing.T) {
	_, err := NewResolver(newFakeStructure(), &fakeTemplates{}).Resolve(context.Background(), "nope")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResolver_CachesTemplates(t *testing.T) {
	s := buildTree(nil, ptr("level"), nil, nil)
	s.add(domain.KindUnit, "top2", "e1", nil)
	tpls := &fakeTemplates{templates: map[string]*domain.Template{"level": {ID: "level"}}}
	r := NewResolver(s, tpls)

	for _, id := range []string{"top1", "top2", "top1"} {
		got, err := r.Resolve(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, "level", got.ID)
	}
	assert.Equal(t, 1, tpls.calls)
}

func TestResolver_DanglingTemplateIsError(t *testing.T) {
	_, err := NewResolver(buildTree(ptr("deleted"), nil, nil, nil), &fakeTemplates{}).Resolve(context.Background(), "top1")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
