package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProject_Normalize(t *testing.T) {
	vienna := time.FixedZone("CET", 3600)
	p := &Project{
		Name:      "  Wohnanlage Nord ",
		ShortID:   " wha01",
		StartDate: time.Date(2025, 1, 6, 7, 30, 0, 0, vienna),
	}
	p.Normalize()

	assert.Equal(t, "Wohnanlage Nord", p.Name)
	assert.Equal(t, "WHA01", p.ShortID)
	assert.Equal(t, time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC), p.StartDate)

	empty := &Project{Name: "Seestadt"}
	empty.Normalize()
	assert.True(t, empty.StartDate.IsZero())
}

func TestProject_Validate(t *testing.T) {
	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		project Project
		wantErr []string
	}{
		{"complete", Project{Name: "Wohnanlage Nord", ShortID: "WHA01", StartDate: start}, nil},
		{"short id optional", Project{Name: "Seestadt", StartDate: start}, nil},
		{"missing name", Project{StartDate: start}, []string{"name is required"}},
		{"missing start", Project{Name: "Seestadt"}, []string{"start date is required"}},
		{"bad short id", Project{Name: "Seestadt", ShortID: "WOHNBAU", StartDate: start}, []string{"uppercase letters"}},
		{"all at once", Project{ShortID: "AB1"}, []string{"name is required", "start date is required", "AB1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.project.Validate()
			if len(tt.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, want := range tt.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestProject_ValidateShortID(t *testing.T) {
	for _, id := range []string{"WHA01", "BAU0234", "ABCDEF01", "STG12"} {
		p := &Project{ShortID: id}
		assert.NoError(t, p.ValidateShortID(), id)
	}
	for _, id := range []string{"", "wha01", "AB1", "WOHNBAU", "ABCDEFG01", "WHA12345"} {
		p := &Project{ShortID: id}
		assert.Error(t, p.ValidateShortID(), id)
	}
}

func TestProject_DisplayID(t *testing.T) {
	assert.Equal(t, "WHA01", (&Project{ID: "550e8400-e29b-41d4-a716-446655440000", ShortID: "WHA01"}).DisplayID())
	assert.Equal(t, "550e8400", (&Project{ID: "550e8400-e29b-41d4-a716-446655440000"}).DisplayID())
	assert.Equal(t, "abc", (&Project{ID: "abc"}).DisplayID())
}
