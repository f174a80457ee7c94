package contract

import (
	"testing"
	"time"

	"github.com/alexanderramin/taktplan/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateUpdate(t *testing.T) {
	u, err := ParseDateUpdate("2025-02-03")
	require.NoError(t, err)
	assert.Equal(t, DateSet, u.Mode)
	assert.Equal(t, time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC), u.Date)

	u, err = ParseDateUpdate("Soll")
	require.NoError(t, err)
	assert.Equal(t, DateCopyPlanned, u.Mode)

	u, err = ParseDateUpdate("none")
	require.NoError(t, err)
	assert.Equal(t, DateClear, u.Mode)

	_, err = ParseDateUpdate("03.02.2025")
	assert.Error(t, err)
}

func TestDateUpdate_Resolve(t *testing.T) {
	planned := time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC)

	got := CopyPlanned().Resolve(&planned)
	require.NotNil(t, got)
	assert.Equal(t, planned, *got)
	assert.NotSame(t, &planned, got)

	assert.Nil(t, CopyPlanned().Resolve(nil))
	assert.Nil(t, ClearDate().Resolve(&planned))

	lit := time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, lit, *SetDate(lit).Resolve(&planned))
}

func TestTaskUpdate_AssigneeOnly(t *testing.T) {
	id := "sub-1"
	assert.True(t, TaskUpdate{AssigneeID: &id}.AssigneeOnly())

	status := domain.StatusDone
	assert.False(t, TaskUpdate{AssigneeID: &id, Status: &status}.AssigneeOnly())
	assert.False(t, TaskUpdate{ActualEnd: CopyPlanned()}.AssigneeOnly())
	assert.True(t, TaskUpdate{}.IsEmpty())
}

func TestChangeSet_AuditDetails(t *testing.T) {
	var c ChangeSet
	assert.True(t, c.IsEmpty())

	c.Merge(ChangeSet{
		Created: []TaskRef{{TaskID: "t1"}},
		Updated: []TaskChange{{TaskID: "t2", Fields: map[string]FieldChange{
			"start_soll": {Old: "2025-01-06", New: "2025-01-13"},
			"end_soll":   {Old: "2025-01-08", New: "2025-01-15"},
		}}},
	})
	assert.False(t, c.IsEmpty())

	details := c.AuditDetails()
	assert.Equal(t, 1, details["created"])
	assert.Equal(t, 1, details["updated"])
	assert.Equal(t, 0, details["deleted"])
	assert.Equal(t, []string{"t1"}, details["created_ids"])
	assert.NotContains(t, details, "deleted_ids")
	assert.Equal(t, []string{"end_soll", "start_soll"}, c.ChangedFields())
}
