package audit

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alexanderramin/taktplan/internal/domain"
	"github.com/alexanderramin/taktplan/internal/repository"
	"github.com/alexanderramin/taktplan/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSink struct {
	entries []*domain.AuditEntry
}

func (c *captureSink) Write(_ context.Context, e *domain.AuditEntry) error {
	c.entries = append(c.entries, e)
	return nil
}

type failingSink struct{ err error }

func (f failingSink) Write(context.Context, *domain.AuditEntry) error { return f.err }

type panickingSink struct{}

func (panickingSink) Write(context.Context, *domain.AuditEntry) error { panic("disk on fire") }

func TestRecorder_BuildsEntry(t *testing.T) {
	sink := &captureSink{}
	at := time.Date(2025, 1, 6, 9, 30, 0, 0, time.UTC)
	rec := NewRecorder(sink, zerolog.Nop(), WithClock(func() time.Time { return at }))

	rec.Record(context.Background(), ActionSync, true, "p1", map[string]any{"created": 3})

	require.Len(t, sink.entries, 1)
	e := sink.entries[0]
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, at, e.At)
	assert.Equal(t, ActionSync, e.Action)
	assert.True(t, e.OK)
	assert.Equal(t, "p1", e.ProjectID)
	assert.Equal(t, 3, e.Details["created"])
}

func TestRecorder_SwallowsSinkErrors(t *testing.T) {
	var buf bytes.Buffer
	rec := NewRecorder(failingSink{err: errors.New("database is locked")}, zerolog.New(&buf))

	assert.NotPanics(t, func() {
		rec.Record(context.Background(), ActionBulk, true, "p1", nil)
	})
	assert.Contains(t, buf.String(), "audit entry dropped")
	assert.Contains(t, buf.String(), "database is locked")
}

func TestRecorder_SwallowsSinkPanics(t *testing.T) {
	var buf bytes.Buffer
	rec := NewRecorder(panickingSink{}, zerolog.New(&buf))

	assert.NotPanics(t, func() {
		rec.Record(context.Background(), ActionShift, false, "", nil)
	})
	assert.Contains(t, buf.String(), "disk on fire")
}

func TestNewRecorder_NilSinkIsNop(t *testing.T) {
	assert.IsType(t, Nop{}, NewRecorder(nil, zerolog.Nop()))
}

func TestMulti_WritesAllAndJoinsErrors(t *testing.T) {
	a, b := &captureSink{}, &captureSink{}
	boom := errors.New("boom")
	m := Multi{a, failingSink{err: boom}, b}

	err := m.Write(context.Background(), &domain.AuditEntry{ID: "e1"})

	assert.ErrorIs(t, err, boom)
	assert.Len(t, a.entries, 1)
	assert.Len(t, b.entries, 1)
}

func TestStoreSink_PersistsEntries(t *testing.T) {
	database := testutil.NewTestDB(t)
	repo := repository.NewSQLiteAuditRepo(database)
	rec := NewRecorder(NewStoreSink(repo), zerolog.Nop())
	ctx := context.Background()

	rec.Record(ctx, ActionGenerate, true, "", map[string]any{"created": 2, "created_ids": []string{"a", "b"}})

	entries, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ActionGenerate, entries[0].Action)
	assert.EqualValues(t, 2, entries[0].Details["created"])
	assert.Equal(t, []any{"a", "b"}, entries[0].Details["created_ids"])
}

func TestLogSink_KeepsScalarsOnly(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(zerolog.New(&buf))

	err := sink.Write(context.Background(), &domain.AuditEntry{
		ID: "e1", Action: ActionBulk, OK: true,
		Details: map[string]any{"affected": 4, "changes": map[string]any{"t1": "x"}},
	})

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, `"affected":4`)
	assert.NotContains(t, out, `"changes"`)
	assert.Contains(t, out, `"action":"tasks.bulk"`)
}
