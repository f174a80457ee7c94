package audit

import (
	"context"

	"github.com/alexanderramin/taktplan/internal/domain"
	"github.com/rs/zerolog"
)

// Store is the persistence the store sink writes through.
type Store interface {
	Insert(ctx context.Context, e *domain.AuditEntry) error
}

// StoreSink writes entries to the audit table. It is given the database
// handle, not a transaction, so entries survive a rolled back operation.
type StoreSink struct {
	store Store
}

func NewStoreSink(store Store) *StoreSink {
	return &StoreSink{store: store}
}

func (s *StoreSink) Write(ctx context.Context, e *domain.AuditEntry) error {
	return s.store.Insert(ctx, e)
}

// LogSink emits entries as structured log events.
type LogSink struct {
	logger zerolog.Logger
}

func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Write(_ context.Context, e *domain.AuditEntry) error {
	ev := s.logger.Info()
	if !e.OK {
		ev = s.logger.Warn()
	}
	ev.Str("audit_id", e.ID).
		Str("action", e.Action).
		Bool("ok", e.OK).
		Str("project_id", e.ProjectID).
		Fields(summary(e.Details)).
		Msg("audit")
	return nil
}

// summary keeps the scalar counters of a details map; per-task change
// lists stay in the store.
func summary(details map[string]any) map[string]any {
	out := make(map[string]any, len(details))
	for k, v := range details {
		switch v.(type) {
		case int, int64, float64, bool, string:
			out[k] = v
		}
	}
	return out
}
