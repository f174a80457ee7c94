// Package audit records what mutating operations did. Recording is best
// effort: a failing sink is logged and never reported to the caller.
package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/taktplan/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Action names.
const (
	ActionGenerate     = "tasks.generate"
	ActionSync         = "tasks.sync"
	ActionShift        = "tasks.shift"
	ActionBulk         = "tasks.bulk"
	ActionTaskUpdate   = "task.update"
	ActionTaskDelete   = "task.delete"
	ActionBind         = "structure.bind"
	ActionNodeDelete   = "structure.delete"
	ActionTemplateSave = "template.save"
	ActionTemplateDrop = "template.delete"
	ActionImport       = "import"
)

// Sink persists or forwards an entry.
type Sink interface {
	Write(ctx context.Context, e *domain.AuditEntry) error
}

// Recorder is the write-only audit capability used by services.
type Recorder interface {
	Record(ctx context.Context, action string, ok bool, projectID string, details map[string]any)
}

// Nop drops every entry.
type Nop struct{}

func (Nop) Record(context.Context, string, bool, string, map[string]any) {}

type bestEffort struct {
	sink   Sink
	logger zerolog.Logger
	now    func() time.Time
}

type Option func(*bestEffort)

func WithClock(now func() time.Time) Option {
	return func(b *bestEffort) { b.now = now }
}

// NewRecorder wraps sink so that errors and panics are logged at warn level
// and swallowed.
func NewRecorder(sink Sink, logger zerolog.Logger, opts ...Option) Recorder {
	if sink == nil {
		return Nop{}
	}
	b := &bestEffort{sink: sink, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *bestEffort) Record(ctx context.Context, action string, ok bool, projectID string, details map[string]any) {
	e := &domain.AuditEntry{
		ID:        uuid.New().String(),
		At:        b.now().UTC(),
		Action:    action,
		OK:        ok,
		ProjectID: projectID,
		Details:   details,
	}
	if err := b.write(ctx, e); err != nil {
		b.logger.Warn().Err(err).Str("action", action).Str("project_id", projectID).Msg("audit entry dropped")
	}
}

func (b *bestEffort) write(ctx context.Context, e *domain.AuditEntry) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("audit sink panic: %v", p)
		}
	}()
	return b.sink.Write(ctx, e)
}

// Multi writes to every sink and joins their errors.
type Multi []Sink

func (m Multi) Write(ctx context.Context, e *domain.AuditEntry) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
