package service

import (
	"time"

	"github.com/alexanderramin/taktplan/internal/audit"
	"github.com/alexanderramin/taktplan/internal/calendar"
)

type options struct {
	audit    audit.Recorder
	observer UseCaseObserver
	locks    *ProjectLocks
	now      func() time.Time
	calendar *calendar.Calendar
}

// Option configures the transactional services.
type Option func(*options)

func WithAudit(r audit.Recorder) Option {
	return func(o *options) { o.audit = r }
}

func WithObserver(obs UseCaseObserver) Option {
	return func(o *options) { o.observer = obs }
}

// WithLocks shares one lock table between services so that schedule and
// task mutations of the same project serialize.
func WithLocks(l *ProjectLocks) Option {
	return func(o *options) { o.locks = l }
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithCalendar(c *calendar.Calendar) Option {
	return func(o *options) { o.calendar = c }
}

func buildOptions(opts []Option) options {
	o := options{
		audit:    audit.Nop{},
		observer: NoopUseCaseObserver{},
		now:      time.Now,
		calendar: calendar.New(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.locks == nil {
		o.locks = NewProjectLocks()
	}
	if o.audit == nil {
		o.audit = audit.Nop{}
	}
	if o.observer == nil {
		o.observer = NoopUseCaseObserver{}
	}
	return o
}

// today is the current UTC calendar date.
func (o options) today() time.Time {
	return calendar.Day(o.now().UTC())
}
