package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/taktplan/internal/audit"
	"github.com/alexanderramin/taktplan/internal/contract"
	"github.com/alexanderramin/taktplan/internal/db"
	"github.com/alexanderramin/taktplan/internal/domain"
	"github.com/alexanderramin/taktplan/internal/scheduler"
)

type scheduleService struct {
	uow  db.UnitOfWork
	opts options
}

func NewScheduleService(uow db.UnitOfWork, opts ...Option) ScheduleService {
	return &scheduleService{uow: uow, opts: buildOptions(opts)}
}

// Generate creates the missing tasks of every unit in the start map.
// Existing tasks are never modified or deleted.
func (s *scheduleService) Generate(ctx context.Context, req contract.GenerateRequest) (resp *contract.GenerateResponse, err error) {
	started := time.Now()
	fields := map[string]any{"project_id": req.ProjectID, "units": len(req.Starts)}
	defer s.opts.observe(ctx, "schedule.generate", started, &err, fields)

	if err := validateStarts(req.Starts); err != nil {
		return nil, err
	}

	unlock := s.opts.locks.Lock(req.ProjectID)
	defer unlock()

	resp = &contract.GenerateResponse{}
	now := s.opts.now().UTC()
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := reposFor(tx)
		units, err := startUnits(ctx, r, req.ProjectID, req.Starts)
		if err != nil {
			return err
		}
		resolver := scheduler.NewResolver(r.structure, r.templates)
		for _, u := range units {
			tpl, err := resolver.Resolve(ctx, u.UnitID)
			if err != nil {
				return err
			}
			if tpl == nil {
				resp.NoTemplate = append(resp.NoTemplate, u.UnitID)
				continue
			}
			existing, err := r.tasks.ListByUnit(ctx, u.UnitID)
			if err != nil {
				return err
			}
			plan := scheduler.PlanUnit(s.opts.calendar, tpl.Steps, req.Starts[u.UnitID])
			diff := scheduler.DiffUnit(plan, existing, true)
			for _, p := range diff.Create {
				task := newTask(req.ProjectID, u.UnitID, p, now)
				if err := r.tasks.Create(ctx, task); err != nil {
					return fmt.Errorf("creating task for unit %s: %w", u.UnitName, err)
				}
				resp.Created = append(resp.Created, task)
				resp.Changes.Created = append(resp.Changes.Created, refOf(task))
			}
		}
		return nil
	})
	if err != nil {
		s.opts.audit.Record(ctx, audit.ActionGenerate, false, req.ProjectID, errorDetails(err))
		return nil, err
	}

	fields["created"] = len(resp.Created)
	fields["no_template"] = len(resp.NoTemplate)
	details := resp.Changes.AuditDetails()
	details["no_template"] = resp.NoTemplate
	s.opts.audit.Record(ctx, audit.ActionGenerate, true, req.ProjectID, details)
	return resp, nil
}

// Sync reconciles the tasks of every unit in the start map with its
// resolved template and purges the requested units. Units absent from the
// start map are left alone unless purged.
func (s *scheduleService) Sync(ctx context.Context, req contract.SyncRequest) (resp *contract.SyncResponse, err error) {
	started := time.Now()
	fields := map[string]any{"project_id": req.ProjectID, "units": len(req.Starts)}
	defer s.opts.observe(ctx, "schedule.sync", started, &err, fields)

	if err := validateStarts(req.Starts); err != nil {
		return nil, err
	}

	unlock := s.opts.locks.Lock(req.ProjectID)
	defer unlock()

	resp = &contract.SyncResponse{}
	now := s.opts.now().UTC()
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := reposFor(tx)
		units, err := startUnits(ctx, r, req.ProjectID, req.Starts)
		if err != nil {
			return err
		}
		resolver := scheduler.NewResolver(r.structure, r.templates)
		for _, u := range units {
			tpl, err := resolver.Resolve(ctx, u.UnitID)
			if err != nil {
				return err
			}
			if tpl == nil {
				resp.NoTemplate = append(resp.NoTemplate, u.UnitID)
				continue
			}
			existing, err := r.tasks.ListByUnit(ctx, u.UnitID)
			if err != nil {
				return err
			}
			plan := scheduler.PlanUnit(s.opts.calendar, tpl.Steps, req.Starts[u.UnitID])
			diff := scheduler.DiffUnit(plan, existing, false)
			if err := s.applyDiff(ctx, r, req.ProjectID, u, diff, now, resp); err != nil {
				return err
			}
		}
		return s.purge(ctx, r, req, resp)
	})
	if err != nil {
		s.opts.audit.Record(ctx, audit.ActionSync, false, req.ProjectID, errorDetails(err))
		return nil, err
	}

	fields["created"] = len(resp.Changes.Created)
	fields["updated"] = len(resp.Changes.Updated)
	fields["deleted"] = len(resp.Changes.Deleted)
	details := resp.Changes.AuditDetails()
	details["kept_started"] = resp.KeptStarted
	details["purged"] = resp.Purged
	if len(resp.PurgeSkipped) > 0 {
		details["purge_skipped"] = resp.PurgeSkipped
	}
	s.opts.audit.Record(ctx, audit.ActionSync, true, req.ProjectID, details)
	return resp, nil
}

func (s *scheduleService) applyDiff(ctx context.Context, r txRepos, projectID string, u domain.UnitRef, diff scheduler.UnitDiff, now time.Time, resp *contract.SyncResponse) error {
	for _, p := range diff.Create {
		task := newTask(projectID, u.UnitID, p, now)
		if err := r.tasks.Create(ctx, task); err != nil {
			return fmt.Errorf("creating task for unit %s: %w", u.UnitName, err)
		}
		resp.Changes.Created = append(resp.Changes.Created, refOf(task))
	}
	for _, m := range diff.Reschedule {
		changes := scheduler.PlannedChange(m.Task, m.Start, m.End)
		start, end := m.Start, m.End
		if err := r.tasks.UpdatePlannedDates(ctx, m.Task.ID, &start, &end); err != nil {
			return err
		}
		resp.Changes.Updated = append(resp.Changes.Updated, contract.TaskChange{TaskID: m.Task.ID, Fields: changes})
	}
	for _, t := range diff.Delete {
		if err := r.tasks.Delete(ctx, t.ID); err != nil {
			return err
		}
		resp.Changes.Deleted = append(resp.Changes.Deleted, refOf(t))
	}
	resp.Unchanged += diff.Unchanged
	resp.KeptStarted += diff.KeptStarted
	return nil
}

// purge deletes every task of the requested units, started or not. A unit
// is only purged when it belongs to the project, has no start date in this
// request and lies inside the request's scope.
func (s *scheduleService) purge(ctx context.Context, r txRepos, req contract.SyncRequest, resp *contract.SyncResponse) error {
	ids := uniqueStrings(req.PurgeUnitIDs)
	if len(ids) == 0 {
		return nil
	}
	all, err := unitSet(ctx, r, req.ProjectID, domain.StructureFilter{})
	if err != nil {
		return err
	}
	scope := all
	if !req.Scope.IsEmpty() {
		if scope, err = unitSet(ctx, r, req.ProjectID, req.Scope); err != nil {
			return err
		}
	}

	var purge []string
	for _, id := range ids {
		reason := ""
		switch _, hasStart := req.Starts[id]; {
		case !all[id]:
			reason = contract.PurgeSkipUnknown
		case hasStart:
			reason = contract.PurgeSkipHasStart
		case !scope[id]:
			reason = contract.PurgeSkipOutOfScope
		}
		if reason != "" {
			resp.PurgeSkipped = append(resp.PurgeSkipped, contract.PurgeSkip{UnitID: id, Reason: reason})
			continue
		}
		purge = append(purge, id)
	}

	for _, id := range purge {
		tasks, err := r.tasks.ListByUnit(ctx, id)
		if err != nil {
			return err
		}
		for _, t := range tasks {
			resp.Changes.Deleted = append(resp.Changes.Deleted, refOf(t))
		}
	}
	if _, err := r.tasks.DeleteByUnits(ctx, purge); err != nil {
		return err
	}
	resp.Purged = purge
	return nil
}

// Shift moves every matching task whose planned range overlaps the window
// by the window's inclusive calendar length.
func (s *scheduleService) Shift(ctx context.Context, req contract.ShiftRequest) (resp *contract.ShiftResponse, err error) {
	started := time.Now()
	fields := map[string]any{"project_id": req.ProjectID}
	defer s.opts.observe(ctx, "schedule.shift", started, &err, fields)

	window, err := scheduler.NewWindow(req.Start, req.End)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	filter, err := req.Filter.Normalized()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	unlock := s.opts.locks.Lock(req.ProjectID)
	defer unlock()

	resp = &contract.ShiftResponse{ShiftDays: window.Days()}
	asOf := s.opts.today()
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := reposFor(tx)
		if _, err := r.projects.GetByID(ctx, req.ProjectID); err != nil {
			return err
		}
		views, err := r.tasks.ListViews(ctx, req.ProjectID, filter, asOf)
		if err != nil {
			return err
		}
		for _, v := range views {
			if !window.Overlaps(v.PlannedStart, v.PlannedEnd) {
				continue
			}
			start, end := scheduler.ShiftDates(s.opts.calendar, *v.PlannedStart, *v.PlannedEnd, resp.ShiftDays, req.SkipWeekends)
			changes := scheduler.PlannedChange(&v.Task, start, end)
			if err := r.tasks.UpdatePlannedDates(ctx, v.ID, &start, &end); err != nil {
				return err
			}
			resp.Moved++
			resp.Changes.Updated = append(resp.Changes.Updated, contract.TaskChange{TaskID: v.ID, Fields: changes})
		}
		return nil
	})
	if err != nil {
		s.opts.audit.Record(ctx, audit.ActionShift, false, req.ProjectID, errorDetails(err))
		return nil, err
	}

	fields["moved"] = resp.Moved
	fields["shift_days"] = resp.ShiftDays
	details := resp.Changes.AuditDetails()
	details["window_start"] = window.Start.Format("2006-01-02")
	details["window_end"] = window.End.Format("2006-01-02")
	details["shift_days"] = resp.ShiftDays
	details["skip_weekends"] = req.SkipWeekends
	details["moved"] = resp.Moved
	s.opts.audit.Record(ctx, audit.ActionShift, true, req.ProjectID, details)
	return resp, nil
}

func validateStarts(starts contract.StartMap) error {
	for id, d := range starts {
		if d.IsZero() {
			return invalid("unit %s has no start date", id)
		}
	}
	return nil
}

// startUnits checks that the project exists and every start-map unit
// belongs to it, and returns those units in structure order.
func startUnits(ctx context.Context, r txRepos, projectID string, starts contract.StartMap) ([]domain.UnitRef, error) {
	if _, err := r.projects.GetByID(ctx, projectID); err != nil {
		return nil, err
	}
	if len(starts) == 0 {
		return nil, nil
	}
	refs, err := r.structure.ListUnitRefs(ctx, projectID, domain.StructureFilter{})
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(refs))
	var out []domain.UnitRef
	for _, u := range refs {
		known[u.UnitID] = true
		if _, ok := starts[u.UnitID]; ok {
			out = append(out, u)
		}
	}
	for id := range starts {
		if !known[id] {
			return nil, fmt.Errorf("unit %s in project %s: %w", id, projectID, ErrNotFound)
		}
	}
	return out, nil
}

func unitSet(ctx context.Context, r txRepos, projectID string, f domain.StructureFilter) (map[string]bool, error) {
	refs, err := r.structure.ListUnitRefs(ctx, projectID, f)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(refs))
	for _, u := range refs {
		set[u.UnitID] = true
	}
	return set, nil
}
