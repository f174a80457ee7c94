package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/taktplan/internal/audit"
	"github.com/alexanderramin/taktplan/internal/contract"
	"github.com/alexanderramin/taktplan/internal/db"
	"github.com/alexanderramin/taktplan/internal/domain"
	"github.com/alexanderramin/taktplan/internal/repository"
	"github.com/alexanderramin/taktplan/internal/scheduler"
)

type taskService struct {
	tasks repository.TaskRepo
	uow   db.UnitOfWork
	opts  options
}

func NewTaskService(tasks repository.TaskRepo, uow db.UnitOfWork, opts ...Option) TaskService {
	return &taskService{tasks: tasks, uow: uow, opts: buildOptions(opts)}
}

func (s *taskService) Get(ctx context.Context, id string) (*domain.Task, error) {
	return s.tasks.GetByID(ctx, id)
}

// List returns the project's tasks matching f. A zero asOf means today.
func (s *taskService) List(ctx context.Context, projectID string, f domain.TaskFilter, asOf time.Time) ([]*domain.TaskView, error) {
	filter, err := f.Normalized()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if asOf.IsZero() {
		asOf = s.opts.today()
	}
	return s.tasks.ListViews(ctx, projectID, filter, asOf)
}

func (s *taskService) Update(ctx context.Context, id string, u contract.TaskUpdate) (resp *contract.TaskUpdateResponse, err error) {
	started := time.Now()
	fields := map[string]any{"task_id": id}
	defer s.opts.observe(ctx, "task.update", started, &err, fields)

	if u.IsEmpty() {
		return nil, invalid("no fields to update")
	}
	if err := normalizeStatus(&u); err != nil {
		return nil, err
	}

	var projectID string
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := reposFor(tx)
		if err := checkAssignee(ctx, r.users, u.AssigneeID); err != nil {
			return err
		}
		task, err := r.tasks.GetByID(ctx, id)
		if err != nil {
			return err
		}
		projectID = task.ProjectID
		changes := scheduler.ApplyUpdate(task, u, s.opts.now().UTC())
		resp = &contract.TaskUpdateResponse{Task: task}
		if len(changes) == 0 {
			return nil
		}
		if err := r.tasks.Update(ctx, task); err != nil {
			return err
		}
		resp.Changes.Updated = []contract.TaskChange{{TaskID: task.ID, Fields: changes}}
		return nil
	})
	if err != nil {
		s.opts.audit.Record(ctx, audit.ActionTaskUpdate, false, projectID, errorDetails(err))
		return nil, err
	}
	if !resp.Changes.IsEmpty() {
		s.opts.audit.Record(ctx, audit.ActionTaskUpdate, true, projectID, resp.Changes.AuditDetails())
	}
	return resp, nil
}

func (s *taskService) Delete(ctx context.Context, id string) (err error) {
	started := time.Now()
	defer s.opts.observe(ctx, "task.delete", started, &err, map[string]any{"task_id": id})

	var task *domain.Task
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := reposFor(tx)
		var err error
		if task, err = r.tasks.GetByID(ctx, id); err != nil {
			return err
		}
		return r.tasks.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	cs := contract.ChangeSet{Deleted: []contract.TaskRef{refOf(task)}}
	s.opts.audit.Record(ctx, audit.ActionTaskDelete, true, task.ProjectID, cs.AuditDetails())
	return nil
}

// Bulk applies one update to every task selected by IDs or filter. An
// assignment-only update runs as a single statement; other updates are
// applied task by task so copy-planned dates resolve per task. Affected
// counts only tasks whose stored values changed.
func (s *taskService) Bulk(ctx context.Context, req contract.BulkRequest) (resp *contract.BulkResponse, err error) {
	started := time.Now()
	fields := map[string]any{"project_id": req.ProjectID}
	defer s.opts.observe(ctx, "task.bulk", started, &err, fields)

	if len(req.TaskIDs) == 0 && req.Filter == nil {
		return nil, invalid("select tasks by id or by filter")
	}
	if req.Update.IsEmpty() {
		return nil, invalid("no fields to update")
	}
	u := req.Update
	if err := normalizeStatus(&u); err != nil {
		return nil, err
	}
	var filter domain.TaskFilter
	if req.Filter != nil {
		filter = *req.Filter
	}
	if len(req.TaskIDs) > 0 {
		filter.TaskIDs = uniqueStrings(req.TaskIDs)
	}
	if filter, err = filter.Normalized(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	asOf := req.AsOf
	if asOf.IsZero() {
		asOf = s.opts.today()
	}

	unlock := s.opts.locks.Lock(req.ProjectID)
	defer unlock()

	resp = &contract.BulkResponse{}
	now := s.opts.now().UTC()
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := reposFor(tx)
		if _, err := r.projects.GetByID(ctx, req.ProjectID); err != nil {
			return err
		}
		if err := checkAssignee(ctx, r.users, u.AssigneeID); err != nil {
			return err
		}
		if err := checkTaskIDs(ctx, r.tasks, req.ProjectID, filter.TaskIDs); err != nil {
			return err
		}
		views, err := r.tasks.ListViews(ctx, req.ProjectID, filter, asOf)
		if err != nil {
			return err
		}
		resp.Matched = len(views)
		if len(views) == 0 {
			return nil
		}

		if u.AssigneeOnly() {
			return s.bulkAssign(ctx, r, views, u, now, resp)
		}
		for _, v := range views {
			task := v.Task
			changes := scheduler.ApplyUpdate(&task, u, now)
			if len(changes) == 0 {
				continue
			}
			if err := r.tasks.Update(ctx, &task); err != nil {
				return err
			}
			resp.Affected++
			resp.Changes.Updated = append(resp.Changes.Updated, contract.TaskChange{TaskID: task.ID, Fields: changes})
		}
		return nil
	})
	if err != nil {
		s.opts.audit.Record(ctx, audit.ActionBulk, false, req.ProjectID, errorDetails(err))
		return nil, err
	}

	fields["matched"] = resp.Matched
	fields["affected"] = resp.Affected
	details := resp.Changes.AuditDetails()
	details["matched"] = resp.Matched
	details["affected"] = resp.Affected
	details["fields"] = resp.Changes.ChangedFields()
	s.opts.audit.Record(ctx, audit.ActionBulk, true, req.ProjectID, details)
	return resp, nil
}

func (s *taskService) bulkAssign(ctx context.Context, r txRepos, views []*domain.TaskView, u contract.TaskUpdate, now time.Time, resp *contract.BulkResponse) error {
	ids := make([]string, len(views))
	for i, v := range views {
		ids[i] = v.ID
		task := v.Task
		if changes := scheduler.ApplyUpdate(&task, u, now); len(changes) > 0 {
			resp.Changes.Updated = append(resp.Changes.Updated, contract.TaskChange{TaskID: task.ID, Fields: changes})
		}
	}
	var assignee *string
	if *u.AssigneeID != "" {
		assignee = u.AssigneeID
	}
	n, err := r.tasks.SetAssignee(ctx, ids, assignee)
	if err != nil {
		return err
	}
	resp.Affected = n
	return nil
}

// checkTaskIDs fails with ErrNotFound when a listed task does not exist or
// belongs to another project. Filters only narrow an ID list that resolves.
func checkTaskIDs(ctx context.Context, tasks repository.TaskRepo, projectID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	found, err := tasks.ListByIDs(ctx, ids)
	if err != nil {
		return err
	}
	inProject := make(map[string]bool, len(found))
	for _, t := range found {
		if t.ProjectID == projectID {
			inProject[t.ID] = true
		}
	}
	for _, id := range ids {
		if !inProject[id] {
			return fmt.Errorf("task %s: %w", id, ErrNotFound)
		}
	}
	return nil
}

func normalizeStatus(u *contract.TaskUpdate) error {
	if u.Status == nil {
		return nil
	}
	st, err := domain.ParseTaskStatus(string(*u.Status))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	u.Status = &st
	return nil
}

// checkAssignee rejects assignment to unknown users and to users whose
// role may not receive tasks. An empty ID unassigns and is always allowed.
func checkAssignee(ctx context.Context, users repository.UserRepo, id *string) error {
	if id == nil || *id == "" {
		return nil
	}
	user, err := users.GetByID(ctx, *id)
	if err != nil {
		return err
	}
	if !user.Assignable() {
		return fmt.Errorf("%w: %s has role %s", ErrNotEligible, user.Name, user.Role)
	}
	return nil
}
