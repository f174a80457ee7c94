package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/taktplan/internal/audit"
	"github.com/alexanderramin/taktplan/internal/contract"
	"github.com/alexanderramin/taktplan/internal/db"
	"github.com/alexanderramin/taktplan/internal/domain"
	"github.com/alexanderramin/taktplan/internal/repository"
	"github.com/google/uuid"
)

type templateService struct {
	templates repository.TemplateRepo
	uow       db.UnitOfWork
	opts      options
}

func NewTemplateService(templates repository.TemplateRepo, uow db.UnitOfWork, opts ...Option) TemplateService {
	return &templateService{templates: templates, uow: uow, opts: buildOptions(opts)}
}

func (s *templateService) Create(ctx context.Context, t *domain.Template) (err error) {
	started := time.Now()
	defer s.opts.observe(ctx, "template.create", started, &err, map[string]any{"name": t.Name})

	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return invalid("template name is required")
	}
	if err := validateSteps(t.Steps); err != nil {
		return err
	}
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	now := s.opts.now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	for i := range t.Steps {
		prepareStep(&t.Steps[i], t.ID, i)
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := reposFor(tx)
		if err := checkNameFree(ctx, r.templates, t.Name, ""); err != nil {
			return err
		}
		return r.templates.Create(ctx, t)
	})
	if err != nil {
		return err
	}
	s.opts.audit.Record(ctx, audit.ActionTemplateSave, true, "", map[string]any{
		"template_id": t.ID, "name": t.Name, "steps": len(t.Steps),
	})
	return nil
}

// Get looks the template up by ID, then by name.
func (s *templateService) Get(ctx context.Context, ref string) (*domain.Template, error) {
	t, err := s.templates.GetByID(ctx, ref)
	if errors.Is(err, ErrNotFound) {
		return s.templates.GetByName(ctx, ref)
	}
	return t, err
}

func (s *templateService) List(ctx context.Context) ([]*domain.Template, error) {
	return s.templates.List(ctx)
}

// Replace swaps the template's steps for the given list. Steps whose ID
// matches an existing step are updated in place; the rest are created.
// Removed steps are deleted together with their unstarted tasks, except
// steps that still have started tasks: those are retired so the started
// work keeps its step.
func (s *templateService) Replace(ctx context.Context, id string, name string, steps []domain.Step) (resp *contract.TemplateSaveResponse, err error) {
	started := time.Now()
	fields := map[string]any{"template_id": id}
	defer s.opts.observe(ctx, "template.replace", started, &err, fields)

	name = strings.TrimSpace(name)
	if err := validateSteps(steps); err != nil {
		return nil, err
	}

	resp = &contract.TemplateSaveResponse{}
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := reposFor(tx)
		tpl, err := r.templates.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if name != "" && name != tpl.Name {
			if err := checkNameFree(ctx, r.templates, name, tpl.ID); err != nil {
				return err
			}
			tpl.Name = name
		}
		tpl.UpdatedAt = s.opts.now().UTC()
		if err := r.templates.Update(ctx, tpl); err != nil {
			return err
		}

		current, err := r.templates.ListSteps(ctx, id, true)
		if err != nil {
			return err
		}
		existing := make(map[string]bool, len(current))
		for _, st := range current {
			existing[st.ID] = true
		}

		kept := make(map[string]bool, len(steps))
		for i := range steps {
			st := steps[i]
			if !existing[st.ID] || kept[st.ID] {
				st.ID = ""
			}
			prepareStep(&st, id, i)
			st.Retired = false
			if existing[st.ID] {
				if err := r.templates.UpdateStep(ctx, &st); err != nil {
					return err
				}
				resp.Updated++
			} else {
				if err := r.templates.CreateStep(ctx, &st); err != nil {
					return err
				}
				resp.Created++
			}
			kept[st.ID] = true
		}

		for _, st := range current {
			if kept[st.ID] {
				continue
			}
			if err := s.removeStep(ctx, r, st, resp); err != nil {
				return err
			}
		}

		resp.Template, err = r.templates.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	fields["retired"] = resp.Retired
	fields["tasks_deleted"] = resp.TasksDeleted
	s.opts.audit.Record(ctx, audit.ActionTemplateSave, true, "", map[string]any{
		"template_id":   id,
		"created":       resp.Created,
		"updated":       resp.Updated,
		"deleted":       resp.Deleted,
		"retired":       resp.Retired,
		"tasks_deleted": resp.TasksDeleted,
	})
	return resp, nil
}

func (s *templateService) removeStep(ctx context.Context, r txRepos, st domain.Step, resp *contract.TemplateSaveResponse) error {
	n, err := r.tasks.DeleteUnstartedByStep(ctx, st.ID)
	if err != nil {
		return err
	}
	resp.TasksDeleted += n

	startedCount, err := r.tasks.CountStartedByStep(ctx, st.ID)
	if err != nil {
		return err
	}
	if startedCount == 0 {
		if err := r.templates.DeleteStep(ctx, st.ID); err != nil {
			return err
		}
		resp.Deleted++
		return nil
	}
	if st.Retired {
		return nil
	}
	st.Retired = true
	if err := r.templates.UpdateStep(ctx, &st); err != nil {
		return err
	}
	resp.Retired++
	return nil
}

// Delete removes the template with its steps and their tasks. Bindings to
// it are cleared. Started tasks block the deletion unless force is set.
func (s *templateService) Delete(ctx context.Context, id string, force bool) (err error) {
	started := time.Now()
	fields := map[string]any{"template_id": id, "force": force}
	defer s.opts.observe(ctx, "template.delete", started, &err, fields)

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := reposFor(tx)
		if _, err := r.templates.GetByID(ctx, id); err != nil {
			return err
		}
		n, err := r.tasks.CountStartedByTemplate(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 && !force {
			return fmt.Errorf("%w: template has %d started tasks (use --force to delete anyway)", ErrHasStartedTasks, n)
		}
		fields["started_tasks"] = n
		return r.templates.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.opts.audit.Record(ctx, audit.ActionTemplateDrop, true, "", fields)
	return nil
}

func validateSteps(steps []domain.Step) error {
	for i, st := range steps {
		if strings.TrimSpace(st.Activity) == "" {
			return invalid("step %d: activity is required", i+1)
		}
		if st.DurationDays < 0 {
			return invalid("step %d: duration must not be negative", i+1)
		}
	}
	return nil
}

// prepareStep binds the step to the template, assigns an ID when missing
// and numbers it by list position. Unset orders follow the position.
func prepareStep(st *domain.Step, templateID string, i int) {
	if st.ID == "" {
		st.ID = uuid.New().String()
	}
	st.TemplateID = templateID
	st.Position = i
	if st.Order <= 0 {
		st.Order = i + 1
	}
	if st.DurationDays < 1 {
		st.DurationDays = 1
	}
}

func checkNameFree(ctx context.Context, templates repository.TemplateRepo, name, selfID string) error {
	other, err := templates.GetByName(ctx, name)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil
	case err != nil:
		return err
	case other.ID != selfID:
		return invalid("template %q already exists", name)
	}
	return nil
}
