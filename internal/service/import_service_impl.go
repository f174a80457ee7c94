package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/taktplan/internal/audit"
	"github.com/alexanderramin/taktplan/internal/contract"
	"github.com/alexanderramin/taktplan/internal/db"
	"github.com/alexanderramin/taktplan/internal/importer"
)

type importService struct {
	uow  db.UnitOfWork
	opts options
}

func NewImportService(uow db.UnitOfWork, opts ...Option) ImportService {
	return &importService{uow: uow, opts: buildOptions(opts)}
}

func (s *importService) Import(ctx context.Context, path string, projectID string) (*contract.ImportResult, error) {
	schema, err := importer.LoadImportSchema(path)
	if err != nil {
		return nil, fmt.Errorf("loading import file: %w", err)
	}
	return s.importSchema(ctx, schema, projectID)
}

// importSchema writes everything in one transaction. Template names bound
// by the structure resolve against the file first, then the database.
func (s *importService) importSchema(ctx context.Context, schema *importer.ImportSchema, projectID string) (res *contract.ImportResult, err error) {
	started := time.Now()
	fields := map[string]any{"project_id": projectID}
	defer s.opts.observe(ctx, "import", started, &err, fields)

	if errs := importer.ValidateImportSchema(schema); len(errs) > 0 {
		return nil, formatValidationErrors(errs)
	}
	if schema.Project == nil && len(schema.Sections) > 0 && projectID == "" {
		return nil, invalid("the file has a structure but no project; pass a project")
	}

	converted, err := importer.Convert(schema)
	if err != nil {
		return nil, fmt.Errorf("converting import schema: %w", err)
	}

	res = &contract.ImportResult{}
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := reposFor(tx)

		if converted.Project != nil {
			if err := r.projects.Create(ctx, converted.Project); err != nil {
				return fmt.Errorf("creating project: %w", err)
			}
			res.Project = converted.Project
			projectID = converted.Project.ID
		} else if projectID != "" {
			p, err := r.projects.GetByID(ctx, projectID)
			if err != nil {
				return err
			}
			res.Project = p
		}

		templateIDs := make(map[string]string)
		for _, t := range converted.Templates {
			if err := checkNameFree(ctx, r.templates, t.Name, ""); err != nil {
				return err
			}
			if err := r.templates.Create(ctx, t); err != nil {
				return fmt.Errorf("creating template %q: %w", t.Name, err)
			}
			templateIDs[t.Name] = t.ID
			res.Templates++
		}
		for _, name := range converted.TemplateNames() {
			if _, ok := templateIDs[name]; ok {
				continue
			}
			t, err := r.templates.GetByName(ctx, name)
			if err != nil {
				return fmt.Errorf("template %q referenced by structure: %w", name, err)
			}
			templateIDs[name] = t.ID
		}

		for _, u := range converted.Users {
			if err := r.users.Create(ctx, u); err != nil {
				return fmt.Errorf("creating user %q: %w", u.Name, err)
			}
			res.Users++
		}

		for _, loc := range converted.Locations {
			if loc.ParentID == "" {
				loc.ParentID = projectID
			}
			if name, ok := converted.Bindings[loc.ID]; ok {
				id := templateIDs[name]
				loc.TemplateID = &id
				res.Bindings++
			}
			if err := r.structure.Create(ctx, loc); err != nil {
				return fmt.Errorf("creating %s %q: %w", loc.Kind, loc.Name, err)
			}
			res.Nodes++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	fields["templates"] = res.Templates
	fields["nodes"] = res.Nodes
	s.opts.audit.Record(ctx, audit.ActionImport, true, projectID, map[string]any{
		"templates": res.Templates,
		"users":     res.Users,
		"nodes":     res.Nodes,
		"bindings":  res.Bindings,
	})
	return res, nil
}

func formatValidationErrors(errs []error) error {
	msg := fmt.Sprintf("import validation failed (%d errors):", len(errs))
	for _, e := range errs {
		msg += "\n  - " + e.Error()
	}
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

