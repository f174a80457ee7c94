package service

import (
	"context"
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

type structureService struct {
	structure repository.StructureRepo
	uow       db.UnitOfWork
	opts      options
}

func NewStructureService(structure repository.StructureRepo, uow db.UnitOfWork, opts ...Option) StructureService {
	return &structureService{structure: structure, uow: uow, opts: buildOptions(opts)}
}

func (s *structureService) AddNode(ctx context.Context, req contract.AddNodeRequest) (*domain.Location, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalid("%s name is required", req.Kind)
	}
	loc := &domain.Location{
		ID:         uuid.New().String(),
		Kind:       req.Kind,
		ParentID:   req.ParentID,
		Name:       name,
		TemplateID: req.TemplateID,
		CreatedAt:  s.opts.now().UTC(),
	}
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := reposFor(tx)
		if err := checkParent(ctx, r, req.Kind, req.ParentID); err != nil {
			return err
		}
		if req.TemplateID != nil {
			if _, err := r.templates.GetByID(ctx, *req.TemplateID); err != nil {
				return err
			}
		}
		return r.structure.Create(ctx, loc)
	})
	if err != nil {
		return nil, err
	}
	return loc, nil
}

func checkParent(ctx context.Context, r txRepos, kind domain.LocationKind, parentID string) error {
	switch kind {
	case domain.KindSection:
		_, err := r.projects.GetByID(ctx, parentID)
		return err
	case domain.KindStairwell, domain.KindLevel, domain.KindUnit:
		_, err := r.structure.Get(ctx, kind.Parent(), parentID)
		return err
	default:
		return invalid("unknown location kind %q", kind)
	}
}

func (s *structureService) Get(ctx context.Context, kind domain.LocationKind, id string) (*domain.Location, error) {
	return s.structure.Get(ctx, kind, id)
}

// Tree assembles the project's locations into nested nodes.
func (s *structureService) Tree(ctx context.Context, projectID string) (*contract.StructureTree, error) {
	locs, err := s.structure.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	tree := &contract.StructureTree{ProjectID: projectID}
	nodes := make(map[string]*contract.TreeNode, len(locs))
	for _, loc := range locs {
		n := &contract.TreeNode{Location: loc}
		nodes[loc.ID] = n
		if loc.Kind == domain.KindSection {
			tree.Sections = append(tree.Sections, n)
			continue
		}
		if parent, ok := nodes[loc.ParentID]; ok {
			parent.Children = append(parent.Children, n)
		}
	}
	return tree, nil
}

func (s *structureService) Units(ctx context.Context, projectID string, f domain.StructureFilter) ([]domain.UnitRef, error) {
	return s.structure.ListUnitRefs(ctx, projectID, f)
}

// Bind sets the node's template binding. With Propagate the same binding is
// copied to every descendant, overriding their own bindings.
func (s *structureService) Bind(ctx context.Context, req contract.BindRequest) (resp *contract.BindResponse, err error) {
	started := time.Now()
	fields := map[string]any{"kind": string(req.Kind), "node_id": req.NodeID, "propagate": req.Propagate}
	defer s.opts.observe(ctx, "structure.bind", started, &err, fields)

	resp = &contract.BindResponse{}
	var projectID string
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := reposFor(tx)
		var err error
		if projectID, err = r.structure.ProjectOf(ctx, req.Kind, req.NodeID); err != nil {
			return err
		}
		if req.TemplateID != nil {
			if _, err := r.templates.GetByID(ctx, *req.TemplateID); err != nil {
				return err
			}
		}
		if err := r.structure.SetTemplate(ctx, req.Kind, req.NodeID, req.TemplateID); err != nil {
			return err
		}
		resp.Updated = 1
		if !req.Propagate {
			return nil
		}
		n, err := r.structure.SetTemplateBelow(ctx, req.Kind, req.NodeID, req.TemplateID)
		if err != nil {
			return err
		}
		resp.Updated += n
		return nil
	})
	if err != nil {
		return nil, err
	}

	fields["updated"] = resp.Updated
	s.opts.audit.Record(ctx, audit.ActionBind, true, projectID, map[string]any{
		"kind":        string(req.Kind),
		"node_id":     req.NodeID,
		"template_id": contract.FormatOptional(req.TemplateID),
		"propagate":   req.Propagate,
		"updated":     resp.Updated,
	})
	return resp, nil
}

// Delete removes the node and everything below it. Tasks of the affected
// units go first, then nodes innermost kind first, all in one transaction.
func (s *structureService) Delete(ctx context.Context, kind domain.LocationKind, id string) (resp *contract.DeleteNodeResponse, err error) {
	started := time.Now()
	fields := map[string]any{"kind": string(kind), "node_id": id}
	defer s.opts.observe(ctx, "structure.delete", started, &err, fields)

	resp = &contract.DeleteNodeResponse{}
	var projectID string
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := reposFor(tx)
		var err error
		if projectID, err = r.structure.ProjectOf(ctx, kind, id); err != nil {
			return err
		}
		unitIDs, err := r.structure.DescendantUnitIDs(ctx, kind, id)
		if err != nil {
			return err
		}
		if resp.TasksDeleted, err = r.tasks.DeleteByUnits(ctx, unitIDs); err != nil {
			return err
		}

		locs, err := r.structure.ListByProject(ctx, projectID)
		if err != nil {
			return err
		}
		doomed := descendants(locs, id)
		for i := len(doomed) - 1; i >= 0; i-- {
			if err := r.structure.Delete(ctx, doomed[i].Kind, doomed[i].ID); err != nil {
				return fmt.Errorf("deleting %s %s: %w", doomed[i].Kind, doomed[i].Name, err)
			}
		}
		if err := r.structure.Delete(ctx, kind, id); err != nil {
			return err
		}
		resp.Nodes = len(doomed) + 1
		return nil
	})
	if err != nil {
		return nil, err
	}

	fields["nodes"] = resp.Nodes
	fields["tasks_deleted"] = resp.TasksDeleted
	s.opts.audit.Record(ctx, audit.ActionNodeDelete, true, projectID, map[string]any{
		"kind":          string(kind),
		"node_id":       id,
		"nodes":         resp.Nodes,
		"tasks_deleted": resp.TasksDeleted,
	})
	return resp, nil
}

// descendants returns the nodes below rootID, parents before children.
// locs must list outer kinds before inner ones.
func descendants(locs []*domain.Location, rootID string) []*domain.Location {
	inside := map[string]bool{rootID: true}
	var out []*domain.Location
	for _, loc := range locs {
		if loc.ID != rootID && inside[loc.ParentID] {
			inside[loc.ID] = true
			out = append(out, loc)
		}
	}
	return out
}
