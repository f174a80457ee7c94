package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/taktplan/internal/domain"
	"github.com/alexanderramin/taktplan/internal/service"
)

// resolveProject accepts a short ID (any case), a full UUID or a unique
// UUID prefix.
func resolveProject(ctx context.Context, app *App, input string) (*domain.Project, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("project is required (use --project)")
	}

	for _, ref := range []string{input, strings.ToUpper(input)} {
		p, err := app.Projects.Get(ctx, ref)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, service.ErrNotFound) {
			return nil, err
		}
	}

	projects, err := app.Projects.List(ctx)
	if err != nil {
		return nil, err
	}
	var matches []*domain.Project
	for _, p := range projects {
		if strings.HasPrefix(p.ID, input) {
			matches = append(matches, p)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("project not found: %q", input)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("project ID prefix %q is ambiguous (%d matches)", input, len(matches))
	}
}

// resolveTemplateID maps a template ID or name to its ID. "none" and the
// empty string mean no template.
func resolveTemplateID(ctx context.Context, app *App, ref string) (*string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.EqualFold(ref, "none") {
		return nil, nil
	}
	t, err := app.Templates.Get(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("template %q: %w", ref, err)
	}
	return &t.ID, nil
}

// templateNames indexes every template's name by ID for display.
func templateNames(ctx context.Context, app *App) (map[string]string, error) {
	templates, err := app.Templates.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(templates))
	for _, t := range templates {
		names[t.ID] = t.Name
	}
	return names, nil
}
