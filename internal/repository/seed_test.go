package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/alexanderramin/taktplan/internal/domain"
	"github.com/alexanderramin/taktplan/internal/testutil"
	"github.com/stretchr/testify/require"
)

// seeded is a project with a persisted building and template.
type seeded struct {
	project  *domain.Project
	building *testutil.Building
	template *domain.Template
}

func seedProject(t *testing.T, db *sql.DB, sections, stairwells, levels, units int) seeded {
	t.Helper()
	ctx := context.Background()

	proj := testutil.NewTestProject("Wohnbau")
	require.NoError(t, NewSQLiteProjectRepo(db).Create(ctx, proj))

	b := testutil.NewBuilding(proj.ID, sections, stairwells, levels, units)
	structures := NewSQLiteStructureRepo(db)
	for _, n := range b.Nodes {
		require.NoError(t, structures.Create(ctx, n))
	}

	tmpl := testutil.NewTestTemplate("Ausbau",
		testutil.NewTestStep("Estrich", 1, 3, testutil.WithCategory("Boden")),
		testutil.NewTestStep("Elektro Grobinstallation", 2, 2, testutil.WithCategory("Elektro")),
		testutil.NewTestStep("Maler", 3, 2, testutil.WithCategory("Maler")),
	)
	require.NoError(t, NewSQLiteTemplateRepo(db).Create(ctx, tmpl))

	return seeded{project: proj, building: b, template: tmpl}
}
