package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/taktplan/internal/contract"
	"github.com/alexanderramin/taktplan/internal/domain"
)

// FormatProjectList renders the projects inside a bordered box.
func FormatProjectList(projects []*domain.Project) string {
	headers := []string{"ID", "NAME", "START", "CREATED"}
	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, []string{
			p.DisplayID(),
			Bold(p.Name),
			p.StartDate.Format(dateLayout),
			Dim(p.CreatedAt.Format(dateLayout)),
		})
	}
	return RenderBox("Projects", RenderTable(headers, rows))
}

// ProjectShowData bundles what the project detail card displays.
type ProjectShowData struct {
	Project       *domain.Project
	Tree          *contract.StructureTree
	TemplateNames map[string]string
	Stats         *contract.StatsResponse
}

// FormatProjectShow renders the project card: metadata, progress and the
// location tree.
func FormatProjectShow(d ProjectShowData) string {
	var b strings.Builder
	p := d.Project
	b.WriteString(StyleBold.Render(p.Name) + "\n\n")
	fmt.Fprintf(&b, "%s  %s\n", StyleDim.Render("ID    "), p.DisplayID())
	fmt.Fprintf(&b, "%s  %s\n", StyleDim.Render("UUID  "), Dim(p.ID))
	fmt.Fprintf(&b, "%s  %s\n", StyleDim.Render("START "), p.StartDate.Format(dateLayout))

	if d.Stats != nil && d.Stats.Total > 0 {
		b.WriteString("\n")
		fmt.Fprintf(&b, "%s  %s\n", StyleDim.Render("TASKS "), FormatStatusCounts(d.Stats.StatusCounts))
		fmt.Fprintf(&b, "%s  %s\n", StyleDim.Render("DONE  "), RenderProgress(d.Stats.PercentDone/100, 20))
	}

	if d.Tree != nil && len(d.Tree.Sections) > 0 {
		b.WriteString("\n" + Header("Structure") + "\n")
		b.WriteString(RenderTree(StructureTreeItems(d.Tree, d.TemplateNames)))
	}
	return RenderBox("", strings.TrimRight(b.String(), "\n"))
}

// FormatStatusCounts renders "8 total · 6 open · 1 in progress · 1 done · 3 delayed".
func FormatStatusCounts(c contract.StatusCounts) string {
	parts := []string{
		fmt.Sprintf("%d total", c.Total),
		StyleFg.Render(fmt.Sprintf("%d open", c.Open)),
		StyleYellow.Render(fmt.Sprintf("%d in progress", c.InProgress)),
		StyleGreen.Render(fmt.Sprintf("%d done", c.Done)),
	}
	delayed := fmt.Sprintf("%d delayed", c.Delayed)
	if c.Delayed > 0 {
		delayed = StyleRed.Render(delayed)
	} else {
		delayed = Dim(delayed)
	}
	parts = append(parts, delayed)
	return strings.Join(parts, Dim(" · "))
}

// FormatUserList renders users with their role.
func FormatUserList(users []*domain.User) string {
	headers := []string{"ID", "NAME", "ROLE"}
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		role := string(u.Role)
		if u.Assignable() {
			role = StyleBlue.Render(role)
		}
		rows = append(rows, []string{TruncID(u.ID), Bold(u.Name), role})
	}
	return RenderTable(headers, rows)
}
