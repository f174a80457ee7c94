package formatter

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/alexanderramin/taktplan/internal/contract"
	"github.com/alexanderramin/taktplan/internal/domain"
)

// UnitPath renders "BT1 / Stiege 1 / E0 / Top 1".
func UnitPath(u domain.UnitRef) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{u.SectionName, u.StairwellName, u.LevelName, u.UnitName} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, Dim(" / "))
}

// FormatTaskList renders task views as a table. asOf decides which tasks
// are flagged as delayed.
func FormatTaskList(views []*domain.TaskView, asOf time.Time) string {
	headers := []string{"ID", "LOCATION", "ACTIVITY", "TRADE", "PLANNED", "ACTUAL", "STATUS", "ASSIGNEE", ""}
	rows := make([][]string, 0, len(views))
	for _, v := range views {
		assignee := Dim("--")
		if v.AssigneeName != "" {
			assignee = v.AssigneeName
		}
		rows = append(rows, []string{
			Dim(TruncID(v.ID)),
			UnitPath(v.Unit),
			Bold(v.Activity),
			v.Category,
			Window(v.PlannedStart, v.PlannedEnd),
			Window(v.ActualStart, v.ActualEnd),
			StatusPill(v.EffectiveStatus()),
			assignee,
			DelayedBadge(v.IsDelayed(asOf)),
		})
	}
	return RenderTable(headers, rows)
}

// FormatTask renders a single task's fields.
func FormatTask(t *domain.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", StyleDim.Render("ID      "), t.ID)
	fmt.Fprintf(&b, "%s  %s\n", StyleDim.Render("PLANNED "), Window(t.PlannedStart, t.PlannedEnd))
	fmt.Fprintf(&b, "%s  %s\n", StyleDim.Render("ACTUAL  "), Window(t.ActualStart, t.ActualEnd))
	fmt.Fprintf(&b, "%s  %s\n", StyleDim.Render("STATUS  "), StatusPill(t.Status))
	if t.AssigneeID != nil {
		fmt.Fprintf(&b, "%s  %s\n", StyleDim.Render("ASSIGNEE"), *t.AssigneeID)
	}
	if t.Note != "" {
		fmt.Fprintf(&b, "%s  %s\n", StyleDim.Render("NOTE    "), t.Note)
	}
	return b.String()
}

// FormatChangeSet lists what an operation did, one line per task. Long
// change sets are cut after limit lines; limit <= 0 prints everything.
func FormatChangeSet(c contract.ChangeSet, limit int) string {
	var lines []string
	for _, r := range c.Created {
		lines = append(lines, StyleGreen.Render("+ ")+Dim(TruncID(r.TaskID))+" created")
	}
	for _, u := range c.Updated {
		fields := make([]string, 0, len(u.Fields))
		for _, name := range sortedKeys(u.Fields) {
			f := u.Fields[name]
			fields = append(fields, fmt.Sprintf("%s %s → %s", name, orDash(f.Old), orDash(f.New)))
		}
		lines = append(lines, StyleYellow.Render("~ ")+Dim(TruncID(u.TaskID))+" "+strings.Join(fields, ", "))
	}
	for _, r := range c.Deleted {
		lines = append(lines, StyleRed.Render("- ")+Dim(TruncID(r.TaskID))+" deleted")
	}
	if limit > 0 && len(lines) > limit {
		rest := len(lines) - limit
		lines = append(lines[:limit], Dim(fmt.Sprintf("… %d more", rest)))
	}
	if len(lines) == 0 {
		return Dim("No changes.") + "\n"
	}
	return strings.Join(lines, "\n") + "\n"
}

// ChangeSummary is the one-line count of a change set.
func ChangeSummary(c contract.ChangeSet) string {
	return fmt.Sprintf("%d created, %d updated, %d deleted", len(c.Created), len(c.Updated), len(c.Deleted))
}

func orDash(s string) string {
	if s == "" {
		return "--"
	}
	return s
}

func sortedKeys(m map[string]contract.FieldChange) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
