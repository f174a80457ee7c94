package formatter

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/alexanderramin/taktplan/internal/contract"
	"github.com/alexanderramin/taktplan/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestHumanTimestamp(t *testing.T) {
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{"just now", now.Add(-10 * time.Second), "Just now"},
		{"minutes", now.Add(-5 * time.Minute), "5m ago"},
		{"hours", now.Add(-3 * time.Hour), "3h ago"},
		{"days", now.Add(-48 * time.Hour), "2025-01-13 12:00"},
		{"future", now.Add(time.Hour), "2025-01-15 13:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HumanTimestamp(tt.at, now))
		})
	}
}

func TestDateAndWindow(t *testing.T) {
	assert.Equal(t, "--", stripANSI(Date(nil)))
	assert.Equal(t, "2025-01-06", Date(day(2025, 1, 6)))
	assert.Equal(t, "2025-01-06 → 2025-01-08", Window(day(2025, 1, 6), day(2025, 1, 8)))
	assert.Equal(t, "2025-01-06 → --", stripANSI(Window(day(2025, 1, 6), nil)))
	assert.Equal(t, "--", stripANSI(Window(nil, nil)))
}

func TestTruncIDAndPercent(t *testing.T) {
	assert.Equal(t, "0b7e4f1c", TruncID("0b7e4f1c-9d7a-4a40-9a57-0f1d2b3c4d5e"))
	assert.Equal(t, "abc", TruncID("abc"))
	assert.Equal(t, "13%", Percent(0.125))
	assert.Equal(t, "0%", Percent(0))
}

func TestRenderTable_AlignsStyledCells(t *testing.T) {
	out := stripANSI(RenderTable(
		[]string{"A", "LONG HEADER"},
		[][]string{{StyleRed.Render("value"), "x"}, {"v"}},
	))
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "A      LONG HEADER", lines[0])
	assert.Equal(t, "─────  ───────────", lines[1])
	assert.Equal(t, "value  x", lines[2])
	assert.Equal(t, "v      ", lines[3])

	assert.Empty(t, RenderTable(nil, nil))
}

func TestRenderTree_StructureConnectors(t *testing.T) {
	tpl := "tpl-1"
	tree := &contract.StructureTree{Sections: []*contract.TreeNode{
		{
			Location: &domain.Location{Kind: domain.KindSection, Name: "BT1", TemplateID: &tpl},
			Children: []*contract.TreeNode{
				{Location: &domain.Location{Kind: domain.KindStairwell, Name: "Stiege 1"},
					Children: []*contract.TreeNode{{Location: &domain.Location{Kind: domain.KindLevel, Name: "E0"}}}},
				{Location: &domain.Location{Kind: domain.KindStairwell, Name: "Stiege 2"}},
			},
		},
		{Location: &domain.Location{Kind: domain.KindSection, Name: "BT2"}},
	}}

	out := stripANSI(RenderTree(StructureTreeItems(tree, map[string]string{"tpl-1": "Wohnung"})))
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "├─ section BT1"))
	assert.Contains(t, lines[0], "[ Wohnung ]")
	assert.Equal(t, "│  ├─ stairwell Stiege 1", strings.TrimRight(lines[1], " "))
	assert.Equal(t, "│  │  └─ level E0", strings.TrimRight(lines[2], " "))
	assert.Equal(t, "│  └─ stairwell Stiege 2", strings.TrimRight(lines[3], " "))
	assert.Equal(t, "└─ section BT2", strings.TrimRight(lines[4], " "))
}

func TestTemplateWorkdays(t *testing.T) {
	steps := []domain.Step{
		{ID: "a", Order: 1, DurationDays: 3},
		{ID: "b", Order: 2, DurationDays: 4, Parallel: true},
		{ID: "c", Order: 3, DurationDays: 2},
		{ID: "d", Order: 4, DurationDays: 5, Retired: true},
	}
	// a: 0-3, b and c start at 3; b ends 7, c ends 5.
	assert.Equal(t, 7, TemplateWorkdays(steps))
	assert.Equal(t, 0, TemplateWorkdays(nil))
}

func TestFormatChangeSet(t *testing.T) {
	c := contract.ChangeSet{
		Created: []contract.TaskRef{{TaskID: "11111111-aaaa"}},
		Updated: []contract.TaskChange{{TaskID: "22222222-bbbb", Fields: map[string]contract.FieldChange{
			"start_soll": {Old: "2025-01-06", New: "2025-01-13"},
			"ist_end":    {New: "2025-01-08"},
		}}},
		Deleted: []contract.TaskRef{{TaskID: "33333333-cccc"}},
	}
	out := stripANSI(FormatChangeSet(c, 0))
	assert.Contains(t, out, "+ 11111111 created")
	assert.Contains(t, out, "~ 22222222 ist_end -- → 2025-01-08, start_soll 2025-01-06 → 2025-01-13")
	assert.Contains(t, out, "- 33333333 deleted")

	cut := stripANSI(FormatChangeSet(c, 1))
	assert.Contains(t, cut, "… 2 more")
	assert.NotContains(t, cut, "deleted")

	assert.Equal(t, "No changes.\n", stripANSI(FormatChangeSet(contract.ChangeSet{}, 0)))
	assert.Equal(t, "1 created, 1 updated, 1 deleted", ChangeSummary(c))
}

func TestFormatTaskList_FlagsDelayed(t *testing.T) {
	asOf := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	views := []*domain.TaskView{
		{
			Task:     domain.Task{ID: "t-late", PlannedStart: day(2025, 1, 6), PlannedEnd: day(2025, 1, 8)},
			Unit:     domain.UnitRef{SectionName: "BT1", StairwellName: "Stiege 1", LevelName: "E0", UnitName: "Top 1"},
			Activity: "Estrich",
			Category: "Estrich",
		},
		{
			Task:         domain.Task{ID: "t-done", PlannedStart: day(2025, 1, 9), PlannedEnd: day(2025, 1, 10), ActualStart: day(2025, 1, 9), ActualEnd: day(2025, 1, 10)},
			Unit:         domain.UnitRef{SectionName: "BT1", UnitName: "Top 2"},
			Activity:     "Fliesen",
			AssigneeName: "Fliesen Huber",
		},
	}
	lines := strings.Split(stripANSI(FormatTaskList(views, asOf)), "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	assert.Contains(t, lines[2], "BT1 / Stiege 1 / E0 / Top 1")
	assert.Contains(t, lines[2], "○ open")
	assert.Contains(t, lines[2], "DELAYED")
	assert.Contains(t, lines[3], "✔ done")
	assert.Contains(t, lines[3], "Fliesen Huber")
	assert.NotContains(t, lines[3], "DELAYED")
}

func TestFormatStatusCounts(t *testing.T) {
	got := stripANSI(FormatStatusCounts(contract.StatusCounts{Total: 8, Open: 6, InProgress: 1, Done: 1, Delayed: 3}))
	assert.Equal(t, "8 total · 6 open · 1 in progress · 1 done · 3 delayed", got)
}

func TestFormatCurve_Cumulative(t *testing.T) {
	out := stripANSI(FormatCurve(&contract.CurveResponse{Points: []contract.CurvePoint{
		{Week: "2025-KW02", Planned: 8, Actual: 1},
		{Week: "2025-KW03", Planned: 0, Actual: 1},
	}}))
	lines := strings.Split(out, "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	assert.Regexp(t, `^2025-KW03\s+0\s+1\s+8\s+2`, lines[3])

	assert.Contains(t, stripANSI(FormatCurve(&contract.CurveResponse{})), "No dated tasks.")
}
