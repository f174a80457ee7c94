package formatter

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/taktplan/internal/contract"
	"github.com/alexanderramin/taktplan/internal/domain"
)

// FormatStats renders overall counts followed by one row per trade.
func FormatStats(s *contract.StatsResponse) string {
	var b strings.Builder
	b.WriteString(FormatStatusCounts(s.StatusCounts) + "\n")
	b.WriteString(RenderProgress(s.PercentDone/100, 30) + "\n\n")

	headers := []string{"TRADE", "TOTAL", "OPEN", "IN PROGRESS", "DONE", "DELAYED", ""}
	rows := make([][]string, 0, len(s.ByCategory))
	for _, c := range s.ByCategory {
		ratio := 0.0
		if c.Total > 0 {
			ratio = float64(c.Done) / float64(c.Total)
		}
		delayed := strconv.Itoa(c.Delayed)
		if c.Delayed > 0 {
			delayed = StyleRed.Render(delayed)
		}
		rows = append(rows, []string{
			Bold(orDash(c.Category)),
			strconv.Itoa(c.Total),
			strconv.Itoa(c.Open),
			strconv.Itoa(c.InProgress),
			strconv.Itoa(c.Done),
			delayed,
			RenderCompactBar(ratio, 10, false),
		})
	}
	b.WriteString(RenderTable(headers, rows))
	return RenderBox("Statistics", strings.TrimRight(b.String(), "\n"))
}

// FormatCurve renders planned against actual counts per calendar week,
// with cumulative totals.
func FormatCurve(c *contract.CurveResponse) string {
	if len(c.Points) == 0 {
		return Dim("No dated tasks.") + "\n"
	}
	peak := 1
	for _, p := range c.Points {
		peak = max(peak, p.Planned, p.Actual)
	}
	headers := []string{"WEEK", "PLANNED", "ACTUAL", "Σ PLANNED", "Σ ACTUAL", ""}
	rows := make([][]string, 0, len(c.Points))
	sumPlanned, sumActual := 0, 0
	for _, p := range c.Points {
		sumPlanned += p.Planned
		sumActual += p.Actual
		bar := StyleBlue.Render(strings.Repeat("▇", p.Planned*12/peak)) + " " +
			StyleGreen.Render(strings.Repeat("▇", p.Actual*12/peak))
		rows = append(rows, []string{
			p.Week,
			strconv.Itoa(p.Planned),
			strconv.Itoa(p.Actual),
			strconv.Itoa(sumPlanned),
			strconv.Itoa(sumActual),
			bar,
		})
	}
	return RenderTable(headers, rows)
}

// FormatTimeline renders each segment's activities as date ranges with
// their completion.
func FormatTimeline(t *contract.TimelineResponse) string {
	if len(t.Segments) == 0 {
		return Dim("No tasks.") + "\n"
	}
	var b strings.Builder
	for i, seg := range t.Segments {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(Header(t.Level+" "+seg.Name) + "\n")
		headers := []string{"ACTIVITY", "TRADE", "FROM", "TO", "DONE", "", ""}
		rows := make([][]string, 0, len(seg.Activities))
		for _, a := range seg.Activities {
			rows = append(rows, []string{
				Bold(a.Activity),
				a.Category,
				Date(a.Start),
				Date(a.End),
				fmt.Sprintf("%d/%d", a.Done, a.Total),
				RenderCompactBar(a.Progress, 10, false),
				DelayedBadge(a.Delayed),
			})
		}
		b.WriteString(RenderTable(headers, rows))
	}
	return b.String()
}

// FormatAuditList renders recent audit entries, newest first.
func FormatAuditList(entries []*domain.AuditEntry, now time.Time) string {
	headers := []string{"WHEN", "ACTION", "OK", "PROJECT", "DETAILS"}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		ok := StyleGreen.Render("✔")
		if !e.OK {
			ok = StyleRed.Render("✖")
		}
		project := Dim("--")
		if e.ProjectID != "" {
			project = TruncID(e.ProjectID)
		}
		rows = append(rows, []string{
			Dim(HumanTimestamp(e.At, now)),
			Bold(e.Action),
			ok,
			project,
			auditSummary(e.Details),
		})
	}
	return RenderTable(headers, rows)
}

// auditSummary shows the scalar details compactly; nested change lists
// are only available through JSON output.
func auditSummary(details map[string]any) string {
	parts := make([]string, 0, len(details))
	for _, k := range sortedAnyKeys(details) {
		switch v := details[k].(type) {
		case string, bool, float64, int, int64:
			parts = append(parts, fmt.Sprintf("%s=%v", k, v))
		}
	}
	return strings.Join(parts, " ")
}

func sortedAnyKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
