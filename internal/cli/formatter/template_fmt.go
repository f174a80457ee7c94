package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alexanderramin/taktplan/internal/contract"
	"github.com/alexanderramin/taktplan/internal/domain"
	"github.com/alexanderramin/taktplan/internal/scheduler"
)

// FormatTemplateList renders the templates inside a bordered box.
func FormatTemplateList(templates []*domain.Template) string {
	headers := []string{"ID", "NAME", "STEPS", "WORKDAYS"}
	rows := make([][]string, 0, len(templates))
	for _, t := range templates {
		active := 0
		for _, s := range t.Steps {
			if !s.Retired {
				active++
			}
		}
		rows = append(rows, []string{
			Dim(TruncID(t.ID)),
			Bold(t.Name),
			strconv.Itoa(active),
			strconv.Itoa(TemplateWorkdays(t.Steps)),
		})
	}
	return RenderBox("Templates", RenderTable(headers, rows))
}

// TemplateWorkdays is the span of one unit's sequence in workdays. A
// parallel step starts together with the step after it.
func TemplateWorkdays(steps []domain.Step) int {
	cursor, span := 0, 0
	for _, s := range scheduler.OrderedSteps(steps) {
		if s.Retired {
			continue
		}
		end := cursor + s.Duration()
		span = max(span, end)
		if !s.Parallel {
			cursor = end
		}
	}
	return span
}

// FormatTemplateShow renders the template with its steps in order.
func FormatTemplateShow(t *domain.Template) string {
	var b strings.Builder
	b.WriteString(StyleBold.Render(t.Name) + "\n")
	fmt.Fprintf(&b, "%s  %s\n\n", StyleDim.Render("ID"), Dim(t.ID))

	headers := []string{"#", "ACTIVITY", "TRADE", "DAYS", ""}
	rows := make([][]string, 0, len(t.Steps))
	for _, s := range t.Steps {
		var flags []string
		if s.Parallel {
			flags = append(flags, StylePurple.Render("parallel"))
		}
		if s.Retired {
			flags = append(flags, Dim("retired"))
		}
		activity := s.Activity
		if s.Retired {
			activity = Dim(activity)
		}
		rows = append(rows, []string{
			strconv.Itoa(s.Order),
			activity,
			s.Category,
			strconv.Itoa(s.Duration()),
			strings.Join(flags, " "),
		})
	}
	b.WriteString(RenderTable(headers, rows))
	return RenderBox("", strings.TrimRight(b.String(), "\n"))
}

// FormatTemplateSave summarizes a step replacement.
func FormatTemplateSave(r *contract.TemplateSaveResponse) string {
	return fmt.Sprintf("Saved template %s: %d created, %d updated, %d deleted, %d retired, %d tasks deleted",
		r.Template.Name, r.Created, r.Updated, r.Deleted, r.Retired, r.TasksDeleted)
}
