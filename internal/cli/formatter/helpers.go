package formatter

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const dateLayout = "2006-01-02"

// RenderBox wraps content in a rounded-border box with an optional title.
func RenderBox(title string, content string) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDim).
		PaddingLeft(2).
		PaddingRight(2).
		PaddingTop(1).
		PaddingBottom(1)

	if title != "" {
		return boxStyle.Render(StyleHeader.Render(strings.ToUpper(title)) + "\n\n" + content)
	}
	return boxStyle.Render(content)
}

// Date renders an optional calendar date, "--" when unset.
func Date(t *time.Time) string {
	if t == nil {
		return Dim("--")
	}
	return t.Format(dateLayout)
}

// Window renders a planned or actual start/end pair as "start → end".
func Window(start, end *time.Time) string {
	if start == nil && end == nil {
		return Dim("--")
	}
	return Date(start) + " → " + Date(end)
}

// HumanTimestamp renders a timestamp relative to now for recent events and
// as an absolute time otherwise.
func HumanTimestamp(t, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < 0:
		return t.Format("2006-01-02 15:04")
	case diff < time.Minute:
		return "Just now"
	case diff < time.Hour:
		return strconv.Itoa(int(diff.Minutes())) + "m ago"
	case diff < 24*time.Hour:
		return strconv.Itoa(int(diff.Hours())) + "h ago"
	default:
		return t.Format("2006-01-02 15:04")
	}
}

// TruncID shortens a UUID to its first eight characters.
func TruncID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Percent renders a 0..1 ratio as a whole percentage.
func Percent(ratio float64) string {
	return strconv.Itoa(int(ratio*100+0.5)) + "%"
}
