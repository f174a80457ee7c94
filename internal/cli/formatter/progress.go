package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
)

// RenderProgress renders a progress bar like [████░░░░]  45%.
// Green from two thirds, yellow from one third, red below.
func RenderProgress(pct float64, width int) string {
	bar, pct := blocks(pct, width)
	return fmt.Sprintf("[%s] %3.0f%%", progressStyle(pct).Render(bar), pct*100)
}

// RenderCompactBar renders the bare bar for table cells. Dimmed bars skip
// the progress coloring.
func RenderCompactBar(pct float64, width int, dim bool) string {
	bar, pct := blocks(pct, width)
	if dim {
		return StyleDim.Render(bar)
	}
	return progressStyle(pct).Render(bar)
}

func blocks(pct float64, width int) (string, float64) {
	pct = min(max(pct, 0), 1)
	width = max(width, 2)
	filled := min(int(pct*float64(width)), width)
	return strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, width-filled), pct
}

func progressStyle(pct float64) lipgloss.Style {
	switch {
	case pct < 0.33:
		return StyleRed
	case pct < 0.66:
		return StyleYellow
	default:
		return StyleGreen
	}
}
