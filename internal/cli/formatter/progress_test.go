package formatter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderCompactBar(t *testing.T) {
	tests := []struct {
		name  string
		pct   float64
		width int
		dim   bool
	}{
		{"0% normal", 0.0, 10, false},
		{"50% normal", 0.5, 10, false},
		{"100% normal", 1.0, 10, false},
		{"50% dimmed", 0.5, 10, true},
		{"over 100% clamps", 1.5, 10, false},
		{"negative clamps", -0.5, 10, false},
		{"tiny width clamps to 2", 0.5, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenderCompactBar(tt.pct, tt.width, tt.dim)
			assert.NotEmpty(t, got)
			assert.NotContains(t, got, "[")
			assert.NotContains(t, got, "%")
		})
	}
}

func TestRenderCompactBar_Blocks(t *testing.T) {
	plain := stripANSI(RenderCompactBar(0.5, 4, true))
	assert.Equal(t, strings.Repeat(filledBlock, 2)+strings.Repeat(emptyBlock, 2), plain)

	assert.Equal(t, strings.Repeat(emptyBlock, 4), stripANSI(RenderCompactBar(0, 4, false)))
	assert.Equal(t, strings.Repeat(filledBlock, 4), stripANSI(RenderCompactBar(2, 4, false)))
}

func TestRenderProgress(t *testing.T) {
	got := stripANSI(RenderProgress(0.25, 8))
	assert.Equal(t, "["+strings.Repeat(filledBlock, 2)+strings.Repeat(emptyBlock, 6)+"]  25%", got)

	assert.Contains(t, stripANSI(RenderProgress(1, 4)), "100%")
}
