package cli

import (
	"fmt"
	"strings"
)

const barWidth = 20

// renderBar draws pct as a block bar, e.g. "██████████░░░░░░░░░░  50%".
// Values outside 0..100 are clamped.
func renderBar(pct int) string {
	pct = min(max(pct, 0), 100)
	filled := pct * barWidth / 100

	var b strings.Builder
	b.Grow(barWidth*3 + 5)
	b.WriteString(strings.Repeat("█", filled))
	b.WriteString(strings.Repeat("░", barWidth-filled))
	fmt.Fprintf(&b, " %3d%%", pct)
	return b.String()
}
