package outwriter

import (
	"os"

	"github.com/huangsam/qbmatrix/internal/contract"
	"golang.org/x/term"
)

// Bounds for the scenario summary column.
const (
	minSummaryWidth = 20
	maxSummaryWidth = 120
)

// getTerminalWidth returns the override width, the detected terminal width or 80.
func getTerminalWidth(cfg *contract.Config) int {
	if cfg.Width > 0 {
		return cfg.Width
	}
	detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || detectedWidth <= 0 {
		// Fallback to conservative default if terminal size can't be detected
		return 80
	}
	return detectedWidth
}

// getMaxSummaryWidth calculates the maximum width for scenario summaries in
// table output based on terminal width.
func getMaxSummaryWidth(cfg *contract.Config) int {
	// Index + Points + Change + Current + Score with borders/padding
	baseWidth := 45

	available := getTerminalWidth(cfg) - baseWidth
	if available < minSummaryWidth {
		return minSummaryWidth
	}
	if available > maxSummaryWidth {
		return maxSummaryWidth
	}
	return available
}
