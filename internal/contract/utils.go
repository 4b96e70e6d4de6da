package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/qbmatrix/schema"
)

// Payout label constants.
const (
	MaxPayoutValue  = "Max Payout"
	MidPayoutValue  = "Mid Payout"
	MinPayoutValue  = "Min Payout"
	ZeroPayoutValue = "No Payout"
)

// Color variables for console output.
var (
	MaxPayoutColor  = color.New(color.FgGreen, color.Bold) // MaxPayoutColor marks the best band.
	MidPayoutColor  = color.New(color.FgCyan)              // MidPayoutColor marks the middle band.
	MinPayoutColor  = color.New(color.FgYellow)            // MinPayoutColor marks the lowest paying band.
	ZeroPayoutColor = color.New(color.FgRed)               // ZeroPayoutColor marks scores below every cut point.
	CurrentColor    = color.New(color.Bold, color.Underline)
)

// GetPlainLabel returns a plain text label for a payout tier.
// This is the core logic used for CSV, JSON, and table printing.
func GetPlainLabel(p schema.PayoutTier) string {
	switch p {
	case schema.MaxPayout:
		return MaxPayoutValue
	case schema.MidPayout:
		return MidPayoutValue
	case schema.MinPayout:
		return MinPayoutValue
	default:
		return ZeroPayoutValue
	}
}

// PayoutColor returns the console color for a payout tier.
func PayoutColor(p schema.PayoutTier) *color.Color {
	switch p {
	case schema.MaxPayout:
		return MaxPayoutColor
	case schema.MidPayout:
		return MidPayoutColor
	case schema.MinPayout:
		return MinPayoutColor
	default:
		return ZeroPayoutColor
	}
}

// GetColorLabel returns a colored text label for console output (table).
func GetColorLabel(p schema.PayoutTier) string {
	return PayoutColor(p).Sprint(GetPlainLabel(p))
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It returns os.Stdout when no path is given.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// LogInfo logs a status line to stderr, keeping stdout clean for results.
func LogInfo(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for run history.
func GetHistoryDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".qbmatrix_history.db"
	}
	return filepath.Join(homeDir, ".qbmatrix_history.db")
}

// TruncateText truncates text to a maximum width with an ellipsis suffix.
// Requires maxWidth > 3 so there is room for the "..." and at least one character.
func TruncateText(s string, maxWidth int) string {
	runes := []rune(s)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return s
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
