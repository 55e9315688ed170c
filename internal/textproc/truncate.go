package textproc

import (
	"strings"

	"github.com/veritext/detector-service/internal/models"
)

// Recognized bounds for the per-request word budget. Values outside the
// range are clamped rather than rejected.
const (
	MinUnits = 100
	MaxUnits = 2000
)

// ClampUnits forces maxUnits into the recognized [MinUnits, MaxUnits] range.
func ClampUnits(maxUnits int) int {
	if maxUnits < MinUnits {
		return MinUnits
	}
	if maxUnits > MaxUnits {
		return MaxUnits
	}
	return maxUnits
}

// UnitCount returns the number of whitespace-delimited units in text.
func UnitCount(text string) int {
	return len(strings.Fields(text))
}

// Truncate bounds text to at most maxUnits whitespace-delimited units,
// preserving their original order. Text already within the budget is
// returned unchanged; longer text keeps the first maxUnits units joined
// with single spaces. Blank input yields an empty-input error so callers
// never run inference on nothing.
func Truncate(text string, maxUnits int) (string, error) {
	maxUnits = ClampUnits(maxUnits)

	words := strings.Fields(text)
	if len(words) == 0 {
		return "", models.EmptyInput("input text is empty or whitespace-only")
	}
	if len(words) <= maxUnits {
		return text, nil
	}
	return strings.Join(words[:maxUnits], " "), nil
}
