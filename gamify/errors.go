// Package gamify turns logged meals and profile targets into nutrition totals,
// XP awards, HP deltas, meal scores, coach tips, and level/rank progression.
// Every function is pure and safe for concurrent use.
package gamify

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput marks caller input that cannot be scored (negative or
// non-finite quantities, empty meals, unknown enums).
var ErrInvalidInput = errors.New("invalid input")

// ErrMissingTarget marks a profile with a zero, negative, or non-finite
// target. Nothing is scored against it.
var ErrMissingTarget = errors.New("missing target")

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// MaxAmount is the largest nutrient or oil amount that can be scored. XP and
// score arithmetic converts amounts to int, so anything larger is rejected.
const MaxAmount = 1_000_000

// checkAmount rejects NaN, ±Inf, negative values, and values above MaxAmount.
func checkAmount(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return invalidf("%s must be a finite number", name)
	}
	if v < 0 {
		return invalidf("%s must not be negative", name)
	}
	if v > MaxAmount {
		return invalidf("%s must not exceed %d", name, MaxAmount)
	}
	return nil
}
