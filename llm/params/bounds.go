// Package params holds request parameters whose legal range is fixed by the
// provider. Values are checked once, at construction, and cannot be changed
// afterwards.
package params

import (
	"fmt"
	"strconv"
)

type Violation int

const (
	TooLow Violation = iota + 1
	TooHigh
)

func (v Violation) String() string {
	switch v {
	case TooLow:
		return "too low"
	case TooHigh:
		return "too high"
	default:
		return "out of range"
	}
}

// RangeError reports a value outside [MIN, MAX]. Bound is the limit that was
// crossed.
type RangeError struct {
	Field string
	Kind  Violation
	Bound float64
	Value float64
}

func (e *RangeError) Error() string {
	op := "<"
	if e.Kind == TooHigh {
		op = ">"
	}
	return fmt.Sprintf("params: %s %s %s %s", e.Field, formatNumber(e.Value), op, formatNumber(e.Bound))
}

// IsTooLow reports whether err is a RangeError of kind TooLow.
func IsTooLow(err error) bool {
	re, ok := asRangeError(err)
	return ok && re.Kind == TooLow
}

// IsTooHigh reports whether err is a RangeError of kind TooHigh.
func IsTooHigh(err error) bool {
	re, ok := asRangeError(err)
	return ok && re.Kind == TooHigh
}

type number interface {
	~int | ~float64
}

func check[T number](field string, v, lo, hi T) error {
	switch {
	case v < lo:
		return &RangeError{Field: field, Kind: TooLow, Bound: float64(lo), Value: float64(v)}
	case v > hi:
		return &RangeError{Field: field, Kind: TooHigh, Bound: float64(hi), Value: float64(v)}
	}
	// NaN compares false against both bounds.
	if v != v {
		return &RangeError{Field: field, Kind: TooHigh, Bound: float64(hi), Value: float64(v)}
	}
	return nil
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
