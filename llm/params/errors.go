package params

import (
	"errors"
	"fmt"
)

func asRangeError(err error) (*RangeError, bool) {
	var re *RangeError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// ErrTooManyStops is matched by errors.Is against a *StopError.
var ErrTooManyStops = errors.New("params: too many stop sequences")

type StopError struct {
	Len int
	Max int
}

func (e *StopError) Error() string {
	return fmt.Sprintf("params: stop has %d sequences, max %d", e.Len, e.Max)
}

func (e *StopError) Is(target error) bool { return target == ErrTooManyStops }
