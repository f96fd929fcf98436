package frame

import (
	"fmt"
	"strings"
)

// ValidationError lists the rows that broke a frame invariant.
type ValidationError struct {
	Kind error
	Rows []int
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Rows))
	for i, r := range e.Rows {
		parts[i] = fmt.Sprint(r)
	}
	return fmt.Sprintf("%v at rows [%s]", e.Kind, strings.Join(parts, " "))
}

// Unwrap lets errors.Is match the underlying kind.
func (e *ValidationError) Unwrap() error {
	return e.Kind
}

// Validate checks that the index is strictly increasing and that every row
// satisfies Low <= Open, Close <= High.
func (f *Frame) Validate() error {
	if err := f.CheckLengths(); err != nil {
		return err
	}

	var bad []int
	for i := 1; i < f.Len(); i++ {
		if !f.Index[i].After(f.Index[i-1]) {
			bad = append(bad, i)
		}
	}
	if len(bad) > 0 {
		return &ValidationError{Kind: ErrIndexOrder, Rows: bad}
	}

	for i := 0; i < f.Len(); i++ {
		o, h, l, c := f.Open[i], f.High[i], f.Low[i], f.Close[i]
		if !(l <= o && o <= h && l <= c && c <= h) {
			bad = append(bad, i)
		}
	}
	if len(bad) > 0 {
		return &ValidationError{Kind: ErrOHLCOrder, Rows: bad}
	}
	return nil
}
