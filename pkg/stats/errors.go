package stats

import (
	"fmt"
)

// ParseError reports a token that could not be aggregated.
// Line and Column are 1-based and point at the first character of the token.
type ParseError struct {
	Line   int
	Column int
	Token  string
	// Err is the sentinel describing the failure (sentinel.ErrInvalidToken or sentinel.ErrSumOverflow).
	Err error
	// Cause is the underlying strconv error, if any.
	Cause error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("%v at line %d, position %d (%q)", e.Err, e.Line, e.Column, e.Token)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}

	return msg
}

// Unwrap exposes both the sentinel and the underlying cause to errors.Is and errors.As.
func (e *ParseError) Unwrap() []error {
	errs := []error{e.Err}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}

	return errs
}
