package extract

import (
	"errors"
	"fmt"
)

// ErrAmountNotFound means no strategy found any number-plus-currency token.
// The amount is the one required field; this fails the whole extraction.
var ErrAmountNotFound = errors.New("no payout amount found in document")

// NormalizationError reports a candidate that matched a pattern but did not
// parse into a canonical value. Raw carries the offending text to aid
// pattern tuning.
type NormalizationError struct {
	Field Field
	Raw   string
	Err   error
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("cannot normalize %s value %q: %v", e.Field, e.Raw, e.Err)
}

func (e *NormalizationError) Unwrap() error {
	return e.Err
}
