package logicerr

import (
	"errors"
	"fmt"
)

// Error is wrapped to highlight the errors caused by a caller's request
// rather than by the state of the image.
var Error = errors.New("logical error")

// New returns simple error with a provided error message.
func New(msg string) error {
	return Wrap(errors.New(msg))
}

// Wrap wraps arbitrary error into a logical one.
func Wrap(err error) error {
	return fmt.Errorf("%w: %w", Error, err)
}

// Wrapf wraps err into a logical one with formatted context prepended.
func Wrapf(err error, format string, args ...any) error {
	return Wrap(fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err))
}

// Is checks whether err is a logical error.
func Is(err error) bool {
	return errors.Is(err, Error)
}
