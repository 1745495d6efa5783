package cmderr

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/nspcc-dev/oxfs/pkg/romfs/common"
	"github.com/nspcc-dev/oxfs/pkg/romfs/util/logicerr"
)

// Exit codes of the tools. Engine errors are mapped to their own codes so
// scripts can tell a missing path from a broken image.
const (
	CodeInternal = 1
	CodeNotFound = 2
	CodeNoSpace  = 3
	CodeCorrupt  = 4
	CodeInvalid  = 5
)

// ExitErr specific error for ExitOnErr function that passes the exit code and error caused.
type ExitErr struct {
	Code  int
	Cause error
}

func (x ExitErr) Error() string { return x.Cause.Error() }

func (x ExitErr) Unwrap() error { return x.Cause }

// Code returns exit code for the error: explicit ExitErr code if any or the
// one of the engine error kind.
func Code(err error) int {
	var e ExitErr
	if errors.As(err, &e) {
		return e.Code
	}

	switch {
	case errors.Is(err, common.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, common.ErrNoSpace):
		return CodeNoSpace
	case errors.Is(err, common.ErrCorrupted), errors.Is(err, common.ErrOutOfBounds):
		return CodeCorrupt
	case errors.Is(err, common.ErrInvalidArgument),
		errors.Is(err, common.ErrNotDirectory),
		errors.Is(err, common.ErrNameTooLong),
		logicerr.Is(err):
		return CodeInvalid
	default:
		return CodeInternal
	}
}

// Fprint writes the error to w and returns exit code for it. Returns 0 for
// nil error.
func Fprint(w io.Writer, err error) int {
	if err == nil {
		return 0
	}

	fmt.Fprintln(w, "Error:", err)
	return Code(err)
}

// ExitOnErr writes error to os.Stderr and calls os.Exit with the code
// returned by Code. Does nothing if err is nil.
func ExitOnErr(err error) {
	if code := Fprint(os.Stderr, err); code != 0 {
		os.Exit(code)
	}
}
