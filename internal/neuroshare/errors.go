package neuroshare

import (
	"errors"
	"fmt"
)

// Result is a status code returned by the native API.
type Result int32

const (
	ResultOK        Result = 0
	ResultLibError  Result = -1
	ResultTypeError Result = -2
	ResultFileError Result = -3
	ResultBadFile   Result = -4
	ResultBadEntity Result = -5
	ResultBadSource Result = -6
	ResultBadIndex  Result = -7
)

func (r Result) String() string {
	switch r {
	case ResultOK:
		return "ok"
	case ResultLibError:
		return "library error"
	case ResultTypeError:
		return "type error"
	case ResultFileError:
		return "file error"
	case ResultBadFile:
		return "unrecognized file"
	case ResultBadEntity:
		return "invalid entity id"
	case ResultBadSource:
		return "invalid source id"
	case ResultBadIndex:
		return "invalid index"
	default:
		return fmt.Sprintf("result %d", int32(r))
	}
}

// ErrLibraryNotFound is returned when no native library could be located
// in the explicit path or any of the probed directories.
var ErrLibraryNotFound = errors.New("neuroshare: library not found")

// ResultError reports a native call that returned a non-zero status.
// Msg carries the text from ns_GetLastErrorMsg when available.
type ResultError struct {
	Call string
	Code Result
	Msg  string
}

func (e *ResultError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("neuroshare: %s: %s (%s)", e.Call, e.Code, e.Msg)
	}
	return fmt.Sprintf("neuroshare: %s: %s", e.Call, e.Code)
}

// LoadError reports a shared library that could not be loaded or that is
// missing required symbols.
type LoadError struct {
	Path  string
	cause error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("neuroshare: load %s: %v", e.Path, e.cause)
}

func (e *LoadError) Unwrap() error { return e.cause }
