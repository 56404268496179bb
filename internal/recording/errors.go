package recording

import (
	"errors"
	"fmt"

	"mcdkit/internal/neuroshare"
)

// ErrNotOpen is returned by every operation on a closed or never-opened
// file.
var ErrNotOpen = errors.New("recording: file is not open")

// NotFoundError reports a missing source file (Path set) or an entity id
// outside [0, entity_count) (Path empty).
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type NotFoundError struct {
	Path  string
	ID    int
	cause error
}

func (e *NotFoundError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("recording: file not found: %s", e.Path)
	}
	return fmt.Sprintf("recording: entity %d not found", e.ID)
}

func (e *NotFoundError) Unwrap() error { return e.cause }

// OpenError reports a file the native binding could not interpret, or a
// native library that could not be loaded.
type OpenError struct {
	Path  string
	cause error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("recording: open %s: %v", e.Path, e.cause)
}

func (e *OpenError) Unwrap() error { return e.cause }

// TypeMismatchError reports a typed accessor invoked against an entity of
// a different type.
type TypeMismatchError struct {
	ID   int
	Want neuroshare.EntityType
	Got  neuroshare.EntityType
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("recording: entity %d is %s, not %s", e.ID, e.Got, e.Want)
}

// OutOfRangeError reports an item index at or beyond the entity's item
// count.
type OutOfRangeError struct {
	ID    int
	Index int
	Count int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("recording: entity %d: index %d out of range [0, %d)", e.ID, e.Index, e.Count)
}

// translateResult maps native result codes into the package taxonomy.
// Errors that carry no recognizable code pass through unchanged.
func translateResult(err error, id int) error {
	var re *neuroshare.ResultError
	if errors.As(err, &re) {
		switch re.Code {
		case neuroshare.ResultBadEntity:
			return &NotFoundError{ID: id, cause: err}
		}
	}
	return err
}
