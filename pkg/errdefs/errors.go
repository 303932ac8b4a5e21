package errdefs

import (
	"errors"
)

// The error kinds surfaced by the engine. Operations wrap these with
// fmt.Errorf("...: %w", Err...) so callers can classify with errors.Is
// while keeping the contextual message.
var (
	// ErrNotFound indicates a referenced entity id is absent.
	ErrNotFound = errors.New("not found")

	// ErrPermission indicates the caller lacks the required
	// view/edit/share bit.
	ErrPermission = errors.New("permission denied")

	// ErrConflict indicates a uniqueness violation, such as a duplicate
	// scenario name or a dataset hash collision.
	ErrConflict = errors.New("conflict")

	// ErrLocked indicates a mutation was attempted on a locked scenario.
	ErrLocked = errors.New("scenario is locked")

	// ErrCrossNetwork indicates an operation requires operands in a
	// single network and they are not.
	ErrCrossNetwork = errors.New("operands span networks")

	// ErrInvalidDataType indicates a dataset payload does not match the
	// declared type.
	ErrInvalidDataType = errors.New("invalid data type")

	// ErrInvalidInput indicates a required field is missing or malformed.
	ErrInvalidInput = errors.New("invalid input")
)

func IsNotFound(err error) bool        { return errors.Is(err, ErrNotFound) }
func IsPermission(err error) bool      { return errors.Is(err, ErrPermission) }
func IsConflict(err error) bool        { return errors.Is(err, ErrConflict) }
func IsLocked(err error) bool          { return errors.Is(err, ErrLocked) }
func IsCrossNetwork(err error) bool    { return errors.Is(err, ErrCrossNetwork) }
func IsInvalidDataType(err error) bool { return errors.Is(err, ErrInvalidDataType) }
func IsInvalidInput(err error) bool    { return errors.Is(err, ErrInvalidInput) }
