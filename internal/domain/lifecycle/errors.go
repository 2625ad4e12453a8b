package lifecycle

import "errors"

var (
	// ErrInvalidTransition is returned when a status transition edge does
	// not exist in the machine.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrPermissionDenied is returned when the edge exists but the actor
	// lacks the capability its guard requires.
	ErrPermissionDenied = errors.New("actor lacks permission for transition")

	// ErrInvalidStatus is returned when a status is not a valid invoice status.
	ErrInvalidStatus = errors.New("invalid invoice status")
)
