package poll

import "errors"

// ErrResourceNotFound is matched by the error returned when every attempt
// of a poll came back empty.
//
//nolint:staticcheck // the message is part of the public contract
var ErrResourceNotFound = errors.New("Resource not found after maximum attempts")

// NotFoundError reports an exhausted poll.
type NotFoundError struct {
	// ID is the identifier that was polled.
	ID string
	// Attempts is the number of lookups made.
	Attempts int
}

func (e *NotFoundError) Error() string {
	return ErrResourceNotFound.Error()
}

// Is makes errors.Is(err, ErrResourceNotFound) succeed.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrResourceNotFound
}
