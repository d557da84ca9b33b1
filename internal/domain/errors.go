package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Closed set of error kinds surfaced to callers. Handlers map these to HTTP
// statuses; raw store errors never cross the service boundary.
var (
	ErrNotFound               = errors.New("not found")
	ErrInvalidQuantity        = errors.New("invalid quantity")
	ErrEmptyCollection        = errors.New("collection is empty")
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrConcurrentModification = errors.New("concurrent modification, retry")
)

// InsufficientAvailabilityError names every offending item so a client can fix
// the whole collection in one round trip.
type InsufficientAvailabilityError struct {
	ItemIDs []string
}

func (e *InsufficientAvailabilityError) Error() string {
	return fmt.Sprintf("insufficient availability for %s", strings.Join(e.ItemIDs, ", "))
}

// AsInsufficient extracts an InsufficientAvailabilityError from err, if any.
func AsInsufficient(err error) (*InsufficientAvailabilityError, bool) {
	var ie *InsufficientAvailabilityError
	ok := errors.As(err, &ie)
	return ie, ok
}
