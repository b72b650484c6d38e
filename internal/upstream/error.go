package upstream

import (
	"errors"
	"fmt"
)

// Failure kinds for the outbound chat API call. Callers distinguish them via
// the IsXxx predicates rather than matching on messages.
var (
	ErrTimeout    = errors.New("upstream timeout")
	ErrConnection = errors.New("upstream connection failed")
)

// StatusError reports a non-2xx answer from the chat API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.Code, e.Body)
}

// IsTimeout indicates the call ran out of time before the API answered.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsConnection indicates the API could not be reached at all.
func IsConnection(err error) bool {
	return errors.Is(err, ErrConnection)
}

// IsStatus indicates the API answered with a non-2xx status.
func IsStatus(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}
