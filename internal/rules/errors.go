package rules

import (
	"errors"
	"fmt"
)

// FatalError marks an error that must not be retried, such as an
// undecodable payload. The dispatch layer terminates the message instead
// of requeueing it.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal error: %v", e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// IsFatal checks if an error is a FatalError.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
