package mitm

import (
	"errors"
	"fmt"
)

// ErrModifierPanic marks a modifier that panicked instead of returning an error.
var ErrModifierPanic = errors.New("modifier panicked")

// ApplyError is a failure of one modifier on one request.
type ApplyError struct {
	Modifier string
	URL      string
	Key      TabKey
	Err      error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("modifier %s failed on %s (%s): %v", e.Modifier, e.URL, e.Key, e.Err)
}

func (e *ApplyError) Unwrap() error {
	return e.Err
}
