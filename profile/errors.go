package profile

import (
	"errors"
	"fmt"
)

// ErrNoProfilePath is returned when the profile path setting is empty.
// There is no synthetic default profile.
var ErrNoProfilePath = errors.New("profile path is not set")

// ParseError reports an unreadable or malformed profile document.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("profile: %v", e.Err)
	}
	return fmt.Sprintf("profile %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// DuplicateCostError reports a second cost entry for the same instance or
// connection. Overwriting silently would bias the optimizer.
type DuplicateCostError struct {
	Subject string // instance name or connection key
	First   int64
	Second  int64
}

func (e *DuplicateCostError) Error() string {
	return fmt.Sprintf("duplicate cost for %s: %d and %d", e.Subject, e.First, e.Second)
}
