package session

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrTimeout         = errors.New("timed out")
	ErrAuthentication  = errors.New("authentication failed")
	ErrMalformedResult = errors.New("malformed result")
	ErrClosed          = errors.New("session closed")
	// ErrNotAuthenticated is returned by actions run before a successful
	// verification.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// TimeoutError reports a wait condition that did not hold within its bound.
type TimeoutError struct {
	Condition string
	Timeout   time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for %s", e.Timeout, e.Condition)
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// AuthenticationError reports a failed login or cookie replay.
type AuthenticationError struct {
	Method string // "credentials", "cookies" or "manual"
	Err    error
}

func (e *AuthenticationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("authentication via %s failed", e.Method)
	}
	return fmt.Sprintf("authentication via %s failed: %v", e.Method, e.Err)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

func (e *AuthenticationError) Is(target error) bool { return target == ErrAuthentication }

// MalformedResultError reports an action whose outcome could not be read
// back even though its DOM steps completed.
type MalformedResultError struct {
	Action string
	URL    string
}

func (e *MalformedResultError) Error() string {
	return fmt.Sprintf("%s: cannot read result from %q", e.Action, e.URL)
}

func (e *MalformedResultError) Is(target error) bool { return target == ErrMalformedResult }
