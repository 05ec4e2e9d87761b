package scoring

import (
	"errors"
	"fmt"
)

// Common scoring client errors
var (
	// ErrTimeout indicates the scoring service did not answer in time
	ErrTimeout = errors.New("scoring service timed out")

	// ErrUnreachable indicates the scoring service could not be reached
	ErrUnreachable = errors.New("scoring service is unreachable")

	// ErrBadResponse indicates the scoring service answered with a non-2xx status
	ErrBadResponse = errors.New("scoring service returned an error response")

	// ErrParse indicates the scoring payload could not be decoded
	ErrParse = errors.New("scoring response could not be parsed")
)

// TimeoutError represents a scoring call that exceeded its deadline
type TimeoutError struct {
	Message string
}

func (e *TimeoutError) Error() string {
	if e.Message == "" {
		return "scoring service timed out"
	}
	return e.Message
}

// Is implements errors.Is support so callers can match either ErrTimeout or
// any *TimeoutError value.
func (e *TimeoutError) Is(target error) bool {
	if target == ErrTimeout {
		return true
	}
	_, ok := target.(*TimeoutError)
	return ok
}

// NewTimeoutError creates a new timeout error with optional custom message
func NewTimeoutError(message ...string) *TimeoutError {
	err := &TimeoutError{}
	if len(message) > 0 {
		err.Message = message[0]
	}
	return err
}

// UnreachableError represents a transport-level failure before any response
type UnreachableError struct {
	Message string
}

func (e *UnreachableError) Error() string {
	if e.Message == "" {
		return "scoring service is unreachable"
	}
	return e.Message
}

// Is implements errors.Is support for UnreachableError.
func (e *UnreachableError) Is(target error) bool {
	if target == ErrUnreachable {
		return true
	}
	_, ok := target.(*UnreachableError)
	return ok
}

// NewUnreachableError creates a new unreachable error with optional custom message
func NewUnreachableError(message ...string) *UnreachableError {
	err := &UnreachableError{}
	if len(message) > 0 {
		err.Message = message[0]
	}
	return err
}

// BadResponseError represents a non-2xx answer from the scoring service.
// Body holds an excerpt of the raw response so failures can be diagnosed.
type BadResponseError struct {
	StatusCode int
	Body       string
}

func (e *BadResponseError) Error() string {
	return fmt.Sprintf("scoring service returned HTTP %d: %s", e.StatusCode, e.Body)
}

// Is implements errors.Is support for BadResponseError.
func (e *BadResponseError) Is(target error) bool {
	if target == ErrBadResponse {
		return true
	}
	_, ok := target.(*BadResponseError)
	return ok
}

// NewBadResponseError creates a new bad response error carrying the status and a body excerpt
func NewBadResponseError(statusCode int, body string) *BadResponseError {
	return &BadResponseError{StatusCode: statusCode, Body: excerpt(body)}
}

// ParseError represents a response body that did not decode into the
// expected score schema. Raw holds an excerpt of the offending payload.
type ParseError struct {
	Message string
	Raw     string
}

func (e *ParseError) Error() string {
	if e.Raw == "" {
		return e.Message
	}
	return e.Message + " (raw: " + e.Raw + ")"
}

// Is implements errors.Is support for ParseError.
func (e *ParseError) Is(target error) bool {
	if target == ErrParse {
		return true
	}
	_, ok := target.(*ParseError)
	return ok
}

// NewParseError creates a new parse error carrying a payload excerpt
func NewParseError(message, raw string) *ParseError {
	return &ParseError{Message: message, Raw: excerpt(raw)}
}

const maxExcerptLen = 500

func excerpt(s string) string {
	if len(s) > maxExcerptLen {
		return s[:maxExcerptLen] + "..."
	}
	return s
}

