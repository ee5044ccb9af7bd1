package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches any ValidationError.
	ErrValidation = errors.New("invalid quiz settings")
	// ErrTransport matches any TransportError.
	ErrTransport = errors.New("question source unreachable")
	// ErrSource matches any SourceError.
	ErrSource = errors.New("question source reported a failure")
	// ErrNoQuestions matches the SourceError built by NoQuestions.
	ErrNoQuestions = errors.New("no questions returned")
)

// ValidationError reports a bad session setting, caught before any fetch.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// TransportError is a network or HTTP-layer failure talking to the question source.
// StatusCode is zero when no HTTP response was received.
type TransportError struct {
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	s := "failed to fetch questions"
	if e.StatusCode != 0 {
		s += fmt.Sprintf(" (%d)", e.StatusCode)
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// SourceError is an application-level failure reported by the question source
// through its own response code.
type SourceError struct {
	Code   int
	Reason string
	Err    error
}

// NoQuestions reports a successful fetch with an empty result set.
func NoQuestions() error {
	return &SourceError{Reason: ErrNoQuestions.Error(), Err: ErrNoQuestions}
}

func (e *SourceError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("question source error: response_code=%d", e.Code)
	}
	return fmt.Sprintf("question source error: response_code=%d: %s", e.Code, e.Reason)
}

func (e *SourceError) Unwrap() error { return e.Err }

func (e *SourceError) Is(target error) bool { return target == ErrSource }

// UserMessage renders err as the text shown to the player on the error screen.
func UserMessage(err error) string {
	var (
		verr *ValidationError
		serr *SourceError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &verr):
		return verr.Reason
	case errors.Is(err, ErrNoQuestions):
		return "No questions returned from the API. Please try again."
	case errors.As(err, &serr):
		return fmt.Sprintf("API error: response_code=%d. %s", serr.Code, sourceHint(serr.Code))
	case errors.Is(err, ErrTransport):
		return "Failed to load questions. Please check your connection and try again."
	default:
		return err.Error()
	}
}

func sourceHint(code int) string {
	switch code {
	case 1:
		return "Not enough questions for these options; try fewer questions or another category."
	case 2:
		return "The quiz options were rejected."
	case 5:
		return "Too many requests; wait a few seconds and try again."
	default:
		return "Please try again."
	}
}
