package domain

import (
	"errors"
	"fmt"
)

// GenericErrorMessage is shown for failures without a service-provided detail
const GenericErrorMessage = "An error occurred while processing your request."

var (
	// Input validation, caught before any network call.
	ErrMissingURL    = errors.New("missing URL")
	ErrInvalidURL    = errors.New("invalid URL")
	ErrInvalidMode   = errors.New("invalid download mode")
	ErrInvalidOption = errors.New("invalid download option")
	ErrInvalidRating = errors.New("rating must be between 1 and 5")

	// Workflow state.
	ErrBusy            = errors.New("a request is already in progress")
	ErrNoResult        = errors.New("no download result to retrieve")
	ErrAlreadyRated    = errors.New("platform already rated")
	ErrRatingHidden    = errors.New("rating is not available before a successful download")
	ErrRatingNotLoaded = errors.New("existing rating could not be loaded")
	ErrUnmounted       = errors.New("module is not mounted")

	// Service boundary.
	ErrServiceRejected = errors.New("service rejected the request")
	ErrTransport       = errors.New("service unreachable or transport failure")
	ErrBadResponse     = errors.New("service returned a malformed response")
)

// ValidationError carries the platform-specific message for an input error
type ValidationError struct {
	Platform Platform
	Err      error
	Message  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Platform, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ServiceError wraps a failed call to the extraction service
type ServiceError struct {
	Sentinel  error
	Operation string
	Status    int
	Detail    string // human-readable detail provided by the service
	Err       error
}

func (e *ServiceError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Operation, e.Sentinel)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ServiceError) Unwrap() error {
	return e.Sentinel
}

// IsValidationError reports whether err is an input validation failure
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) || errors.Is(err, ErrInvalidRating)
}

// UserMessage maps an error to the text shown to the user. Service errors
// surface their detail; everything unexpected collapses to fallback.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	if fallback == "" {
		fallback = GenericErrorMessage
	}

	var ve *ValidationError
	if errors.As(err, &ve) && ve.Message != "" {
		return ve.Message
	}

	var se *ServiceError
	if errors.As(err, &se) {
		if se.Detail != "" {
			return se.Detail
		}
		return fallback
	}

	for _, sentinel := range []error{ErrInvalidRating, ErrBusy, ErrAlreadyRated, ErrNoResult, ErrRatingHidden} {
		if errors.Is(err, sentinel) {
			return capitalize(sentinel.Error()) + "."
		}
	}
	return fallback
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
