package detection

import (
	"errors"
	"fmt"
)

// ServiceError means a detection provider could not produce a verdict at
// all: unreachable, non-2xx transport, or an unsuccessful status embedded in
// an otherwise valid response body. It is distinct from "content judged
// AI-generated" — the caller rejects the attempt with a generic
// service-unavailable message and the user may retry later.
type ServiceError struct {
	Provider string
	Err      error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("detection provider %s: %v", e.Provider, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// InputError means the submission was invalid before any network call was
// made (empty submission, essay below the minimum length). Immediately
// actionable by the user.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string {
	return e.Reason
}

// IsServiceError reports whether err is (or wraps) a provider failure.
func IsServiceError(err error) bool {
	var se *ServiceError
	return errors.As(err, &se)
}

// AsServiceError unwraps err to a provider failure, if it is one.
func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsInputError reports whether err is (or wraps) an input-validation error.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}
