package meta

import (
	"net/http"

	"github.com/pkg/errors"
)

// FieldError is a single entry of a structured validation error returned by
// the GuestFlow API.
type FieldError struct {
	// Msg is the human readable description of the problem.
	Msg string `json:"msg"`
	// Loc locates the offending field, e.g. ["body", "phone"].
	Loc []interface{} `json:"loc,omitempty"`
	// Type is the machine readable kind of the problem, when supplied.
	Type string `json:"type,omitempty"`
}

// ErrAPI represents any non-success response from the GuestFlow API. Its
// Message is always display-ready.
type ErrAPI struct {
	// StatusCode is the HTTP status code of the response.
	StatusCode int
	// Message is derived from the response body's detail field or, failing
	// that, from the HTTP status text.
	Message string
	// Details holds every field error when the API reported validation
	// failures. It is empty otherwise.
	Details []FieldError
}

func (e *ErrAPI) Error() string {
	return e.Message
}

// IsAuthentication returns true if the error is an API error that indicates
// the supplied credentials were missing, expired, or otherwise invalid.
func IsAuthentication(err error) bool {
	return hasStatus(err, http.StatusUnauthorized)
}

// IsNotFound returns true if the error is an API error that indicates the
// requested resource does not exist.
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsValidation returns true if the error is an API error that carried
// structured field errors.
func IsValidation(err error) bool {
	apiErr, ok := errors.Cause(err).(*ErrAPI)
	return ok && len(apiErr.Details) > 0
}

func hasStatus(err error, statusCode int) bool {
	apiErr, ok := errors.Cause(err).(*ErrAPI)
	return ok && apiErr.StatusCode == statusCode
}
