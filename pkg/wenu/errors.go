package wenu

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Static errors for err113 compliance.
var (
	ErrConfigRequired      = errors.New("config is required")
	ErrAPIEndpointRequired = errors.New("API endpoint is required")
	ErrNotIndexable        = errors.New("resource does not support lookup by id")
	ErrMissingID           = errors.New("entity has no _id, it was never persisted")
	ErrMalformedEnvelope   = errors.New("malformed response envelope")
	ErrMalformedRow        = errors.New("row is not a JSON object")
	ErrTokenMissing        = errors.New("response carries no token")
	ErrUnexpectedStatus    = errors.New("unexpected status")
	ErrPageLimit           = errors.New("page limit reached")
)

// HTTPError is returned by every gateway verb on a non-2xx response.
type HTTPError struct {
	Method     string
	Route      string
	StatusCode int
	// Message is the server-provided _error.message, when present.
	Message string
	Body    []byte
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Route, e.StatusCode, e.Message)
	}

	return fmt.Sprintf("%s %s: status %d", e.Method, e.Route, e.StatusCode)
}

// NewHTTPError builds an HTTPError and extracts the message of an Eve error body.
func NewHTTPError(method, route string, statusCode int, body []byte) *HTTPError {
	httpErr := &HTTPError{
		Method:     method,
		Route:      route,
		StatusCode: statusCode,
		Body:       body,
	}

	var envelope struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"_error"`
	}

	if len(body) > 0 && json.Unmarshal(body, &envelope) == nil {
		httpErr.Message = envelope.Error.Message
	}

	return httpErr
}

// DiscoveryError reports a failing or malformed discovery response.
type DiscoveryError struct {
	URL string
	Err error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovering resources at %s: %v", e.URL, e.Err)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// AuthError reports a failing credential or token exchange.
type AuthError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *AuthError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("authenticating against %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}

	return fmt.Sprintf("authenticating against %s: %v", e.URL, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// UnknownResourceError is returned when a resource name was never discovered.
type UnknownResourceError struct {
	Name string
}

func (e *UnknownResourceError) Error() string {
	return fmt.Sprintf("unknown resource %q", e.Name)
}

// UnknownFieldError is returned when a field is absent from an entity's mapping.
type UnknownFieldError struct {
	Resource string
	Field    string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("%s has no field %q", e.Resource, e.Field)
}

// PreconditionError marks an operation that is invalid for the resource or
// entity state. Err is one of ErrNotIndexable or ErrMissingID.
type PreconditionError struct {
	Op       string
	Resource string
	Err      error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s on %s: %v", e.Op, e.Resource, e.Err)
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	httpErr := &HTTPError{}
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}

	authErr := &AuthError{}
	if errors.As(err, &authErr) {
		return authErr.StatusCode
	}

	return 0
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsConflict checks if the error is a rejected conditional write (409 or 412).
func IsConflict(err error) bool {
	code := StatusCode(err)

	return code == http.StatusConflict || code == http.StatusPreconditionFailed
}

// IsUnauthorized checks if the error is an unauthorized error.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// IsUnknownResource checks if the error is an UnknownResourceError.
func IsUnknownResource(err error) bool {
	target := &UnknownResourceError{}

	return errors.As(err, &target)
}

// IsUnknownField checks if the error is an UnknownFieldError.
func IsUnknownField(err error) bool {
	target := &UnknownFieldError{}

	return errors.As(err, &target)
}
