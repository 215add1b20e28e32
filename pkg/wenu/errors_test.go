package wenu_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fivetwenty-io/wenu-client/pkg/wenu"
)

func TestHTTPError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     []byte
		expected string
		message  string
	}{
		{
			name:     "eve error body",
			body:     []byte(`{"_status":"ERR","_error":{"code":412,"message":"Client and server etags don't match"}}`),
			expected: "PUT book/1: status 412: Client and server etags don't match",
			message:  "Client and server etags don't match",
		},
		{
			name:     "plain body",
			body:     []byte("Bad Gateway"),
			expected: "PUT book/1: status 412",
		},
		{
			name:     "empty body",
			expected: "PUT book/1: status 412",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := wenu.NewHTTPError(http.MethodPut, "book/1", http.StatusPreconditionFailed, tt.body)
			assert.Equal(t, tt.expected, err.Error())
			assert.Equal(t, tt.message, err.Message)
			assert.Equal(t, tt.body, err.Body)
		})
	}
}

func TestErrorPredicates(t *testing.T) {
	t.Parallel()

	wrap := func(status int) error {
		return fmt.Errorf("saving Book 1: %w", wenu.NewHTTPError(http.MethodPut, "book/1", status, nil))
	}

	assert.True(t, wenu.IsNotFound(wrap(http.StatusNotFound)))
	assert.True(t, wenu.IsConflict(wrap(http.StatusConflict)))
	assert.True(t, wenu.IsConflict(wrap(http.StatusPreconditionFailed)))
	assert.False(t, wenu.IsConflict(wrap(http.StatusBadRequest)))
	assert.True(t, wenu.IsUnauthorized(wrap(http.StatusUnauthorized)))
	assert.True(t, wenu.IsUnauthorized(&wenu.AuthError{URL: "x", StatusCode: http.StatusUnauthorized}))
	assert.Equal(t, 0, wenu.StatusCode(errTransport))
	assert.Equal(t, http.StatusTeapot, wenu.StatusCode(wrap(http.StatusTeapot)))

	assert.True(t, wenu.IsUnknownResource(fmt.Errorf("x: %w", &wenu.UnknownResourceError{Name: "Shelf"})))
	assert.True(t, wenu.IsUnknownField(&wenu.UnknownFieldError{Resource: "Book", Field: "isbn"}))
	assert.False(t, wenu.IsUnknownField(errTransport))
}

func TestTypedErrors(t *testing.T) {
	t.Parallel()

	discovery := &wenu.DiscoveryError{URL: "https://api.example.com/", Err: wenu.ErrMalformedEnvelope}
	assert.Equal(t, "discovering resources at https://api.example.com/: malformed response envelope", discovery.Error())
	assert.ErrorIs(t, discovery, wenu.ErrMalformedEnvelope)

	auth := &wenu.AuthError{URL: "https://api.example.com/login", StatusCode: 401, Err: wenu.ErrUnexpectedStatus}
	assert.Equal(t, "authenticating against https://api.example.com/login: status 401: unexpected status", auth.Error())
	assert.ErrorIs(t, auth, wenu.ErrUnexpectedStatus)

	noStatus := &wenu.AuthError{URL: "u", Err: wenu.ErrTokenMissing}
	assert.Equal(t, "authenticating against u: response carries no token", noStatus.Error())

	precondition := &wenu.PreconditionError{Op: "get by id", Resource: "Measurement", Err: wenu.ErrNotIndexable}
	assert.Equal(t, "get by id on Measurement: resource does not support lookup by id", precondition.Error())
	assert.True(t, errors.Is(precondition, wenu.ErrNotIndexable))

	assert.Equal(t, `unknown resource "Shelf"`, (&wenu.UnknownResourceError{Name: "Shelf"}).Error())
	assert.Equal(t, `Book has no field "isbn"`, (&wenu.UnknownFieldError{Resource: "Book", Field: "isbn"}).Error())
}
