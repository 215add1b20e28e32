package constants

import "errors"

// Configuration errors.
var (
	ErrNoAPIConfigured   = errors.New("no API endpoint configured, use 'wenu login' or --api")
	ErrNotAuthenticated  = errors.New("not authenticated, use 'wenu login' first")
	ErrUnknownConfigKey  = errors.New("unknown configuration key")
	ErrInvalidAssignment = errors.New("invalid assignment, expected KEY=VALUE")
	ErrInvalidFlag       = errors.New("invalid flag value")
)

// Registration errors.
var (
	ErrRegistrationRejected = errors.New("registration rejected by server")
)
