package wenu

import (
	"context"
	"time"
)

// Verbs are the four normalized HTTP verbs a Resource dispatches to. Every
// verb decodes the JSON body and returns an *HTTPError on a non-2xx status.
type Verbs interface {
	Get(ctx context.Context, route string) (Document, error)
	Post(ctx context.Context, route string, payload any) (Document, error)
	// Put sends If-Match: etag when etag is not empty.
	Put(ctx context.Context, route string, payload any, etag string) (Document, error)
	// Delete fetches the row, deletes it and returns the fetched body.
	Delete(ctx context.Context, route string, etag string) (Document, error)
}

// ResourceCatalog resolves discovered resources by normalized name.
type ResourceCatalog interface {
	Resource(name string) (*Resource, error)
	Resources() []*Resource
}

// SessionClient manages the authenticated session.
type SessionClient interface {
	RefreshToken(ctx context.Context) error
	BaseURL() string
}

// Gateway is the connection facade: one session, one base URL, one catalog.
type Gateway interface {
	Verbs
	ResourceCatalog
	SessionClient
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// AuthScheme selects how the session token is presented to the server.
type AuthScheme string

const (
	// AuthSchemeBasicToken sends the token as the basic-auth username with an
	// empty password. This is what token-authenticated Eve servers expect.
	AuthSchemeBasicToken AuthScheme = "basic"

	// AuthSchemeBearer sends Authorization: Bearer <token>.
	AuthSchemeBearer AuthScheme = "bearer"
)

// Config represents client configuration for building a Gateway.
//
// # Authentication precedence
//
//  1. AccessToken: used directly, no exchange (e.g. a token handed over by a
//     QR code).
//  2. Username/Password: exchanged once for a token at TokenURL.
//  3. No credentials: requests are sent without authentication.
//
// # Discovery
//
// Construction always fetches the API root and builds one Resource per
// advertised child plus every entry of ExtraResources. When ExtraResources is
// nil the Measurement pseudo-resource is injected; pass an empty, non-nil
// slice to inject nothing.
type Config struct {
	// APIEndpoint: base URL of the API. Normalized by trimming a trailing
	// slash and adding "https://" if no scheme is present.
	APIEndpoint string

	// Username/Password: credentials for the token exchange.
	Username string
	Password string
	// AccessToken: pre-obtained session token.
	AccessToken string
	// TokenURL: credential exchange endpoint. Defaults to "<APIEndpoint>/login".
	TokenURL string
	// AuthScheme: defaults to AuthSchemeBasicToken.
	AuthScheme AuthScheme

	// ExtraResources are registered in addition to the discovered ones.
	ExtraResources []ResourceDescriptor

	// HTTPTimeout: optional client timeout. Zero keeps the transport default
	// (no timeout); prefer context deadlines.
	HTTPTimeout time.Duration
	// RetryMax: transport-level retries for 5xx/429/connection errors.
	// Zero disables retries.
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	// Debug: enables HTTP request/response logging when a Logger is provided.
	Debug bool
	// Logger: optional structured logger. Nothing is logged when nil.
	Logger Logger
	// UserAgent overrides the default User-Agent header.
	UserAgent string
	// Interceptors run around every HTTP exchange.
	Interceptors *InterceptorChain
}
