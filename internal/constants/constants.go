package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// ShortHTTPTimeout is used for credential exchange and registration.
	ShortHTTPTimeout = 10 * time.Second

	// CLICommandTimeout bounds a single CLI command.
	CLICommandTimeout = 60 * time.Second
)

// Retry limits. Retries are opt-in; the gateway never retries on its own.
const (
	// DefaultRetryWaitMin is the minimum wait between transport retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait between transport retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// Token handling.
const (
	// TokenExpirationBuffer is subtracted from a token's expiry when checking validity.
	TokenExpirationBuffer = 30 * time.Second
)

// Server routes and envelope keys.
const (
	// RefreshTokenPath is the route that rotates the session token.
	RefreshTokenPath = "refreshtoken"

	// DefaultLoginPath is appended to the API endpoint when no token URL is configured.
	DefaultLoginPath = "login"

	// ItemsKey holds the rows of a collection response.
	ItemsKey = "_items"

	// LinksKey holds hypermedia links.
	LinksKey = "_links"

	// MetaKey holds pagination metadata.
	MetaKey = "_meta"

	// ChildKey lists the resources of a discovery response under _links.
	ChildKey = "child"

	// NextKey points at the next page under _links.
	NextKey = "next"

	// IDField is the row identity.
	IDField = "_id"

	// ETagField is the optimistic-concurrency token.
	ETagField = "_etag"

	// ReservedPrefix marks server-managed metadata fields.
	ReservedPrefix = "_"
)

// HTTP headers.
const (
	HeaderIfMatch     = "If-Match"
	HeaderRequestID   = "X-Request-ID"
	HeaderContentType = "Content-Type"
	HeaderAccept      = "Accept"
	ContentTypeJSON   = "application/json"
	DefaultUserAgent  = "wenu-client/1.0"
)

// Built-in pseudo-resources: stored in a time-series engine on the server and
// therefore not reported by discovery.
const (
	MeasurementTitle = "Measurement"
	MeasurementHref  = "measurement"
)

// Pagination.
const (
	// MaxPages bounds ListAll so a looping next link cannot spin forever.
	MaxPages = 10000
)

// Format constants.
const (
	// FormatJSON is the JSON output format.
	FormatJSON = "json"

	// FormatYAML is the YAML output format.
	FormatYAML = "yaml"

	// FormatTable is the table output format.
	FormatTable = "table"
)

// CLI constants.
const (
	// MinimumArgumentCount is used by commands that take a KEY VALUE pair.
	MinimumArgumentCount = 2

	// NotAvailable is shown for empty table cells.
	NotAvailable = "N/A"

	// MaskedSecret replaces tokens in displayed configuration.
	MaskedSecret = "***"

	// StatusCreated is the only status that signals a successful registration.
	StatusCreated = 201
)

// Change feed verbs.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// Metrics.
const (
	MetricsNamespace = "wenu"
	MetricsSubsystem = "client"
)
