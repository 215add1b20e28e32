// Package wenuclient provides the main entry point for connecting to an Eve-style API
package wenuclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/fivetwenty-io/wenu-client/internal/auth"
	"github.com/fivetwenty-io/wenu-client/internal/client"
	"github.com/fivetwenty-io/wenu-client/internal/constants"
	"github.com/fivetwenty-io/wenu-client/pkg/wenu"
)

// New authenticates when credentials are configured, discovers the resource
// catalog and returns the gateway.
func New(ctx context.Context, config *wenu.Config) (wenu.Gateway, error) {
	if config == nil {
		return nil, wenu.ErrConfigRequired
	}

	if config.APIEndpoint == "" {
		return nil, wenu.ErrAPIEndpointRequired
	}

	config.APIEndpoint = NormalizeEndpoint(config.APIEndpoint)

	gateway, err := client.New(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create new gateway: %w", err)
	}

	return gateway, nil
}

// NormalizeEndpoint trims a trailing slash and defaults the scheme to https.
func NormalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimSuffix(endpoint, "/")
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}

	return endpoint
}

// NewWithEndpoint creates a new gateway with just an API endpoint (no auth).
func NewWithEndpoint(ctx context.Context, endpoint string) (wenu.Gateway, error) {
	return New(ctx, &wenu.Config{
		APIEndpoint: endpoint,
	})
}

// NewWithToken creates a new gateway from a token obtained elsewhere, such as
// one handed over by a QR code.
func NewWithToken(ctx context.Context, endpoint, token string) (wenu.Gateway, error) {
	return New(ctx, &wenu.Config{
		APIEndpoint: endpoint,
		AccessToken: token,
	})
}

// NewWithPassword creates a new gateway by exchanging username and password
// for a session token.
func NewWithPassword(ctx context.Context, endpoint, username, password string) (wenu.Gateway, error) {
	return New(ctx, &wenu.Config{
		APIEndpoint: endpoint,
		Username:    username,
		Password:    password,
	})
}

// Register creates an account by posting username and password as a form to
// registerURL. It reports true only when the server answers 201 Created; any
// other status is a refusal, not an error.
func Register(ctx context.Context, registerURL, username, password string) (bool, error) {
	httpClient := &http.Client{Timeout: constants.ShortHTTPTimeout}

	return auth.Register(ctx, httpClient, NormalizeEndpoint(registerURL), username, password)
}
