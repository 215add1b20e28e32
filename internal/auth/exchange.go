package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fivetwenty-io/wenu-client/internal/constants"
	"github.com/fivetwenty-io/wenu-client/pkg/wenu"
)

// ExchangeConfig configures a credential exchange.
type ExchangeConfig struct {
	// TokenURL answers a basic-authenticated GET with {"token": "..."}.
	TokenURL string
	Username string
	Password string
	// HTTPClient defaults to a client with a short timeout.
	HTTPClient *http.Client
}

// ExchangeTokenManager trades a username and password for a session token
// and repeats the exchange whenever the token is refreshed.
type ExchangeTokenManager struct {
	config     *ExchangeConfig
	httpClient *http.Client
	store      *TokenStore
}

// NewExchangeTokenManager creates a manager; no request is made until the
// first GetToken.
func NewExchangeTokenManager(config *ExchangeConfig) *ExchangeTokenManager {
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: constants.ShortHTTPTimeout}
	}

	return &ExchangeTokenManager{
		config:     config,
		httpClient: httpClient,
		store:      NewTokenStore(),
	}
}

// DefaultTokenURL derives the exchange endpoint from the API endpoint.
func DefaultTokenURL(apiEndpoint string) string {
	return strings.TrimSuffix(apiEndpoint, "/") + "/" + constants.DefaultLoginPath
}

// GetToken returns the stored token, exchanging credentials when needed.
func (m *ExchangeTokenManager) GetToken(ctx context.Context) (string, error) {
	token := m.store.Get()
	if token.Valid() {
		return token.AccessToken, nil
	}

	err := m.RefreshToken(ctx)
	if err != nil {
		return "", err
	}

	return m.store.Get().AccessToken, nil
}

// RefreshToken performs the exchange and stores the new token.
func (m *ExchangeTokenManager) RefreshToken(ctx context.Context) error {
	token, err := m.exchange(ctx)
	if err != nil {
		return err
	}

	m.store.Set(token)

	return nil
}

// SetToken replaces the token, e.g. after a server-side rotation.
func (m *ExchangeTokenManager) SetToken(token string, expiresAt time.Time) {
	m.store.Set(&Token{AccessToken: token, ExpiresAt: expiresAt})
}

func (m *ExchangeTokenManager) exchange(ctx context.Context) (*Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.config.TokenURL, nil)
	if err != nil {
		return nil, &wenu.AuthError{URL: m.config.TokenURL, Err: err}
	}

	req.SetBasicAuth(m.config.Username, m.config.Password)
	req.Header.Set(constants.HeaderAccept, constants.ContentTypeJSON)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, &wenu.AuthError{URL: m.config.TokenURL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &wenu.AuthError{URL: m.config.TokenURL, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &wenu.AuthError{
			URL:        m.config.TokenURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%w: %s", wenu.ErrUnexpectedStatus, strings.TrimSpace(string(body))),
		}
	}

	return ParseToken(m.config.TokenURL, resp.StatusCode, body)
}

// tokenResponse is the body of the login and refreshtoken endpoints.
// ExpiresIn is optional and counted in seconds.
type tokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in,omitempty"`
}

// ParseToken decodes a {"token": "...", "expires_in": N} body. Without
// expires_in the token has no client-side expiry.
func ParseToken(source string, statusCode int, body []byte) (*Token, error) {
	var parsed tokenResponse

	err := json.Unmarshal(body, &parsed)
	if err != nil {
		return nil, &wenu.AuthError{URL: source, StatusCode: statusCode, Err: fmt.Errorf("parsing token response: %w", err)}
	}

	if parsed.Token == "" {
		return nil, &wenu.AuthError{URL: source, StatusCode: statusCode, Err: wenu.ErrTokenMissing}
	}

	token := &Token{AccessToken: parsed.Token}
	if parsed.ExpiresIn > 0 {
		token.ExpiresAt = time.Now().Add(time.Duration(parsed.ExpiresIn) * time.Second)
	}

	return token, nil
}

// Register creates an account. Success is signaled solely by a 201; any other
// status yields false without an error.
func Register(ctx context.Context, httpClient *http.Client, registerURL, username, password string) (bool, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: constants.ShortHTTPTimeout}
	}

	form := url.Values{"username": {username}, "password": {password}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, registerURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("creating registration request: %w", err)
	}

	req.Header.Set(constants.HeaderContentType, "application/x-www-form-urlencoded")

	resp, err := httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("registering %s: %w", username, err)
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	return resp.StatusCode == constants.StatusCreated, nil
}
