package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/fivetwenty-io/wenu-client/internal/auth"
	"github.com/fivetwenty-io/wenu-client/internal/constants"
	"github.com/fivetwenty-io/wenu-client/pkg/wenu"
)

// Client is the HTTP session shared by every request against one API root.
type Client struct {
	baseURL      string
	httpClient   *retryablehttp.Client
	tokenManager auth.TokenManager
	authScheme   wenu.AuthScheme
	logger       wenu.Logger
	debug        bool
	userAgent    string
	interceptors *wenu.InterceptorChain
}

// Request describes one API call. Path is relative to the base URL unless it
// is absolute; a query string already present in Path is kept verbatim.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Headers map[string]string
	// Body is sent as is when it is a []byte and JSON-encoded otherwise.
	Body interface{}
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger wenu.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request and response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithRetryConfig enables transport-level retries for connection errors,
// 429 and 5xx responses.
func WithRetryConfig(retryMax int, retryWaitMin, retryWaitMax time.Duration) Option {
	return func(c *Client) {
		c.httpClient.RetryMax = retryMax
		c.httpClient.RetryWaitMin = retryWaitMin
		c.httpClient.RetryWaitMax = retryWaitMax
	}
}

// WithTimeout bounds every attempt.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.HTTPClient.Timeout = timeout
	}
}

// WithAuthScheme selects how the token is attached.
func WithAuthScheme(scheme wenu.AuthScheme) Option {
	return func(c *Client) {
		if scheme != "" {
			c.authScheme = scheme
		}
	}
}

// WithInterceptors runs chain around every request.
func WithInterceptors(chain *wenu.InterceptorChain) Option {
	return func(c *Client) {
		c.interceptors = chain
	}
}

// NewClient creates a client rooted at baseURL. A nil tokenManager sends
// unauthenticated requests. Retries are off unless WithRetryConfig is given.
func NewClient(baseURL string, tokenManager auth.TokenManager, opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 0
	retryClient.RetryWaitMin = constants.DefaultRetryWaitMin
	retryClient.RetryWaitMax = constants.DefaultRetryWaitMax
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = nil

	client := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		httpClient:   retryClient,
		tokenManager: tokenManager,
		authScheme:   wenu.AuthSchemeBasicToken,
		userAgent:    constants.DefaultUserAgent,
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.logger != nil {
		retryClient.Logger = &leveledLogger{logger: client.logger}
		retryClient.RequestLogHook = client.logRetry
	}

	return client
}

// BaseURL returns the API root without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// TokenManager returns the token source of the session.
func (c *Client) TokenManager() auth.TokenManager {
	return c.tokenManager
}

// Do performs req. On a non-2xx status the response is returned together
// with a *wenu.HTTPError.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	route := c.route(req)

	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	intercepted := &wenu.Request{
		Method:  req.Method,
		Route:   route,
		Headers: make(http.Header),
		Body:    body,
	}

	for key, value := range req.Headers {
		intercepted.Headers.Set(key, value)
	}

	if c.interceptors != nil {
		err = c.interceptors.ExecuteRequestInterceptors(ctx, intercepted)
		if err != nil {
			return nil, fmt.Errorf("request interceptor: %w", err)
		}
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, c.resolve(intercepted.Route), intercepted.Body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header = intercepted.Headers
	httpReq.Header.Set(constants.HeaderAccept, constants.ContentTypeJSON)
	httpReq.Header.Set("User-Agent", c.userAgent)

	if len(intercepted.Body) > 0 && httpReq.Header.Get(constants.HeaderContentType) == "" {
		httpReq.Header.Set(constants.HeaderContentType, constants.ContentTypeJSON)
	}

	err = c.authorize(ctx, httpReq)
	if err != nil {
		return nil, err
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": req.Method,
			"url":    httpReq.URL.String(),
		})
	}

	start := time.Now()

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"status":   httpResp.StatusCode,
			"duration": time.Since(start).String(),
		})
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Body:       respBody,
		Headers:    httpResp.Header,
	}

	var httpErr error
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		httpErr = wenu.NewHTTPError(req.Method, route, httpResp.StatusCode, respBody)
	}

	if c.interceptors != nil {
		err = c.interceptors.ExecuteResponseInterceptors(ctx, intercepted, &wenu.Response{
			StatusCode: resp.StatusCode,
			Headers:    resp.Headers,
			Body:       resp.Body,
			Error:      httpErr,
		})
		if err != nil {
			return resp, fmt.Errorf("response interceptor: %w", err)
		}
	}

	if httpErr != nil {
		return resp, httpErr
	}

	return resp, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put performs a PUT request.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Body: body})
}

// Patch performs a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPatch, Path: path, Body: body})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path})
}

// route joins the request path and query into the form interceptors and
// errors report.
func (c *Client) route(req *Request) string {
	route := req.Path
	if !isAbsolute(route) {
		route = strings.TrimPrefix(route, "/")
	}

	if len(req.Query) == 0 {
		return route
	}

	separator := "?"
	if strings.Contains(route, "?") {
		separator = "&"
	}

	return route + separator + req.Query.Encode()
}

func (c *Client) resolve(route string) string {
	if isAbsolute(route) {
		return route
	}

	return c.baseURL + "/" + route
}

func (c *Client) authorize(ctx context.Context, req *retryablehttp.Request) error {
	if c.tokenManager == nil {
		return nil
	}

	token, err := c.tokenManager.GetToken(ctx)
	if err != nil {
		return fmt.Errorf("getting auth token: %w", err)
	}

	if token == "" {
		return nil
	}

	switch c.authScheme {
	case wenu.AuthSchemeBearer:
		req.Header.Set("Authorization", "Bearer "+token)
	default:
		req.SetBasicAuth(token, "")
	}

	return nil
}

func (c *Client) logRetry(_ retryablehttp.Logger, req *http.Request, attempt int) {
	if attempt == 0 {
		return
	}

	c.logger.Warn("Retrying request", map[string]interface{}{
		"method":  req.Method,
		"url":     req.URL.Redacted(),
		"attempt": attempt,
	})
}

func isAbsolute(route string) bool {
	return strings.HasPrefix(route, "http://") || strings.HasPrefix(route, "https://")
}

func encodeBody(body interface{}) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case io.Reader:
		var buf bytes.Buffer

		_, err := buf.ReadFrom(b)
		if err != nil {
			return nil, fmt.Errorf("reading request body: %w", err)
		}

		return buf.Bytes(), nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}

		return data, nil
	}
}

// leveledLogger forwards retryablehttp diagnostics. Per-attempt debug lines
// are dropped; retries are reported by logRetry.
type leveledLogger struct {
	logger wenu.Logger
}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, fieldsOf(keysAndValues))
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, fieldsOf(keysAndValues))
}

func (l *leveledLogger) Debug(string, ...interface{}) {}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, fieldsOf(keysAndValues))
}

func fieldsOf(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)

	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}

	return fields
}
