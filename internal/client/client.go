package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/fivetwenty-io/wenu-client/internal/auth"
	"github.com/fivetwenty-io/wenu-client/internal/constants"
	internalhttp "github.com/fivetwenty-io/wenu-client/internal/http"
	"github.com/fivetwenty-io/wenu-client/pkg/wenu"
)

// Static errors for err113 compliance.
var (
	ErrNoTokenManagerConfigured = errors.New("no token manager configured")
)

// Gateway implements the wenu.Gateway interface.
type Gateway struct {
	httpClient   *internalhttp.Client
	tokenManager auth.TokenManager
	baseURL      string
	logger       wenu.Logger

	resources map[string]*wenu.Resource
}

// createTokenManager creates appropriate token manager based on config.
func createTokenManager(config *wenu.Config) auth.TokenManager {
	if config.AccessToken != "" {
		return auth.NewStaticTokenManager(config.AccessToken)
	}

	if config.Username != "" && config.Password != "" {
		return auth.NewExchangeTokenManager(&auth.ExchangeConfig{
			TokenURL: getTokenURL(config),
			Username: config.Username,
			Password: config.Password,
		})
	}

	return auth.NewStaticTokenManager("") // No authentication
}

// getTokenURL returns token URL from config or fallback.
func getTokenURL(config *wenu.Config) string {
	if config.TokenURL != "" {
		return config.TokenURL
	}

	return auth.DefaultTokenURL(config.APIEndpoint)
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *wenu.Config) []internalhttp.Option {
	var httpOpts []internalhttp.Option

	if config.Logger != nil {
		httpOpts = append(httpOpts, internalhttp.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, internalhttp.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, internalhttp.WithUserAgent(config.UserAgent))
	}

	if config.AuthScheme != "" {
		httpOpts = append(httpOpts, internalhttp.WithAuthScheme(config.AuthScheme))
	}

	if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, internalhttp.WithTimeout(config.HTTPTimeout))
	}

	if config.Interceptors != nil {
		httpOpts = append(httpOpts, internalhttp.WithInterceptors(config.Interceptors))
	}

	if config.RetryMax > 0 {
		retryWaitMin := constants.DefaultRetryWaitMin
		retryWaitMax := constants.DefaultRetryWaitMax

		if config.RetryWaitMin > 0 {
			retryWaitMin = config.RetryWaitMin
		}

		if config.RetryWaitMax > 0 {
			retryWaitMax = config.RetryWaitMax
		}

		httpOpts = append(httpOpts, internalhttp.WithRetryConfig(config.RetryMax, retryWaitMin, retryWaitMax))
	}

	return httpOpts
}

// New authenticates, discovers the resource catalog and returns the gateway.
func New(ctx context.Context, config *wenu.Config) (*Gateway, error) {
	if config == nil {
		return nil, wenu.ErrConfigRequired
	}

	return NewWithTokenManager(ctx, config, createTokenManager(config))
}

// NewWithTokenManager creates a gateway with a custom token manager.
func NewWithTokenManager(ctx context.Context, config *wenu.Config, tokenManager auth.TokenManager) (*Gateway, error) {
	if config.APIEndpoint == "" {
		return nil, wenu.ErrAPIEndpointRequired
	}

	httpClient := internalhttp.NewClient(config.APIEndpoint, tokenManager, createHTTPClientOptions(config)...)

	gateway := &Gateway{
		httpClient:   httpClient,
		tokenManager: tokenManager,
		baseURL:      httpClient.BaseURL(),
		logger:       config.Logger,
		resources:    make(map[string]*wenu.Resource),
	}

	if tokenManager != nil {
		_, err := tokenManager.GetToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("authenticating: %w", err)
		}
	}

	extra := config.ExtraResources
	if extra == nil {
		extra = wenu.DefaultExtraResources()
	}

	err := gateway.discover(ctx, extra)
	if err != nil {
		return nil, err
	}

	return gateway, nil
}

// GetTokenManager returns the token manager for this gateway.
func (g *Gateway) GetTokenManager() auth.TokenManager {
	return g.tokenManager
}

// BaseURL implements wenu.SessionClient.BaseURL.
func (g *Gateway) BaseURL() string {
	return g.baseURL
}

// discover fetches the API root and registers one resource per advertised
// child, then the extra descriptors. A later descriptor with the same
// normalized name replaces an earlier one.
func (g *Gateway) discover(ctx context.Context, extra []wenu.ResourceDescriptor) error {
	rootURL := g.baseURL + "/"

	resp, err := g.httpClient.Get(ctx, "", nil)
	if err != nil {
		return &wenu.DiscoveryError{URL: rootURL, Err: err}
	}

	var root struct {
		Links *struct {
			Child []wenu.ResourceDescriptor `json:"child"`
		} `json:"_links"`
	}

	err = json.Unmarshal(resp.Body, &root)
	if err != nil {
		return &wenu.DiscoveryError{URL: rootURL, Err: fmt.Errorf("%w: %w", wenu.ErrMalformedEnvelope, err)}
	}

	if root.Links == nil || root.Links.Child == nil {
		return &wenu.DiscoveryError{
			URL: rootURL,
			Err: fmt.Errorf("%w: missing %s.%s", wenu.ErrMalformedEnvelope, constants.LinksKey, constants.ChildKey),
		}
	}

	for _, desc := range root.Links.Child {
		desc.Indexable = true
		g.register(desc)
	}

	for _, desc := range extra {
		g.register(desc)
	}

	if g.logger != nil {
		g.logger.Debug("Discovered resources", map[string]interface{}{
			"url":       rootURL,
			"resources": len(g.resources),
		})
	}

	return nil
}

func (g *Gateway) register(desc wenu.ResourceDescriptor) {
	resource := wenu.NewResource(desc, g)
	g.resources[resource.Name()] = resource
}

// Resource implements wenu.ResourceCatalog.Resource. Both the normalized name
// and the advertised title are accepted.
func (g *Gateway) Resource(name string) (*wenu.Resource, error) {
	if resource, ok := g.resources[name]; ok {
		return resource, nil
	}

	if resource, ok := g.resources[wenu.NormalizeName(name)]; ok {
		return resource, nil
	}

	return nil, &wenu.UnknownResourceError{Name: name}
}

// Resources implements wenu.ResourceCatalog.Resources, sorted by name.
func (g *Gateway) Resources() []*wenu.Resource {
	resources := make([]*wenu.Resource, 0, len(g.resources))
	for _, resource := range g.resources {
		resources = append(resources, resource)
	}

	sort.Slice(resources, func(i, j int) bool {
		return resources[i].Name() < resources[j].Name()
	})

	return resources
}

// RefreshToken implements wenu.SessionClient.RefreshToken.
func (g *Gateway) RefreshToken(ctx context.Context) error {
	if g.tokenManager == nil {
		return ErrNoTokenManagerConfigured
	}

	refreshURL := g.baseURL + "/" + constants.RefreshTokenPath

	resp, err := g.httpClient.Get(ctx, constants.RefreshTokenPath, nil)
	if err != nil {
		return &wenu.AuthError{URL: refreshURL, StatusCode: wenu.StatusCode(err), Err: err}
	}

	token, err := auth.ParseToken(refreshURL, resp.StatusCode, resp.Body)
	if err != nil {
		return err
	}

	g.tokenManager.SetToken(token.AccessToken, token.ExpiresAt)

	return nil
}

// Get implements wenu.Verbs.Get.
func (g *Gateway) Get(ctx context.Context, route string) (wenu.Document, error) {
	return g.call(ctx, &internalhttp.Request{Method: http.MethodGet, Path: route})
}

// Post implements wenu.Verbs.Post.
func (g *Gateway) Post(ctx context.Context, route string, payload any) (wenu.Document, error) {
	return g.call(ctx, &internalhttp.Request{Method: http.MethodPost, Path: route, Body: payload})
}

// Put implements wenu.Verbs.Put.
func (g *Gateway) Put(ctx context.Context, route string, payload any, etag string) (wenu.Document, error) {
	return g.call(ctx, &internalhttp.Request{
		Method:  http.MethodPut,
		Path:    route,
		Body:    payload,
		Headers: ifMatch(etag),
	})
}

// Delete implements wenu.Verbs.Delete. The row is fetched first and its body
// is what Delete returns.
func (g *Gateway) Delete(ctx context.Context, route string, etag string) (wenu.Document, error) {
	row, err := g.Get(ctx, route)
	if err != nil {
		return nil, err
	}

	resp, err := g.httpClient.Do(ctx, &internalhttp.Request{
		Method:  http.MethodDelete,
		Path:    route,
		Headers: ifMatch(etag),
	})
	g.trace(http.MethodDelete, route, resp)

	if err != nil {
		return nil, fmt.Errorf("deleting %s: %w", route, err)
	}

	return row, nil
}

func (g *Gateway) call(ctx context.Context, req *internalhttp.Request) (wenu.Document, error) {
	resp, err := g.httpClient.Do(ctx, req)
	g.trace(req.Method, req.Path, resp)

	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}

	return decode(req.Path, resp.Body)
}

func (g *Gateway) trace(method, route string, resp *internalhttp.Response) {
	if g.logger == nil || resp == nil {
		return
	}

	g.logger.Debug("Request returned", map[string]interface{}{
		"method": method,
		"route":  route,
		"status": resp.StatusCode,
	})
}

func decode(route string, body []byte) (wenu.Document, error) {
	doc := wenu.Document{}
	if len(body) == 0 {
		return doc, nil
	}

	err := json.Unmarshal(body, &doc)
	if err != nil {
		return nil, fmt.Errorf("parsing response of %s: %w", route, err)
	}

	return doc, nil
}

func ifMatch(etag string) map[string]string {
	if etag == "" {
		return nil
	}

	return map[string]string{constants.HeaderIfMatch: etag}
}
