package wenu

import (
	"encoding/json"
	"fmt"
	"net/url"
)

// Query parameter names understood by the server.
const (
	ParamWhere    = "where"
	ParamEmbedded = "embedded"
)

// withOptions appends caller-supplied raw query options verbatim.
func withOptions(route, options string) string {
	if options == "" {
		return route
	}

	return route + "?" + options
}

// encodeParam renders name=<url-escaped JSON of value>.
func encodeParam(name string, value map[string]interface{}) (string, error) {
	if value == nil {
		value = map[string]interface{}{}
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("encoding %s: %w", name, err)
	}

	return name + "=" + url.QueryEscape(string(encoded)), nil
}

// filterRoute builds {link}?{param}={json}[&options].
func filterRoute(link, param string, value map[string]interface{}, options string) (string, error) {
	encoded, err := encodeParam(param, value)
	if err != nil {
		return "", err
	}

	route := link + "?" + encoded
	if options != "" {
		route += "&" + options
	}

	return route, nil
}

// WhereRoute returns the route for an equality filter on link.
func WhereRoute(link string, filters map[string]interface{}, options string) (string, error) {
	return filterRoute(link, ParamWhere, filters, options)
}

// EmbeddedRoute returns the route for embedding directives on link.
func EmbeddedRoute(link string, directives map[string]interface{}, options string) (string, error) {
	return filterRoute(link, ParamEmbedded, directives, options)
}
