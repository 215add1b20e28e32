package client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/wenu-client/internal/testutil"
	"github.com/fivetwenty-io/wenu-client/pkg/wenu"
)

// LibraryCollections is the catalog most gateway tests run against.
// Measurement is served but, as in production, not advertised.
func LibraryCollections() []testutil.Collection {
	return []testutil.Collection{
		{Title: "book", Href: "book"},
		{Title: "sensor_data", Href: "sensordata"},
		{Title: "Measurement", Href: "measurement", Hidden: true},
	}
}

// NewTestGateway connects to server. configure may adjust the config before
// the gateway is built.
func NewTestGateway(t *testing.T, server *testutil.Server, configure ...func(*wenu.Config)) *Gateway {
	t.Helper()

	config := &wenu.Config{APIEndpoint: server.URL}
	for _, fn := range configure {
		fn(config)
	}

	gateway, err := New(context.Background(), config)
	require.NoError(t, err)

	return gateway
}

// MustResource returns the named resource or fails the test.
func MustResource(t *testing.T, gateway *Gateway, name string) *wenu.Resource {
	t.Helper()

	resource, err := gateway.Resource(name)
	require.NoError(t, err)

	return resource
}
