package wenuclient_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/wenu-client/internal/testutil"
	"github.com/fivetwenty-io/wenu-client/pkg/wenu"
	"github.com/fivetwenty-io/wenu-client/pkg/wenuclient"
)

func library() []testutil.Collection {
	return []testutil.Collection{
		{Title: "book", Href: "book"},
		{Title: "Measurement", Href: "measurement", Hidden: true},
	}
}

func TestNew(t *testing.T) {
	t.Parallel()
	t.Run("requires config", func(t *testing.T) {
		t.Parallel()

		_, err := wenuclient.New(context.Background(), nil)
		require.ErrorIs(t, err, wenu.ErrConfigRequired)
	})

	t.Run("requires endpoint", func(t *testing.T) {
		t.Parallel()

		_, err := wenuclient.New(context.Background(), &wenu.Config{})
		require.ErrorIs(t, err, wenu.ErrAPIEndpointRequired)
	})

	t.Run("creates gateway with config", func(t *testing.T) {
		t.Parallel()

		server := testutil.NewServer(library())
		defer server.Close()

		config := &wenu.Config{APIEndpoint: server.URL + "/"}

		gateway, err := wenuclient.New(context.Background(), config)
		require.NoError(t, err)
		assert.Equal(t, server.URL, gateway.BaseURL())
		assert.Equal(t, server.URL, config.APIEndpoint)
	})

	t.Run("unreachable endpoint fails discovery", func(t *testing.T) {
		t.Parallel()

		server := testutil.NewServer(library())
		endpoint := server.URL
		server.Close()

		_, err := wenuclient.NewWithEndpoint(context.Background(), endpoint)
		require.Error(t, err)

		discoveryErr := &wenu.DiscoveryError{}
		assert.True(t, errors.As(err, &discoveryErr))
	})
}

func TestNormalizeEndpoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected string
	}{
		{input: "api.example.com", expected: "https://api.example.com"},
		{input: "api.example.com/", expected: "https://api.example.com"},
		{input: "http://localhost:5000/", expected: "http://localhost:5000"},
		{input: "https://api.example.com/v1", expected: "https://api.example.com/v1"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, wenuclient.NormalizeEndpoint(tt.input))
		})
	}
}

func TestNewWithPassword(t *testing.T) {
	t.Parallel()

	server := testutil.NewServer(library(), testutil.WithRequiredAuth(), testutil.WithUser("alice", "secret"))
	defer server.Close()

	ctx := context.Background()

	gateway, err := wenuclient.NewWithPassword(ctx, server.URL, "alice", "secret")
	require.NoError(t, err)

	books, err := gateway.Resource("Book")
	require.NoError(t, err)

	_, err = books.New(wenu.Fields{"title": "Dune"}).Create(ctx)
	require.NoError(t, err)

	_, err = wenuclient.NewWithPassword(ctx, server.URL, "alice", "wrong")
	require.Error(t, err)
	assert.True(t, wenu.IsUnauthorized(err))
}

func TestNewWithToken(t *testing.T) {
	t.Parallel()

	server := testutil.NewServer(library(), testutil.WithRequiredAuth(), testutil.WithToken("qr-token", "alice"))
	defer server.Close()

	ctx := context.Background()

	gateway, err := wenuclient.NewWithToken(ctx, server.URL, "qr-token")
	require.NoError(t, err)

	books, err := gateway.Resource("Book")
	require.NoError(t, err)

	_, err = books.List(ctx, "")
	require.NoError(t, err)

	anonymous, err := wenuclient.NewWithEndpoint(ctx, server.URL)
	require.NoError(t, err)

	books, err = anonymous.Resource("Book")
	require.NoError(t, err)

	_, err = books.List(ctx, "")
	assert.True(t, wenu.IsUnauthorized(err))
}

func TestRegister(t *testing.T) {
	t.Parallel()

	server := testutil.NewServer(library())
	defer server.Close()

	ctx := context.Background()
	registerURL := server.URL + "/register"

	ok, err := wenuclient.Register(ctx, registerURL, "bob", "hunter2")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = wenuclient.Register(ctx, registerURL, "bob", "again")
	require.NoError(t, err)
	assert.False(t, ok)

	gateway, err := wenuclient.NewWithPassword(ctx, server.URL, "bob", "hunter2")
	require.NoError(t, err)
	assert.NotNil(t, gateway)
}
