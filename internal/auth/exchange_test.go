package auth_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/wenu-client/internal/auth"
	"github.com/fivetwenty-io/wenu-client/pkg/wenu"
)

func TestExchangeTokenManager_GetToken(t *testing.T) {
	t.Parallel()

	t.Run("exchanges credentials once", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			assert.Equal(t, "/login", r.URL.Path)
			assert.Equal(t, http.MethodGet, r.Method)

			username, password, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "alice", username)
			assert.Equal(t, "secret", password)

			_ = json.NewEncoder(w).Encode(map[string]string{"token": "session-token"})
		}))
		defer server.Close()

		manager := auth.NewExchangeTokenManager(&auth.ExchangeConfig{
			TokenURL: auth.DefaultTokenURL(server.URL + "/"),
			Username: "alice",
			Password: "secret",
		})

		token, err := manager.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "session-token", token)

		token, err = manager.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "session-token", token)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("exchanges again once the token expires", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			n := calls.Add(1)

			// 10s is inside the expiry buffer, so the token is stale on arrival.
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"token":      "session-" + strconv.Itoa(int(n)),
				"expires_in": 10,
			})
		}))
		defer server.Close()

		manager := auth.NewExchangeTokenManager(&auth.ExchangeConfig{TokenURL: server.URL + "/login"})

		token, err := manager.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "session-1", token)

		token, err = manager.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "session-2", token)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("keeps a token with a long lifetime", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"token": "long", "expires_in": 3600})
		}))
		defer server.Close()

		manager := auth.NewExchangeTokenManager(&auth.ExchangeConfig{TokenURL: server.URL + "/login"})

		for range 3 {
			token, err := manager.GetToken(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "long", token)
		}

		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("rejected credentials", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"_status": "ERR"}`))
		}))
		defer server.Close()

		manager := auth.NewExchangeTokenManager(&auth.ExchangeConfig{
			TokenURL: server.URL + "/login",
			Username: "alice",
			Password: "wrong",
		})

		token, err := manager.GetToken(context.Background())
		require.Error(t, err)
		assert.Empty(t, token)

		authErr := &wenu.AuthError{}
		require.True(t, errors.As(err, &authErr))
		assert.Equal(t, http.StatusUnauthorized, authErr.StatusCode)
		assert.True(t, wenu.IsUnauthorized(err))
	})

	t.Run("response without token", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]string{"other": "value"})
		}))
		defer server.Close()

		manager := auth.NewExchangeTokenManager(&auth.ExchangeConfig{TokenURL: server.URL})

		_, err := manager.GetToken(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, wenu.ErrTokenMissing)
	})
}

func TestExchangeTokenManager_SetToken(t *testing.T) {
	t.Parallel()

	manager := auth.NewExchangeTokenManager(&auth.ExchangeConfig{TokenURL: "http://127.0.0.1:1/login"})
	manager.SetToken("rotated", time.Time{})

	token, err := manager.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "rotated", token)
}

func TestStaticTokenManager(t *testing.T) {
	t.Parallel()

	t.Run("empty token is unauthenticated", func(t *testing.T) {
		t.Parallel()

		manager := auth.NewStaticTokenManager("")
		token, err := manager.GetToken(context.Background())
		require.NoError(t, err)
		assert.Empty(t, token)
	})

	t.Run("set token replaces it", func(t *testing.T) {
		t.Parallel()

		manager := auth.NewStaticTokenManager("qr-token")
		token, err := manager.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "qr-token", token)

		manager.SetToken("next", time.Time{})
		token, err = manager.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "next", token)
	})

	t.Run("cannot refresh", func(t *testing.T) {
		t.Parallel()

		manager := auth.NewStaticTokenManager("qr-token")
		assert.ErrorIs(t, manager.RefreshToken(context.Background()), auth.ErrStaticTokenCannotRefresh)
	})
}

func TestRegister(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   int
		expected bool
	}{
		{name: "created", status: http.StatusCreated, expected: true},
		{name: "ok is not created", status: http.StatusOK, expected: false},
		{name: "conflict", status: http.StatusConflict, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				require.NoError(t, r.ParseForm())
				assert.Equal(t, "bob", r.Form.Get("username"))
				assert.Equal(t, "hunter2", r.Form.Get("password"))
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			ok, err := auth.Register(context.Background(), nil, server.URL+"/register", "bob", "hunter2")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ok)
		})
	}
}
