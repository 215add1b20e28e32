package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/fivetwenty-io/wenu-client/internal/auth"
	"github.com/fivetwenty-io/wenu-client/internal/constants"
	"github.com/fivetwenty-io/wenu-client/pkg/changefeed"
	"github.com/fivetwenty-io/wenu-client/pkg/wenu"
	"github.com/fivetwenty-io/wenu-client/pkg/wenuclient"
	"github.com/go-logr/logr/funcr"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// session is an open gateway plus whatever must be released with it.
type session struct {
	gateway wenu.Gateway
	feed    *changefeed.Feed
}

func (s *session) Close() {
	if s.feed != nil {
		_ = s.feed.Close()
	}
}

// commandContext bounds a single command.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), constants.CLICommandTimeout)
}

// newLogger returns a funcr logger on w when --verbose is set, nil otherwise.
func newLogger(w io.Writer) wenu.Logger {
	if !viper.GetBool("verbose") {
		return nil
	}

	return wenu.NewLogrLogger(funcr.New(func(prefix, args string) {
		if prefix != "" {
			_, _ = fmt.Fprintf(w, "%s: %s\n", prefix, args)

			return
		}

		_, _ = fmt.Fprintln(w, args)
	}, funcr.Options{Verbosity: 1}))
}

// baseConfig builds the library configuration shared by every command.
func baseConfig(cmd *cobra.Command, config *Config) *wenu.Config {
	logger := newLogger(cmd.ErrOrStderr())

	chain := wenu.NewInterceptorChain()
	chain.AddRequestInterceptor(wenu.RequestIDInterceptor())

	return &wenu.Config{
		APIEndpoint:  config.API,
		TokenURL:     config.TokenURL,
		AuthScheme:   wenu.AuthScheme(config.AuthScheme),
		RetryMax:     config.Retries,
		Debug:        logger != nil,
		Logger:       logger,
		Interceptors: chain,
	}
}

// openSession connects with the stored token, attaching the change feed when
// one is configured.
func openSession(ctx context.Context, cmd *cobra.Command) (*session, error) {
	config := loadConfig()
	if config.API == "" {
		return nil, constants.ErrNoAPIConfigured
	}

	wenuConfig := baseConfig(cmd, config)
	wenuConfig.AccessToken = config.Token

	var feed *changefeed.Feed

	if config.ChangefeedURL != "" {
		var opts []changefeed.Option
		if wenuConfig.Logger != nil {
			opts = append(opts, changefeed.WithLogger(wenuConfig.Logger))
		}

		var err error

		feed, err = changefeed.Connect(config.ChangefeedURL, config.ChangefeedPrefix, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to connect change feed: %w", err)
		}

		feed.Install(wenuConfig.Interceptors)
	}

	gateway, err := wenuclient.New(ctx, wenuConfig)
	if err != nil {
		if feed != nil {
			_ = feed.Close()
		}

		if wenu.IsUnauthorized(err) {
			return nil, fmt.Errorf("%w: %w", constants.ErrNotAuthenticated, err)
		}

		return nil, fmt.Errorf("failed to connect to API: %w", err)
	}

	return &session{gateway: gateway, feed: feed}, nil
}

// sessionToken returns the token a gateway currently holds.
func sessionToken(ctx context.Context, gateway wenu.Gateway) (string, error) {
	holder, ok := gateway.(interface {
		GetTokenManager() auth.TokenManager
	})
	if !ok || holder.GetTokenManager() == nil {
		return "", nil
	}

	token, err := holder.GetTokenManager().GetToken(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read session token: %w", err)
	}

	return token, nil
}

// withSession opens a session, runs fn and releases the session.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, s *session) error) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	s, err := openSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	return fn(ctx, s)
}
