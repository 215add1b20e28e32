package commands

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/wenu-client/internal/constants"
	"github.com/spf13/cobra"
)

// NewRefreshTokenCommand creates the refresh-token command.
func NewRefreshTokenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh-token",
		Short: "Rotate the session token",
		Long:  "Exchange the stored session token for a new one and store it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if loadConfig().Token == "" {
				return constants.ErrNotAuthenticated
			}

			return withSession(cmd, func(ctx context.Context, s *session) error {
				err := s.gateway.RefreshToken(ctx)
				if err != nil {
					return fmt.Errorf("failed to refresh token: %w", err)
				}

				token, err := sessionToken(ctx, s.gateway)
				if err != nil {
					return err
				}

				config := loadConfig()
				config.Token = token

				err = saveConfigStruct(config)
				if err != nil {
					return fmt.Errorf("failed to save configuration: %w", err)
				}

				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Token refreshed")

				return nil
			})
		},
	}
}
