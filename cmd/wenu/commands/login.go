package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/fivetwenty-io/wenu-client/internal/constants"
	"github.com/fivetwenty-io/wenu-client/pkg/wenuclient"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// NewLoginCommand creates the login command.
func NewLoginCommand() *cobra.Command {
	var (
		username string
		password string
		tokenURL string
		qrToken  string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to an API",
		Long: `Exchange a username and password for a session token, or adopt a token
handed over by a QR code, and store it in the configuration file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			if config.API == "" {
				endpoint, err := prompt(cmd, "API endpoint: ")
				if err != nil {
					return err
				}

				config.API = endpoint
			}

			if config.API == "" {
				return constants.ErrNoAPIConfigured
			}

			config.API = wenuclient.NormalizeEndpoint(config.API)

			if tokenURL != "" {
				config.TokenURL = tokenURL
			}

			wenuConfig := baseConfig(cmd, config)

			if qrToken != "" {
				wenuConfig.AccessToken = qrToken
			} else {
				if username == "" {
					entered, err := prompt(cmd, "Username: ")
					if err != nil {
						return err
					}

					username = entered
				}

				if password == "" {
					entered, err := promptPassword(cmd)
					if err != nil {
						return err
					}

					password = entered
				}

				wenuConfig.Username = username
				wenuConfig.Password = password
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()

			gateway, err := wenuclient.New(ctx, wenuConfig)
			if err != nil {
				return fmt.Errorf("failed to log in: %w", err)
			}

			token, err := sessionToken(ctx, gateway)
			if err != nil {
				return err
			}

			config.Token = token
			if username != "" {
				config.Username = username
			}

			err = saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Logged in to %s (%d resources)\n", gateway.BaseURL(), len(gateway.Resources()))

			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when omitted)")
	cmd.Flags().StringVar(&tokenURL, "token-url", "", "credential exchange URL (default <api>/login)")
	cmd.Flags().StringVar(&qrToken, "qr-token", "", "log in with a token handed over by a QR code")

	return cmd
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out",
		Long:  "Remove the stored session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()
			config.Token = ""

			err := saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Logged out")

			return nil
		},
	}
}

// NewRegisterCommand creates the register command.
func NewRegisterCommand() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "register REGISTER_URL USERNAME",
		Short: "Create an account",
		Long:  "Post a username and password to a registration URL. Only 201 Created counts as success.",
		Args:  cobra.ExactArgs(constants.MinimumArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				entered, err := promptPassword(cmd)
				if err != nil {
					return err
				}

				password = entered
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()

			ok, err := wenuclient.Register(ctx, args[0], args[1], password)
			if err != nil {
				return fmt.Errorf("failed to register: %w", err)
			}

			if !ok {
				return constants.ErrRegistrationRejected
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Registered %s\n", args[1])

			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when omitted)")

	return cmd
}

func prompt(cmd *cobra.Command, label string) (string, error) {
	_, _ = fmt.Fprint(cmd.OutOrStdout(), label)

	line, err := readLine(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}

	return strings.TrimSpace(line), nil
}

// readLine reads up to the next newline without buffering past it, so
// consecutive prompts can share one input stream.
func readLine(in io.Reader) (string, error) {
	var line []byte

	buf := make([]byte, 1)

	for {
		n, err := in.Read(buf)
		if n > 0 {
			if buf[0] == '\n' {
				return string(line), nil
			}

			line = append(line, buf[0])
		}

		if errors.Is(err, io.EOF) {
			return string(line), nil
		}

		if err != nil {
			return "", err
		}
	}
}

// promptPassword reads without echo from a terminal and falls back to a plain
// line read otherwise.
func promptPassword(cmd *cobra.Command) (string, error) {
	if cmd.InOrStdin() != os.Stdin || !term.IsTerminal(int(syscall.Stdin)) {
		return prompt(cmd, "Password: ")
	}

	_, _ = fmt.Fprint(cmd.OutOrStdout(), "Password: ")

	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	return string(bytePassword), nil
}
