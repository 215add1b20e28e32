package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/fivetwenty-io/wenu-client/internal/constants"
	"github.com/fivetwenty-io/wenu-client/pkg/wenu"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the CLI configuration.
type Config struct {
	API              string `json:"api,omitempty"               yaml:"api,omitempty"`
	Token            string `json:"token,omitempty"             yaml:"token,omitempty"`
	Username         string `json:"username,omitempty"          yaml:"username,omitempty"`
	TokenURL         string `json:"token_url,omitempty"         yaml:"token_url,omitempty"`
	AuthScheme       string `json:"auth_scheme,omitempty"       yaml:"auth_scheme,omitempty"`
	Output           string `json:"output,omitempty"            yaml:"output,omitempty"`
	Retries          int    `json:"retries,omitempty"           yaml:"retries,omitempty"`
	ChangefeedURL    string `json:"changefeed_url,omitempty"    yaml:"changefeed_url,omitempty"`
	ChangefeedPrefix string `json:"changefeed_prefix,omitempty" yaml:"changefeed_prefix,omitempty"`
}

// configKeys maps every settable key to its setter.
var configKeys = map[string]func(*Config, string) error{
	"api": func(c *Config, v string) error {
		c.API = v

		return nil
	},
	"token": func(c *Config, v string) error {
		c.Token = v

		return nil
	},
	"username": func(c *Config, v string) error {
		c.Username = v

		return nil
	},
	"token_url": func(c *Config, v string) error {
		c.TokenURL = v

		return nil
	},
	"auth_scheme": func(c *Config, v string) error {
		switch wenu.AuthScheme(v) {
		case wenu.AuthSchemeBasicToken, wenu.AuthSchemeBearer, "":
			c.AuthScheme = v

			return nil
		default:
			return fmt.Errorf("auth_scheme %q: %w", v, constants.ErrInvalidFlag)
		}
	},
	"output": func(c *Config, v string) error {
		switch v {
		case constants.FormatTable, constants.FormatJSON, constants.FormatYAML, "":
			c.Output = v

			return nil
		default:
			return fmt.Errorf("output %q: %w", v, constants.ErrInvalidFlag)
		}
	},
	"retries": func(c *Config, v string) error {
		if v == "" {
			c.Retries = 0

			return nil
		}

		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("retries %q: %w", v, constants.ErrInvalidFlag)
		}

		c.Retries = n

		return nil
	},
	"changefeed_url": func(c *Config, v string) error {
		c.ChangefeedURL = v

		return nil
	},
	"changefeed_prefix": func(c *Config, v string) error {
		c.ChangefeedPrefix = v

		return nil
	},
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Show and change the settings stored in the wenu configuration file",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the effective CLI configuration with the token masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()
			if config.Token != "" {
				config.Token = constants.MaskedSecret
			}

			handled, err := encodeStructured(cmd.OutOrStdout(), config)
			if handled {
				return err
			}

			return displayConfigTable(cmd.OutOrStdout(), config)
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Set a configuration value and persist it to the configuration file",
		Args:  cobra.ExactArgs(constants.MinimumArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			err := setConfigValue(config, args[0], args[1])
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Set %s\n", args[0])

			return nil
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Long:  "Remove a configuration value from the configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			err := setConfigValue(config, args[0], "")
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Unset %s\n", args[0])

			return nil
		},
	}
}

func setConfigValue(config *Config, key, value string) error {
	setter, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("%q (valid keys: %v): %w", key, sortedConfigKeys(), constants.ErrUnknownConfigKey)
	}

	return setter(config, value)
}

func sortedConfigKeys() []string {
	keys := make([]string, 0, len(configKeys))
	for key := range configKeys {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

// loadConfig reads the effective configuration: flags, then WENU_ environment
// variables, then the configuration file.
func loadConfig() *Config {
	return &Config{
		API:              viper.GetString("api"),
		Token:            viper.GetString("token"),
		Username:         viper.GetString("username"),
		TokenURL:         viper.GetString("token_url"),
		AuthScheme:       viper.GetString("auth_scheme"),
		Output:           viper.GetString("output"),
		Retries:          viper.GetInt("retries"),
		ChangefeedURL:    viper.GetString("changefeed_url"),
		ChangefeedPrefix: viper.GetString("changefeed_prefix"),
	}
}

// configFilePath returns the file in use, or ~/.wenu/config.yml.
func configFilePath() (string, error) {
	configFile := viper.ConfigFileUsed()
	if configFile != "" {
		return configFile, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, ".wenu", "config.yml"), nil
}

func saveConfigStruct(config *Config) error {
	configFile, err := configFilePath()
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(configFile), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	// Keep the running process consistent with what was written.
	viper.Set("api", config.API)
	viper.Set("token", config.Token)
	viper.Set("username", config.Username)
	viper.Set("token_url", config.TokenURL)
	viper.Set("auth_scheme", config.AuthScheme)
	viper.Set("output", config.Output)
	viper.Set("retries", config.Retries)
	viper.Set("changefeed_url", config.ChangefeedURL)
	viper.Set("changefeed_prefix", config.ChangefeedPrefix)

	return nil
}

func displayConfigTable(w io.Writer, config *Config) error {
	table := tablewriter.NewWriter(w)
	table.Header("Property", "Value")

	_ = table.Append([]string{"API", formatConfigValue(config.API)})
	_ = table.Append([]string{"Username", formatConfigValue(config.Username)})
	_ = table.Append([]string{"Token", formatConfigValue(config.Token)})
	_ = table.Append([]string{"Token URL", formatConfigValue(config.TokenURL)})
	_ = table.Append([]string{"Auth Scheme", formatConfigValue(config.AuthScheme)})
	_ = table.Append([]string{"Output", formatConfigValue(config.Output)})
	_ = table.Append([]string{"Retries", strconv.Itoa(config.Retries)})
	_ = table.Append([]string{"Change Feed URL", formatConfigValue(config.ChangefeedURL)})
	_ = table.Append([]string{"Change Feed Prefix", formatConfigValue(config.ChangefeedPrefix)})

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func formatConfigValue(value string) string {
	if value == "" {
		return "-"
	}

	return value
}
