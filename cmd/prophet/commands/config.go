package commands

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fivetwenty-io/prophet/internal/constants"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the CLI configuration.
type Config struct {
	BaseURL        string     `json:"base_url,omitempty"         yaml:"base_url,omitempty"`
	ClientID       string     `json:"client_id,omitempty"        yaml:"client_id,omitempty"`
	ClientSecret   string     `json:"client_secret,omitempty"    yaml:"client_secret,omitempty"`
	Token          string     `json:"token,omitempty"            yaml:"token,omitempty"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty" yaml:"token_expires_at,omitempty"`
	Output         string     `json:"output,omitempty"           yaml:"output,omitempty"`
	Instance       string     `json:"instance,omitempty"         yaml:"instance,omitempty"`
	ParentID       string     `json:"parent_id,omitempty"        yaml:"parent_id,omitempty"`
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Show and change the settings stored in $HOME/.prophet/config.yml",
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
		Long:  "Display the current CLI configuration with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()
			masked := *config

			if masked.ClientSecret != "" {
				masked.ClientSecret = constants.MaskedSecret
			}

			if masked.Token != "" {
				masked.Token = constants.MaskedSecret
			}

			return render(cmd.OutOrStdout(), &masked, func(w io.Writer) error {
				return displayConfigTable(w, &masked)
			})
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Set a configuration value. Keys: base_url, client_id, client_secret, output, instance, parent_id",
		Args:  cobra.ExactArgs(constants.MinimumArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			config, err := loadStoredConfig()
			if err != nil {
				return err
			}

			err = setConfigValue(config, key, value)
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			return outputConfigUpdateResult(cmd.OutOrStdout(), "Set", key, value)
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Long:  "Remove a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]

			config, err := loadStoredConfig()
			if err != nil {
				return err
			}

			err = setConfigValue(config, key, "")
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			return outputConfigUpdateResult(cmd.OutOrStdout(), "Unset", key, "")
		},
	}
}

// loadConfig reads the configuration through viper, so flags and PROPHET_*
// environment variables override the file.
func loadConfig() *Config {
	config := &Config{
		BaseURL:      viper.GetString("base_url"),
		ClientID:     viper.GetString("client_id"),
		ClientSecret: viper.GetString("client_secret"),
		Token:        viper.GetString("token"),
		Output:       viper.GetString("output"),
		Instance:     viper.GetString("instance"),
		ParentID:     viper.GetString("parent_id"),
	}

	if viper.IsSet("token_expires_at") {
		expiresAt := viper.GetTime("token_expires_at")
		if !expiresAt.IsZero() {
			config.TokenExpiresAt = &expiresAt
		}
	}

	return config
}

// loadStoredConfig reads only the config file, so values that came from
// flags or the environment are not written back by commands that persist.
func loadStoredConfig() (*Config, error) {
	configFile, err := configFilePath()
	if err != nil {
		return nil, err
	}

	// configFile is the user's own config path
	// #nosec G304
	data, err := os.ReadFile(configFile)
	if errors.Is(err, fs.ErrNotExist) {
		return &Config{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}

	err = yaml.Unmarshal(data, config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// configFilePath returns the file in use, or the default location.
func configFilePath() (string, error) {
	configFile := viper.ConfigFileUsed()
	if configFile != "" {
		return configFile, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, constants.ConfigDirName, constants.ConfigFileName), nil
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
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	// Reload so later reads in this process see the new file.
	viper.SetConfigFile(configFile)

	err = viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("failed to reload config file: %w", err)
	}

	return nil
}

// setConfigValue applies key=value; an empty value clears the key. Changing
// the endpoint or credentials drops the cached token.
func setConfigValue(config *Config, key, value string) error {
	handlers := map[string]func(*Config, string){
		"base_url":      func(c *Config, v string) { c.BaseURL = v; clearToken(c) },
		"client_id":     func(c *Config, v string) { c.ClientID = v; clearToken(c) },
		"client_secret": func(c *Config, v string) { c.ClientSecret = v; clearToken(c) },
		"output":        func(c *Config, v string) { c.Output = v },
		"instance":      func(c *Config, v string) { c.Instance = v },
		"parent_id":     func(c *Config, v string) { c.ParentID = v },
	}

	if key == "token" || key == "token_expires_at" {
		return constants.ErrTokenNotSettable
	}

	handler, exists := handlers[key]
	if !exists {
		return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
	}

	if key == "output" && value != "" {
		err := validateFormat(value)
		if err != nil {
			return err
		}
	}

	handler(config, value)

	return nil
}

func clearToken(config *Config) {
	config.Token = ""
	config.TokenExpiresAt = nil
}

func displayConfigTable(w io.Writer, config *Config) error {
	table := tablewriter.NewWriter(w)
	table.Header("Property", "Value")

	_ = table.Append([]string{"Base URL", formatConfigValue(config.BaseURL)})
	_ = table.Append([]string{"Client ID", formatConfigValue(config.ClientID)})
	_ = table.Append([]string{"Client Secret", formatConfigValue(config.ClientSecret)})
	_ = table.Append([]string{"Output", formatConfigValue(config.Output)})
	_ = table.Append([]string{"Instance", formatConfigValue(config.Instance)})
	_ = table.Append([]string{"Parent ID", formatConfigValue(config.ParentID)})

	tokenExpiry := constants.NotAvailable
	if config.TokenExpiresAt != nil {
		tokenExpiry = config.TokenExpiresAt.Format(time.RFC3339)
	}

	_ = table.Append([]string{"Token Expires", tokenExpiry})

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func formatConfigValue(value string) string {
	if value == "" {
		return constants.NotAvailable
	}

	return value
}

func outputConfigUpdateResult(w io.Writer, action, key, value string) error {
	result := map[string]string{
		"action": action,
		"key":    key,
	}

	if value != "" {
		if key == "client_secret" {
			value = constants.MaskedSecret
		}

		result["value"] = value
	}

	return render(w, result, func(w io.Writer) error {
		table := tablewriter.NewWriter(w)
		table.Header("Property", "Value")

		_ = table.Append([]string{"Action", action})
		_ = table.Append([]string{"Key", key})

		if value != "" {
			_ = table.Append([]string{"Value", value})
		}

		err := table.Render()
		if err != nil {
			return fmt.Errorf("failed to render update results table: %w", err)
		}

		return nil
	})
}
