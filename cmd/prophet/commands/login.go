package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fivetwenty-io/prophet/internal/constants"
	"github.com/fivetwenty-io/prophet/pkg/prophetclient"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// NewLoginCommand creates the login command.
func NewLoginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Login to the Prophet API",
		Long: `Authenticate with OAuth2 client credentials and save them to the config file.

Values not given with --base-url, --client-id and --client-secret (or the
PROPHET_* environment variables) are prompted for. The secret is read
without echo.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()
			reader := bufio.NewReader(cmd.InOrStdin())
			out := cmd.ErrOrStderr()

			var err error

			if config.BaseURL == "" {
				config.BaseURL, err = prompt(reader, out, "API base URL: ")
				if err != nil {
					return err
				}
			}

			if config.ClientID == "" {
				config.ClientID, err = prompt(reader, out, "Client ID: ")
				if err != nil {
					return err
				}
			}

			if config.ClientSecret == "" {
				config.ClientSecret, err = promptSecret(cmd.InOrStdin(), reader, out, "Client secret: ")
				if err != nil {
					return err
				}
			}

			config.BaseURL = prophetclient.NormalizeBaseURL(config.BaseURL)

			cfg := clientConfig(config, cmd.ErrOrStderr())
			cfg.TokenCache = nil

			client, err := prophetclient.New(cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			token, err := client.TokenManager().ForceRefresh(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to authenticate: %w", err)
			}

			stored, err := loadStoredConfig()
			if err != nil {
				return err
			}

			stored.BaseURL = config.BaseURL
			stored.ClientID = config.ClientID
			stored.ClientSecret = config.ClientSecret
			stored.Token = token
			stored.TokenExpiresAt = nil

			if expiresAt, ok := client.TokenManager().ExpiresAt(); ok {
				expiresAt = expiresAt.UTC()
				stored.TokenExpiresAt = &expiresAt
			}

			err = saveConfigStruct(stored)
			if err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Successfully logged in to %s\n", config.BaseURL)

			return nil
		},
	}
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Logout from the Prophet API",
		Long:  "Remove the stored client credentials and cached token",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadStoredConfig()
			if err != nil {
				return err
			}

			config.ClientID = ""
			config.ClientSecret = ""
			clearToken(config)

			err = saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Successfully logged out")

			return nil
		},
	}
}

func prompt(reader *bufio.Reader, out io.Writer, label string) (string, error) {
	_, _ = fmt.Fprint(out, label)

	line, err := reader.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", fmt.Errorf("failed to read %s: %w", strings.TrimSuffix(label, ": "), err)
	}

	value := strings.TrimSpace(line)
	if value == "" {
		return "", fmt.Errorf("%w: %s", constants.ErrMissingValue, strings.TrimSuffix(label, ": "))
	}

	return value, nil
}

// promptSecret reads without echo when in is a terminal and falls back to a
// plain line read otherwise.
func promptSecret(in io.Reader, reader *bufio.Reader, out io.Writer, label string) (string, error) {
	file, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return prompt(reader, out, label)
	}

	_, _ = fmt.Fprint(out, label)

	secret, err := term.ReadPassword(int(file.Fd()))

	_, _ = fmt.Fprintln(out)

	if err != nil {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}

	value := strings.TrimSpace(string(secret))
	if value == "" {
		return "", fmt.Errorf("%w: %s", constants.ErrMissingValue, strings.TrimSuffix(label, ": "))
	}

	return value, nil
}
