package commands

import (
	"github.com/fivetwenty-io/prophet/internal/constants"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewRootCommand builds the prophet command tree with its global flags bound
// to viper.
func NewRootCommand(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "prophet",
		Short: "Prophet network analytics CLI",
		Long: `A command-line interface for the Prophet network analytics API.

Search and export flow records, and manage sub-deployments of an MSP.
Run 'prophet login' first to store the API endpoint and client credentials.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "config file (default is $HOME/.prophet/config.yml)")
	flags.String("base-url", "", "Prophet API base URL")
	flags.String("client-id", "", "OAuth2 client ID")
	flags.String("client-secret", "", "OAuth2 client secret")
	flags.StringP("output", "o", constants.FormatTable, "output format (table, json, yaml)")
	flags.BoolP("verbose", "v", false, "verbose output, logs HTTP traffic")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")
	flags.Duration("timeout", constants.DefaultHTTPTimeout, "per-request timeout")
	flags.Int("retry-max", 0, "transport retries on 5xx and 429 responses")

	// Bind flags to viper
	_ = viper.BindPFlag("config", flags.Lookup("config"))
	_ = viper.BindPFlag("base_url", flags.Lookup("base-url"))
	_ = viper.BindPFlag("client_id", flags.Lookup("client-id"))
	_ = viper.BindPFlag("client_secret", flags.Lookup("client-secret"))
	_ = viper.BindPFlag("output", flags.Lookup("output"))
	_ = viper.BindPFlag("verbose", flags.Lookup("verbose"))
	_ = viper.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("timeout", flags.Lookup("timeout"))
	_ = viper.BindPFlag("retry_max", flags.Lookup("retry-max"))

	rootCmd.AddCommand(NewVersionCommand(version, commit, date))
	rootCmd.AddCommand(NewLoginCommand())
	rootCmd.AddCommand(NewLogoutCommand())
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewHealthCommand())
	rootCmd.AddCommand(NewTokenCommand())
	rootCmd.AddCommand(NewFlowsCommand())
	rootCmd.AddCommand(NewDeploymentsCommand())

	return rootCmd
}
