package commands

import (
	"io"
	"time"

	"github.com/fivetwenty-io/prophet/internal/client"
	"github.com/fivetwenty-io/prophet/internal/constants"
	"github.com/fivetwenty-io/prophet/pkg/prophet"
	"github.com/fivetwenty-io/prophet/pkg/prophetclient"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// newLogger builds the console logger used by every command. --verbose
// forces debug level; otherwise --log-level applies.
func newLogger(w io.Writer) zerolog.Logger {
	level := zerolog.WarnLevel

	parsed, err := zerolog.ParseLevel(viper.GetString("log_level"))
	if err == nil && parsed != zerolog.NoLevel {
		level = parsed
	}

	if viper.GetBool("verbose") {
		level = zerolog.DebugLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// clientConfig assembles the library configuration from the CLI config.
func clientConfig(config *Config, logs io.Writer) *prophet.Config {
	return &prophet.Config{
		BaseURL:      config.BaseURL,
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		Timeout:      viper.GetDuration("timeout"),
		RetryMax:     viper.GetInt("retry_max"),
		Debug:        viper.GetBool("verbose"),
		Logger:       prophet.NewZerologLogger(newLogger(logs)),
		TokenCache:   NewConfigTokenCache(config.BaseURL, config.ClientID),
	}
}

// createClient builds an authenticated client from the stored config.
func createClient(logs io.Writer) (prophet.Client, error) {
	config := loadConfig()
	if config.BaseURL == "" {
		return nil, constants.ErrNotConfigured
	}

	return prophetclient.New(clientConfig(config, logs))
}

// createHealthClient builds a client for the unauthenticated health check,
// which needs only a base URL.
func createHealthClient(logs io.Writer) (prophet.Client, error) {
	config := loadConfig()
	if config.BaseURL == "" {
		return nil, constants.ErrNotConfigured
	}

	cfg := clientConfig(config, logs)
	cfg.BaseURL = prophetclient.NormalizeBaseURL(cfg.BaseURL)
	cfg.TokenCache = nil

	c, err := client.New(cfg)
	if err != nil {
		return nil, err
	}

	return c, nil
}
