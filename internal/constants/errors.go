package constants

import "errors"

// Configuration errors.
var (
	ErrNotConfigured     = errors.New("no API configured, use 'prophet login' first")
	ErrUnknownConfigKey  = errors.New("unknown configuration key")
	ErrUnsupportedFormat = errors.New("unsupported output format")
	ErrTokenNotSettable  = errors.New("token fields cannot be set or unset, use 'prophet logout' instead")
)

// Token errors.
var (
	ErrNoExpirationClaim = errors.New("no expiration claim found")
	ErrMissingExpiry     = errors.New("token response has no expires_at")
	ErrMissingToken      = errors.New("token response has no access_token")
	ErrEmptyResponse     = errors.New("empty response")
)

// Argument errors.
var (
	ErrInstanceRequired = errors.New("at least one --instance is required")
	ErrNATSURLRequired  = errors.New("--nats-url is required")
	ErrMissingValue     = errors.New("value is required")
	ErrParentRequired   = errors.New("--parent is required (or set parent_id with 'prophet config set')")
)
