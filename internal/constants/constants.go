package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for quick operations such as health checks.
	ShortHTTPTimeout = 10 * time.Second
)

// Retry limits. Retries are off unless RetryMax is configured.
const (
	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// Token lifecycle.
const (
	// DefaultRefreshThreshold is how long before expiry a token is refreshed.
	DefaultRefreshThreshold = 300 * time.Second
)

// API paths.
const (
	// TokenPath is the client credentials token endpoint.
	TokenPath = "/oauth2/token/1.0"

	// HealthPath is the unauthenticated health endpoint.
	HealthPath = "/health"

	// SearchPath is the record search endpoint.
	SearchPath = "/search/records/1.0"

	// DeploymentsPath is the sub-deployment endpoint.
	DeploymentsPath = "/deployments/1.0"
)

// Search.
const (
	// SearchModuleFlows selects flow records in a search request.
	SearchModuleFlows = "flows"

	// DefaultFlowPageSize is the page size used when none is given.
	DefaultFlowPageSize = 100

	// MaxFlowPageSize is the largest page the search API accepts.
	MaxFlowPageSize = 25000
)

// Headers.
const (
	// HeaderRequestID carries the per-request correlation ID.
	HeaderRequestID = "X-Request-ID"

	// DefaultUserAgent is sent when no User-Agent is configured.
	DefaultUserAgent = "prophet-go/1.0"
)

// Export.
const (
	// DefaultNATSSubject is the subject flow records are published on.
	DefaultNATSSubject = "prophet.flows"

	// DefaultExportFlushTimeout bounds the final flush of an export.
	DefaultExportFlushTimeout = 5 * time.Second
)

// UI and display constants.
const (
	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"

	// MaskedSecret is used to hide sensitive information.
	MaskedSecret = "***"

	// DefaultSearchLimit caps the number of records the CLI prints.
	DefaultSearchLimit = 100

	// MinimumArgumentCount is the argument count of KEY VALUE commands.
	MinimumArgumentCount = 2

	// ConfigDirName is the CLI configuration directory under $HOME.
	ConfigDirName = ".prophet"

	// ConfigFileName is the CLI configuration file inside ConfigDirName.
	ConfigFileName = "config.yml"

	// EnvPrefix prefixes environment variables read by the CLI.
	EnvPrefix = "PROPHET"
)

// Format constants.
const (
	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"

	// FormatTable for table output format.
	FormatTable = "table"
)
