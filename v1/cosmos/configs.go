package cosmos

import (
	"net/url"
	"time"
)

// AuthMode selects how the client authenticates.
type AuthMode string

const (
	// AuthKey authenticates with the account key.
	AuthKey AuthMode = "key"
	// AuthManagedIdentity uses the ambient Azure identity chain
	// (environment, workload identity, managed identity, CLI).
	AuthManagedIdentity AuthMode = "managed-identity"
	// AuthConnectionString authenticates with an account connection string.
	AuthConnectionString AuthMode = "connection-string"
)

// Defaults applied by DefaultConfig and by Open for zero fields.
const (
	DefaultRequestTimeout       = 30 * time.Second
	DefaultMaxAttempts          = 3
	DefaultRetryInitialInterval = 200 * time.Millisecond
	DefaultRetryMaxInterval     = 5 * time.Second
	DefaultBulkConcurrency      = 16
	DefaultQueryPageSize        = 100
)

// Config holds the connection settings for a Client.
//
// Values can come from YAML, from environment variables (see LoadConfig) or
// be built in code with DefaultConfig and the With* methods.
type Config struct {
	// Endpoint is the account URI, e.g. https://myaccount.documents.azure.com:443/.
	Endpoint string `yaml:"endpoint" koanf:"endpoint" envconfig:"COSMOS_ENDPOINT"`

	// AuthMode is "key", "managed-identity" or "connection-string".
	AuthMode AuthMode `yaml:"auth_mode" koanf:"auth_mode" envconfig:"COSMOS_AUTH_MODE"`

	// Key is the account key used with AuthKey.
	Key string `yaml:"key" koanf:"key" envconfig:"COSMOS_KEY"`

	// ConnectionString is used with AuthConnectionString.
	ConnectionString string `yaml:"connection_string" koanf:"connection_string" envconfig:"COSMOS_CONNECTION_STRING"`

	// DefaultDatabase and DefaultContainer are the names callers select when
	// they have no better choice. The client itself does not use them.
	DefaultDatabase  string `yaml:"default_database" koanf:"default_database" envconfig:"COSMOS_DEFAULT_DATABASE"`
	DefaultContainer string `yaml:"default_container" koanf:"default_container" envconfig:"COSMOS_DEFAULT_CONTAINER"`

	// PreferredRegions orders the regions used for reads.
	PreferredRegions []string `yaml:"preferred_regions" koanf:"preferred_regions" envconfig:"COSMOS_PREFERRED_REGIONS"`

	// ApplicationName is appended to the user agent.
	ApplicationName string `yaml:"application_name" koanf:"application_name" envconfig:"COSMOS_APPLICATION_NAME"`

	// RequestTimeout bounds every single remote call.
	RequestTimeout time.Duration `yaml:"request_timeout" koanf:"request_timeout" envconfig:"COSMOS_REQUEST_TIMEOUT"`

	// MaxAttempts is the total number of tries for a retryable call.
	MaxAttempts int `yaml:"max_attempts" koanf:"max_attempts" envconfig:"COSMOS_MAX_ATTEMPTS"`

	// RetryInitialInterval and RetryMaxInterval shape the exponential backoff.
	RetryInitialInterval time.Duration `yaml:"retry_initial_interval" koanf:"retry_initial_interval" envconfig:"COSMOS_RETRY_INITIAL_INTERVAL"`
	RetryMaxInterval     time.Duration `yaml:"retry_max_interval" koanf:"retry_max_interval" envconfig:"COSMOS_RETRY_MAX_INTERVAL"`

	// BulkConcurrency caps in-flight requests of one bulk call.
	BulkConcurrency int `yaml:"bulk_concurrency" koanf:"bulk_concurrency" envconfig:"COSMOS_BULK_CONCURRENCY"`

	// BulkRateLimit caps bulk requests per second; 0 disables throttling.
	BulkRateLimit float64 `yaml:"bulk_rate_limit" koanf:"bulk_rate_limit" envconfig:"COSMOS_BULK_RATE_LIMIT"`

	// QueryPageSize is the default page size hint for queries.
	QueryPageSize int `yaml:"query_page_size" koanf:"query_page_size" envconfig:"COSMOS_QUERY_PAGE_SIZE"`

	// VerifyConnection lists databases once during Open so that bad
	// credentials and unreachable endpoints fail early.
	VerifyConnection bool `yaml:"verify_connection" koanf:"verify_connection" envconfig:"COSMOS_VERIFY_CONNECTION"`
}

// DefaultConfig returns a key-authenticated configuration with default
// timeouts and limits and no endpoint.
func DefaultConfig() Config {
	return Config{
		AuthMode:             AuthKey,
		RequestTimeout:       DefaultRequestTimeout,
		MaxAttempts:          DefaultMaxAttempts,
		RetryInitialInterval: DefaultRetryInitialInterval,
		RetryMaxInterval:     DefaultRetryMaxInterval,
		BulkConcurrency:      DefaultBulkConcurrency,
		QueryPageSize:        DefaultQueryPageSize,
	}
}

// WithEndpoint sets the account endpoint.
func (c Config) WithEndpoint(endpoint string) Config {
	c.Endpoint = endpoint
	return c
}

// WithKey selects key authentication.
func (c Config) WithKey(key string) Config {
	c.AuthMode = AuthKey
	c.Key = key
	return c
}

// WithManagedIdentity selects the Azure identity chain.
func (c Config) WithManagedIdentity() Config {
	c.AuthMode = AuthManagedIdentity
	return c
}

// WithConnectionString selects connection string authentication.
func (c Config) WithConnectionString(conn string) Config {
	c.AuthMode = AuthConnectionString
	c.ConnectionString = conn
	return c
}

// WithRequestTimeout sets the per-call timeout.
func (c Config) WithRequestTimeout(d time.Duration) Config {
	c.RequestTimeout = d
	return c
}

// WithRetry sets the attempt budget and backoff bounds.
func (c Config) WithRetry(maxAttempts int, initial, max time.Duration) Config {
	c.MaxAttempts = maxAttempts
	c.RetryInitialInterval = initial
	c.RetryMaxInterval = max
	return c
}

// WithBulkConcurrency sets the bulk in-flight cap.
func (c Config) WithBulkConcurrency(n int) Config {
	c.BulkConcurrency = n
	return c
}

// WithBulkRateLimit sets the bulk requests-per-second cap.
func (c Config) WithBulkRateLimit(perSecond float64) Config {
	c.BulkRateLimit = perSecond
	return c
}

// WithVerifyConnection toggles the connectivity probe in Open.
func (c Config) WithVerifyConnection(verify bool) Config {
	c.VerifyConnection = verify
	return c
}

// Validate checks c without contacting the service.
func (c Config) Validate() error {
	mode := c.AuthMode
	if mode == "" {
		mode = AuthKey
	}

	switch mode {
	case AuthKey:
		if err := validateEndpoint(c.Endpoint); err != nil {
			return err
		}
		if c.Key == "" {
			return newError(KindAuth, opOpen, 0, errMissingKey)
		}
	case AuthManagedIdentity:
		if err := validateEndpoint(c.Endpoint); err != nil {
			return err
		}
	case AuthConnectionString:
		if c.ConnectionString == "" {
			return newError(KindAuth, opOpen, 0, errMissingConnectionString)
		}
	default:
		return validationError(opOpen, "unknown auth mode %q", c.AuthMode)
	}

	if c.MaxAttempts < 0 {
		return validationError(opOpen, "max attempts must not be negative")
	}
	if c.BulkConcurrency < 0 {
		return validationError(opOpen, "bulk concurrency must not be negative")
	}
	if c.BulkRateLimit < 0 {
		return validationError(opOpen, "bulk rate limit must not be negative")
	}
	return nil
}

func validateEndpoint(endpoint string) error {
	if endpoint == "" {
		return validationError(opOpen, "endpoint is empty")
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return newError(KindValidation, opOpen, 0, err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return validationError(opOpen, "endpoint %q must be an http(s) URL", endpoint)
	}
	if u.Host == "" {
		return validationError(opOpen, "endpoint %q has no host", endpoint)
	}
	return nil
}

// withDefaults fills zero fields.
func (c Config) withDefaults() Config {
	if c.AuthMode == "" {
		c.AuthMode = AuthKey
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.RetryInitialInterval <= 0 {
		c.RetryInitialInterval = DefaultRetryInitialInterval
	}
	if c.RetryMaxInterval <= 0 {
		c.RetryMaxInterval = DefaultRetryMaxInterval
	}
	if c.BulkConcurrency <= 0 {
		c.BulkConcurrency = DefaultBulkConcurrency
	}
	if c.QueryPageSize <= 0 {
		c.QueryPageSize = DefaultQueryPageSize
	}
	return c
}
