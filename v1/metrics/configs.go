package metrics

// DefaultMetricsAddress is used when Config.Address is empty.
const DefaultMetricsAddress = ":9090"

// Config controls the metrics registry and its HTTP endpoint.
type Config struct {
	// Address the /metrics server listens on, e.g. ":9090" or "127.0.0.1:9100".
	Address string `yaml:"address" envconfig:"METRICS_ADDRESS" koanf:"address"`

	// EnableDefaultCollectors registers the Go runtime, process and build
	// info collectors.
	EnableDefaultCollectors bool `yaml:"enable_default_collectors" envconfig:"METRICS_ENABLE_DEFAULT_COLLECTORS" koanf:"enable_default_collectors"`

	// Namespace prefixes every metric name registered through this package.
	Namespace string `yaml:"namespace" envconfig:"METRICS_NAMESPACE" koanf:"namespace"`

	// ServiceName is the value of the constant "service" label.
	ServiceName string `yaml:"service_name" envconfig:"METRICS_SERVICE_NAME" koanf:"service_name"`
}

// DefaultConfig listens on DefaultMetricsAddress with runtime collectors on.
func DefaultConfig() Config {
	return Config{
		Address:                 DefaultMetricsAddress,
		EnableDefaultCollectors: true,
		ServiceName:             "docstore",
	}
}

// WithAddress sets the listen address.
func (c Config) WithAddress(addr string) Config {
	c.Address = addr
	return c
}

// WithServiceName sets the service label.
func (c Config) WithServiceName(name string) Config {
	c.ServiceName = name
	return c
}

// WithNamespace sets the metric name prefix.
func (c Config) WithNamespace(ns string) Config {
	c.Namespace = ns
	return c
}

// WithDefaultCollectors toggles the runtime collectors.
func (c Config) WithDefaultCollectors(enabled bool) Config {
	c.EnableDefaultCollectors = enabled
	return c
}
