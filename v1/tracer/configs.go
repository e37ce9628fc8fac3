package tracer

// Config controls the tracer provider.
type Config struct {
	// ServiceName becomes the service.name resource attribute.
	ServiceName string `yaml:"service_name" envconfig:"TRACER_SERVICE_NAME" koanf:"service_name"`

	// AppEnv becomes deployment.environment.
	AppEnv string `yaml:"app_env" envconfig:"APP_ENV" koanf:"app_env"`

	// EnableExport ships spans through OTLP over HTTP. The exporter is
	// configured by the standard OTEL_EXPORTER_OTLP_* variables.
	EnableExport bool `yaml:"enable_export" envconfig:"TRACER_ENABLE_EXPORT" koanf:"enable_export"`
}
