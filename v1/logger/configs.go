package logger

// Supported log levels.
const (
	Debug   = "debug"
	Info    = "info"
	Warning = "warning"
	Error   = "error"
)

// Config controls logger construction.
type Config struct {
	// Level is one of Debug, Info, Warning or Error. Unknown values mean Info.
	Level string `yaml:"level" envconfig:"ZAP_LOGGER_LEVEL" koanf:"level"`

	// ServiceName is attached to every entry as the "service" field.
	ServiceName string `yaml:"service_name" envconfig:"LOGGER_SERVICE_NAME" koanf:"service_name"`

	// EnableTracing adds trace_id/span_id to entries written through the
	// *WithContext methods.
	EnableTracing bool `yaml:"enable_tracing" envconfig:"LOGGER_ENABLE_TRACING" koanf:"enable_tracing"`

	// Development switches to console encoding with colored levels.
	Development bool `yaml:"development" envconfig:"LOGGER_DEVELOPMENT" koanf:"development"`
}
