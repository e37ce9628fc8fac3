package loader

// DefaultMaxObjectSize bounds a single input file.
const DefaultMaxObjectSize int64 = 256 * 1024 * 1024

// Config controls where inputs are read from.
type Config struct {
	// ObjectStore is the S3-compatible endpoint used for "s3://" locations.
	// It may be left empty when only local files are read.
	ObjectStore ObjectStoreConfig `yaml:"object_store" koanf:"object_store"`

	// MaxObjectSize rejects inputs larger than this many bytes. Zero selects
	// DefaultMaxObjectSize.
	MaxObjectSize int64 `yaml:"max_object_size" envconfig:"LOADER_MAX_OBJECT_SIZE" koanf:"max_object_size"`
}

// ObjectStoreConfig holds the connection details of the object store.
type ObjectStoreConfig struct {
	// Endpoint is host:port, e.g. "localhost:9000".
	Endpoint        string `yaml:"endpoint" envconfig:"LOADER_S3_ENDPOINT" koanf:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id" envconfig:"LOADER_S3_ACCESS_KEY_ID" koanf:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key" envconfig:"LOADER_S3_SECRET_ACCESS_KEY" koanf:"secret_access_key"`
	UseSSL          bool   `yaml:"use_ssl" envconfig:"LOADER_S3_USE_SSL" koanf:"use_ssl"`
	Region          string `yaml:"region" envconfig:"LOADER_S3_REGION" koanf:"region"`
}

// DefaultConfig reads local files only.
func DefaultConfig() Config {
	return Config{MaxObjectSize: DefaultMaxObjectSize}
}

// WithObjectStore enables "s3://" locations.
func (c Config) WithObjectStore(endpoint, accessKeyID, secretAccessKey string, useSSL bool) Config {
	c.ObjectStore = ObjectStoreConfig{
		Endpoint:        endpoint,
		AccessKeyID:     accessKeyID,
		SecretAccessKey: secretAccessKey,
		UseSSL:          useSSL,
		Region:          c.ObjectStore.Region,
	}
	return c
}

// WithRegion sets the bucket region.
func (c Config) WithRegion(region string) Config {
	c.ObjectStore.Region = region
	return c
}

// WithMaxObjectSize sets the input size limit.
func (c Config) WithMaxObjectSize(n int64) Config {
	c.MaxObjectSize = n
	return c
}
