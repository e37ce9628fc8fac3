package cosmos

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// azureEnvKeys maps the variable names used by the Azure samples onto
// Config keys.
var azureEnvKeys = map[string]string{
	"AZURE_COSMOSDB_NOSQL_URI":               "endpoint",
	"AZURE_COSMOSDB_NOSQL_KEY":               "key",
	"AZURE_COSMOSDB_NOSQL_CONN_STR":          "connection_string",
	"AZURE_COSMOSDB_NOSQL_AUTHTYPE":          "auth_mode",
	"AZURE_COSMOSDB_NOSQL_DEFAULT_DB":        "default_database",
	"AZURE_COSMOSDB_NOSQL_DEFAULT_CONTAINER": "default_container",
}

// LoadConfig builds a Config from defaults, an optional YAML file and the
// environment, in increasing order of precedence.
//
// Environment variables are COSMOS_<KEY>, e.g. COSMOS_ENDPOINT,
// COSMOS_REQUEST_TIMEOUT=10s or COSMOS_PREFERRED_REGIONS="West Europe,North Europe".
// The AZURE_COSMOSDB_NOSQL_* names (URI, KEY, CONN_STR, AUTHTYPE, DEFAULT_DB,
// DEFAULT_CONTAINER) are honoured too, with COSMOS_* taking precedence.
// Auth mode spellings such as "managed_identity" or "rbac" are normalised to
// the AuthMode constants.
//
// A missing file is not an error when path is empty.
func LoadConfig(path string) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("AZURE_COSMOSDB_NOSQL_", ".", func(s string) string {
		return azureEnvKeys[s]
	}), nil); err != nil {
		return Config{}, fmt.Errorf("loading azure environment: %w", err)
	}

	if err := k.Load(env.Provider("COSMOS_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "COSMOS_"))
	}), nil); err != nil {
		return Config{}, fmt.Errorf("loading environment: %w", err)
	}

	cfg := DefaultConfig()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	cfg.AuthMode = normalizeAuthMode(cfg.AuthMode)
	return cfg, nil
}

func normalizeAuthMode(m AuthMode) AuthMode {
	switch strings.ToLower(strings.ReplaceAll(string(m), "_", "-")) {
	case "", "key":
		return AuthKey
	case "managed-identity", "rbac", "entra", "default-credential":
		return AuthManagedIdentity
	case "connection-string", "conn-str":
		return AuthConnectionString
	default:
		return m
	}
}
