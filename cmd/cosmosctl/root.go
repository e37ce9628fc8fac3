package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Aleph-Alpha/docstore/v1/cosmos"
	"github.com/Aleph-Alpha/docstore/v1/loader"
	"github.com/Aleph-Alpha/docstore/v1/logger"
)

// app carries the global flags and the collaborators shared by every
// command.
type app struct {
	configPath string
	database   string
	container  string
	logLevel   string
	jsonOutput bool

	s3Endpoint  string
	s3AccessKey string
	s3SecretKey string
	s3UseSSL    bool

	// transport replaces the Azure transport; set by tests.
	transport cosmos.Transport
}

func newApp() *app {
	return &app{logLevel: logger.Warning}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "cosmosctl",
		Short: "Manage Cosmos DB databases, containers and documents",
		Long: `cosmosctl runs catalog, bulk load, query and indexing policy operations
against an Azure Cosmos DB NoSQL account.

Connection settings come from --config and the COSMOS_* / AZURE_COSMOSDB_NOSQL_*
environment variables.

Examples:
  # List databases
  cosmosctl databases

  # Create a container partitioned on /tenantId
  cosmosctl create-container --database retail orders --partition-key /tenantId

  # Load documents from a bucket
  cosmosctl bulk-load --database retail --container orders s3://imports/orders.json`,
		Version:       version,
		SilenceUsage:  true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "YAML configuration file")
	flags.StringVar(&a.database, "database", "", "Database name (defaults to default_database)")
	flags.StringVar(&a.container, "container", "", "Container name (defaults to default_container)")
	flags.StringVar(&a.logLevel, "log-level", a.logLevel, "Log level: debug, info, warning or error")
	flags.BoolVar(&a.jsonOutput, "json", false, "Print results as JSON")
	flags.StringVar(&a.s3Endpoint, "s3-endpoint", "", "S3-compatible endpoint for s3:// inputs")
	flags.StringVar(&a.s3AccessKey, "s3-access-key", "", "Access key for --s3-endpoint")
	flags.StringVar(&a.s3SecretKey, "s3-secret-key", "", "Secret key for --s3-endpoint")
	flags.BoolVar(&a.s3UseSSL, "s3-ssl", true, "Use TLS for --s3-endpoint")

	root.AddCommand(
		newDatabasesCmd(a),
		newContainersCmd(a),
		newCreateContainerCmd(a),
		newBulkLoadCmd(a),
		newInstallIndexPolicyCmd(a),
		newQueryCmd(a),
		newCountCmd(a),
	)
	return root
}

func (a *app) logger() *logger.LoggerClient {
	return logger.NewLoggerClient(logger.Config{Level: a.logLevel, ServiceName: "cosmosctl"})
}

// session is an open client plus the effective configuration.
type session struct {
	client *cosmos.Client
	cfg    cosmos.Config
	log    *logger.LoggerClient
}

func (a *app) open(ctx context.Context) (*session, error) {
	cfg, err := cosmos.LoadConfig(a.configPath)
	if err != nil {
		return nil, err
	}
	log := a.logger()

	opts := []cosmos.Option{cosmos.WithLogger(log)}
	if a.transport != nil {
		opts = append(opts, cosmos.WithTransport(a.transport))
	}
	client, err := cosmos.Open(ctx, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &session{client: client, cfg: cfg, log: log}, nil
}

func (s *session) Close() {
	_ = s.client.Close()
	_ = s.log.Sync()
}

func (a *app) databaseName(s *session) (string, error) {
	name := a.database
	if name == "" {
		name = s.cfg.DefaultDatabase
	}
	if name == "" {
		return "", fmt.Errorf("no database: pass --database or set COSMOS_DEFAULT_DATABASE")
	}
	return name, nil
}

func (a *app) containerName(s *session) (string, error) {
	name := a.container
	if name == "" {
		name = s.cfg.DefaultContainer
	}
	if name == "" {
		return "", fmt.Errorf("no container: pass --container or set COSMOS_DEFAULT_CONTAINER")
	}
	return name, nil
}

func (a *app) selectDatabase(ctx context.Context, s *session) (cosmos.DatabaseScope, error) {
	name, err := a.databaseName(s)
	if err != nil {
		return cosmos.DatabaseScope{}, err
	}
	return s.client.SelectDatabase(ctx, name)
}

func (a *app) selectContainer(ctx context.Context, s *session) (cosmos.ContainerScope, error) {
	db, err := a.selectDatabase(ctx, s)
	if err != nil {
		return cosmos.ContainerScope{}, err
	}
	name, err := a.containerName(s)
	if err != nil {
		return cosmos.ContainerScope{}, err
	}
	return s.client.SelectContainer(ctx, db, name)
}

func (a *app) loader(s *session) (*loader.Loader, error) {
	cfg := loader.DefaultConfig()
	if a.s3Endpoint != "" {
		cfg = cfg.WithObjectStore(a.s3Endpoint, a.s3AccessKey, a.s3SecretKey, a.s3UseSSL)
	}
	return loader.New(cfg, loader.WithLogger(s.log))
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
