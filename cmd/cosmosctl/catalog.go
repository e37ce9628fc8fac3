package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aleph-Alpha/docstore/v1/cosmos"
)

func newDatabasesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "databases",
		Short: "List databases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			names, err := s.client.ListDatabases(cmd.Context())
			if err != nil {
				return err
			}
			return a.printNames(cmd, names)
		},
	}
}

func newContainersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "containers",
		Short: "List the containers of --database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			db, err := a.selectDatabase(cmd.Context(), s)
			if err != nil {
				return err
			}
			names, err := s.client.ListContainers(cmd.Context(), db)
			if err != nil {
				return err
			}
			return a.printNames(cmd, names)
		},
	}
}

func (a *app) printNames(cmd *cobra.Command, names []string) error {
	if a.jsonOutput {
		if names == nil {
			names = []string{}
		}
		return printJSON(cmd.OutOrStdout(), names)
	}
	for _, n := range names {
		fmt.Fprintln(cmd.OutOrStdout(), n)
	}
	return nil
}

func newCreateContainerCmd(a *app) *cobra.Command {
	var (
		pkPath     string
		throughput int
		manual     bool
		ttl        int
		vector     bool
		dimensions int
		distance   string
		indexType  string
		dataType   string
		embedding  string
	)

	cmd := &cobra.Command{
		Use:   "create-container NAME",
		Short: "Create a container, and its database, if missing",
		Long: `Create a container in --database. The database is created first when it
does not exist.

With --vector the container gets a vector embedding policy and a vector index
on --embedding-path; unknown distance functions, index types or data types
fall back to cosine, diskANN and float32.

Examples:
  cosmosctl create-container --database retail orders
  cosmosctl create-container --database search chunks --vector --dimensions 1536`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := a.open(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			dbName, err := a.databaseName(s)
			if err != nil {
				return err
			}
			if _, err := s.client.CreateDatabase(ctx, dbName, 0); err != nil {
				return err
			}
			db, err := s.client.SelectDatabase(ctx, dbName)
			if err != nil {
				return err
			}

			var created bool
			if vector {
				created, err = s.client.CreateVectorContainer(ctx, db, cosmos.VectorContainerSpec{
					Name:             args[0],
					PartitionKeyPath: pkPath,
					Throughput:       throughput,
					EmbeddingPath:    embedding,
					Dimensions:       dimensions,
					DistanceFunction: distance,
					IndexType:        indexType,
					DataType:         dataType,
				})
			} else {
				opts := []cosmos.ContainerOption{cosmos.WithAutoscale(!manual)}
				if pkPath != "" {
					opts = append(opts, cosmos.WithPartitionKeyPath(pkPath))
				}
				if throughput > 0 {
					opts = append(opts, cosmos.WithThroughput(throughput))
				}
				if ttl != 0 {
					opts = append(opts, cosmos.WithDefaultTTL(ttl))
				}
				created, err = s.client.CreateContainer(ctx, db, args[0], opts...)
			}
			if err != nil {
				return err
			}

			state := "exists"
			if created {
				state = "created"
			}
			if a.jsonOutput {
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"database":  dbName,
					"container": args[0],
					"created":   created,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s/%s %s\n", dbName, args[0], state)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&pkPath, "partition-key", "", "Partition key path (default /pk)")
	f.IntVar(&throughput, "throughput", 0, "Throughput in RU/s (default 4000 autoscale)")
	f.BoolVar(&manual, "manual", false, "Provision manual instead of autoscale throughput")
	f.IntVar(&ttl, "ttl", 0, "Default time to live in seconds, -1 for no expiry")
	f.BoolVar(&vector, "vector", false, "Create a vector container")
	f.IntVar(&dimensions, "dimensions", 0, "Vector dimensions (default 1536)")
	f.StringVar(&distance, "distance", "", "Distance function: "+strings.Join([]string{"cosine", "euclidean", "dotproduct"}, ", "))
	f.StringVar(&indexType, "index-type", "", "Vector index type: diskANN, quantizedFlat or flat")
	f.StringVar(&dataType, "data-type", "", "Vector data type: float32, uint8 or int8")
	f.StringVar(&embedding, "embedding-path", "", "Vector embedding path (default /embedding)")
	return cmd
}
