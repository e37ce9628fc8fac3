package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Aleph-Alpha/docstore/v1/cosmos"
)

func newBulkLoadCmd(a *app) *cobra.Command {
	var (
		pkAttr      string
		concurrency int
		rateLimit   float64
	)

	cmd := &cobra.Command{
		Use:   "bulk-load LOCATION",
		Short: "Upsert a JSON array of documents into --container",
		Long: `Upsert every document of a JSON array into --container.

LOCATION is a local path or s3://bucket/key (requires --s3-endpoint). Documents
without an id get a generated one. The partition key is read from --pk-attr,
defaulting to the container's partition key path.

Examples:
  cosmosctl bulk-load --database retail --container orders orders.json
  cosmosctl bulk-load --s3-endpoint minio:9000 --database retail --container orders s3://imports/orders.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := a.open(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			scope, err := a.selectContainer(ctx, s)
			if err != nil {
				return err
			}
			ld, err := a.loader(s)
			if err != nil {
				return err
			}
			docs, err := ld.LoadDocuments(ctx, args[0])
			if err != nil {
				return err
			}

			var opts []cosmos.BulkOption
			if concurrency > 0 {
				opts = append(opts, cosmos.WithConcurrency(concurrency))
			}
			if rateLimit > 0 {
				opts = append(opts, cosmos.WithRateLimit(rateLimit))
			}
			summary := s.client.BulkUpsert(ctx, scope, docs, pkAttr, opts...)
			if err := a.printSummary(cmd, summary); err != nil {
				return err
			}
			if summary.Outcome() != cosmos.Succeeded {
				return fmt.Errorf("bulk load %s: %d of %d documents failed", summary.Outcome(), summary.Failed+summary.Canceled, len(docs))
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&pkAttr, "pk-attr", "", "Document attribute holding the partition key")
	f.IntVar(&concurrency, "concurrency", 0, "Maximum in-flight requests")
	f.Float64Var(&rateLimit, "rate-limit", 0, "Maximum requests per second, 0 for unlimited")
	return cmd
}

func (a *app) printSummary(cmd *cobra.Command, s cosmos.BulkSummary) error {
	out := cmd.OutOrStdout()
	if a.jsonOutput {
		failures := make([]map[string]interface{}, 0, s.Failed)
		for _, r := range s.Failures() {
			failures = append(failures, map[string]interface{}{
				"index": r.Index,
				"id":    r.ID,
				"error": r.Err.Error(),
			})
		}
		return printJSON(out, map[string]interface{}{
			"outcome":        s.Outcome().String(),
			"succeeded":      s.Succeeded,
			"failed":         s.Failed,
			"canceled":       s.Canceled,
			"request_charge": s.RequestCharge,
			"failures":       failures,
		})
	}

	fmt.Fprintf(out, "%s: %d succeeded, %d failed, %d canceled, %.2f RU\n",
		s.Outcome(), s.Succeeded, s.Failed, s.Canceled, s.RequestCharge)
	if len(s.Failures()) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tID\tERROR")
	for _, r := range s.Failures() {
		fmt.Fprintf(tw, "%d\t%s\t%v\n", r.Index, r.ID, r.Err)
	}
	return tw.Flush()
}

func newQueryCmd(a *app) *cobra.Command {
	var (
		pk       string
		pageSize int
		params   []string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "query SQL",
		Short: "Run a SQL query against --container and print the documents",
		Long: `Run a SQL query and print one JSON document per line.

Parameters are passed as --param @name=value; value is parsed as JSON and
taken as a plain string when that fails.

Examples:
  cosmosctl query --container orders "SELECT * FROM c WHERE c.status = @s" --param @s=open
  cosmosctl query --container orders --partition-key A "SELECT * FROM c"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			qp, err := parseParams(params)
			if err != nil {
				return err
			}

			s, err := a.open(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			scope, err := a.selectContainer(ctx, s)
			if err != nil {
				return err
			}

			opts := []cosmos.QueryOption{cosmos.WithParameters(qp...)}
			if pk != "" {
				opts = append(opts, cosmos.WithPartitionKey(pk))
			}
			if pageSize > 0 {
				opts = append(opts, cosmos.WithPageSize(pageSize))
			}

			n := 0
			for doc, err := range s.client.Query(ctx, scope, args[0], opts...).All() {
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), doc.String())
				n++
				if limit > 0 && n >= limit {
					break
				}
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&pk, "partition-key", "", "Restrict the query to one partition")
	f.IntVar(&pageSize, "page-size", 0, "Page size hint")
	f.StringArrayVar(&params, "param", nil, "Query parameter as @name=value (repeatable)")
	f.IntVar(&limit, "limit", 0, "Stop after this many documents")
	return cmd
}

// parseParams turns "@name=value" pairs into query parameters.
func parseParams(raw []string) ([]cosmos.QueryParameter, error) {
	out := make([]cosmos.QueryParameter, 0, len(raw))
	for _, p := range raw {
		name, value, ok := strings.Cut(p, "=")
		if !ok || !strings.HasPrefix(name, "@") || len(name) < 2 {
			return nil, fmt.Errorf("parameter %q must look like @name=value", p)
		}
		var v interface{}
		if err := json.Unmarshal([]byte(value), &v); err != nil {
			v = value
		}
		out = append(out, cosmos.QueryParameter{Name: name, Value: v})
	}
	return out, nil
}

func newCountCmd(a *app) *cobra.Command {
	var pk string

	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count the documents of --container",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := a.open(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			scope, err := a.selectContainer(ctx, s)
			if err != nil {
				return err
			}
			var opts []cosmos.QueryOption
			if pk != "" {
				opts = append(opts, cosmos.WithPartitionKey(pk))
			}
			n, err := s.client.CountDocuments(ctx, scope, opts...)
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{"container": scope.String(), "count": n})
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
	cmd.Flags().StringVar(&pk, "partition-key", "", "Count only one partition")
	return cmd
}
