package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aleph-Alpha/docstore/v1/cosmos"
)

func newInstallIndexPolicyCmd(a *app) *cobra.Command {
	var show bool

	cmd := &cobra.Command{
		Use:   "install-index-policy [LOCATION]",
		Short: "Replace the indexing policy of --container from a JSON file",
		Long: `Replace the indexing policy of --container with the one in LOCATION, a local
path or s3://bucket/key, and print the policy now in effect.

Vector indexes cannot change after a container is created. Leave
vectorIndexes out of the file to keep the current ones.

Examples:
  cosmosctl install-index-policy --database retail --container orders policy.json
  cosmosctl install-index-policy --database retail --container orders --show`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !show && len(args) == 0 {
				return fmt.Errorf("a policy location is required unless --show is set")
			}
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

			var policy cosmos.IndexPolicy
			if show {
				policy, err = s.client.GetIndexPolicy(ctx, scope)
			} else {
				policy, err = a.installPolicy(cmd, s, scope, args[0])
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), policy)
		},
	}
	cmd.Flags().BoolVar(&show, "show", false, "Print the current policy instead of replacing it")
	return cmd
}

func (a *app) installPolicy(cmd *cobra.Command, s *session, scope cosmos.ContainerScope, location string) (cosmos.IndexPolicy, error) {
	ld, err := a.loader(s)
	if err != nil {
		return cosmos.IndexPolicy{}, err
	}
	rc, err := ld.Open(cmd.Context(), location)
	if err != nil {
		return cosmos.IndexPolicy{}, err
	}
	defer rc.Close()
	return s.client.InstallIndexPolicy(cmd.Context(), scope, rc)
}
