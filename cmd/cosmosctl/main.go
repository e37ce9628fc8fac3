// Package main implements cosmosctl, a command-line tool for catalog, bulk
// load, query and indexing policy operations against a Cosmos DB account.
package main

import (
	"os"
)

var version = "dev"

func main() {
	if err := newRootCmd(newApp()).Execute(); err != nil {
		os.Exit(1)
	}
}
