// Command sercha-rag ingests documents into a knowledge graph and answers
// queries against it from the command line or over MCP.
package main

import (
	"os"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/cli"
)

// version is set by the build: -ldflags "-X main.version=v1.2.3".
var version = "dev"

func main() {
	cli.SetVersion(version)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
