// The sarscope binary is the command line interface for local bioactivity
// analysis and ChEMBL fetching.
package main

import (
	"os"

	"github.com/moleculab/sarscope/internal/interfaces/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
