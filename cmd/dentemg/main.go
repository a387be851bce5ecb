// dentemg is the command-line client for the DentEMG-Intelligence API server.
package main

import (
	"os"

	"github.com/turtacn/DentEMG-Intelligence/internal/interfaces/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
