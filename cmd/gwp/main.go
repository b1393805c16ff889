// Command gwp replays insurance contract event logs into monthly gross
// written premium reports.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/roach88/gwp/internal/cli"
)

func main() {
	// A .env file in the working directory seeds GWP_* settings
	_ = godotenv.Load()

	if err := cli.NewRootCommand().Execute(); err != nil {
		if !cli.IsReported(err) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
