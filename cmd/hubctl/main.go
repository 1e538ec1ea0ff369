// Command hubctl is the operator entrypoint for the reactive store: it runs
// the scenario demonstrations, benchmarks property notification throughput,
// and dumps store contents for inspection.
package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "hubctl",
		Usage: "Inspect and benchmark the KVO/store reactive substrate",
		Commands: []*cli.Command{
			demoCommand(),
			benchCommand(),
			inspectCommand(),
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
