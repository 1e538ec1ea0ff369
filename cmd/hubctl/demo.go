package main

import (
	"context"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"

	"github.com/delaneyj/hub/internal/demo"
)

func demoCommand() *cli.Command {
	return &cli.Command{
		Name:  "demo",
		Usage: "Run the end-to-end scenarios and print a pass/fail table",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "path to a hubctl YAML config"},
		},
		Action: runDemo,
	}
}

func runDemo(ctx context.Context, cmd *cli.Command) error {
	if _, err := loadConfig(cmd.String("config")); err != nil {
		return err
	}

	results := demo.RunAll()

	tbl := table.NewWriter()
	tbl.SetTitle("Scenario Results")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"scenario", "passed", "detail"})

	failures := 0
	for _, r := range results {
		tbl.AppendRow(table.Row{r.Name, r.Passed, r.Detail})
		if !r.Passed {
			failures++
		}
	}
	tbl.Render()

	if failures > 0 {
		return cli.Exit("hubctl: one or more scenarios failed", 1)
	}
	return nil
}
