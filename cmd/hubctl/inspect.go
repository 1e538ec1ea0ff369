package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"

	"github.com/delaneyj/hub/fixtures"
	"github.com/delaneyj/hub/store"
)

const (
	inspectFixtureKey = "fixture"
)

func inspectCommand() *cli.Command {
	return &cli.Command{
		Name:  "inspect",
		Usage: "Load a fixture file into a store and dump its contents",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "path to a hubctl YAML config"},
			&cli.StringFlag{Name: inspectFixtureKey, Usage: "path to a JSON fixture file (overrides config fixture_path)"},
		},
		Action: runInspect,
	}
}

func runInspect(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	fixturePath := cmd.String(inspectFixtureKey)
	if fixturePath == "" {
		fixturePath = cfg.FixturePath
	}
	if fixturePath == "" {
		return cli.Exit("hubctl: no fixture path given (pass --fixture or set fixture_path in --config)", 1)
	}

	raw, err := os.ReadFile(fixturePath)
	if err != nil {
		return fmt.Errorf("hubctl: read fixture: %w", err)
	}

	registry := store.NewTypeRegistry()
	for _, t := range fixtureTypes(raw) {
		registry.Register(t, nil, nil)
	}

	s := store.New(registry, nil)
	sks, err := fixtures.Load(s, raw)
	if err != nil {
		return err
	}

	tbl := tablewriter.NewWriter(os.Stdout)
	tbl.SetHeader([]string{"storeKey", "recordType", "status", "attributes"})
	for _, sk := range sks {
		recordType, _ := s.RecordTypeForStoreKey(sk)
		status := s.ReadStatus(sk)
		hash, _ := s.ReadDataHash(sk)
		tbl.Append([]string{
			fmt.Sprint(int64(sk)),
			recordType,
			status.String(),
			fmt.Sprint(hash),
		})
	}
	tbl.Render()
	return nil
}

// fixtureTypes returns the distinct record types present in raw, in
// first-seen order, so inspect can register a schema-less default factory
// per type before loading. Malformed input is left for fixtures.Load to
// report; a decode failure here just yields no types.
func fixtureTypes(raw []byte) []string {
	var records []fixtures.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil
	}
	seen := make(map[string]bool)
	var types []string
	for _, r := range records {
		if !seen[r.Type] {
			seen[r.Type] = true
			types = append(types, r.Type)
		}
	}
	return types
}
