package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"

	"github.com/delaneyj/hub/kvo"
)

const (
	benchIterationsKey = "iterations"
)

func benchCommand() *cli.Command {
	return &cli.Command{
		Name:  "bench",
		Usage: "Time property-set fan-out across a growing number of observers",
		Flags: []cli.Flag{
			&cli.UintFlag{Name: benchIterationsKey, Usage: "Set calls timed per width", Value: 2000},
		},
		Action: runBench,
	}
}

type benchSubject struct {
	kvo.Base
}

func (s *benchSubject) Notify(source kvo.Object, key string, method kvo.MethodID, context any, revision uint64) {
}

type benchSink struct {
	kvo.Base
	calls int
}

func (s *benchSink) Notify(source kvo.Object, key string, method kvo.MethodID, context any, revision uint64) {
	s.calls++
}

// runBench measures how Set's observer fan-out scales with the number of
// observers registered on a single key, the way cmd/benchmark measured
// propagate cost across signal graph width.
func runBench(ctx context.Context, cmd *cli.Command) error {
	iterations := int(cmd.Uint(benchIterationsKey))
	widths := []int{1, 10, 100, 1000}

	tbl := table.NewWriter()
	tbl.SetTitle("Observer Fan-out")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"observers", "iterations", "avg", "min", "p75", "p99", "max"})

	for _, width := range widths {
		subject := &benchSubject{}
		subject.Init(subject, nil)

		for i := 0; i < width; i++ {
			sink := &benchSink{}
			sink.Init(sink, nil)
			method := kvo.MethodID(fmt.Sprintf("onValue%d", i))
			if err := subject.AddObserver("value", sink, method, nil); err != nil {
				return fmt.Errorf("hubctl: bench setup: %w", err)
			}
		}

		tach := tachymeter.New(&tachymeter.Config{Size: iterations})
		for i := 0; i < iterations; i++ {
			start := time.Now()
			if err := subject.Set("value", i); err != nil {
				return fmt.Errorf("hubctl: bench set: %w", err)
			}
			tach.AddTime(time.Since(start))
		}

		calc := tach.Calc()
		tbl.AppendRow(table.Row{
			humanize.Comma(int64(width)),
			humanize.Comma(int64(iterations)),
			calc.Time.Avg,
			calc.Time.Min,
			calc.Time.P75,
			calc.Time.P99,
			calc.Time.Max,
		})
	}

	tbl.Render()
	return nil
}
