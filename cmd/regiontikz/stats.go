package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"regiontikz/cmd/regiontikz/ui"
	"regiontikz/internal/batch"
)

var (
	statsLedger string
	statsRuns   int
)

func runStats(cmd *cobra.Command, args []string) error {
	led, err := batch.OpenLedger(statsLedger)
	if err != nil {
		return err
	}
	defer led.Close()

	sum, err := led.Summarize()
	if err != nil {
		return err
	}
	runs, err := led.RecentRuns(statsRuns)
	if err != nil {
		return err
	}

	s := ui.DefaultStyles()
	fmt.Println(s.Title.Render("Conversion ledger"))
	fmt.Printf("%s %d\n", s.Bold.Render("Conversions:"), sum.Conversions)
	fmt.Printf("%s %d\n", s.Bold.Render("Failures:"), sum.Failures)
	fmt.Printf("%s %d\n", s.Bold.Render("Regions drawn:"), sum.Regions)
	if sum.Conversions > 0 {
		fmt.Printf("%s %s\n", s.Bold.Render("Avg duration:"), sum.AvgDuration.Round(time.Millisecond))
	}
	if !sum.LastRun.IsZero() {
		fmt.Printf("%s %s\n", s.Bold.Render("Last activity:"), sum.LastRun.Format(time.RFC3339))
	}

	if len(runs) > 0 {
		fmt.Println()
		table := ui.NewTable("Recent runs", "Run", "Converted", "Failed", "Regions", "Started")
		table.AlignRight(1, 2, 3)
		for _, r := range runs {
			id := r.RunID
			if len(id) > 8 {
				id = id[:8]
			}
			table.AddRow(id,
				strconv.FormatInt(r.Converted, 10),
				strconv.FormatInt(r.Failed, 10),
				strconv.FormatInt(r.Regions, 10),
				r.StartedAt.Format("2006-01-02 15:04:05"))
		}
		fmt.Print(table.View(s))
	}
	return nil
}
