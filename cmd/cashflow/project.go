package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/warp/cashflow-engine/cashflow"
	"github.com/warp/cashflow-engine/cli"
)

var (
	flagWeeks   int
	flagAllDays bool
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Project the daily balance for the next few weeks",
	RunE:  runProject,
}

func init() {
	projectCmd.Flags().IntVarP(&flagWeeks, "weeks", "w", 0, "Weeks to project (default: from config)")
	projectCmd.Flags().BoolVar(&flagAllDays, "all", false, "Show days without events")
	rootCmd.AddCommand(projectCmd)
}

func runProject(_ *cobra.Command, _ []string) error {
	snap, err := loadSnapshot()
	if err != nil {
		return err
	}
	from, err := today()
	if err != nil {
		return err
	}
	weeks := flagWeeks
	if weeks <= 0 {
		weeks = cfg.Engine.ProjectionWeeks
	}

	days := cashflow.Project(snap, from, weeks)
	if flagJSON {
		return printJSON(days)
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("PROJECTION  %d weeks from %s", weeks, from)))
	fmt.Println()

	rows := make([][]string, 0, len(days))
	for _, d := range days {
		if len(d.Events) == 0 && !flagAllDays {
			continue
		}
		var net cashflow.Cents
		for _, e := range d.Events {
			net += e.Amount
		}
		rows = append(rows, []string{cli.FormatDate(d.Date), cli.Describe(d.Events), cli.Signed(net), cli.Money(d.Balance)})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Date", "Events", "Net", "Balance"},
		Rows:    rows,
	}))
	fmt.Println()

	fmt.Printf("  %s\n\n", cli.RenderSparkline(days))
	fmt.Print(cli.RenderKeyValues([][2]string{
		{"Starting balance", cli.Money(snap.StartingBalance)},
		{"Lowest balance", cli.Money(cashflow.MinimumBalance(days))},
		{"Ending balance", cli.Money(cashflow.EndingBalance(days))},
	}))
	if neg, ok := cashflow.FirstNegative(days); ok {
		fmt.Println()
		fmt.Println(cli.Warn(fmt.Sprintf("Balance goes negative on %s (%s)", cli.FormatDate(neg.Date), neg.Balance)))
	}
	fmt.Println()
	return nil
}
