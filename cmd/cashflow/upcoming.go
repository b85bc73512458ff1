package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/warp/cashflow-engine/cashflow"
	"github.com/warp/cashflow-engine/cli"
)

var flagDays int

var upcomingCmd = &cobra.Command{
	Use:   "upcoming",
	Short: "List payments leaving the account soon",
	RunE:  runUpcoming,
}

func init() {
	upcomingCmd.Flags().IntVarP(&flagDays, "days", "n", 0, "Days ahead (default: from config)")
	rootCmd.AddCommand(upcomingCmd)
}

func runUpcoming(_ *cobra.Command, _ []string) error {
	snap, err := loadSnapshot()
	if err != nil {
		return err
	}
	from, err := today()
	if err != nil {
		return err
	}
	days := flagDays
	if days <= 0 {
		days = cfg.Engine.UpcomingDays
	}

	payments := cashflow.UpcomingPayments(snap, from, days)
	if flagJSON {
		return printJSON(payments)
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("UPCOMING  next " + cli.FormatDays(days)))
	fmt.Println()

	if len(payments) == 0 {
		fmt.Println("  Nothing due.")
		fmt.Println()
		return nil
	}

	var total cashflow.Cents
	rows := make([][]string, 0, len(payments)+2)
	for _, p := range payments {
		total += p.Amount
		rows = append(rows, []string{cli.FormatDate(p.Date), p.Label, string(p.Kind), p.Amount.String()})
	}
	rows = append(rows, []string{"---"}, []string{"TOTAL", "", "", total.String()})
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Date", "Payment", "Kind", "Amount"},
		Rows:    rows,
	}))
	fmt.Println()
	return nil
}
