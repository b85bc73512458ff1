package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/warp/cashflow-engine/cli"
	"github.com/warp/cashflow-engine/strategy"
)

var (
	flagPrice       string
	flagDescription string
	flagSchedules   bool
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Rank ways to pay for a purchase",
	Example: `  cashflow compare -f snapshot.json --price 400
  cashflow compare -f snapshot.json --price '$3,000' --schedules`,
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().StringVarP(&flagPrice, "price", "p", "", "Purchase price in dollars, e.g. 399.95")
	compareCmd.Flags().StringVar(&flagDescription, "description", "", "What is being bought")
	compareCmd.Flags().BoolVar(&flagSchedules, "schedules", false, "Show every available payment schedule")
	rootCmd.AddCommand(compareCmd)
}

func runCompare(_ *cobra.Command, _ []string) error {
	if flagPrice == "" {
		return errors.New("--price is required")
	}
	price, err := cli.ParseMoney(flagPrice)
	if err != nil {
		return err
	}
	if price <= 0 {
		return fmt.Errorf("--price must be positive, got %s", price)
	}

	snap, err := loadSnapshot()
	if err != nil {
		return err
	}
	from, err := today()
	if err != nil {
		return err
	}
	rules, err := cfg.Rules()
	if err != nil {
		return err
	}

	ranked := strategy.Compare(strategy.Request{
		Price:           price,
		Description:     flagDescription,
		Today:           from,
		Snapshot:        snap,
		ProjectionWeeks: cfg.Engine.ProjectionWeeks,
	}, rules)
	if flagJSON {
		return printJSON(ranked)
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("PAYING FOR " + price.String()))
	fmt.Println()

	rows := make([][]string, 0, len(ranked))
	for _, s := range ranked {
		if !s.Available {
			continue
		}
		revolving := ""
		if s.StillRevolving {
			revolving = s.RemainingAfterCap.String() + " left"
		}
		rows = append(rows, []string{
			s.Label,
			strconv.Itoa(s.Score),
			s.TotalCost.String(),
			s.TotalFeesOrInterest.String(),
			strconv.Itoa(s.NumberOfPayments()),
			cli.Money(s.MinimumProjectedBalance),
			revolving,
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Available",
		Headers: []string{"Strategy", "Score", "Total", "Fees", "Payments", "Lowest balance", "Revolving"},
		Rows:    rows,
	}))
	fmt.Println()

	for _, s := range ranked {
		if !s.Available {
			fmt.Println(cli.Muted(fmt.Sprintf("  %s: %s", s.Label, s.UnavailableReason)))
		}
	}

	best, ok := strategy.Best(ranked)
	if !ok {
		fmt.Println()
		fmt.Println(cli.Warn("No way to pay for this purchase right now"))
		fmt.Println()
		return nil
	}

	for _, s := range ranked {
		if !s.Available || (!flagSchedules && s.Label != best.Label) {
			continue
		}
		fmt.Println()
		printSchedule(s)
	}
	fmt.Println()
	return nil
}

func printSchedule(s strategy.PaymentStrategy) {
	rows := make([][]string, len(s.Schedule))
	for i, p := range s.Schedule {
		rows[i] = []string{cli.FormatDate(p.Date), p.Label, p.Amount.String()}
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   s.Label,
		Headers: []string{"Date", "Payment", "Amount"},
		Rows:    rows,
	}))
}
