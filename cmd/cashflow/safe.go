package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/warp/cashflow-engine/cashflow"
	"github.com/warp/cashflow-engine/cli"
)

var safeCmd = &cobra.Command{
	Use:     "safe",
	Aliases: []string{"safe-to-spend"},
	Short:   "How much can be spent before the next pay",
	RunE:    runSafe,
}

func init() {
	rootCmd.AddCommand(safeCmd)
}

func runSafe(_ *cobra.Command, _ []string) error {
	snap, err := loadSnapshot()
	if err != nil {
		return err
	}
	from, err := today()
	if err != nil {
		return err
	}

	sts := cashflow.ComputeSafeToSpend(snap, from)
	if flagJSON {
		return printJSON(sts)
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("SAFE TO SPEND  " + cli.Money(sts.Amount)))
	fmt.Println()

	payLabel := cli.FormatDate(sts.NextPayDate)
	if sts.PayDateEstimated {
		payLabel += cli.Muted("  (no income configured, assumed)")
	}
	fmt.Print(cli.RenderKeyValues([][2]string{
		{"Balance", cli.Money(sts.CurrentBalance)},
		{"Due before pay", cli.Money(sts.TotalObligations)},
		{"Next pay", payLabel},
		{"Days until pay", cli.FormatDays(sts.DaysUntilPay)},
	}))
	fmt.Println()

	if len(sts.UpcomingObligations) > 0 {
		rows := make([][]string, 0, len(sts.UpcomingObligations)+2)
		for _, o := range sts.UpcomingObligations {
			rows = append(rows, []string{cli.FormatDate(o.Date), o.Label, string(o.Kind), o.Amount.String()})
		}
		rows = append(rows, []string{"---"}, []string{"TOTAL", "", "", sts.TotalObligations.String()})
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Due before next pay",
			Headers: []string{"Date", "Payment", "Kind", "Amount"},
			Rows:    rows,
		}))
		fmt.Println()
	}

	if sts.IsOvercommitted() {
		fmt.Println(cli.Warn(fmt.Sprintf("Obligations exceed the balance by %s", (-sts.Amount).String())))
		fmt.Println()
	}
	return nil
}
