package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/warp/cashflow-engine/api"
	"github.com/warp/cashflow-engine/cli"
	"github.com/warp/cashflow-engine/factory"
)

var scenarioCmd = &cobra.Command{
	Use:   "scenario [id]",
	Short: "List demo scenarios or print one as a snapshot file",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runScenario,
}

func init() {
	rootCmd.AddCommand(scenarioCmd)
}

func runScenario(_ *cobra.Command, args []string) error {
	if len(args) == 0 {
		rows := [][]string{}
		for _, s := range api.Scenarios() {
			rows = append(rows, []string{s.ID, s.Description})
		}
		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Scenarios",
			Headers: []string{"ID", "Description"},
			Rows:    rows,
		}))
		fmt.Println()
		return nil
	}

	from, err := today()
	if err != nil {
		return err
	}
	households, err := api.ScenarioHouseholds(args[0], from)
	if err != nil {
		return err
	}
	return printJSON(factory.ToJSON(households[0].Snapshot))
}
