package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/warp/cashflow-engine/cli"
	"github.com/warp/cashflow-engine/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration and provider rules",
	RunE:  runConfig,
}

var flagInit bool

func init() {
	configCmd.Flags().BoolVar(&flagInit, "init", false, "Write the current settings to the config file")
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	path := flagConfig
	if path == "" {
		path = config.ConfigPath()
	}
	rules, err := cfg.Rules()
	if err != nil {
		return err
	}

	if flagInit {
		// cfg has CLI-only overrides applied; save what the file and env say.
		onDisk, err := config.Load(flagConfig)
		if err != nil {
			return err
		}
		if err := config.Save(path, onDisk); err != nil {
			return err
		}
		fmt.Printf("  Wrote %s\n", path)
	}

	fmt.Println()
	fmt.Printf("  Config file: %s\n", path)
	fmt.Println()
	fmt.Print(cli.RenderKeyValues([][2]string{
		{"Projection weeks", strconv.Itoa(cfg.Engine.ProjectionWeeks)},
		{"Upcoming days", strconv.Itoa(cfg.Engine.UpcomingDays)},
		{"Log level", cfg.Log.Level},
	}))
	fmt.Println()

	rows := [][]string{}
	for _, id := range rules.Providers() {
		r := rules[id]
		schedule := string(r.Frequency)
		if r.Instalments > 0 {
			schedule = fmt.Sprintf("%d x %s", r.Instalments, r.Frequency)
		}
		rows = append(rows, []string{
			r.DisplayName,
			string(r.Plan),
			schedule,
			r.MinAmount.String() + " - " + r.MaxAmount.String(),
			r.MonthlyFee.String(),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "BNPL providers",
		Headers: []string{"Provider", "Plan", "Schedule", "Range", "Monthly fee"},
		Rows:    rows,
	}))
	fmt.Println()
	return nil
}
