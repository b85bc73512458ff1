// Command cashflow runs the projection engines against a snapshot file.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/warp/cashflow-engine/calendar"
	"github.com/warp/cashflow-engine/cashflow"
	"github.com/warp/cashflow-engine/config"
	"github.com/warp/cashflow-engine/factory"
)

var (
	flagFile     string
	flagToday    string
	flagConfig   string
	flagJSON     bool
	flagLogLevel string
)

var (
	cfg    config.Config
	logger *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "cashflow",
	Short: "Household cashflow projection and affordability",
	Long: `Project a household's bank balance, work out how much is safe to spend
before the next pay, and compare ways to pay for a purchase.

Snapshots are JSON files with integer cents and YYYY-MM-DD dates. Run
"cashflow scenario payday-soon > snapshot.json" for an example.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagFile, "file", "f", "", `Snapshot JSON file ("-" for stdin)`)
	rootCmd.PersistentFlags().StringVar(&flagToday, "today", "", "Date to project from, YYYY-MM-DD (default: today)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default: $CASHFLOW_CONFIG or XDG path)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Print JSON instead of tables")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (default: from config)")
}

func setup(_ *cobra.Command, _ []string) error {
	c, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	c.Log.Format = "text"
	if flagLogLevel != "" {
		c.Log.Level = flagLogLevel
	}

	cfg = c
	logger = cfg.Log.NewLogger()
	cfg.Log.ConfigureStandardLogger()
	return nil
}

// today returns --today or the current date.
func today() (calendar.Date, error) {
	if flagToday == "" {
		return calendar.Today(), nil
	}
	d, err := calendar.ParseDate(flagToday)
	if err != nil {
		return calendar.Date{}, fmt.Errorf("--today: %w", err)
	}
	return d, nil
}

// loadSnapshot reads and validates the --file snapshot.
func loadSnapshot() (cashflow.Snapshot, error) {
	if flagFile == "" {
		return cashflow.Snapshot{}, errors.New("--file is required")
	}

	var data []byte
	var err error
	if flagFile == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(flagFile)
	}
	if err != nil {
		return cashflow.Snapshot{}, fmt.Errorf("reading snapshot: %w", err)
	}

	snap, err := factory.ParseSnapshot(data)
	if err != nil {
		return cashflow.Snapshot{}, fmt.Errorf("%s: %w", flagFile, err)
	}
	logger.WithFields(logrus.Fields{
		"file":     flagFile,
		"incomes":  len(snap.Incomes),
		"expenses": len(snap.Expenses),
		"plans":    len(snap.BnplPlans),
		"cards":    len(snap.CreditCards),
	}).Debug("snapshot loaded")
	return snap, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
