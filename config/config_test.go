package config_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/cashflow-engine/calendar"
	"github.com/warp/cashflow-engine/cashflow"
	"github.com/warp/cashflow-engine/config"
	"github.com/warp/cashflow-engine/strategy"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PORT", "DB_PATH", "LOG_LEVEL", "LOG_FORMAT", "CASHFLOW_CONFIG"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
[server]
port = "9000"
db_path = "/tmp/households.db"

[log]
level = "debug"
format = "text"

[engine]
projection_weeks = 12
`)
	t.Setenv("PORT", "9100")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, "/tmp/households.db", cfg.Server.DBPath)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 12, cfg.Engine.ProjectionWeeks)
	assert.Equal(t, cashflow.DefaultUpcomingDays, cfg.Engine.UpcomingDays)
}

func TestLoad_ConfigPathFromEnv(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "[server]\nport = \"7000\"\n")
	t.Setenv("CASHFLOW_CONFIG", path)

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.Server.Port)
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)

	_, err := config.Load(writeConfig(t, "[engine]\nprojection_weeks = 0\n"))
	assert.ErrorContains(t, err, "projection_weeks")

	_, err = config.Load(writeConfig(t, "[log]\nlevel = \"loud\"\n"))
	assert.ErrorContains(t, err, "log.level")

	_, err = config.Load(writeConfig(t, "not toml at all ["))
	assert.ErrorContains(t, err, "parsing config")
}

func TestSave_RoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := config.DefaultConfig()
	cfg.Scheduler.Enabled = true
	require.NoError(t, config.Save(path, cfg))

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestRules_OverridesApply(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
[providers.zip_pay]
monthly_fee = 0
max_amount = 150000
repayment_percent = 5.0

[providers.klarna]
display_name = "Klarna"
plan = "equal_instalments"
instalments = 4
frequency = "fortnightly"
first_payment_today = true
min_amount = 3500
max_amount = 150000
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	rules, err := cfg.Rules()
	require.NoError(t, err)

	zip := rules[strategy.ZipPay]
	assert.Equal(t, cashflow.Cents(0), zip.MonthlyFee)
	assert.Equal(t, cashflow.Cents(150000), zip.MaxAmount)
	assert.True(t, decimal.NewFromInt(5).Equal(zip.RepaymentPercent))
	assert.Equal(t, cashflow.Dollars(40), zip.MinimumRepayment)

	klarna, ok := rules.Lookup("klarna")
	require.True(t, ok)
	assert.Equal(t, strategy.PlanEqualInstalments, klarna.Plan)
	assert.Equal(t, calendar.Fortnightly, klarna.Frequency)
	assert.Equal(t, 4, klarna.Instalments)

	// Untouched providers keep their defaults
	assert.Equal(t, strategy.DefaultRules()[strategy.Afterpay], rules[strategy.Afterpay])
}

func TestRules_RejectsBadOverrides(t *testing.T) {
	tests := map[string]config.ProviderOverride{
		"unknown provider": {},
		"bad frequency":    {Plan: ptr("equal_instalments"), Frequency: ptr("daily")},
		"bad plan":         {Plan: ptr("pay_never")},
	}
	for name, o := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Providers = map[string]config.ProviderOverride{"klarna": o}
			_, err := cfg.Rules()
			assert.Error(t, err)
		})
	}

	cfg := config.DefaultConfig()
	cfg.Providers = map[string]config.ProviderOverride{"klarna": {}}
	_, err := cfg.Rules()
	assert.ErrorIs(t, err, config.ErrUnknownProvider)
}

func TestRules_RejectsPlansThatCannotSchedule(t *testing.T) {
	tests := map[string]config.ProviderOverride{
		"instalments without count": {Plan: ptr("equal_instalments"), MaxAmount: ptr(int64(100000))},
		"interest without count":    {Plan: ptr("interest_bearing"), MaxAmount: ptr(int64(100000))},
		"percent without months":    {Plan: ptr("percent_of_balance"), RepaymentPercent: ptr(3.0)},
		"percent without repayment": {Plan: ptr("percent_of_balance"), MaxMonths: ptr(12)},
	}
	for name, o := range tests {
		t.Run(name, func(t *testing.T) {
			// GIVEN: a custom provider missing what its plan needs
			cfg := config.DefaultConfig()
			cfg.Providers = map[string]config.ProviderOverride{"klarna": o}

			// WHEN
			_, err := cfg.Rules()

			// THEN
			assert.ErrorIs(t, err, config.ErrIncompletePlan)
		})
	}

	// Switching a built-in provider's plan is checked too
	cfg := config.DefaultConfig()
	cfg.Providers = map[string]config.ProviderOverride{strategy.ZipPay: {Plan: ptr("equal_instalments")}}
	_, err := cfg.Rules()
	assert.ErrorIs(t, err, config.ErrIncompletePlan)
}

func TestNewLogger(t *testing.T) {
	logger := config.LogConfig{Level: "warn", Format: "json"}.NewLogger()
	assert.Equal(t, logrus.WarnLevel, logger.Level)
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	var buf bytes.Buffer
	text := config.LogConfig{Level: "nonsense", Format: "text"}.NewLogger()
	text.SetOutput(&buf)
	assert.Equal(t, logrus.InfoLevel, text.Level)
	text.Info("hello")
	assert.Contains(t, buf.String(), "hello")
}

func ptr[T any](v T) *T { return &v }
