package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/cashflow-engine/calendar"
	"github.com/warp/cashflow-engine/cashflow"
)

func TestParseMoney(t *testing.T) {
	tests := map[string]cashflow.Cents{
		"400":       40000,
		"$1,299.95": 129995,
		"19.9":      1990,
		"0.01":      1,
		"12.50":     1250,
	}
	for in, want := range tests {
		got, err := ParseMoney(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "abc", "1.234"} {
		_, err := ParseMoney(bad)
		assert.Error(t, err, bad)
	}
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "Mon 10 Mar 2025", FormatDate(calendar.New(2025, time.March, 10)))
	assert.Equal(t, "1 day", FormatDays(1))
	assert.Equal(t, "3 days", FormatDays(3))
}

func TestRenderTable_ContainsCells(t *testing.T) {
	out := RenderTable(Table{
		Title:   "Upcoming",
		Headers: []string{"Date", "Amount"},
		Rows: [][]string{
			{"Rent", "$500.00"},
			{"---"},
			{"TOTAL", "$500.00"},
		},
	})

	assert.Contains(t, out, "Upcoming")
	assert.Contains(t, out, "Rent")
	assert.Contains(t, out, "TOTAL")
	assert.Equal(t, 8, strings.Count(out, "\n"))
}

func TestRenderTable_Empty(t *testing.T) {
	assert.Empty(t, RenderTable(Table{}))
}

func TestRenderSparkline(t *testing.T) {
	days := []cashflow.DailyBalance{{Balance: 0}, {Balance: 700}, {Balance: 350}, {Balance: -100}}
	spark := []rune(RenderSparkline(days))

	require.Len(t, spark, 4)
	assert.Equal(t, '█', spark[1])
	assert.Equal(t, '▁', spark[3])

	flat := RenderSparkline([]cashflow.DailyBalance{{Balance: 5}, {Balance: 5}})
	assert.Equal(t, "▁▁", flat)
	assert.Empty(t, RenderSparkline(nil))
}

func TestDescribe(t *testing.T) {
	events := []cashflow.CashEvent{{Description: "Salary"}, {Description: "Rent"}}
	assert.Equal(t, "Salary, Rent", Describe(events))
}
