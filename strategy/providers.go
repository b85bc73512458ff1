/*
providers.go - BNPL provider rule tables

PURPOSE:
  Each buy-now-pay-later provider finances a purchase differently. The
  builder only needs to know the shape of the plan and its limits, so the
  providers are described as data rather than code.

PLAN SHAPES:
  PlanEqualInstalments:
    N equal payments at a fixed frequency, last one absorbs rounding.
    Afterpay, PayPal Pay in 4.

  PlanPercentOfBalance:
    Monthly repayments of max(floor amount, percent of what is still owed)
    until cleared or MaxMonths run out, plus a monthly account fee.
    Zip Pay.

  PlanInterestBearing:
    N equal monthly instalments; interest accrues on the remaining balance
    once the interest-free months are over and is tracked as a fee only.
    Zip Money.

DEFAULTS:
  Provider     Payments           Range              Fees
  afterpay     4 x fortnightly    $1 - $2,000        none
  paypal_pay4  4 x fortnightly    $30 - $2,000       none
  zip_pay      monthly, <= 24     $0.01 - $1,000     $9.95/month
  zip_money    12 x monthly       $1,000 - $30,000   $9.95/month, 25.9% p.a. after 6 months

  Rules can be overridden per provider from the config file.

SEE ALSO:
  - builder.go: Turns a rule into a payment schedule
  - config/config.go: Provider overrides
*/
package strategy

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/cashflow-engine/calendar"
	"github.com/warp/cashflow-engine/cashflow"
)

// Provider identifiers as they appear on BNPL accounts.
const (
	Afterpay   = "afterpay"
	ZipPay     = "zip_pay"
	ZipMoney   = "zip_money"
	PayPalPay4 = "paypal_pay4"
)

// PlanType is the shape of a provider's repayment plan.
type PlanType string

const (
	PlanEqualInstalments PlanType = "equal_instalments"
	PlanPercentOfBalance PlanType = "percent_of_balance"
	PlanInterestBearing  PlanType = "interest_bearing"
)

// ProviderRule describes how one provider finances a purchase.
type ProviderRule struct {
	Provider    string
	DisplayName string
	Plan        PlanType

	// Equal-instalment and interest-bearing plans
	Instalments       int
	Frequency         calendar.Frequency
	FirstPaymentToday bool

	// Purchase limits
	MinAmount cashflow.Cents
	MaxAmount cashflow.Cents

	// Fees
	MonthlyFee cashflow.Cents

	// Percent-of-balance plans
	MinimumRepayment cashflow.Cents
	RepaymentPercent decimal.Decimal
	MaxMonths        int

	// Interest-bearing plans
	InterestFreeMonths int
	AnnualRate         decimal.Decimal // percent per annum
}

// Rules is the provider rule table keyed by provider identifier.
type Rules map[string]ProviderRule

// DefaultRules returns the built-in provider table.
func DefaultRules() Rules {
	return Rules{
		Afterpay: {
			Provider:          Afterpay,
			DisplayName:       "Afterpay",
			Plan:              PlanEqualInstalments,
			Instalments:       4,
			Frequency:         calendar.Fortnightly,
			FirstPaymentToday: true,
			MinAmount:         100,
			MaxAmount:         cashflow.Dollars(2000),
		},
		PayPalPay4: {
			Provider:          PayPalPay4,
			DisplayName:       "PayPal Pay in 4",
			Plan:              PlanEqualInstalments,
			Instalments:       4,
			Frequency:         calendar.Fortnightly,
			FirstPaymentToday: true,
			MinAmount:         cashflow.Dollars(30),
			MaxAmount:         cashflow.Dollars(2000),
		},
		ZipPay: {
			Provider:         ZipPay,
			DisplayName:      "Zip Pay",
			Plan:             PlanPercentOfBalance,
			Frequency:        calendar.Monthly,
			MinAmount:        1,
			MaxAmount:        cashflow.Dollars(1000),
			MonthlyFee:       995,
			MinimumRepayment: cashflow.Dollars(40),
			RepaymentPercent: decimal.NewFromInt(3),
			MaxMonths:        24,
		},
		ZipMoney: {
			Provider:           ZipMoney,
			DisplayName:        "Zip Money",
			Plan:               PlanInterestBearing,
			Instalments:        12,
			Frequency:          calendar.Monthly,
			MinAmount:          cashflow.Dollars(1000),
			MaxAmount:          cashflow.Dollars(30000),
			MonthlyFee:         995,
			InterestFreeMonths: 6,
			AnnualRate:         decimal.RequireFromString("25.9"),
		},
	}
}

// Lookup returns the rule for provider.
func (r Rules) Lookup(provider string) (ProviderRule, bool) {
	rule, ok := r[provider]
	return rule, ok
}

// Providers returns the provider identifiers in sorted order.
func (r Rules) Providers() []string {
	ids := make([]string, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone returns a copy that can be modified without touching r.
func (r Rules) Clone() Rules {
	out := make(Rules, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
