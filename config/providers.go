package config

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/cashflow-engine/calendar"
	"github.com/warp/cashflow-engine/cashflow"
	"github.com/warp/cashflow-engine/strategy"
)

// ErrUnknownProvider is returned for an override of a provider that has no
// built-in rule and does not declare a plan.
var ErrUnknownProvider = errors.New("unknown BNPL provider")

// ErrIncompletePlan is returned when an override leaves a rule without the
// fields its plan needs to build a schedule.
var ErrIncompletePlan = errors.New("incomplete provider plan")

// ProviderOverride replaces individual fields of a provider's rule. Amounts
// are cents, rates are percent.
type ProviderOverride struct {
	DisplayName        *string  `toml:"display_name,omitempty"`
	Plan               *string  `toml:"plan,omitempty"`
	Instalments        *int     `toml:"instalments,omitempty"`
	Frequency          *string  `toml:"frequency,omitempty"`
	FirstPaymentToday  *bool    `toml:"first_payment_today,omitempty"`
	MinAmount          *int64   `toml:"min_amount,omitempty"`
	MaxAmount          *int64   `toml:"max_amount,omitempty"`
	MonthlyFee         *int64   `toml:"monthly_fee,omitempty"`
	MinimumRepayment   *int64   `toml:"minimum_repayment,omitempty"`
	RepaymentPercent   *float64 `toml:"repayment_percent,omitempty"`
	MaxMonths          *int     `toml:"max_months,omitempty"`
	InterestFreeMonths *int     `toml:"interest_free_months,omitempty"`
	AnnualRate         *float64 `toml:"annual_rate,omitempty"`
}

// Rules returns the default provider rules with the configured overrides
// applied.
func (c Config) Rules() (strategy.Rules, error) {
	rules := strategy.DefaultRules()

	ids := make([]string, 0, len(c.Providers))
	for id := range c.Providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		o := c.Providers[id]
		rule, ok := rules.Lookup(id)
		if !ok {
			if o.Plan == nil {
				return nil, fmt.Errorf("providers.%s: %w", id, ErrUnknownProvider)
			}
			rule = strategy.ProviderRule{Provider: id, DisplayName: id, Frequency: calendar.Monthly}
		}

		rule, err := o.apply(rule)
		if err != nil {
			return nil, fmt.Errorf("providers.%s: %w", id, err)
		}
		rules[id] = rule
	}
	return rules, nil
}

func (o ProviderOverride) apply(r strategy.ProviderRule) (strategy.ProviderRule, error) {
	if o.DisplayName != nil {
		r.DisplayName = *o.DisplayName
	}
	if o.Plan != nil {
		switch plan := strategy.PlanType(*o.Plan); plan {
		case strategy.PlanEqualInstalments, strategy.PlanPercentOfBalance, strategy.PlanInterestBearing:
			r.Plan = plan
		default:
			return r, fmt.Errorf("unknown plan %q", *o.Plan)
		}
	}
	if o.Instalments != nil {
		if *o.Instalments <= 0 {
			return r, fmt.Errorf("instalments must be positive, got %d", *o.Instalments)
		}
		r.Instalments = *o.Instalments
	}
	if o.Frequency != nil {
		f, err := calendar.ParseFrequency(*o.Frequency)
		if err != nil {
			return r, err
		}
		r.Frequency = f
	}
	if o.FirstPaymentToday != nil {
		r.FirstPaymentToday = *o.FirstPaymentToday
	}
	if o.MinAmount != nil {
		r.MinAmount = cashflow.Cents(*o.MinAmount)
	}
	if o.MaxAmount != nil {
		r.MaxAmount = cashflow.Cents(*o.MaxAmount)
	}
	if o.MonthlyFee != nil {
		r.MonthlyFee = cashflow.Cents(*o.MonthlyFee)
	}
	if o.MinimumRepayment != nil {
		r.MinimumRepayment = cashflow.Cents(*o.MinimumRepayment)
	}
	if o.RepaymentPercent != nil {
		r.RepaymentPercent = decimal.NewFromFloat(*o.RepaymentPercent)
	}
	if o.MaxMonths != nil {
		r.MaxMonths = *o.MaxMonths
	}
	if o.InterestFreeMonths != nil {
		r.InterestFreeMonths = *o.InterestFreeMonths
	}
	if o.AnnualRate != nil {
		r.AnnualRate = decimal.NewFromFloat(*o.AnnualRate)
	}

	if r.MinAmount > r.MaxAmount {
		return r, fmt.Errorf("min_amount %s exceeds max_amount %s", r.MinAmount, r.MaxAmount)
	}
	return r, checkPlan(r)
}

// checkPlan rejects rules whose plan would produce an empty or never-ending
// schedule.
func checkPlan(r strategy.ProviderRule) error {
	switch r.Plan {
	case strategy.PlanEqualInstalments, strategy.PlanInterestBearing:
		if r.Instalments <= 0 {
			return fmt.Errorf("%w: %s needs instalments", ErrIncompletePlan, r.Plan)
		}
	case strategy.PlanPercentOfBalance:
		if r.MaxMonths <= 0 {
			return fmt.Errorf("%w: %s needs max_months", ErrIncompletePlan, r.Plan)
		}
		if r.MinimumRepayment <= 0 && !r.RepaymentPercent.IsPositive() {
			return fmt.Errorf("%w: %s needs minimum_repayment or repayment_percent", ErrIncompletePlan, r.Plan)
		}
	}
	return nil
}
