/*
score.go - Projection, scoring and ranking

SCORE (0-100, unavailable strategies score 0):
  cost       0.4  (1 - fees / max total cost of available strategies) * 100
  cashflow   0.4  min balance >= 0: min(100, min / $100 * 100)
                  min balance <  0: max(0, 50 + min / $100 * 50)
  simplicity 0.2  max(0, 100 - (payments - 1) * 15)

  final = round(0.4*cost + 0.4*cashflow + 0.2*simplicity), clamped to [0, 100]

  When every available strategy costs nothing the purchase price stands in
  as the cost denominator. A zero price scores full marks on cost.
*/
package strategy

import (
	"math"
	"sort"

	"github.com/warp/cashflow-engine/cashflow"
)

const (
	costWeight       = 0.4
	cashflowWeight   = 0.4
	simplicityWeight = 0.2

	// Balance at which the cashflow component saturates.
	comfortableBuffer cashflow.Cents = 10000

	perExtraPaymentPenalty = 15
)

// Compare builds, projects, scores and ranks every strategy for req.
func Compare(req Request, rules Rules) []PaymentStrategy {
	strategies := Build(req, rules)
	Project(req, strategies)
	ScoreAll(strategies, req.Price)
	Rank(strategies)
	return strategies
}

// Project fills in the projection fields of every available strategy. The
// savings goal impact is how much lower the window's ending balance is than
// without the purchase. Cash is projected too, as a purchase today, so its
// minimum balance scores on the same footing as the financed options.
func Project(req Request, strategies []PaymentStrategy) {
	baseline := cashflow.Project(req.Snapshot, req.Today, req.ProjectionWeeks)
	baseEnd := cashflow.EndingBalance(baseline)

	for i := range strategies {
		s := &strategies[i]
		if !s.Available {
			continue
		}
		s.Projection = cashflow.Project(req.Snapshot, req.Today, req.ProjectionWeeks, s.Events()...)
		s.MinimumProjectedBalance = cashflow.MinimumBalance(s.Projection)
		s.SavingsGoalImpact = baseEnd - cashflow.EndingBalance(s.Projection)
	}
}

// ScoreAll sets Score on every strategy.
func ScoreAll(strategies []PaymentStrategy, price cashflow.Cents) {
	var maxCost cashflow.Cents
	for _, s := range strategies {
		if s.Available && s.TotalCost > maxCost {
			maxCost = s.TotalCost
		}
	}
	if maxCost == 0 {
		maxCost = price
	}

	for i := range strategies {
		strategies[i].Score = Score(strategies[i], maxCost)
	}
}

// Score rates one strategy against the most expensive available option.
func Score(s PaymentStrategy, maxCost cashflow.Cents) int {
	if !s.Available {
		return 0
	}

	total := costWeight*costScore(s.TotalFeesOrInterest, maxCost) +
		cashflowWeight*cashflowScore(s.MinimumProjectedBalance) +
		simplicityWeight*simplicityScore(s.NumberOfPayments())

	return clamp(int(math.Round(total)), 0, 100)
}

func costScore(fees, maxCost cashflow.Cents) float64 {
	if maxCost <= 0 {
		return 100
	}
	return (1 - float64(fees)/float64(maxCost)) * 100
}

func cashflowScore(minBalance cashflow.Cents) float64 {
	ratio := float64(minBalance) / float64(comfortableBuffer)
	if minBalance >= 0 {
		return math.Min(100, ratio*100)
	}
	return math.Max(0, 50+ratio*50)
}

func simplicityScore(payments int) float64 {
	if payments < 1 {
		payments = 1
	}
	return math.Max(0, float64(100-(payments-1)*perExtraPaymentPenalty))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Rank orders strategies in place: available first, then by score
// descending. Equal strategies keep their construction order.
func Rank(strategies []PaymentStrategy) {
	sort.SliceStable(strategies, func(i, j int) bool {
		a, b := strategies[i], strategies[j]
		if a.Available != b.Available {
			return a.Available
		}
		return a.Score > b.Score
	})
}

// Best returns the top ranked available strategy.
func Best(strategies []PaymentStrategy) (PaymentStrategy, bool) {
	for _, s := range strategies {
		if s.Available {
			return s, true
		}
	}
	return PaymentStrategy{}, false
}
