package match

import (
	"github.com/shopspring/decimal"

	orderdomain "github.com/openbanc/bankrecon/internal/order/domain"
)

// Outcome is the classification of a payment against the order set found for
// its candidates.
type Outcome string

const (
	OutcomeMatched        Outcome = "matched"
	OutcomeNotMatch       Outcome = "not_match"
	OutcomeMultiple       Outcome = "multiple"
	OutcomeAmountMismatch Outcome = "amount_mismatch"
	OutcomeNotFound       Outcome = "not_found"
)

// Result carries the classification and, for a unique match, the bound order.
type Result struct {
	Outcome Outcome
	Order   *orderdomain.Summary
}

// Matcher classifies candidate/amount pairs with an explicit decimal
// tolerance. Amounts arrive from two systems with different numeric
// representations, so equality is never exact.
type Matcher struct {
	tolerance decimal.Decimal
}

func New(tolerance decimal.Decimal) *Matcher {
	return &Matcher{tolerance: tolerance}
}

// Classify folds the found orders and the paid amount into an Outcome.
// hadCandidates distinguishes "nothing to search for" (not_found) from
// "searched and missed" (not_match).
func (m *Matcher) Classify(orders []orderdomain.Summary, amount decimal.Decimal, hadCandidates bool) Result {
	if len(orders) == 0 {
		if !hadCandidates {
			return Result{Outcome: OutcomeNotFound}
		}
		return Result{Outcome: OutcomeNotMatch}
	}

	var within []orderdomain.Summary
	for _, order := range orders {
		if order.AmountTotal.Sub(amount).Abs().LessThan(m.tolerance) {
			within = append(within, order)
		}
	}

	switch len(within) {
	case 0:
		return Result{Outcome: OutcomeAmountMismatch}
	case 1:
		order := within[0]
		return Result{Outcome: OutcomeMatched, Order: &order}
	default:
		return Result{Outcome: OutcomeMultiple}
	}
}
