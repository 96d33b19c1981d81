// Package summary joins allocation, expenditure, and reconciled work data
// for one entity and derives the bounded financial metrics. All derivation
// is a pure function of the input records; the store-driven Computer in
// this package only gathers inputs.
package summary

import (
	"github.com/shopspring/decimal"

	"mplads/internal/domain"
	"mplads/internal/logging"
	"mplads/internal/reconcile"
)

// UtilizationCap is the ceiling for utilization percentage. Over-spending
// beyond 100% is legitimate (carry-forward funds, multi-year projects) but
// consumers assume a bounded percentage.
var UtilizationCap = decimal.RequireFromString("999.99")

var hundred = decimal.NewFromInt(100)

// utilizationFloor is the smallest nonzero utilization reported after
// rounding. A zero utilization means zero expenditure, so a real spend too
// small for two decimal places floors here instead of rounding away.
var utilizationFloor = decimal.RequireFromString("0.01")

// Inputs are the raw records for one entity within a scope, already
// filtered by house/term.
type Inputs struct {
	Allocations  []domain.AllocationRecord
	Expenditures []domain.ExpenditureRecord
	Completed    []domain.WorkRecord
	Recommended  []domain.WorkRecord
}

// Compute derives the summary for one entity. An entity with zero matching
// allocation records yields a zero-allocation summary, not an error; a
// newly elected MP legitimately has no allocation yet.
func Compute(scope domain.SummaryScope, identity string, in Inputs, logger *logging.Logger) domain.SummaryRecord {
	rec := domain.ZeroSummary(scope, identity)

	for _, a := range in.Allocations {
		rec.Allocated = rec.Allocated.Add(a.Allocated)
	}

	for _, e := range in.Expenditures {
		rec.TotalExpenditure = rec.TotalExpenditure.Add(e.Amount)
		rec.TransactionCount++
		switch e.Status {
		case domain.PaymentSuccess:
			rec.SuccessfulPayments++
		case domain.PaymentInProgress:
			rec.PendingPayments++
		}
	}

	res := reconcile.Reconcile(in.Completed, in.Recommended, logger)

	ratedWorks := 0
	ratingSum := 0.0
	for _, w := range res.Completed {
		rec.CompletedWorksCount++
		rec.CompletedWorksValue = rec.CompletedWorksValue.Add(w.Amount)
		if w.HasImage {
			rec.WorksWithImages++
		}
		if w.Rating > 0 {
			ratedWorks++
			ratingSum += w.Rating
		}
	}
	if ratedWorks > 0 {
		rec.AvgRating = ratingSum / float64(ratedWorks)
	}

	for _, w := range res.Pending {
		rec.RecommendedWorksCount++
		rec.RecommendedWorksValue = rec.RecommendedWorksValue.Add(w.Amount)
	}

	deriveRatios(&rec, logger)
	return rec
}

// Rollup aggregates already-computed per-entity summaries into a wider
// scope, re-deriving the percentage fields from the summed numerators and
// denominators. Averaging the percentages instead would misweight
// small-allocation MPs.
func Rollup(scope domain.SummaryScope, identity string, parts []domain.SummaryRecord, logger *logging.Logger) domain.SummaryRecord {
	rec := domain.ZeroSummary(scope, identity)

	ratingWeight := 0
	ratingSum := 0.0
	for _, p := range parts {
		rec.Allocated = rec.Allocated.Add(p.Allocated)
		rec.TotalExpenditure = rec.TotalExpenditure.Add(p.TotalExpenditure)
		rec.TransactionCount += p.TransactionCount
		rec.SuccessfulPayments += p.SuccessfulPayments
		rec.PendingPayments += p.PendingPayments
		rec.CompletedWorksCount += p.CompletedWorksCount
		rec.CompletedWorksValue = rec.CompletedWorksValue.Add(p.CompletedWorksValue)
		rec.WorksWithImages += p.WorksWithImages
		rec.RecommendedWorksCount += p.RecommendedWorksCount
		rec.RecommendedWorksValue = rec.RecommendedWorksValue.Add(p.RecommendedWorksValue)
		if p.AvgRating > 0 && p.CompletedWorksCount > 0 {
			ratingWeight += p.CompletedWorksCount
			ratingSum += p.AvgRating * float64(p.CompletedWorksCount)
		}
	}
	// Average rating rolls up weighted by completed works, not averaged
	// across entities.
	if ratingWeight > 0 {
		rec.AvgRating = ratingSum / float64(ratingWeight)
	}

	deriveRatios(&rec, logger)
	return rec
}

// deriveRatios fills the derived fields from the summed numerators and
// denominators, with the zero-denominator and clamping policy applied.
func deriveRatios(rec *domain.SummaryRecord, logger *logging.Logger) {
	rec.UtilizationPercentage = utilization(rec.Allocated, rec.TotalExpenditure)
	rec.CompletionRate = completionRate(rec.CompletedWorksCount, rec.RecommendedWorksCount)
	rec.PaymentGapPercentage = paymentGap(rec.TotalExpenditure, rec.CompletedWorksValue, rec.Identity, logger)

	rec.PendingWorks = rec.RecommendedWorksCount - rec.CompletedWorksCount
	if rec.PendingWorks < 0 {
		rec.PendingWorks = 0
	}

	rec.UnspentAmount = rec.Allocated.Sub(rec.TotalExpenditure)
}

// utilization is expenditure as a share of allocation, capped at
// UtilizationCap and floored at utilizationFloor for any nonzero spend.
// With no allocation, any expenditure reads as fully utilized (100) and
// none as 0, so the result is always finite and zero iff nothing was spent.
func utilization(allocated, expenditure decimal.Decimal) decimal.Decimal {
	if !allocated.IsPositive() {
		if expenditure.IsPositive() {
			return hundred
		}
		return decimal.Zero
	}
	pct := expenditure.Div(allocated).Mul(hundred).Round(2)
	if pct.GreaterThan(UtilizationCap) {
		return UtilizationCap
	}
	if pct.IsZero() && expenditure.IsPositive() {
		return utilizationFloor
	}
	return pct
}

// completionRate is completed works as a share of all reconciled works.
func completionRate(completed, pendingRecommended int) decimal.Decimal {
	total := completed + pendingRecommended
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(completed)).
		Div(decimal.NewFromInt(int64(total))).
		Mul(hundred).
		Round(2)
}

// paymentGap is the fraction of disbursed money not yet tied to a
// completed, accountable work. completedValue > totalExpenditure is a
// data-quality anomaly in the upstream sets, never a reason to fail a
// query: the gap clamps to 0 and the anomaly is logged.
func paymentGap(totalExpenditure, completedValue decimal.Decimal, identity string, logger *logging.Logger) decimal.Decimal {
	if !totalExpenditure.IsPositive() {
		return decimal.Zero
	}
	gap := totalExpenditure.Sub(completedValue).
		Div(totalExpenditure).
		Mul(hundred).
		Round(2)
	if gap.IsNegative() {
		if logger != nil {
			logger.Warn("completed works value exceeds total expenditure", map[string]interface{}{
				"code":             "AGGREGATION_INCONSISTENCY",
				"identity":         identity,
				"totalExpenditure": totalExpenditure.String(),
				"completedValue":   completedValue.String(),
			})
		}
		return decimal.Zero
	}
	return gap
}
