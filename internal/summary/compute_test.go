package summary

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"mplads/internal/domain"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func alloc(amount string) domain.AllocationRecord {
	term := domain.Term18
	return domain.AllocationRecord{
		ID:        "a-1",
		MP:        domain.MPIdentity{Name: "A Kumar", House: domain.LokSabha, State: "Delhi"},
		LsTerm:    &term,
		Allocated: d(amount),
	}
}

func spend(amount string, status domain.PaymentStatus) domain.ExpenditureRecord {
	term := domain.Term18
	return domain.ExpenditureRecord{
		ID:     "e-1",
		MP:     domain.MPIdentity{Name: "A Kumar", House: domain.LokSabha, State: "Delhi"},
		LsTerm: &term,
		Amount: d(amount),
		Status: status,
		Date:   time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func completedWork(workID, amount string) domain.WorkRecord {
	term := domain.Term18
	return domain.WorkRecord{
		ID:     "w-" + workID,
		MP:     domain.MPIdentity{Name: "A Kumar", House: domain.LokSabha, State: "Delhi"},
		House:  domain.LokSabha,
		LsTerm: &term,
		WorkID: workID,
		Amount: d(amount),
		Date:   time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestUtilizationPercentage(t *testing.T) {
	tests := []struct {
		name        string
		allocated   string
		expenditure string
		want        string
	}{
		{"no allocation no spend", "0", "0", "0"},
		{"spend without allocation reads fully utilized", "0", "600000", "100"},
		{"half utilized", "50000000", "25000000", "50"},
		{"rounded to two places", "30000000", "10000000", "33.33"},
		{"capped at ceiling", "1000", "999000000", "999.99"},
		{"tiny spend floors instead of rounding to zero", "50000000", "1000", "0.01"},
		{"spend just under the floor still reads nonzero", "100000000", "1", "0.01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := Inputs{}
			if tt.allocated != "0" {
				in.Allocations = []domain.AllocationRecord{alloc(tt.allocated)}
			}
			if tt.expenditure != "0" {
				in.Expenditures = []domain.ExpenditureRecord{spend(tt.expenditure, domain.PaymentSuccess)}
			}
			rec := Compute(domain.ScopeMP, "test", in, nil)
			if !rec.UtilizationPercentage.Equal(d(tt.want)) {
				t.Errorf("UtilizationPercentage = %s, want %s", rec.UtilizationPercentage, tt.want)
			}
		})
	}
}

func TestZeroAllocationSummaryIsNotAnError(t *testing.T) {
	rec := Compute(domain.ScopeMP, "new-mp", Inputs{}, nil)
	if !rec.Allocated.IsZero() || !rec.UtilizationPercentage.IsZero() {
		t.Errorf("expected zero-valued summary, got %+v", rec)
	}
	if rec.Identity != "new-mp" || rec.Scope != domain.ScopeMP {
		t.Errorf("zero summary must keep its identity: %+v", rec)
	}
}

func TestPaymentGap(t *testing.T) {
	in := Inputs{
		Allocations:  []domain.AllocationRecord{alloc("50000000")},
		Expenditures: []domain.ExpenditureRecord{spend("10000000", domain.PaymentSuccess)},
		Completed:    []domain.WorkRecord{completedWork("1", "7500000")},
	}
	rec := Compute(domain.ScopeMP, "test", in, nil)
	if !rec.PaymentGapPercentage.Equal(d("25")) {
		t.Errorf("PaymentGapPercentage = %s, want 25", rec.PaymentGapPercentage)
	}
}

func TestPaymentGapClampsNegativeToZero(t *testing.T) {
	// Completed value exceeding expenditure is an upstream anomaly; the
	// gap clamps rather than going negative.
	in := Inputs{
		Allocations:  []domain.AllocationRecord{alloc("50000000")},
		Expenditures: []domain.ExpenditureRecord{spend("1000000", domain.PaymentSuccess)},
		Completed:    []domain.WorkRecord{completedWork("1", "2000000")},
	}
	rec := Compute(domain.ScopeMP, "test", in, nil)
	if !rec.PaymentGapPercentage.IsZero() {
		t.Errorf("PaymentGapPercentage = %s, want 0", rec.PaymentGapPercentage)
	}
}

func TestPaymentStatusCounters(t *testing.T) {
	in := Inputs{
		Expenditures: []domain.ExpenditureRecord{
			spend("100", domain.PaymentSuccess),
			spend("200", domain.PaymentSuccess),
			spend("300", domain.PaymentInProgress),
			spend("400", domain.PaymentFailed),
		},
	}
	rec := Compute(domain.ScopeMP, "test", in, nil)
	if rec.TransactionCount != 4 {
		t.Errorf("TransactionCount = %d, want 4", rec.TransactionCount)
	}
	if rec.SuccessfulPayments != 2 || rec.PendingPayments != 1 {
		t.Errorf("payments = %d successful / %d pending, want 2 / 1",
			rec.SuccessfulPayments, rec.PendingPayments)
	}
	if !rec.TotalExpenditure.Equal(d("1000")) {
		t.Errorf("TotalExpenditure = %s, want 1000", rec.TotalExpenditure)
	}
}

func TestUnspentAmountMayGoNegative(t *testing.T) {
	in := Inputs{
		Allocations:  []domain.AllocationRecord{alloc("1000")},
		Expenditures: []domain.ExpenditureRecord{spend("1500", domain.PaymentSuccess)},
	}
	rec := Compute(domain.ScopeMP, "test", in, nil)
	if !rec.UnspentAmount.Equal(d("-500")) {
		t.Errorf("UnspentAmount = %s, want -500 (overspend is visible, not clamped)", rec.UnspentAmount)
	}
}

func TestRollupRederivesRatiosFromSums(t *testing.T) {
	// 10% of a large allocation plus 90% of a small one is nowhere near
	// the 50% an average-of-percentages would claim.
	big := Compute(domain.ScopeMP, "big", Inputs{
		Allocations:  []domain.AllocationRecord{alloc("90000000")},
		Expenditures: []domain.ExpenditureRecord{spend("9000000", domain.PaymentSuccess)},
	}, nil)
	small := Compute(domain.ScopeMP, "small", Inputs{
		Allocations:  []domain.AllocationRecord{alloc("10000000")},
		Expenditures: []domain.ExpenditureRecord{spend("9000000", domain.PaymentSuccess)},
	}, nil)

	rolled := Rollup(domain.ScopeState, "delhi", []domain.SummaryRecord{big, small}, nil)
	if !rolled.UtilizationPercentage.Equal(d("18")) {
		t.Errorf("rolled utilization = %s, want 18 (18M of 100M)", rolled.UtilizationPercentage)
	}
	if !rolled.Allocated.Equal(d("100000000")) {
		t.Errorf("rolled allocation = %s, want 100000000", rolled.Allocated)
	}
}

func TestRollupWeightsRatingByCompletedWorks(t *testing.T) {
	many := domain.ZeroSummary(domain.ScopeMP, "many")
	many.CompletedWorksCount = 9
	many.AvgRating = 4.0
	few := domain.ZeroSummary(domain.ScopeMP, "few")
	few.CompletedWorksCount = 1
	few.AvgRating = 2.0

	rolled := Rollup(domain.ScopeState, "delhi", []domain.SummaryRecord{many, few}, nil)
	if rolled.AvgRating != 3.8 {
		t.Errorf("AvgRating = %v, want 3.8 (weighted by completed works)", rolled.AvgRating)
	}
}

func TestRollupOfNothingIsZeroSummary(t *testing.T) {
	rolled := Rollup(domain.ScopeOverall, "overall", nil, nil)
	if !rolled.Allocated.IsZero() || !rolled.UtilizationPercentage.IsZero() {
		t.Errorf("empty rollup should be a zero summary: %+v", rolled)
	}
}
