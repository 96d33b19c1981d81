package domain

import "github.com/shopspring/decimal"

// SummaryScope is the aggregation shape of a summary record
type SummaryScope string

const (
	ScopeMP           SummaryScope = "mp"
	ScopeState        SummaryScope = "state"
	ScopeConstituency SummaryScope = "constituency"
	ScopeOverall      SummaryScope = "overall"
)

// SummaryRecord is the engine's primary output: the denormalized financial
// summary for one entity within a house/term scope. All derived percentages
// are finite and bounded regardless of zero denominators.
type SummaryRecord struct {
	Scope    SummaryScope `json:"scope"`
	Identity string       `json:"identity"` // MP key, state, or constituency; "overall" otherwise

	Allocated        decimal.Decimal `json:"allocatedAmount"`
	TotalExpenditure decimal.Decimal `json:"totalExpenditure"`

	TransactionCount   int `json:"transactionCount"`
	SuccessfulPayments int `json:"successfulPayments"`
	PendingPayments    int `json:"pendingPayments"`

	CompletedWorksCount int             `json:"completedWorksCount"`
	CompletedWorksValue decimal.Decimal `json:"completedWorksValue"`
	WorksWithImages     int             `json:"worksWithImages"`
	AvgRating           float64         `json:"avgRating"`

	// RecommendedWorksCount/-Value cover the reconciled pending set only:
	// recommended works with no completed record for the same work key.
	RecommendedWorksCount int             `json:"recommendedWorksCount"`
	RecommendedWorksValue decimal.Decimal `json:"recommendedWorksValue"`

	UtilizationPercentage decimal.Decimal `json:"utilizationPercentage"`
	CompletionRate        decimal.Decimal `json:"completionRate"`
	PaymentGapPercentage  decimal.Decimal `json:"paymentGapPercentage"`

	// PendingWorks is the display-oriented count approximation
	// max(0, recommendedWorksCount - completedWorksCount). It is NOT the
	// reconciled pending-set size; that is RecommendedWorksCount. The two
	// figures answer different questions and are exposed separately.
	PendingWorks int `json:"pendingWorks"`

	// UnspentAmount may be negative; negative indicates overspend
	// (carry-forward funds, multi-year projects) and is meaningful.
	UnspentAmount decimal.Decimal `json:"unspentAmount"`
}

// ZeroSummary returns a zero-valued summary for an entity with no matching
// allocation records. Absence of allocation is valid, not an error.
func ZeroSummary(scope SummaryScope, identity string) SummaryRecord {
	return SummaryRecord{
		Scope:                 scope,
		Identity:              identity,
		Allocated:             decimal.Zero,
		TotalExpenditure:      decimal.Zero,
		CompletedWorksValue:   decimal.Zero,
		RecommendedWorksValue: decimal.Zero,
		UtilizationPercentage: decimal.Zero,
		CompletionRate:        decimal.Zero,
		PaymentGapPercentage:  decimal.Zero,
		UnspentAmount:         decimal.Zero,
	}
}
