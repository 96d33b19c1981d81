// Package domain defines the record model the aggregation engine operates on:
// MP identities, allocations, expenditures, works, and the derived summary.
package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// House identifies a house of Parliament
type House string

const (
	// LokSabha is the lower house; its records carry a numbered term
	LokSabha House = "Lok Sabha"
	// RajyaSabha is the upper house; its records never carry a term
	RajyaSabha House = "Rajya Sabha"
)

// Lok Sabha terms covered by the engine.
const (
	Term17 = 17
	Term18 = 18
)

// PaymentStatus is the disbursement state of an expenditure
type PaymentStatus string

const (
	PaymentSuccess    PaymentStatus = "success"
	PaymentInProgress PaymentStatus = "in-progress"
	PaymentFailed     PaymentStatus = "failed"
)

// WorkStatus is the derived state of a physical work. There is no status
// field upstream; the status is computed during reconciliation from the
// presence of a Completed record for the same work key.
type WorkStatus string

const (
	WorkRecommended WorkStatus = "recommended"
	WorkCompleted   WorkStatus = "completed"
)

// MPIdentity describes a Member of Parliament as the two record stores see
// one. The stores mint independent surrogate IDs, so cross-store identity is
// always established by normalized key, never by ID.
type MPIdentity struct {
	ID           string `json:"id,omitempty"` // store-local surrogate, not portable
	Name         string `json:"name"`
	House        House  `json:"house"`
	State        string `json:"state"`
	Constituency string `json:"constituency"`
}

// AllocationRecord is one row per MP per term/house. Immutable once loaded
// for a term; superseded wholesale on re-ingestion of that term.
type AllocationRecord struct {
	ID        string          `json:"id"`
	MP        MPIdentity      `json:"mp"`
	LsTerm    *int            `json:"lsTerm"` // nil means Rajya Sabha
	Allocated decimal.Decimal `json:"allocatedAmount"`
}

// ExpenditureRecord is a single disbursed payment against an allocation.
type ExpenditureRecord struct {
	ID     string          `json:"id"`
	MP     MPIdentity      `json:"mp"`
	LsTerm *int            `json:"lsTerm"`
	WorkID string          `json:"workId,omitempty"` // empty when not tied to a work
	Amount decimal.Decimal `json:"amount"`
	Status PaymentStatus   `json:"paymentStatus"`
	Date   time.Time       `json:"date"`
}

// WorkRecord is a development project in either the Completed or the
// Recommended record set. Both variants share this shape.
type WorkRecord struct {
	ID       string          `json:"id"`
	MP       MPIdentity      `json:"mp"`
	House    House           `json:"house"`
	LsTerm   *int            `json:"lsTerm"`
	WorkID   string          `json:"workId"`
	Amount   decimal.Decimal `json:"amount"`
	Date     time.Time       `json:"date"`
	Category string          `json:"category"`
	HasImage bool            `json:"hasImage"`
	Rating   float64         `json:"rating"` // 0 when unrated
}

// WorkKey identifies a physical work across both record sets. Two records
// sharing this key describe the same work even if their MP identity or
// amount differ due to reporting variance.
type WorkKey struct {
	House  House
	LsTerm int // 0 for Rajya Sabha
	State  string
	WorkID string
}

// Key returns the reconciliation key for w. The state component is
// normalized so casing and spacing variance between record sets cannot
// split one physical work into two keys.
func (w WorkRecord) Key() WorkKey {
	term := 0
	if w.LsTerm != nil {
		term = *w.LsTerm
	}
	return WorkKey{
		House:  w.House,
		LsTerm: term,
		State:  NormalizeField(w.MP.State),
		WorkID: w.WorkID,
	}
}

func (k WorkKey) String() string {
	return fmt.Sprintf("%s/%d/%s/%s", k.House, k.LsTerm, k.State, k.WorkID)
}

// TermOf returns a pointer to the given Lok Sabha term number. Convenience
// for building records; Rajya Sabha records use nil.
func TermOf(n int) *int {
	return &n
}
