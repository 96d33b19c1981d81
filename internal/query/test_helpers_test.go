package query

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"mplads/internal/cache"
	"mplads/internal/config"
	"mplads/internal/domain"
	"mplads/internal/logging"
	"mplads/internal/storage"
)

func testLogger() *logging.Logger {
	return logging.NewLogger(logging.Config{
		Format: logging.HumanFormat,
		Level:  logging.ErrorLevel,
	})
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func fixtureDate() time.Time {
	return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
}

// newTestFacade opens a throwaway database, loads the shared fixture, and
// wires a facade over it.
//
// The fixture:
//
//	A Kumar  (ts-a)  LS term 18  Delhi / North Delhi   50M allocated, 25M spent
//	B Singh  (ts-b)  LS term 18  Punjab / Amritsar     50M allocated, 10M spent
//	C Patel  (ts-c)  LS term 17  Delhi / East Delhi    50M allocated
//	D Rao    (mp-d)  RS          Telangana             registry only, no records
//
// A Kumar has completed work 123 (20M) which also appears in the
// recommended set, plus pending recommended work 200 (5M).
func newTestFacade(t *testing.T) *Facade {
	t.Helper()

	db, err := storage.Open(t.TempDir(), testLogger())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := config.DefaultConfig()
	stores := storage.NewStores(db, testLogger(), cfg.Query.MaxRowsPerAggregation)

	term17, term18 := domain.TermOf(domain.Term17), domain.TermOf(domain.Term18)
	mpA := domain.MPIdentity{ID: "ts-a", Name: "A Kumar", House: domain.LokSabha, State: "Delhi", Constituency: "North Delhi"}
	mpB := domain.MPIdentity{ID: "ts-b", Name: "B Singh", House: domain.LokSabha, State: "Punjab", Constituency: "Amritsar"}
	mpC := domain.MPIdentity{ID: "ts-c", Name: "C Patel", House: domain.LokSabha, State: "Delhi", Constituency: "East Delhi"}
	mpD := domain.MPIdentity{ID: "mp-d", Name: "D Rao", House: domain.RajyaSabha, State: "Telangana"}

	if err := stores.InsertTermSummaryMPs(
		[]domain.MPIdentity{mpA, mpB, mpC},
		[]*int{term18, term18, term17},
	); err != nil {
		t.Fatalf("InsertTermSummaryMPs() error: %v", err)
	}
	if err := stores.InsertMPs([]domain.MPIdentity{mpD}); err != nil {
		t.Fatalf("InsertMPs() error: %v", err)
	}

	if err := stores.ReplaceAllocations(domain.LokSabha, term18, []domain.AllocationRecord{
		{ID: "al-a", MP: mpA, LsTerm: term18, Allocated: d("50000000")},
		{ID: "al-b", MP: mpB, LsTerm: term18, Allocated: d("50000000")},
	}); err != nil {
		t.Fatalf("ReplaceAllocations(18) error: %v", err)
	}
	if err := stores.ReplaceAllocations(domain.LokSabha, term17, []domain.AllocationRecord{
		{ID: "al-c", MP: mpC, LsTerm: term17, Allocated: d("50000000")},
	}); err != nil {
		t.Fatalf("ReplaceAllocations(17) error: %v", err)
	}

	if err := stores.InsertExpenditures([]domain.ExpenditureRecord{
		{ID: "ex-a", MP: mpA, LsTerm: term18, Amount: d("25000000"), Status: domain.PaymentSuccess, Date: fixtureDate()},
		{ID: "ex-b", MP: mpB, LsTerm: term18, Amount: d("10000000"), Status: domain.PaymentSuccess, Date: fixtureDate()},
	}); err != nil {
		t.Fatalf("InsertExpenditures() error: %v", err)
	}

	if err := stores.InsertCompletedWorks([]domain.WorkRecord{
		{ID: "wc-1", MP: mpA, House: domain.LokSabha, LsTerm: term18, WorkID: "123",
			Amount: d("20000000"), Date: fixtureDate(), Category: "Roads"},
	}); err != nil {
		t.Fatalf("InsertCompletedWorks() error: %v", err)
	}
	if err := stores.InsertRecommendedWorks([]domain.WorkRecord{
		{ID: "wr-1", MP: mpA, House: domain.LokSabha, LsTerm: term18, WorkID: "123",
			Amount: d("18000000"), Date: fixtureDate().AddDate(0, -2, 0), Category: "Roads"},
		{ID: "wr-2", MP: mpA, House: domain.LokSabha, LsTerm: term18, WorkID: "200",
			Amount: d("5000000"), Date: fixtureDate(), Category: "Water"},
	}); err != nil {
		t.Fatalf("InsertRecommendedWorks() error: %v", err)
	}

	return NewFacade(stores, cache.New(cfg.Cache, testLogger()), cfg, testLogger(), Options{})
}
