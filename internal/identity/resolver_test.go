package identity_test

import (
	"testing"

	"mplads/internal/domain"
	"mplads/internal/errors"
	"mplads/internal/identity"
	"mplads/internal/logging"
	"mplads/internal/storage"
)

func testLogger() *logging.Logger {
	return logging.NewLogger(logging.Config{
		Format: logging.HumanFormat,
		Level:  logging.ErrorLevel,
	})
}

func TestResolveByID(t *testing.T) {
	db, err := storage.Open(t.TempDir(), testLogger())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer db.Close()

	stores := storage.NewStores(db, testLogger(), 1000)

	term := domain.Term18
	if err := stores.InsertTermSummaryMPs(
		[]domain.MPIdentity{{ID: "ts-1", Name: "A Kumar", House: domain.LokSabha, State: "Delhi", Constituency: "North Delhi"}},
		[]*int{&term},
	); err != nil {
		t.Fatalf("InsertTermSummaryMPs() error: %v", err)
	}
	if err := stores.InsertMPs([]domain.MPIdentity{
		{ID: "mp-1", Name: "B Singh", House: domain.RajyaSabha, State: "Punjab"},
	}); err != nil {
		t.Fatalf("InsertMPs() error: %v", err)
	}

	resolver := identity.NewResolver(db, testLogger())

	mp, err := resolver.ResolveByID("ts-1")
	if err != nil {
		t.Fatalf("ResolveByID(ts-1) error: %v", err)
	}
	if mp.Name != "A Kumar" || mp.House != domain.LokSabha {
		t.Errorf("unexpected identity from term store: %+v", mp)
	}

	mp, err = resolver.ResolveByID("mp-1")
	if err != nil {
		t.Fatalf("ResolveByID(mp-1) error: %v", err)
	}
	if mp.Name != "B Singh" || mp.House != domain.RajyaSabha {
		t.Errorf("unexpected identity from canonical store: %+v", mp)
	}

	_, err = resolver.ResolveByID("nope")
	if err == nil {
		t.Fatal("expected NotFound for an ID absent from both stores")
	}
	if !errors.IsNotFound(err) {
		t.Errorf("expected NOT_FOUND code, got %v", err)
	}
}
