package query

import (
	"bytes"
	"testing"

	"mplads/internal/errors"
)

func TestGetMPSummary(t *testing.T) {
	f := newTestFacade(t)
	sc := f.ResolveScope("", "18")

	rec, err := f.GetMPSummary(sc, "ts-a")
	if err != nil {
		t.Fatalf("GetMPSummary() error: %v", err)
	}

	if !rec.Allocated.Equal(d("50000000")) {
		t.Errorf("Allocated = %s, want 50000000", rec.Allocated)
	}
	if !rec.UtilizationPercentage.Equal(d("50")) {
		t.Errorf("UtilizationPercentage = %s, want 50", rec.UtilizationPercentage)
	}
	if rec.CompletedWorksCount != 1 {
		t.Errorf("CompletedWorksCount = %d, want 1", rec.CompletedWorksCount)
	}
	// Work 123 appears in both record sets but counts once; only work 200
	// remains pending.
	if rec.RecommendedWorksCount != 1 {
		t.Errorf("RecommendedWorksCount = %d, want 1 (work 123 resolved to completed)", rec.RecommendedWorksCount)
	}
	if !rec.RecommendedWorksValue.Equal(d("5000000")) {
		t.Errorf("RecommendedWorksValue = %s, want 5000000", rec.RecommendedWorksValue)
	}
	// (25M - 20M) / 25M
	if !rec.PaymentGapPercentage.Equal(d("20")) {
		t.Errorf("PaymentGapPercentage = %s, want 20", rec.PaymentGapPercentage)
	}
}

func TestGetMPSummaryUnknownIDIsNotFound(t *testing.T) {
	f := newTestFacade(t)

	_, err := f.GetMPSummary(f.ResolveScope("", "18"), "no-such-mp")
	if err == nil {
		t.Fatal("expected an error for an unknown MP ID")
	}
	if !errors.IsNotFound(err) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestGetMPSummaryKnownEntityWithNoRecordsIsZero(t *testing.T) {
	f := newTestFacade(t)

	// D Rao exists in the canonical registry but has no financial records.
	// That is a zero-valued summary, not NotFound.
	rec, err := f.GetMPSummary(f.ResolveScope("", "18"), "mp-d")
	if err != nil {
		t.Fatalf("GetMPSummary() error: %v", err)
	}
	if !rec.Allocated.IsZero() || rec.TransactionCount != 0 {
		t.Errorf("expected a zero summary, got %+v", rec)
	}
}

func TestGetOverview(t *testing.T) {
	f := newTestFacade(t)

	rec, err := f.GetOverview(f.ResolveScope("", "18"))
	if err != nil {
		t.Fatalf("GetOverview() error: %v", err)
	}

	// A Kumar and B Singh are in scope; C Patel's term-17 records are not.
	if !rec.Allocated.Equal(d("100000000")) {
		t.Errorf("Allocated = %s, want 100000000", rec.Allocated)
	}
	if !rec.UtilizationPercentage.Equal(d("35")) {
		t.Errorf("UtilizationPercentage = %s, want 35 (35M of 100M)", rec.UtilizationPercentage)
	}
}

func TestScopeSeparatesTerms(t *testing.T) {
	f := newTestFacade(t)

	rec, err := f.GetOverview(f.ResolveScope("Lok Sabha", "17"))
	if err != nil {
		t.Fatalf("GetOverview() error: %v", err)
	}
	if !rec.Allocated.Equal(d("50000000")) {
		t.Errorf("term-17 Allocated = %s, want only C Patel's 50000000", rec.Allocated)
	}
	if rec.TransactionCount != 0 {
		t.Errorf("term-17 TransactionCount = %d, want 0", rec.TransactionCount)
	}
}

func TestGetStateSummary(t *testing.T) {
	f := newTestFacade(t)

	rec, err := f.GetStateSummary(f.ResolveScope("", "18"), "delhi")
	if err != nil {
		t.Fatalf("GetStateSummary() error: %v", err)
	}
	// Case-insensitive: "delhi" matches the stored "Delhi" rows.
	if !rec.Allocated.Equal(d("50000000")) {
		t.Errorf("Allocated = %s, want 50000000", rec.Allocated)
	}
	if rec.Identity != "delhi" {
		t.Errorf("Identity = %q, want normalized state name", rec.Identity)
	}
}

func TestGetConstituencySummary(t *testing.T) {
	f := newTestFacade(t)

	recs, err := f.GetConstituencySummary(f.ResolveScope("", "18"), "Delhi", "North  Delhi")
	if err != nil {
		t.Fatalf("GetConstituencySummary() error: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d summaries, want 1", len(recs))
	}
	if !recs[0].Allocated.Equal(d("50000000")) {
		t.Errorf("Allocated = %s, want 50000000", recs[0].Allocated)
	}
}

func TestRepeatedQueriesAreByteIdenticalWithoutRecomputation(t *testing.T) {
	f := newTestFacade(t)
	sc := f.ResolveScope("", "18")

	first, err := f.GetMPSummary(sc, "ts-a")
	if err != nil {
		t.Fatalf("GetMPSummary() error: %v", err)
	}
	if f.Recomputations() != 1 {
		t.Fatalf("Recomputations = %d after first query, want 1", f.Recomputations())
	}

	key := f.cacheKey("mp-summary", sc, map[string]string{"mp": "lok sabha|a kumar|north delhi|delhi"})
	cached1, ok := f.cache.Get(key)
	if !ok {
		t.Fatal("expected the payload to be cached under the canonical key")
	}

	second, err := f.GetMPSummary(sc, "ts-a")
	if err != nil {
		t.Fatalf("GetMPSummary() error: %v", err)
	}
	if f.Recomputations() != 1 {
		t.Errorf("Recomputations = %d after second query, want still 1", f.Recomputations())
	}
	cached2, _ := f.cache.Get(key)
	if !bytes.Equal(cached1, cached2) {
		t.Error("repeated queries must serve byte-identical payloads")
	}
	if !first.Allocated.Equal(second.Allocated) || first.TransactionCount != second.TransactionCount {
		t.Error("decoded records differ between repeated queries")
	}
}

func TestUserNamespaceIsolatesCacheKeys(t *testing.T) {
	f := newTestFacade(t)
	f.userNamespace = "user-42"

	sc := f.ResolveScope("", "18")
	key := f.cacheKey("overview", sc, nil)
	if key != "user-42/overview:house=both&ls_term=18" {
		t.Errorf("namespaced key = %q", key)
	}

	f.userNamespace = ""
	if f.cacheKey("overview", sc, nil) != "overview:house=both&ls_term=18" {
		t.Errorf("shared key = %q", f.cacheKey("overview", sc, nil))
	}
}
