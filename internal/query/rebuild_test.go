package query

import (
	"testing"

	"mplads/internal/domain"
	"mplads/internal/identity"
)

func TestRebuildScopeReplacesStoredSummaries(t *testing.T) {
	f := newTestFacade(t)
	sc := f.ResolveScope("", "18")

	n, err := f.RebuildScope(sc, domain.ScopeMP)
	if err != nil {
		t.Fatalf("RebuildScope() error: %v", err)
	}
	// A Kumar, B Singh, and the record-less D Rao are in scope.
	if n != 3 {
		t.Errorf("RebuildScope() wrote %d records, want 3", n)
	}

	stored, err := f.stores.SummariesByScope(domain.ScopeMP)
	if err != nil {
		t.Fatalf("SummariesByScope() error: %v", err)
	}
	if len(stored) != 3 {
		t.Fatalf("stored %d summaries, want 3", len(stored))
	}

	// A second rebuild replaces, not appends.
	if _, err := f.RebuildScope(sc, domain.ScopeMP); err != nil {
		t.Fatalf("second RebuildScope() error: %v", err)
	}
	stored, err = f.stores.SummariesByScope(domain.ScopeMP)
	if err != nil {
		t.Fatalf("SummariesByScope() error: %v", err)
	}
	if len(stored) != 3 {
		t.Errorf("stored %d summaries after second rebuild, want 3", len(stored))
	}
}

func TestRebuildAllCoversEveryShape(t *testing.T) {
	f := newTestFacade(t)
	sc := f.ResolveScope("", "18")

	if _, err := f.RebuildAll(sc); err != nil {
		t.Fatalf("RebuildAll() error: %v", err)
	}

	states, err := f.stores.SummariesByScope(domain.ScopeState)
	if err != nil {
		t.Fatalf("SummariesByScope(state) error: %v", err)
	}
	// Delhi, Punjab, Telangana.
	if len(states) != 3 {
		t.Errorf("stored %d state summaries, want 3", len(states))
	}

	overall, err := f.stores.SummariesByScope(domain.ScopeOverall)
	if err != nil {
		t.Fatalf("SummariesByScope(overall) error: %v", err)
	}
	if len(overall) != 1 {
		t.Fatalf("stored %d overall summaries, want 1", len(overall))
	}
	if !overall[0].Allocated.Equal(d("100000000")) {
		t.Errorf("overall Allocated = %s, want 100000000", overall[0].Allocated)
	}
}

func TestRebuildInvalidatesCachedPayloads(t *testing.T) {
	f := newTestFacade(t)
	sc := f.ResolveScope("", "18")

	if _, err := f.GetMPSummary(sc, "ts-a"); err != nil {
		t.Fatalf("GetMPSummary() error: %v", err)
	}
	if _, err := f.GetOverview(sc); err != nil {
		t.Fatalf("GetOverview() error: %v", err)
	}
	before := f.Recomputations()

	if _, err := f.RebuildScope(sc, domain.ScopeMP); err != nil {
		t.Fatalf("RebuildScope() error: %v", err)
	}

	// The MP summary was invalidated and recomputes; the overview entry
	// was untouched by an MP-shape rebuild.
	if _, err := f.GetMPSummary(sc, "ts-a"); err != nil {
		t.Fatalf("GetMPSummary() after rebuild error: %v", err)
	}
	if _, err := f.GetOverview(sc); err != nil {
		t.Fatalf("GetOverview() after rebuild error: %v", err)
	}
	if got := f.Recomputations(); got != before+1 {
		t.Errorf("Recomputations = %d, want %d (only the MP summary recomputes)", got, before+1)
	}
}

func TestRebuildInvalidatesNamespacedPayloads(t *testing.T) {
	f := newTestFacade(t)
	f.userNamespace = "user-42"
	sc := f.ResolveScope("", "18")

	if _, err := f.GetMPSummary(sc, "ts-a"); err != nil {
		t.Fatalf("GetMPSummary() error: %v", err)
	}
	mp, err := f.resolver.ResolveByID("ts-a")
	if err != nil {
		t.Fatalf("ResolveByID() error: %v", err)
	}
	key := f.cacheKey("mp-summary", sc, map[string]string{"mp": identity.KeyFor(*mp)})
	if _, ok := f.cache.Get(key); !ok {
		t.Fatal("expected the namespaced payload to be cached")
	}

	if _, err := f.RebuildScope(sc, domain.ScopeMP); err != nil {
		t.Fatalf("RebuildScope() error: %v", err)
	}
	if _, ok := f.cache.Get(key); ok {
		t.Error("rebuild must invalidate namespaced MP summaries too")
	}
}
