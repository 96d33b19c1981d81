package summary

import (
	"mplads/internal/domain"
	"mplads/internal/identity"
	"mplads/internal/logging"
	"mplads/internal/scope"
	"mplads/internal/storage"
)

// RecordSource is the slice of the storage layer the computer reads.
// *storage.Stores satisfies it.
type RecordSource interface {
	MPIdentities(sc scope.Scope, f storage.Filter) (fresher, canonical []domain.MPIdentity, err error)
	Allocations(sc scope.Scope, f storage.Filter) ([]domain.AllocationRecord, error)
	Expenditures(sc scope.Scope, f storage.Filter) ([]domain.ExpenditureRecord, error)
	CompletedWorks(sc scope.Scope, f storage.Filter) ([]domain.WorkRecord, error)
	RecommendedWorks(sc scope.Scope, f storage.Filter) ([]domain.WorkRecord, error)
}

// Computer gathers scope-filtered records and computes summaries. It holds
// no mutable state; every method is a deterministic function of the record
// stores at query time.
type Computer struct {
	source RecordSource
	logger *logging.Logger
}

// NewComputer creates a summary computer over the given record source.
func NewComputer(source RecordSource, logger *logging.Logger) *Computer {
	return &Computer{
		source: source,
		logger: logger,
	}
}

func (c *Computer) gather(sc scope.Scope, f storage.Filter) (Inputs, error) {
	var in Inputs
	var err error

	if in.Allocations, err = c.source.Allocations(sc, f); err != nil {
		return in, err
	}
	if in.Expenditures, err = c.source.Expenditures(sc, f); err != nil {
		return in, err
	}
	if in.Completed, err = c.source.CompletedWorks(sc, f); err != nil {
		return in, err
	}
	if in.Recommended, err = c.source.RecommendedWorks(sc, f); err != nil {
		return in, err
	}
	return in, nil
}

// ForMP computes the summary for a single MP.
func (c *Computer) ForMP(sc scope.Scope, mp domain.MPIdentity) (domain.SummaryRecord, error) {
	key := identity.KeyFor(mp)
	in, err := c.gather(sc, storage.Filter{MPKey: key})
	if err != nil {
		return domain.SummaryRecord{}, err
	}
	return Compute(domain.ScopeMP, key, in, c.logger), nil
}

// ForState computes the state-level summary: per-MP summaries for every MP
// in the state, rolled up from the raw sums.
func (c *Computer) ForState(sc scope.Scope, state string) (domain.SummaryRecord, error) {
	parts, err := c.perMP(sc, storage.Filter{State: state})
	if err != nil {
		return domain.SummaryRecord{}, err
	}
	return Rollup(domain.ScopeState, domain.NormalizeField(state), parts, c.logger), nil
}

// ForConstituency computes one summary per MP in the constituency. A
// constituency can span multiple MPs across terms and houses within a
// mixed scope, so the result is a list.
func (c *Computer) ForConstituency(sc scope.Scope, state, constituency string) ([]domain.SummaryRecord, error) {
	parts, err := c.perMP(sc, storage.Filter{State: state, Constituency: constituency})
	if err != nil {
		return nil, err
	}
	for i := range parts {
		parts[i].Scope = domain.ScopeConstituency
	}
	return parts, nil
}

// Overall computes the aggregate across all MPs in the scope.
func (c *Computer) Overall(sc scope.Scope) (domain.SummaryRecord, error) {
	parts, err := c.perMP(sc, storage.Filter{})
	if err != nil {
		return domain.SummaryRecord{}, err
	}
	return Rollup(domain.ScopeOverall, "overall", parts, c.logger), nil
}

// PerMP computes one summary per merged MP identity within the scope and
// filter. This is the first pass every wider aggregation builds on.
func (c *Computer) PerMP(sc scope.Scope, f storage.Filter) ([]domain.SummaryRecord, error) {
	return c.perMP(sc, f)
}

func (c *Computer) perMP(sc scope.Scope, f storage.Filter) ([]domain.SummaryRecord, error) {
	fresher, canonical, err := c.source.MPIdentities(sc, f)
	if err != nil {
		return nil, err
	}
	merged := identity.Merge(fresher, canonical)

	out := make([]domain.SummaryRecord, 0, len(merged))
	for _, mp := range merged {
		rec, err := c.ForMP(sc, mp)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
