package query

import (
	"sort"

	"mplads/internal/domain"
	"mplads/internal/identity"
	"mplads/internal/scope"
	"mplads/internal/storage"
)

// RebuildScope recomputes and atomically replaces the stored summaries for
// one aggregation shape, then invalidates the cached payloads it feeds.
// This is the single-writer batch path; readers keep seeing the previous
// snapshot until the replacement transaction commits.
func (f *Facade) RebuildScope(sc scope.Scope, shape domain.SummaryScope) (int, error) {
	records, err := f.computeShape(sc, shape)
	if err != nil {
		return 0, err
	}

	if err := f.stores.ReplaceSummaries(shape, records); err != nil {
		return 0, err
	}

	invalidated := f.cache.Invalidate(patternForShape(shape))
	f.logger.Info("Rebuilt scope summaries", map[string]interface{}{
		"shape":       string(shape),
		"records":     len(records),
		"invalidated": invalidated,
	})
	return len(records), nil
}

// RebuildAll rebuilds every aggregation shape within the scope. Returns
// total records written.
func (f *Facade) RebuildAll(sc scope.Scope) (int, error) {
	total := 0
	for _, shape := range []domain.SummaryScope{
		domain.ScopeMP,
		domain.ScopeConstituency,
		domain.ScopeState,
		domain.ScopeOverall,
	} {
		n, err := f.RebuildScope(sc, shape)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (f *Facade) computeShape(sc scope.Scope, shape domain.SummaryScope) ([]domain.SummaryRecord, error) {
	switch shape {
	case domain.ScopeMP:
		return f.computer.PerMP(sc, storage.Filter{})

	case domain.ScopeOverall:
		rec, err := f.computer.Overall(sc)
		if err != nil {
			return nil, err
		}
		return []domain.SummaryRecord{rec}, nil

	case domain.ScopeState:
		states, err := f.distinctStates(sc)
		if err != nil {
			return nil, err
		}
		out := make([]domain.SummaryRecord, 0, len(states))
		for _, state := range states {
			rec, err := f.computer.ForState(sc, state)
			if err != nil {
				return nil, err
			}
			out = append(out, rec)
		}
		return out, nil

	case domain.ScopeConstituency:
		pairs, err := f.distinctConstituencies(sc)
		if err != nil {
			return nil, err
		}
		var out []domain.SummaryRecord
		for _, p := range pairs {
			recs, err := f.computer.ForConstituency(sc, p.state, p.constituency)
			if err != nil {
				return nil, err
			}
			out = append(out, recs...)
		}
		return out, nil
	}
	return nil, nil
}

type statePair struct {
	state        string
	constituency string
}

func (f *Facade) mergedIdentities(sc scope.Scope) ([]domain.MPIdentity, error) {
	fresher, canonical, err := f.stores.MPIdentities(sc, storage.Filter{})
	if err != nil {
		return nil, err
	}
	return identity.Merge(fresher, canonical), nil
}

func (f *Facade) distinctStates(sc scope.Scope) ([]string, error) {
	mps, err := f.mergedIdentities(sc)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var out []string
	for _, mp := range mps {
		key := domain.NormalizeField(mp.State)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, mp.State)
	}
	sort.Strings(out)
	return out, nil
}

func (f *Facade) distinctConstituencies(sc scope.Scope) ([]statePair, error) {
	mps, err := f.mergedIdentities(sc)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var out []statePair
	for _, mp := range mps {
		key := domain.NormalizeField(mp.State) + "|" + domain.NormalizeField(mp.Constituency)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, statePair{state: mp.State, constituency: mp.Constituency})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].state != out[j].state {
			return out[i].state < out[j].state
		}
		return out[i].constituency < out[j].constituency
	})
	return out, nil
}

func patternForShape(shape domain.SummaryScope) string {
	switch shape {
	case domain.ScopeMP:
		return "mp-summary:*"
	case domain.ScopeState:
		return "state-summary:*"
	case domain.ScopeConstituency:
		return "constituency-summary:*"
	default:
		return "overview:*"
	}
}
