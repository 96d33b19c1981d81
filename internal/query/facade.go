// Package query provides the facade the outer HTTP layer calls. It wires
// scope resolution, identity resolution, summary computation, and the
// aggregation cache into the four exposed query shapes.
package query

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"mplads/internal/cache"
	"mplads/internal/config"
	"mplads/internal/domain"
	"mplads/internal/errors"
	"mplads/internal/identity"
	"mplads/internal/logging"
	"mplads/internal/scope"
	"mplads/internal/storage"
	"mplads/internal/summary"
)

// Facade is the query surface over the aggregation engine. Results are
// JSON-serializable; identical queries within TTL return byte-identical
// payloads without recomputation.
type Facade struct {
	stores   *storage.Stores
	computer *summary.Computer
	resolver *identity.Resolver
	cache    *cache.Cache
	logger   *logging.Logger
	cfg      *config.Config

	// userNamespace prefixes cache keys when personalization applies;
	// empty for the shared cache space.
	userNamespace string

	recomputations int64
}

// Options configures optional facade behavior.
type Options struct {
	// UserNamespace isolates cached payloads per authenticated user.
	UserNamespace string
}

// NewFacade wires the facade from its collaborators.
func NewFacade(stores *storage.Stores, c *cache.Cache, cfg *config.Config, logger *logging.Logger, opts Options) *Facade {
	return &Facade{
		stores:        stores,
		computer:      summary.NewComputer(stores, logger),
		resolver:      identity.NewResolver(stores.DB(), logger),
		cache:         c,
		logger:        logger,
		cfg:           cfg,
		userNamespace: opts.UserNamespace,
	}
}

// ResolveScope canonicalizes request parameters using the configured
// default term. It never fails; unrecognized input falls back to defaults.
func (f *Facade) ResolveScope(house, termSelection string) scope.Scope {
	return scope.Resolve(house, termSelection, f.cfg.Query.DefaultTerm)
}

// Recomputations returns how many cache misses required a fresh
// computation. Observable by tests for the cache-idempotence property.
func (f *Facade) Recomputations() int64 {
	return atomic.LoadInt64(&f.recomputations)
}

// cacheKey builds "{method}:{canonical-query-string}". Parameters are
// normalized and sorted so the key is stable regardless of how the request
// ordered or spelled them.
func (f *Facade) cacheKey(method string, sc scope.Scope, params map[string]string) string {
	parts := []string{sc.CanonicalString()}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, domain.NormalizeField(params[k])))
	}

	key := method + ":" + strings.Join(parts, "&")
	if f.userNamespace != "" {
		key = f.userNamespace + "/" + key
	}
	return key
}

// cachedPayload returns the cached JSON payload for key, or computes,
// caches, and returns it. Compute errors are never cached.
func (f *Facade) cachedPayload(key string, tier cache.Tier, compute func() (interface{}, error)) ([]byte, error) {
	if payload, ok := f.cache.Get(key); ok {
		return payload, nil
	}

	result, err := compute()
	if err != nil {
		return nil, err
	}
	atomic.AddInt64(&f.recomputations, 1)

	payload, err := json.Marshal(result)
	if err != nil {
		return nil, errors.New(errors.InternalError, "failed to encode result", err)
	}

	f.cache.Set(key, payload, tier)
	return payload, nil
}

// GetOverview returns the aggregate summary across all MPs in the scope.
func (f *Facade) GetOverview(sc scope.Scope) (domain.SummaryRecord, error) {
	key := f.cacheKey("overview", sc, nil)
	payload, err := f.cachedPayload(key, cache.TierLong, func() (interface{}, error) {
		return f.computer.Overall(sc)
	})
	if err != nil {
		return domain.SummaryRecord{}, err
	}

	var rec domain.SummaryRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return domain.SummaryRecord{}, errors.New(errors.InternalError, "failed to decode cached overview", err)
	}
	return rec, nil
}

// GetMPSummary returns the summary for one MP, addressed by surrogate ID
// from either store. An unknown ID yields NotFound, never a zero-valued
// summary: "exists with zero funds" and "unknown entity" are different
// answers.
func (f *Facade) GetMPSummary(sc scope.Scope, mpID string) (domain.SummaryRecord, error) {
	mp, err := f.resolver.ResolveByID(mpID)
	if err != nil {
		return domain.SummaryRecord{}, err
	}

	key := f.cacheKey("mp-summary", sc, map[string]string{"mp": identity.KeyFor(*mp)})
	payload, err := f.cachedPayload(key, cache.TierMedium, func() (interface{}, error) {
		return f.computer.ForMP(sc, *mp)
	})
	if err != nil {
		return domain.SummaryRecord{}, err
	}

	var rec domain.SummaryRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return domain.SummaryRecord{}, errors.New(errors.InternalError, "failed to decode cached summary", err)
	}
	return rec, nil
}

// GetStateSummary returns the rolled-up summary for a state.
func (f *Facade) GetStateSummary(sc scope.Scope, state string) (domain.SummaryRecord, error) {
	key := f.cacheKey("state-summary", sc, map[string]string{"state": state})
	payload, err := f.cachedPayload(key, cache.TierMedium, func() (interface{}, error) {
		return f.computer.ForState(sc, state)
	})
	if err != nil {
		return domain.SummaryRecord{}, err
	}

	var rec domain.SummaryRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return domain.SummaryRecord{}, errors.New(errors.InternalError, "failed to decode cached summary", err)
	}
	return rec, nil
}

// GetConstituencySummary returns one summary per MP in the constituency.
func (f *Facade) GetConstituencySummary(sc scope.Scope, state, constituency string) ([]domain.SummaryRecord, error) {
	key := f.cacheKey("constituency-summary", sc, map[string]string{
		"state":        state,
		"constituency": constituency,
	})
	payload, err := f.cachedPayload(key, cache.TierShort, func() (interface{}, error) {
		return f.computer.ForConstituency(sc, state, constituency)
	})
	if err != nil {
		return nil, err
	}

	var recs []domain.SummaryRecord
	if err := json.Unmarshal(payload, &recs); err != nil {
		return nil, errors.New(errors.InternalError, "failed to decode cached summaries", err)
	}
	return recs, nil
}
