// Package reconcile deduplicates and cross-references completed and
// recommended work records so a single physical project is never counted,
// or valued, twice. Work status is derived here once, not re-derived ad hoc
// at call sites: presence of a completed record for a work key resolves the
// matching recommended record to Completed.
package reconcile

import (
	"sort"

	"mplads/internal/domain"
	"mplads/internal/logging"
)

// Result is the outcome of reconciling the two work record sets. The union
// of Completed and Pending contains each physical work exactly once.
type Result struct {
	// Completed is the deduplicated completed set.
	Completed []domain.WorkRecord
	// Pending is the recommended-but-not-completed set.
	Pending []domain.WorkRecord
	// Statuses maps every work key to its derived status.
	Statuses map[domain.WorkKey]domain.WorkStatus
	// ResolvedToCompleted counts recommended records excluded because a
	// completed record shares their key (reporting-lag coexistence).
	ResolvedToCompleted int
}

// DedupeCompleted collapses duplicate completed rows (term re-syncs produce
// them) down to one record per work key: latest date wins; on a date tie
// the higher amount wins, so the pick is deterministic under any input order.
func DedupeCompleted(records []domain.WorkRecord) []domain.WorkRecord {
	return dedupe(records)
}

// DedupeRecommended collapses duplicate recommended rows: latest date wins;
// on a date tie the larger amount is kept.
func DedupeRecommended(records []domain.WorkRecord) []domain.WorkRecord {
	return dedupe(records)
}

// Both sets share one tie-break policy: latest date, then larger amount,
// then workId ordering as a final deterministic fallback.
func dedupe(records []domain.WorkRecord) []domain.WorkRecord {
	best := make(map[domain.WorkKey]domain.WorkRecord, len(records))
	order := make([]domain.WorkKey, 0, len(records))

	for _, rec := range records {
		key := rec.Key()
		kept, exists := best[key]
		if !exists {
			best[key] = rec
			order = append(order, key)
			continue
		}
		if prefer(rec, kept) {
			best[key] = rec
		}
	}

	out := make([]domain.WorkRecord, 0, len(order))
	for _, key := range order {
		out = append(out, best[key])
	}
	return out
}

// prefer reports whether candidate should replace kept.
func prefer(candidate, kept domain.WorkRecord) bool {
	if !candidate.Date.Equal(kept.Date) {
		return candidate.Date.After(kept.Date)
	}
	if cmp := candidate.Amount.Cmp(kept.Amount); cmp != 0 {
		return cmp > 0
	}
	return candidate.ID > kept.ID
}

// Reconcile dedupes both sets and cross-matches them in a single joined
// pass. A recommended record whose key appears in the deduped completed set
// is excluded from Pending: both records legitimately coexist during
// reporting lag, and that coexistence means "resolved to Completed", not
// "counted twice".
func Reconcile(completed, recommended []domain.WorkRecord, logger *logging.Logger) Result {
	dedupedCompleted := DedupeCompleted(completed)
	dedupedRecommended := DedupeRecommended(recommended)

	statuses := make(map[domain.WorkKey]domain.WorkStatus, len(dedupedCompleted)+len(dedupedRecommended))
	for _, rec := range dedupedCompleted {
		statuses[rec.Key()] = domain.WorkCompleted
	}

	pending := make([]domain.WorkRecord, 0, len(dedupedRecommended))
	resolved := 0
	for _, rec := range dedupedRecommended {
		key := rec.Key()
		if statuses[key] == domain.WorkCompleted {
			resolved++
			continue
		}
		statuses[key] = domain.WorkRecommended
		pending = append(pending, rec)
	}

	if resolved > 0 && logger != nil {
		logger.Debug("recommended works resolved to completed", map[string]interface{}{
			"resolved": resolved,
		})
	}

	return Result{
		Completed:           dedupedCompleted,
		Pending:             pending,
		Statuses:            statuses,
		ResolvedToCompleted: resolved,
	}
}

// Pending returns the recommended-but-not-completed set.
func Pending(completed, recommended []domain.WorkRecord) []domain.WorkRecord {
	return Reconcile(completed, recommended, nil).Pending
}

// SortByKey orders records deterministically by work key. Useful before
// serializing reconciled sets so repeated queries yield identical payloads.
func SortByKey(records []domain.WorkRecord) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].Key().String() < records[j].Key().String()
	})
}
