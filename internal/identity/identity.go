// Package identity establishes a single canonical identity for an MP across
// the two record stores. The stores mint independent surrogate IDs and
// disagree on casing and spacing, so identity is a normalized key of the
// free-text fields, never an ID comparison.
package identity

import (
	"strings"

	"mplads/internal/domain"
)

// KeyDelimiter joins normalized key fields. Chosen because it does not
// occur in MP names, constituencies, or state names.
const KeyDelimiter = "|"

// NormalizeKey produces the canonical identity key for an MP from its
// free-text fields: each field trimmed, lower-cased, internal whitespace
// collapsed, then joined with KeyDelimiter.
func NormalizeKey(name, constituency, state string) string {
	return strings.Join([]string{
		domain.NormalizeField(name),
		domain.NormalizeField(constituency),
		domain.NormalizeField(state),
	}, KeyDelimiter)
}

// KeyFor returns the full normalized key for an identity, including the
// house. Records for the same person in different houses are distinct
// entities for aggregation purposes.
func KeyFor(mp domain.MPIdentity) string {
	return strings.ToLower(string(mp.House)) + KeyDelimiter +
		NormalizeKey(mp.Name, mp.Constituency, mp.State)
}

// Merge combines identities from the two stores into a deduplicated,
// identity-stable list. Records from the denormalized, fresher store take
// precedence; canonical-store records are included only when their
// normalized key is not already present from the fresher store.
func Merge(fresher, canonical []domain.MPIdentity) []domain.MPIdentity {
	seen := make(map[string]struct{}, len(fresher))
	merged := make([]domain.MPIdentity, 0, len(fresher)+len(canonical))

	for _, mp := range fresher {
		key := KeyFor(mp)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, mp)
	}

	for _, mp := range canonical {
		key := KeyFor(mp)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, mp)
	}

	return merged
}
