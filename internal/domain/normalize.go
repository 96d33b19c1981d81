package domain

import "strings"

// NormalizeField canonicalizes a free-text identity field: trimmed,
// lower-cased, internal whitespace collapsed to single spaces. Both record
// stores were populated independently and disagree on casing and spacing;
// every cross-store comparison goes through this.
func NormalizeField(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
