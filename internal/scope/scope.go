// Package scope canonicalizes a request's house/term selection into an
// immutable filter predicate. The predicate is built once per request and
// passed to every downstream component, so Lok Sabha 17 and 18 data are
// never mixed by one call site and separated by another.
package scope

import (
	"strings"

	sq "github.com/Masterminds/squirrel"

	"mplads/internal/domain"
)

// Scope restricts every record query to a house/term selection. The zero
// value matches nothing; construct via Resolve.
type Scope struct {
	lokSabha   bool
	rajyaSabha bool
	terms      []int // Lok Sabha terms included; empty unless lokSabha
}

// Resolve canonicalizes request parameters into a Scope. There is no
// failure mode: unknown or absent selections fall back to defaultTerm, and
// an unknown house means both houses.
//
//	house ∈ {"Lok Sabha", "Rajya Sabha", ""} (case-insensitive)
//	termSelection ∈ {"17", "18", "both", ""} (case-insensitive)
func Resolve(house, termSelection, defaultTerm string) Scope {
	terms := resolveTerms(termSelection, defaultTerm)

	switch domain.NormalizeField(house) {
	case "lok sabha":
		return Scope{lokSabha: true, terms: terms}
	case "rajya sabha":
		// Rajya Sabha has no term; the selection is ignored.
		return Scope{rajyaSabha: true}
	default:
		return Scope{lokSabha: true, rajyaSabha: true, terms: terms}
	}
}

func resolveTerms(selection, defaultTerm string) []int {
	sel := strings.TrimSpace(strings.ToLower(selection))
	switch sel {
	case "17":
		return []int{domain.Term17}
	case "18":
		return []int{domain.Term18}
	case "both":
		return []int{domain.Term17, domain.Term18}
	}
	// Absent or unrecognized: the configured default, which itself
	// defaults to "18" if misconfigured.
	switch strings.TrimSpace(strings.ToLower(defaultTerm)) {
	case "17":
		return []int{domain.Term17}
	case "both":
		return []int{domain.Term17, domain.Term18}
	default:
		return []int{domain.Term18}
	}
}

// Houses returns the houses included in the scope.
func (s Scope) Houses() []domain.House {
	var hs []domain.House
	if s.lokSabha {
		hs = append(hs, domain.LokSabha)
	}
	if s.rajyaSabha {
		hs = append(hs, domain.RajyaSabha)
	}
	return hs
}

// Terms returns the Lok Sabha terms included in the scope. Empty for a
// Rajya-Sabha-only scope.
func (s Scope) Terms() []int {
	out := make([]int, len(s.terms))
	copy(out, s.terms)
	return out
}

// Matches reports whether a record with the given house and term falls
// inside the scope. lsTerm is nil for Rajya Sabha records.
func (s Scope) Matches(house domain.House, lsTerm *int) bool {
	switch house {
	case domain.RajyaSabha:
		return s.rajyaSabha && lsTerm == nil
	case domain.LokSabha:
		if !s.lokSabha || lsTerm == nil {
			return false
		}
		for _, t := range s.terms {
			if t == *lsTerm {
				return true
			}
		}
	}
	return false
}

// Predicate compiles the scope into a SQL predicate over the given house
// and term columns. Every store query applies this one Sqlizer; the
// union of houses is expressed here exactly once.
func (s Scope) Predicate(houseCol, termCol string) sq.Sqlizer {
	lok := sq.And{
		sq.Eq{houseCol: string(domain.LokSabha)},
		sq.Eq{termCol: s.terms},
	}
	rajya := sq.And{
		sq.Eq{houseCol: string(domain.RajyaSabha)},
		sq.Eq{termCol: nil},
	}

	switch {
	case s.lokSabha && s.rajyaSabha:
		return sq.Or{rajya, lok}
	case s.lokSabha:
		return lok
	case s.rajyaSabha:
		return rajya
	default:
		// Zero value: match nothing rather than everything.
		return sq.Expr("1 = 0")
	}
}

// CanonicalString renders the scope as a stable query-string fragment for
// cache keying, independent of how the request spelled its parameters.
func (s Scope) CanonicalString() string {
	var b strings.Builder
	b.WriteString("house=")
	switch {
	case s.lokSabha && s.rajyaSabha:
		b.WriteString("both")
	case s.lokSabha:
		b.WriteString("lok-sabha")
	case s.rajyaSabha:
		b.WriteString("rajya-sabha")
	default:
		b.WriteString("none")
	}
	if s.lokSabha {
		b.WriteString("&ls_term=")
		for i, t := range s.terms {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(termString(t))
		}
	}
	return b.String()
}

func termString(t int) string {
	switch t {
	case domain.Term17:
		return "17"
	case domain.Term18:
		return "18"
	default:
		return "?"
	}
}
