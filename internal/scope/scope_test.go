package scope

import (
	"testing"

	"mplads/internal/domain"
)

func intPtr(v int) *int { return &v }

func TestResolveDefaults(t *testing.T) {
	tests := []struct {
		name      string
		house     string
		term      string
		canonical string
	}{
		{"empty selection", "", "", "house=both&ls_term=18"},
		{"explicit term 17", "", "17", "house=both&ls_term=17"},
		{"both terms", "Lok Sabha", "both", "house=lok-sabha&ls_term=17,18"},
		{"case insensitive house", "LOK SABHA", "18", "house=lok-sabha&ls_term=18"},
		{"whitespace in house", "  lok   sabha ", "18", "house=lok-sabha&ls_term=18"},
		{"rajya sabha ignores term", "Rajya Sabha", "17", "house=rajya-sabha"},
		{"unknown house means both", "Vidhan Sabha", "18", "house=both&ls_term=18"},
		{"unknown term uses default", "", "19", "house=both&ls_term=18"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := Resolve(tt.house, tt.term, "18")
			if got := sc.CanonicalString(); got != tt.canonical {
				t.Errorf("CanonicalString() = %q, want %q", got, tt.canonical)
			}
		})
	}
}

func TestResolveFallsBackToConfiguredDefault(t *testing.T) {
	sc := Resolve("", "", "17")
	if got := sc.CanonicalString(); got != "house=both&ls_term=17" {
		t.Errorf("CanonicalString() = %q, want term 17 from default", got)
	}

	// A misconfigured default still yields a usable scope.
	sc = Resolve("", "", "nineteen")
	if got := sc.CanonicalString(); got != "house=both&ls_term=18" {
		t.Errorf("CanonicalString() = %q, want fallback to 18", got)
	}
}

func TestMatches(t *testing.T) {
	both := Resolve("", "both", "18")
	if !both.Matches(domain.LokSabha, intPtr(domain.Term17)) {
		t.Error("expected LS term 17 to match a both-terms scope")
	}
	if !both.Matches(domain.RajyaSabha, nil) {
		t.Error("expected RS record to match a both-houses scope")
	}

	ls18 := Resolve("Lok Sabha", "18", "18")
	if ls18.Matches(domain.LokSabha, intPtr(domain.Term17)) {
		t.Error("term 17 record must not match a term-18 scope")
	}
	if ls18.Matches(domain.RajyaSabha, nil) {
		t.Error("RS record must not match a Lok-Sabha-only scope")
	}
	if ls18.Matches(domain.LokSabha, nil) {
		t.Error("LS record without a term must not match")
	}

	var zero Scope
	if zero.Matches(domain.LokSabha, intPtr(domain.Term18)) {
		t.Error("zero scope must match nothing")
	}
}

func TestPredicate(t *testing.T) {
	sc := Resolve("Lok Sabha", "both", "18")
	sql, args, err := sc.Predicate("house", "ls_term").ToSql()
	if err != nil {
		t.Fatalf("ToSql() error: %v", err)
	}
	if sql != "(house = ? AND ls_term IN (?,?))" {
		t.Errorf("unexpected SQL: %q", sql)
	}
	if len(args) != 3 || args[0] != string(domain.LokSabha) {
		t.Errorf("unexpected args: %v", args)
	}

	rs := Resolve("Rajya Sabha", "", "18")
	sql, _, err = rs.Predicate("house", "ls_term").ToSql()
	if err != nil {
		t.Fatalf("ToSql() error: %v", err)
	}
	if sql != "(house = ? AND ls_term IS NULL)" {
		t.Errorf("unexpected SQL: %q", sql)
	}

	var zero Scope
	sql, _, err = zero.Predicate("house", "ls_term").ToSql()
	if err != nil {
		t.Fatalf("ToSql() error: %v", err)
	}
	if sql != "1 = 0" {
		t.Errorf("zero scope SQL = %q, want 1 = 0", sql)
	}
}
