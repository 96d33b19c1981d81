package identity

import (
	"testing"

	"mplads/internal/domain"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		name         string
		mpName       string
		constituency string
		state        string
		want         string
	}{
		{
			name:         "already normalized",
			mpName:       "a kumar",
			constituency: "north delhi",
			state:        "delhi",
			want:         "a kumar|north delhi|delhi",
		},
		{
			name:         "mixed case and padding",
			mpName:       "  A Kumar ",
			constituency: "North  Delhi",
			state:        "DELHI",
			want:         "a kumar|north delhi|delhi",
		},
		{
			name:         "internal runs of whitespace collapse",
			mpName:       "a   kumar",
			constituency: "north\tdelhi",
			state:        "delhi",
			want:         "a kumar|north delhi|delhi",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeKey(tt.mpName, tt.constituency, tt.state)
			if got != tt.want {
				t.Errorf("NormalizeKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKeyForIncludesHouse(t *testing.T) {
	ls := domain.MPIdentity{Name: "A Kumar", House: domain.LokSabha, State: "Delhi", Constituency: "North Delhi"}
	rs := ls
	rs.House = domain.RajyaSabha

	if KeyFor(ls) == KeyFor(rs) {
		t.Error("same person in different houses must have distinct keys")
	}
	if KeyFor(ls) != "lok sabha|a kumar|north delhi|delhi" {
		t.Errorf("unexpected key: %q", KeyFor(ls))
	}
}

func TestMergePrefersFresherStore(t *testing.T) {
	fresher := []domain.MPIdentity{
		{ID: "t-1", Name: "A Kumar", House: domain.LokSabha, State: "Delhi", Constituency: "North Delhi"},
		{ID: "t-2", Name: "B Singh", House: domain.LokSabha, State: "Punjab", Constituency: "Amritsar"},
	}
	canonical := []domain.MPIdentity{
		// Same person as t-1, different surrogate ID and spelling.
		{ID: "m-9", Name: "a   kumar", House: domain.LokSabha, State: "DELHI", Constituency: "north delhi"},
		{ID: "m-3", Name: "C Patel", House: domain.RajyaSabha, State: "Gujarat"},
	}

	merged := Merge(fresher, canonical)
	if len(merged) != 3 {
		t.Fatalf("Merge() returned %d identities, want 3", len(merged))
	}
	if merged[0].ID != "t-1" || merged[1].ID != "t-2" {
		t.Errorf("fresher-store records must come first and keep their IDs: %+v", merged)
	}
	if merged[2].ID != "m-3" {
		t.Errorf("expected the non-duplicate canonical record, got %+v", merged[2])
	}
}

func TestMergeDedupesWithinOneStore(t *testing.T) {
	fresher := []domain.MPIdentity{
		{ID: "t-1", Name: "A Kumar", House: domain.LokSabha, State: "Delhi", Constituency: "North Delhi"},
		{ID: "t-5", Name: "A KUMAR", House: domain.LokSabha, State: "Delhi", Constituency: "North Delhi"},
	}

	merged := Merge(fresher, nil)
	if len(merged) != 1 {
		t.Fatalf("Merge() returned %d identities, want 1", len(merged))
	}
	if merged[0].ID != "t-1" {
		t.Errorf("first occurrence should win, got %+v", merged[0])
	}
}
