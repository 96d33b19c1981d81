package loader

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"mplads/internal/domain"
)

// Snapshot record shapes. Amounts are decimal strings; dates accept
// date-only or RFC3339 timestamps.

type mpRow struct {
	// mpId keeps the MP surrogate distinct from the record's own id when
	// this row is inlined into a record row.
	ID           string `yaml:"mpId"`
	Name         string `yaml:"name"`
	House        string `yaml:"house"`
	LsTerm       *int   `yaml:"lsTerm"`
	State        string `yaml:"state"`
	Constituency string `yaml:"constituency"`
}

type allocationRow struct {
	ID              string `yaml:"id"`
	MP              mpRow  `yaml:",inline"`
	AllocatedAmount string `yaml:"allocatedAmount"`
}

type expenditureRow struct {
	ID            string `yaml:"id"`
	MP            mpRow  `yaml:",inline"`
	WorkID        string `yaml:"workId"`
	Amount        string `yaml:"amount"`
	PaymentStatus string `yaml:"paymentStatus"`
	Date          string `yaml:"date"`
}

type workRow struct {
	ID       string  `yaml:"id"`
	MP       mpRow   `yaml:",inline"`
	WorkID   string  `yaml:"workId"`
	Amount   string  `yaml:"amount"`
	Date     string  `yaml:"date"`
	Category string  `yaml:"category"`
	HasImage bool    `yaml:"hasImage"`
	Rating   float64 `yaml:"rating"`
}

// deterministicID derives a stable surrogate from a row's content. Snapshot
// rows that carry no id must still upsert to the same primary key on every
// load, or re-running a load would duplicate them.
func deterministicID(kind string, fields ...string) string {
	seed := kind + "|" + strings.Join(fields, "|")
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String()
}

func termKey(term *int) string {
	if term == nil {
		return ""
	}
	return strconv.Itoa(*term)
}

func readYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, out)
}

func (r mpRow) identity() domain.MPIdentity {
	return domain.MPIdentity{
		ID:           r.ID,
		Name:         r.Name,
		House:        domain.House(r.House),
		State:        r.State,
		Constituency: r.Constituency,
	}
}

func parseAmount(s, context string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("bad amount %q for %s: %w", s, context, err)
	}
	return d, nil
}

func parseDate(s, context string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("bad date %q for %s", s, context)
}

func readMPSnapshot(path string) ([]domain.MPIdentity, error) {
	var doc struct {
		Records []mpRow `yaml:"records"`
	}
	if err := readYAML(path, &doc); err != nil {
		return nil, err
	}

	out := make([]domain.MPIdentity, 0, len(doc.Records))
	for _, row := range doc.Records {
		mp := row.identity()
		if mp.ID == "" {
			mp.ID = deterministicID("mp", row.House, row.Name, row.State, row.Constituency)
		}
		out = append(out, mp)
	}
	return out, nil
}

func readTermSummarySnapshot(path string) ([]domain.MPIdentity, []*int, error) {
	var doc struct {
		Records []mpRow `yaml:"records"`
	}
	if err := readYAML(path, &doc); err != nil {
		return nil, nil, err
	}

	mps := make([]domain.MPIdentity, 0, len(doc.Records))
	terms := make([]*int, 0, len(doc.Records))
	for _, row := range doc.Records {
		mp := row.identity()
		if mp.ID == "" {
			// The term is part of the seed: the same MP in two terms is
			// two rows, not one upserted row.
			mp.ID = deterministicID("mp-term", row.House, termKey(row.LsTerm), row.Name, row.State, row.Constituency)
		}
		mps = append(mps, mp)
		terms = append(terms, row.LsTerm)
	}
	return mps, terms, nil
}

func readAllocationSnapshot(path string) ([]domain.AllocationRecord, error) {
	var doc struct {
		Records []allocationRow `yaml:"records"`
	}
	if err := readYAML(path, &doc); err != nil {
		return nil, err
	}

	out := make([]domain.AllocationRecord, 0, len(doc.Records))
	for _, row := range doc.Records {
		amount, err := parseAmount(row.AllocatedAmount, "allocation "+row.MP.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.AllocationRecord{
			ID:        row.ID,
			MP:        row.MP.identity(),
			LsTerm:    row.MP.LsTerm,
			Allocated: amount,
		})
	}
	return out, nil
}

func readExpenditureSnapshot(path string) ([]domain.ExpenditureRecord, error) {
	var doc struct {
		Records []expenditureRow `yaml:"records"`
	}
	if err := readYAML(path, &doc); err != nil {
		return nil, err
	}

	out := make([]domain.ExpenditureRecord, 0, len(doc.Records))
	for _, row := range doc.Records {
		amount, err := parseAmount(row.Amount, "expenditure "+row.ID)
		if err != nil {
			return nil, err
		}
		date, err := parseDate(row.Date, "expenditure "+row.ID)
		if err != nil {
			return nil, err
		}
		id := row.ID
		if id == "" {
			id = deterministicID("expenditure",
				row.MP.House, termKey(row.MP.LsTerm), row.MP.Name,
				row.WorkID, row.Amount, row.PaymentStatus, row.Date)
		}
		out = append(out, domain.ExpenditureRecord{
			ID:     id,
			MP:     row.MP.identity(),
			LsTerm: row.MP.LsTerm,
			WorkID: row.WorkID,
			Amount: amount,
			Status: domain.PaymentStatus(row.PaymentStatus),
			Date:   date,
		})
	}
	return out, nil
}

func readWorkSnapshot(path string) ([]domain.WorkRecord, error) {
	var doc struct {
		Records []workRow `yaml:"records"`
	}
	if err := readYAML(path, &doc); err != nil {
		return nil, err
	}

	out := make([]domain.WorkRecord, 0, len(doc.Records))
	for _, row := range doc.Records {
		amount, err := parseAmount(row.Amount, "work "+row.WorkID)
		if err != nil {
			return nil, err
		}
		date, err := parseDate(row.Date, "work "+row.WorkID)
		if err != nil {
			return nil, err
		}
		mp := row.MP.identity()
		id := row.ID
		if id == "" {
			id = deterministicID("work",
				row.MP.House, termKey(row.MP.LsTerm), row.MP.Name, row.MP.State,
				row.WorkID, row.Amount, row.Date)
		}
		out = append(out, domain.WorkRecord{
			ID:       id,
			MP:       mp,
			House:    mp.House,
			LsTerm:   row.MP.LsTerm,
			WorkID:   row.WorkID,
			Amount:   amount,
			Date:     date,
			Category: row.Category,
			HasImage: row.HasImage,
			Rating:   row.Rating,
		})
	}
	return out, nil
}

// replaceAllocations groups the snapshot by house/term and supersedes each
// group wholesale, per the allocation immutability rule.
func (l *Loader) replaceAllocations(records []domain.AllocationRecord) error {
	type groupKey struct {
		house domain.House
		term  int // 0 for Rajya Sabha
	}

	groups := make(map[groupKey][]domain.AllocationRecord)
	var order []groupKey
	for _, rec := range records {
		key := groupKey{house: rec.MP.House}
		if rec.LsTerm != nil {
			key.term = *rec.LsTerm
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], rec)
	}

	for _, key := range order {
		var term *int
		if key.term != 0 {
			t := key.term
			term = &t
		}
		if err := l.stores.ReplaceAllocations(key.house, term, groups[key]); err != nil {
			return err
		}
	}
	return nil
}
