package storage

import (
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"mplads/internal/domain"
	"mplads/internal/identity"
	"mplads/internal/logging"
	"mplads/internal/scope"
)

// Filter narrows a scope-gated query to one entity. Empty fields do not
// constrain. Values are normalized here, so callers may pass raw request
// input.
type Filter struct {
	MPKey        string // full identity key (identity.KeyFor)
	State        string
	Constituency string
}

// Stores provides scope-filtered access to every record set, plus the bulk
// insert paths the loader and the rebuild job use.
type Stores struct {
	db      *DB
	logger  *logging.Logger
	maxRows int
}

// NewStores creates the record store layer. maxRows bounds how many raw
// rows feed a single aggregation; zero means no bound.
func NewStores(db *DB, logger *logging.Logger, maxRows int) *Stores {
	return &Stores{
		db:      db,
		logger:  logger,
		maxRows: maxRows,
	}
}

// DB exposes the underlying connection for collaborators that take a
// narrow querier interface.
func (s *Stores) DB() *DB {
	return s.db
}

func (s *Stores) selectRecords(table string, columns []string, sc scope.Scope, f Filter) (*sql.Rows, error) {
	q := sq.Select(columns...).
		From(table).
		Where(sc.Predicate("house", "ls_term"))

	if f.MPKey != "" {
		q = q.Where(sq.Eq{"identity_key": f.MPKey})
	}
	if f.State != "" {
		q = q.Where(sq.Eq{"state_key": domain.NormalizeField(f.State)})
	}
	if f.Constituency != "" {
		q = q.Where(sq.Eq{"constituency_key": domain.NormalizeField(f.Constituency)})
	}
	if s.maxRows > 0 {
		q = q.Limit(uint64(s.maxRows))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build %s query: %w", table, err)
	}
	return s.db.Query(query, args...)
}

// MPIdentities returns the identities matching the scope and filter from
// both stores: the denormalized per-term store (fresher) first, then the
// canonical registry. Callers merge them with identity.Merge.
func (s *Stores) MPIdentities(sc scope.Scope, f Filter) (fresher, canonical []domain.MPIdentity, err error) {
	fresher, err = s.queryIdentities("mp_term_summaries", sc, f, true)
	if err != nil {
		return nil, nil, err
	}
	canonical, err = s.queryIdentities("mps", sc, f, false)
	if err != nil {
		return nil, nil, err
	}
	return fresher, canonical, nil
}

func (s *Stores) queryIdentities(table string, sc scope.Scope, f Filter, hasTerm bool) ([]domain.MPIdentity, error) {
	q := sq.Select("id", "name", "house", "state", "constituency").From(table)

	if hasTerm {
		q = q.Where(sc.Predicate("house", "ls_term"))
	} else {
		// The canonical registry has no term column; it is gated by
		// house only.
		q = q.Where(sq.Eq{"house": houseStrings(sc.Houses())})
	}
	if f.MPKey != "" {
		q = q.Where(sq.Eq{"identity_key": f.MPKey})
	}
	if f.State != "" {
		q = q.Where(sq.Eq{"state_key": domain.NormalizeField(f.State)})
	}
	if f.Constituency != "" {
		q = q.Where(sq.Eq{"constituency_key": domain.NormalizeField(f.Constituency)})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build %s query: %w", table, err)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.MPIdentity
	for rows.Next() {
		var mp domain.MPIdentity
		var house string
		if err := rows.Scan(&mp.ID, &mp.Name, &house, &mp.State, &mp.Constituency); err != nil {
			return nil, err
		}
		mp.House = domain.House(house)
		out = append(out, mp)
	}
	return out, rows.Err()
}

func houseStrings(houses []domain.House) []string {
	out := make([]string, len(houses))
	for i, h := range houses {
		out[i] = string(h)
	}
	return out
}

// Allocations returns allocation records within the scope and filter.
func (s *Stores) Allocations(sc scope.Scope, f Filter) ([]domain.AllocationRecord, error) {
	rows, err := s.selectRecords("allocations",
		[]string{"id", "mp_name", "house", "ls_term", "state", "constituency", "allocated_amount"},
		sc, f)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AllocationRecord
	for rows.Next() {
		var rec domain.AllocationRecord
		var house, amount string
		var term sql.NullInt64
		if err := rows.Scan(&rec.ID, &rec.MP.Name, &house, &term, &rec.MP.State, &rec.MP.Constituency, &amount); err != nil {
			return nil, err
		}
		rec.MP.House = domain.House(house)
		rec.LsTerm = termPtr(term)
		if rec.Allocated, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("bad allocated amount for %s: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Expenditures returns expenditure records within the scope and filter.
func (s *Stores) Expenditures(sc scope.Scope, f Filter) ([]domain.ExpenditureRecord, error) {
	rows, err := s.selectRecords("expenditures",
		[]string{"id", "mp_name", "house", "ls_term", "state", "constituency", "work_id", "amount", "payment_status", "date"},
		sc, f)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ExpenditureRecord
	for rows.Next() {
		var rec domain.ExpenditureRecord
		var house, amount, status, date string
		var term sql.NullInt64
		if err := rows.Scan(&rec.ID, &rec.MP.Name, &house, &term, &rec.MP.State, &rec.MP.Constituency,
			&rec.WorkID, &amount, &status, &date); err != nil {
			return nil, err
		}
		rec.MP.House = domain.House(house)
		rec.LsTerm = termPtr(term)
		rec.Status = domain.PaymentStatus(status)
		if rec.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("bad expenditure amount for %s: %w", rec.ID, err)
		}
		if rec.Date, err = time.Parse(time.RFC3339, date); err != nil {
			return nil, fmt.Errorf("bad expenditure date for %s: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// CompletedWorks returns completed work records within the scope and filter.
func (s *Stores) CompletedWorks(sc scope.Scope, f Filter) ([]domain.WorkRecord, error) {
	return s.works("works_completed", sc, f)
}

// RecommendedWorks returns recommended work records within the scope and filter.
func (s *Stores) RecommendedWorks(sc scope.Scope, f Filter) ([]domain.WorkRecord, error) {
	return s.works("works_recommended", sc, f)
}

func (s *Stores) works(table string, sc scope.Scope, f Filter) ([]domain.WorkRecord, error) {
	rows, err := s.selectRecords(table,
		[]string{"id", "mp_name", "house", "ls_term", "state", "constituency", "work_id", "amount", "date", "category", "has_image", "rating"},
		sc, f)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.WorkRecord
	for rows.Next() {
		var rec domain.WorkRecord
		var house, amount, date string
		var term sql.NullInt64
		var hasImage int
		if err := rows.Scan(&rec.ID, &rec.MP.Name, &house, &term, &rec.MP.State, &rec.MP.Constituency,
			&rec.WorkID, &amount, &date, &rec.Category, &hasImage, &rec.Rating); err != nil {
			return nil, err
		}
		rec.MP.House = domain.House(house)
		rec.House = rec.MP.House
		rec.LsTerm = termPtr(term)
		rec.HasImage = hasImage != 0
		if rec.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("bad work amount for %s: %w", rec.ID, err)
		}
		if rec.Date, err = time.Parse(time.RFC3339, date); err != nil {
			return nil, fmt.Errorf("bad work date for %s: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func termPtr(term sql.NullInt64) *int {
	if !term.Valid {
		return nil
	}
	t := int(term.Int64)
	return &t
}

func termValue(term *int) interface{} {
	if term == nil {
		return nil
	}
	return *term
}

func ensureID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

// InsertMPs bulk-inserts canonical registry rows in one transaction.
func (s *Stores) InsertMPs(mps []domain.MPIdentity) error {
	return s.db.WithTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT OR REPLACE INTO mps
				(id, name, house, state, constituency, identity_key, state_key, constituency_key)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, mp := range mps {
			if _, err := stmt.Exec(
				ensureID(mp.ID), mp.Name, string(mp.House), mp.State, mp.Constituency,
				identity.KeyFor(mp),
				domain.NormalizeField(mp.State),
				domain.NormalizeField(mp.Constituency),
			); err != nil {
				return err
			}
		}
		return nil
	})
}

// InsertTermSummaryMPs bulk-inserts rows into the denormalized per-term
// store. lsTerms aligns with mps; nil entries are Rajya Sabha rows.
func (s *Stores) InsertTermSummaryMPs(mps []domain.MPIdentity, lsTerms []*int) error {
	return s.db.WithTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT OR REPLACE INTO mp_term_summaries
				(id, name, house, ls_term, state, constituency, identity_key, state_key, constituency_key)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, mp := range mps {
			var term *int
			if i < len(lsTerms) {
				term = lsTerms[i]
			}
			if _, err := stmt.Exec(
				ensureID(mp.ID), mp.Name, string(mp.House), termValue(term), mp.State, mp.Constituency,
				identity.KeyFor(mp),
				domain.NormalizeField(mp.State),
				domain.NormalizeField(mp.Constituency),
			); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReplaceAllocations supersedes a term's allocations wholesale: every
// existing allocation row for the given house/term is deleted before the
// new rows are inserted, in one transaction.
func (s *Stores) ReplaceAllocations(house domain.House, lsTerm *int, records []domain.AllocationRecord) error {
	return s.db.WithTx(func(tx *sql.Tx) error {
		var err error
		if lsTerm == nil {
			_, err = tx.Exec("DELETE FROM allocations WHERE house = ? AND ls_term IS NULL", string(house))
		} else {
			_, err = tx.Exec("DELETE FROM allocations WHERE house = ? AND ls_term = ?", string(house), *lsTerm)
		}
		if err != nil {
			return err
		}

		stmt, err := tx.Prepare(`
			INSERT INTO allocations
				(id, mp_name, house, ls_term, state, constituency, identity_key, state_key, constituency_key, allocated_amount)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, rec := range records {
			if _, err := stmt.Exec(
				ensureID(rec.ID), rec.MP.Name, string(rec.MP.House), termValue(rec.LsTerm),
				rec.MP.State, rec.MP.Constituency,
				identity.KeyFor(rec.MP),
				domain.NormalizeField(rec.MP.State),
				domain.NormalizeField(rec.MP.Constituency),
				rec.Allocated.String(),
			); err != nil {
				return err
			}
		}
		return nil
	})
}

// InsertExpenditures bulk-inserts expenditure rows in one transaction.
func (s *Stores) InsertExpenditures(records []domain.ExpenditureRecord) error {
	return s.db.WithTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT OR REPLACE INTO expenditures
				(id, mp_name, house, ls_term, state, constituency, identity_key, state_key, constituency_key,
				 work_id, amount, payment_status, date)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, rec := range records {
			if _, err := stmt.Exec(
				ensureID(rec.ID), rec.MP.Name, string(rec.MP.House), termValue(rec.LsTerm),
				rec.MP.State, rec.MP.Constituency,
				identity.KeyFor(rec.MP),
				domain.NormalizeField(rec.MP.State),
				domain.NormalizeField(rec.MP.Constituency),
				rec.WorkID, rec.Amount.String(), string(rec.Status), rec.Date.UTC().Format(time.RFC3339),
			); err != nil {
				return err
			}
		}
		return nil
	})
}

// InsertCompletedWorks bulk-inserts completed work rows in one transaction.
func (s *Stores) InsertCompletedWorks(records []domain.WorkRecord) error {
	return s.insertWorks("works_completed", records)
}

// InsertRecommendedWorks bulk-inserts recommended work rows in one transaction.
func (s *Stores) InsertRecommendedWorks(records []domain.WorkRecord) error {
	return s.insertWorks("works_recommended", records)
}

func (s *Stores) insertWorks(table string, records []domain.WorkRecord) error {
	return s.db.WithTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT OR REPLACE INTO ` + table + `
				(id, mp_name, house, ls_term, state, constituency, identity_key, state_key, constituency_key,
				 work_id, amount, date, category, has_image, rating)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, rec := range records {
			hasImage := 0
			if rec.HasImage {
				hasImage = 1
			}
			house := rec.House
			if house == "" {
				house = rec.MP.House
			}
			if _, err := stmt.Exec(
				ensureID(rec.ID), rec.MP.Name, string(house), termValue(rec.LsTerm),
				rec.MP.State, rec.MP.Constituency,
				identity.KeyFor(rec.MP),
				domain.NormalizeField(rec.MP.State),
				domain.NormalizeField(rec.MP.Constituency),
				rec.WorkID, rec.Amount.String(), rec.Date.UTC().Format(time.RFC3339),
				rec.Category, hasImage, rec.Rating,
			); err != nil {
				return err
			}
		}
		return nil
	})
}
