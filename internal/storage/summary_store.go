package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"mplads/internal/domain"
)

// ReplaceSummaries atomically replaces an entire scope's denormalized
// summaries: delete-then-bulk-insert in a single transaction. Readers
// during a rebuild may see a transient empty or partially-populated scope
// through an older snapshot; that eventual-consistency window is accepted.
func (s *Stores) ReplaceSummaries(scope domain.SummaryScope, records []domain.SummaryRecord) error {
	now := time.Now().UTC().Format(time.RFC3339)

	return s.db.WithTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM summaries WHERE scope = ?", string(scope)); err != nil {
			return err
		}

		stmt, err := tx.Prepare(`
			INSERT INTO summaries (scope, identity, payload, computed_at)
			VALUES (?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, rec := range records {
			payload, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("failed to encode summary for %s: %w", rec.Identity, err)
			}
			if _, err := stmt.Exec(string(scope), rec.Identity, string(payload), now); err != nil {
				return err
			}
		}

		s.logger.Info("Replaced scope summaries", map[string]interface{}{
			"scope": string(scope),
			"count": len(records),
		})
		return nil
	})
}

// SummariesByScope returns every stored summary for a scope, ordered by
// identity for deterministic output.
func (s *Stores) SummariesByScope(scope domain.SummaryScope) ([]domain.SummaryRecord, error) {
	rows, err := s.db.Query(`
		SELECT payload FROM summaries WHERE scope = ? ORDER BY identity
	`, string(scope))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SummaryRecord
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var rec domain.SummaryRecord
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return nil, fmt.Errorf("failed to decode stored summary: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// StoredSummary returns one stored summary, or nil when the batch has not
// (yet) produced it.
func (s *Stores) StoredSummary(scope domain.SummaryScope, identity string) (*domain.SummaryRecord, error) {
	var payload string
	err := s.db.QueryRow(`
		SELECT payload FROM summaries WHERE scope = ? AND identity = ?
	`, string(scope), identity).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rec domain.SummaryRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return nil, fmt.Errorf("failed to decode stored summary: %w", err)
	}
	return &rec, nil
}
