package identity

import (
	"database/sql"

	"mplads/internal/domain"
	"mplads/internal/errors"
	"mplads/internal/logging"
)

// RowQuerier is the slice of the database the resolver needs.
type RowQuerier interface {
	QueryRow(query string, args ...interface{}) *sql.Row
}

// Resolver resolves MP surrogate IDs against both record stores.
type Resolver struct {
	db     RowQuerier
	logger *logging.Logger
}

// NewResolver creates a new identity resolver
func NewResolver(db RowQuerier, logger *logging.Logger) *Resolver {
	return &Resolver{
		db:     db,
		logger: logger,
	}
}

// ResolveByID looks up an MP by surrogate ID, trying the denormalized
// per-term store first and the canonical registry second. If both stores
// miss, resolution fails with NotFound; callers must not fall back to
// partial data silently.
func (r *Resolver) ResolveByID(id string) (*domain.MPIdentity, error) {
	mp, err := r.lookup(`
		SELECT id, name, house, state, constituency
		FROM mp_term_summaries
		WHERE id = ?
	`, id)
	if err != nil {
		return nil, err
	}
	if mp != nil {
		return mp, nil
	}

	mp, err = r.lookup(`
		SELECT id, name, house, state, constituency
		FROM mps
		WHERE id = ?
	`, id)
	if err != nil {
		return nil, err
	}
	if mp != nil {
		return mp, nil
	}

	r.logger.Debug("mp not found in either store", map[string]interface{}{
		"id": id,
	})
	return nil, errors.Newf(errors.NotFound, "no MP with id %s in either store", id)
}

func (r *Resolver) lookup(query, id string) (*domain.MPIdentity, error) {
	var mp domain.MPIdentity
	var house string

	err := r.db.QueryRow(query, id).Scan(&mp.ID, &mp.Name, &house, &mp.State, &mp.Constituency)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.New(errors.StoreUnavailable, "mp lookup failed", err)
	}

	mp.House = domain.House(house)
	return &mp, nil
}
