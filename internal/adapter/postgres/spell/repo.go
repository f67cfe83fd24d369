// Package spell stores spell outcomes in PostgreSQL. Point lookups and
// writes are raw SQL; the filtered listing is built with squirrel.
package spell

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	postgres "github.com/heartmarshall/quotespell/internal/adapter/postgres"
	"github.com/heartmarshall/quotespell/internal/domain"
)

// Repo provides spell history persistence.
type Repo struct {
	db postgres.Querier
}

// New creates a new spell repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

// ---------------------------------------------------------------------------
// SQL constants
// ---------------------------------------------------------------------------

const spellColumns = `id, quote, phrase, combinations, found, playlist, created_at`

const createSQL = `
INSERT INTO spells (` + spellColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

const getByIDSQL = `
SELECT ` + spellColumns + `
FROM spells
WHERE id = $1`

const deleteOlderThanSQL = `
DELETE FROM spells WHERE created_at < $1`

var builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create inserts a spell record.
func (r *Repo) Create(ctx context.Context, s *domain.Spell) error {
	playlist, err := marshalPlaylist(s)
	if err != nil {
		return fmt.Errorf("spell %s: marshal playlist: %w", s.ID, err)
	}

	_, err = r.db.Exec(ctx, createSQL,
		s.ID,
		s.Quote,
		s.Phrase,
		s.Combinations,
		s.Found,
		playlist,
		s.CreatedAt.UTC().Truncate(time.Microsecond),
	)
	if err != nil {
		return postgres.MapError(err, "spell", s.ID)
	}

	return nil
}

// DeleteOlderThan hard-deletes records created before the threshold and
// reports how many were removed.
func (r *Repo) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	ct, err := r.db.Exec(ctx, deleteOlderThanSQL, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete spells before %s: %w", before.Format(time.RFC3339), err)
	}
	return ct.RowsAffected(), nil
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByID returns a spell by primary key.
// Returns domain.ErrNotFound if it does not exist.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Spell, error) {
	row := r.db.QueryRow(ctx, getByIDSQL, id)

	s, err := scanSpell(row)
	if err != nil {
		return nil, postgres.MapError(err, "spell", id)
	}

	return s, nil
}

// List returns spells newest first, filtered and paginated by f.
func (r *Repo) List(ctx context.Context, f domain.SpellFilter) ([]domain.Spell, error) {
	query := applyFilter(builder.Select(spellColumns).From("spells"), f).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(f.Limit)).
		Offset(uint64(f.Offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list spells query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list spells: %w", err)
	}
	defer rows.Close()

	spells := make([]domain.Spell, 0, f.Limit)
	for rows.Next() {
		s, err := scanSpell(rows)
		if err != nil {
			return nil, fmt.Errorf("list spells: %w", err)
		}
		spells = append(spells, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list spells: %w", err)
	}

	return spells, nil
}

// Count returns how many spells match f, ignoring its pagination.
func (r *Repo) Count(ctx context.Context, f domain.SpellFilter) (int, error) {
	sql, args, err := applyFilter(builder.Select("count(*)").From("spells"), f).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count spells query: %w", err)
	}

	var total int
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count spells: %w", err)
	}
	return total, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func applyFilter(q sq.SelectBuilder, f domain.SpellFilter) sq.SelectBuilder {
	if f.Found != nil {
		q = q.Where(sq.Eq{"found": *f.Found})
	}
	return q
}

func marshalPlaylist(s *domain.Spell) ([]byte, error) {
	if !s.Found {
		return nil, nil
	}
	return json.Marshal(s.Playlist)
}

func scanSpell(row pgx.Row) (*domain.Spell, error) {
	var (
		s        domain.Spell
		playlist []byte
	)

	if err := row.Scan(
		&s.ID,
		&s.Quote,
		&s.Phrase,
		&s.Combinations,
		&s.Found,
		&playlist,
		&s.CreatedAt,
	); err != nil {
		return nil, err
	}

	if len(playlist) > 0 {
		if err := json.Unmarshal(playlist, &s.Playlist); err != nil {
			return nil, fmt.Errorf("unmarshal playlist: %w", err)
		}
	}

	return &s, nil
}
