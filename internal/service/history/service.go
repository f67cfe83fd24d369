// Package history exposes recorded spells for reading and housekeeping.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/quotespell/internal/domain"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

type spellRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Spell, error)
	List(ctx context.Context, f domain.SpellFilter) ([]domain.Spell, error)
	Count(ctx context.Context, f domain.SpellFilter) (int, error)
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}

// Service implements history reads and purges.
type Service struct {
	log    *slog.Logger
	spells spellRepo
	now    func() time.Time
}

// NewService creates a history service.
func NewService(logger *slog.Logger, spells spellRepo) *Service {
	return &Service{
		log:    logger.With("service", "history"),
		spells: spells,
		now:    time.Now,
	}
}

// Get returns one recorded spell.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Spell, error) {
	return s.spells.GetByID(ctx, id)
}

// List returns a page of spells newest first plus the total matching count.
// Limit is clamped to [1, 100], defaulting to 20.
func (s *Service) List(ctx context.Context, f domain.SpellFilter) ([]domain.Spell, int, error) {
	if f.Offset < 0 {
		return nil, 0, domain.NewValidationError("offset", "must not be negative")
	}
	f.Limit = ClampLimit(f.Limit)

	total, err := s.spells.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Spell{}, 0, nil
	}

	spells, err := s.spells.List(ctx, f)
	if err != nil {
		return nil, 0, err
	}

	return spells, total, nil
}

// Purge hard-deletes spells older than the given number of days.
func (s *Service) Purge(ctx context.Context, olderThanDays int) (int64, error) {
	if olderThanDays < 1 {
		return 0, domain.NewValidationError("older_than_days", "must be at least 1")
	}

	threshold := s.now().AddDate(0, 0, -olderThanDays)

	deleted, err := s.spells.DeleteOlderThan(ctx, threshold)
	if err != nil {
		return 0, fmt.Errorf("purge spells: %w", err)
	}

	s.log.InfoContext(ctx, "spells purged",
		slog.Int64("deleted", deleted),
		slog.Time("threshold", threshold),
	)

	return deleted, nil
}

// ClampLimit returns the effective page size for a requested limit.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultLimit
	case limit > maxLimit:
		return maxLimit
	default:
		return limit
	}
}
