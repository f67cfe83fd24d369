package spell

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/quotespell/internal/domain"
	"github.com/heartmarshall/quotespell/internal/provider"
)

// lookupTitle finds the catalog track whose normalized name equals title.
// The shared track store is consulted first; catalog queries take one of
// the service-wide chain slots for the whole pagination walk.
func (s *Service) lookupTitle(ctx context.Context, credential, title string) (domain.Track, error) {
	if s.store != nil {
		cached, err := s.store.Get(ctx, title)
		if err != nil {
			s.log.WarnContext(ctx, "track store get failed", slog.String("title", title), slog.String("error", err.Error()))
		} else if cached != nil {
			return *cached, nil
		}
	}

	if err := s.chains.Acquire(ctx, 1); err != nil {
		return domain.Track{}, fmt.Errorf("title %q: wait for query slot: %w", title, err)
	}
	track, err := s.searchTitle(ctx, credential, title)
	s.chains.Release(1)
	if err != nil {
		return domain.Track{}, err
	}

	if s.store != nil {
		if err := s.store.Set(ctx, title, track); err != nil {
			s.log.WarnContext(ctx, "track store set failed", slog.String("title", title), slog.String("error", err.Error()))
		}
	}

	return track, nil
}

// searchTitle pages through the catalog search for title. Every page is
// scanned before deciding to stop; the walk ends without a match on the
// last page, on an empty page, or once the page offset passes MaxOffset.
func (s *Service) searchTitle(ctx context.Context, credential, title string) (domain.Track, error) {
	q := provider.TrackQuery{Title: title, Limit: s.opts.PageSize}

	for {
		page, err := s.catalog.SearchTracks(ctx, credential, q)
		if err != nil {
			return domain.Track{}, fmt.Errorf("title %q: %w", title, err)
		}

		for _, item := range page.Items {
			if domain.NormalizePhrase(item.Name) == title {
				return item, nil
			}
		}

		if len(page.Items) == 0 || !page.HasNext() || page.Offset > s.opts.MaxOffset {
			return domain.Track{}, fmt.Errorf("title %q: %w", title, domain.ErrNotFound)
		}

		q.Cursor = page.Next
	}
}
