package spell

import (
	"context"
	"errors"

	"github.com/graph-gophers/dataloader/v7"
	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/quotespell/internal/domain"
)

const memoBatchCapacity = 100

// titleMemo is the per-request title cache. Each title gets exactly one
// lookup thunk, so concurrent partitions sharing a title share its
// network chain. Found and not-found outcomes stick for the request;
// throttled and transport failures are evicted so a later chunk can try
// the title again.
type titleMemo struct {
	loader *dataloader.Loader[string, domain.Track]
}

func (s *Service) newTitleMemo(credential string) *titleMemo {
	batchFn := func(ctx context.Context, titles []string) []*dataloader.Result[domain.Track] {
		results := make([]*dataloader.Result[domain.Track], len(titles))

		var g errgroup.Group
		for i, title := range titles {
			g.Go(func() error {
				track, err := s.lookupTitle(ctx, credential, title)
				results[i] = &dataloader.Result[domain.Track]{Data: track, Error: err}
				return nil
			})
		}
		_ = g.Wait()

		return results
	}

	return &titleMemo{
		loader: dataloader.NewBatchedLoader(
			batchFn,
			dataloader.WithWait[string, domain.Track](s.opts.BatchWait),
			dataloader.WithBatchCapacity[string, domain.Track](memoBatchCapacity),
		),
	}
}

func (m *titleMemo) lookup(ctx context.Context, title string) (domain.Track, error) {
	track, err := m.loader.Load(ctx, title)()
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		m.loader.Clear(ctx, title)
	}
	return track, err
}
