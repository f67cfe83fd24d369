package spell

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/quotespell/internal/domain"
	"github.com/heartmarshall/quotespell/internal/service/spell/partition"
)

// resolve walks the partitions in chunks. Chunks run one after another;
// partitions inside a chunk race and the first one whose titles all
// resolve wins. Returns domain.ErrNoResolution when every chunk fails.
//
// Lookups still in flight when resolve returns are cancelled with its
// context and their results dropped.
func (s *Service) resolve(ctx context.Context, credential string, partitions []partition.Partition) ([]domain.Track, error) {
	if len(partitions) == 0 {
		return nil, domain.ErrNoResolution
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	memo := s.newTitleMemo(credential)
	size := max(1, min(s.opts.ChunkSize, len(partitions)))

	for start := 0; start < len(partitions); start += size {
		end := min(start+size, len(partitions))

		if playlist, ok := s.race(ctx, memo, partitions[start:end]); ok {
			s.log.DebugContext(ctx, "chunk resolved",
				slog.Int("chunk_start", start),
				slog.Int("chunk_size", end-start),
			)
			return playlist, nil
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	return nil, domain.ErrNoResolution
}

type raceResult struct {
	playlist []domain.Track
	ok       bool
}

// race resolves every partition of chunk concurrently and returns the
// first full success. It returns false only after every partition failed.
func (s *Service) race(ctx context.Context, memo *titleMemo, chunk []partition.Partition) ([]domain.Track, bool) {
	results := make(chan raceResult, len(chunk))

	for _, p := range chunk {
		go func() {
			playlist, err := s.resolvePartition(ctx, memo, p)
			if err != nil {
				s.log.DebugContext(ctx, "partition failed",
					slog.Any("groups", []string(p)),
					slog.String("error", err.Error()),
				)
				results <- raceResult{}
				return
			}
			results <- raceResult{playlist: playlist, ok: true}
		}()
	}

	for range chunk {
		if r := <-results; r.ok {
			return r.playlist, true
		}
	}
	return nil, false
}

// resolvePartition looks up every group of p concurrently. One failed
// title fails the partition.
func (s *Service) resolvePartition(ctx context.Context, memo *titleMemo, p partition.Partition) ([]domain.Track, error) {
	playlist := make([]domain.Track, len(p))

	var g errgroup.Group
	for i, title := range p {
		g.Go(func() error {
			track, err := memo.lookup(ctx, title)
			if err != nil {
				return err
			}
			playlist[i] = track
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return playlist, nil
}
