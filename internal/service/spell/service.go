// Package spell turns a quote into a playlist whose track titles, read in
// order, reproduce the quote.
package spell

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/heartmarshall/quotespell/internal/domain"
	"github.com/heartmarshall/quotespell/internal/provider"
	"github.com/heartmarshall/quotespell/internal/service/spell/partition"
)

type catalogSearcher interface {
	SearchTracks(ctx context.Context, credential string, q provider.TrackQuery) (*provider.TrackPage, error)
}

type credentialSource interface {
	Credential(ctx context.Context) (string, error)
}

type trackStore interface {
	Get(ctx context.Context, title string) (*domain.Track, error)
	Set(ctx context.Context, title string, track domain.Track) error
}

type historyRepo interface {
	Create(ctx context.Context, s *domain.Spell) error
}

// Options bounds how hard the resolver leans on the catalog.
type Options struct {
	ChunkSize           int
	PageSize            int
	MaxOffset           int
	MaxConcurrentTitles int
	MaxWords            int
	BatchWait           time.Duration
}

func (o Options) withDefaults() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = 10
	}
	if o.PageSize <= 0 {
		o.PageSize = 50
	}
	if o.MaxOffset <= 0 {
		o.MaxOffset = 500
	}
	if o.MaxConcurrentTitles <= 0 {
		o.MaxConcurrentTitles = 10
	}
	if o.MaxWords <= 0 {
		o.MaxWords = 16
	}
	if o.BatchWait <= 0 {
		o.BatchWait = time.Millisecond
	}
	return o
}

// Service spells quotes against a track catalog.
type Service struct {
	log     *slog.Logger
	catalog catalogSearcher
	creds   credentialSource
	store   trackStore
	history historyRepo
	opts    Options
	chains  *semaphore.Weighted
}

// NewService creates a spell service. store and history are optional and
// may be nil.
func NewService(
	logger *slog.Logger,
	catalog catalogSearcher,
	creds credentialSource,
	store trackStore,
	history historyRepo,
	opts Options,
) *Service {
	opts = opts.withDefaults()
	return &Service{
		log:     logger.With("service", "spell"),
		catalog: catalog,
		creds:   creds,
		store:   store,
		history: history,
		opts:    opts,
		chains:  semaphore.NewWeighted(int64(opts.MaxConcurrentTitles)),
	}
}

// SpellInput is the quote to spell.
type SpellInput struct {
	Quote string
}

// SpellResult is the outcome of a spell. Found is false when no partition
// could be resolved; that is not an error.
type SpellResult struct {
	ID           *uuid.UUID            `json:"id,omitempty"`
	Phrase       string                `json:"phrase"`
	Combinations []partition.Partition `json:"combinations"`
	Playlist     []domain.Track        `json:"playlist"`
	Found        bool                  `json:"found"`
}

// Combinations validates a quote and returns all of its partitions
// without touching the catalog.
func (s *Service) Combinations(quote string) ([]partition.Partition, error) {
	_, words, err := s.parse(quote)
	if err != nil {
		return nil, err
	}
	return partition.FromWords(words), nil
}

// Spell normalizes the quote, enumerates its partitions and resolves them
// against the catalog. Credential failures are fatal; every other catalog
// failure only sinks the partitions that depend on the failing title.
func (s *Service) Spell(ctx context.Context, in SpellInput) (*SpellResult, error) {
	phrase, words, err := s.parse(in.Quote)
	if err != nil {
		return nil, err
	}

	combinations := partition.FromWords(words)

	credential, err := s.creds.Credential(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrCatalogAuth) {
			err = fmt.Errorf("%w: %w", domain.ErrCatalogAuth, err)
		}
		return nil, fmt.Errorf("acquire catalog credential: %w", err)
	}

	start := time.Now()
	playlist, err := s.resolve(ctx, credential, combinations)

	result := &SpellResult{
		Phrase:       phrase,
		Combinations: combinations,
	}
	switch {
	case err == nil:
		result.Playlist = playlist
		result.Found = true
	case errors.Is(err, domain.ErrNoResolution):
	default:
		return nil, fmt.Errorf("resolve %q: %w", phrase, err)
	}

	s.log.InfoContext(ctx, "spell finished",
		slog.String("phrase", phrase),
		slog.Int("combinations", len(combinations)),
		slog.Bool("found", result.Found),
		slog.Duration("took", time.Since(start)),
	)

	s.record(ctx, in.Quote, result)

	return result, nil
}

func (s *Service) parse(quote string) (string, []string, error) {
	phrase := domain.NormalizePhrase(quote)
	if phrase == "" {
		return "", nil, domain.NewValidationError("quote", "required")
	}

	words := domain.Words(phrase)
	if len(words) > s.opts.MaxWords {
		return "", nil, domain.NewValidationError("quote",
			fmt.Sprintf("must contain at most %d words, got %d", s.opts.MaxWords, len(words)))
	}

	return phrase, words, nil
}

// record stores the outcome in history when it is configured. A failed
// write is logged and otherwise ignored.
// historyWriteTimeout bounds the history insert, which runs detached from the
// request so a client disconnect does not drop the record.
const historyWriteTimeout = 5 * time.Second

func (s *Service) record(ctx context.Context, quote string, result *SpellResult) {
	if s.history == nil {
		return
	}

	rec := &domain.Spell{
		ID:           uuid.New(),
		Quote:        quote,
		Phrase:       result.Phrase,
		Combinations: len(result.Combinations),
		Found:        result.Found,
		Playlist:     result.Playlist,
		CreatedAt:    time.Now().UTC(),
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyWriteTimeout)
	defer cancel()

	if err := s.history.Create(writeCtx, rec); err != nil {
		s.log.WarnContext(ctx, "record spell failed",
			slog.String("phrase", result.Phrase),
			slog.String("error", err.Error()),
		)
		return
	}

	result.ID = &rec.ID
}
