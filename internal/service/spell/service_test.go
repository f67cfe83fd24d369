package spell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/quotespell/internal/domain"
	"github.com/heartmarshall/quotespell/internal/provider"
	"github.com/heartmarshall/quotespell/internal/service/spell/partition"
)

// ---------------------------------------------------------------------------
// Manual mocks (moq-style with func fields)
// ---------------------------------------------------------------------------

type mockCatalog struct {
	SearchTracksFunc func(ctx context.Context, credential string, q provider.TrackQuery) (*provider.TrackPage, error)
}

func (m *mockCatalog) SearchTracks(ctx context.Context, credential string, q provider.TrackQuery) (*provider.TrackPage, error) {
	return m.SearchTracksFunc(ctx, credential, q)
}

type mockCredentials struct {
	CredentialFunc func(ctx context.Context) (string, error)
}

func (m *mockCredentials) Credential(ctx context.Context) (string, error) {
	return m.CredentialFunc(ctx)
}

type mockStore struct {
	GetFunc func(ctx context.Context, title string) (*domain.Track, error)
	SetFunc func(ctx context.Context, title string, track domain.Track) error
}

func (m *mockStore) Get(ctx context.Context, title string) (*domain.Track, error) {
	return m.GetFunc(ctx, title)
}

func (m *mockStore) Set(ctx context.Context, title string, track domain.Track) error {
	return m.SetFunc(ctx, title, track)
}

type mockHistory struct {
	CreateFunc func(ctx context.Context, s *domain.Spell) error
}

func (m *mockHistory) Create(ctx context.Context, s *domain.Spell) error {
	return m.CreateFunc(ctx, s)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// fakeCatalog answers single-page searches from a title -> track name table
// and counts queries per title.
type fakeCatalog struct {
	mu      sync.Mutex
	tracks  map[string]string
	failing map[string]error
	calls   map[string]int
}

func newFakeCatalog(names ...string) *fakeCatalog {
	f := &fakeCatalog{
		tracks:  make(map[string]string),
		failing: make(map[string]error),
		calls:   make(map[string]int),
	}
	for _, name := range names {
		f.tracks[domain.NormalizePhrase(name)] = name
	}
	return f
}

func (f *fakeCatalog) SearchTracks(ctx context.Context, _ string, q provider.TrackQuery) (*provider.TrackPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.calls[q.Title]++
	err := f.failing[q.Title]
	name, ok := f.tracks[q.Title]
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}

	page := &provider.TrackPage{
		Items: []domain.Track{{ID: "noise-" + q.Title, Name: q.Title + " (remix)"}},
	}
	if ok {
		page.Items = append(page.Items, domain.Track{ID: "id-" + q.Title, Name: name})
	}
	return page, nil
}

func (f *fakeCatalog) callsFor(title string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[title]
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func okCredentials() *mockCredentials {
	return &mockCredentials{
		CredentialFunc: func(context.Context) (string, error) { return "Bearer tok", nil },
	}
}

func newTestService(catalog catalogSearcher, opts Options) *Service {
	return NewService(newTestLogger(), catalog, okCredentials(), nil, nil, opts)
}

func trackIDs(tracks []domain.Track) []string {
	ids := make([]string, len(tracks))
	for i, t := range tracks {
		ids[i] = t.ID
	}
	return ids
}

// ---------------------------------------------------------------------------
// Spell tests
// ---------------------------------------------------------------------------

func TestService_Spell_WholePhraseTitle(t *testing.T) {
	t.Parallel()

	catalog := newFakeCatalog("Hello World")
	svc := newTestService(catalog, Options{})

	res, err := svc.Spell(context.Background(), SpellInput{Quote: "Hello, world!"})
	require.NoError(t, err)

	assert.True(t, res.Found)
	assert.Equal(t, "hello world", res.Phrase)
	assert.Equal(t, []partition.Partition{{"hello", "world"}, {"hello world"}}, res.Combinations)
	assert.Equal(t, []string{"id-hello world"}, trackIDs(res.Playlist))
	assert.Nil(t, res.ID)
}

func TestService_Spell_OneTitlePerWord(t *testing.T) {
	t.Parallel()

	catalog := newFakeCatalog("Hello", "World")
	svc := newTestService(catalog, Options{})

	res, err := svc.Spell(context.Background(), SpellInput{Quote: "hello world"})
	require.NoError(t, err)

	require.True(t, res.Found)
	assert.Equal(t, []string{"id-hello", "id-world"}, trackIDs(res.Playlist))
	assert.Equal(t, "Hello", res.Playlist[0].Name)
}

func TestService_Spell_RepeatedTitleQueriedOnce(t *testing.T) {
	t.Parallel()

	catalog := newFakeCatalog("A")
	svc := newTestService(catalog, Options{})

	res, err := svc.Spell(context.Background(), SpellInput{Quote: "a a"})
	require.NoError(t, err)

	require.True(t, res.Found)
	assert.Equal(t, []string{"id-a", "id-a"}, trackIDs(res.Playlist))
	assert.Equal(t, 1, catalog.callsFor("a"))
}

func TestService_Spell_NoResolution(t *testing.T) {
	t.Parallel()

	catalog := newFakeCatalog()
	svc := newTestService(catalog, Options{ChunkSize: 3})

	res, err := svc.Spell(context.Background(), SpellInput{Quote: "nothing matches here at all"})
	require.NoError(t, err)

	assert.False(t, res.Found)
	assert.Nil(t, res.Playlist)
	assert.Len(t, res.Combinations, 16)

	// Not-found outcomes are memoized across chunks.
	assert.Equal(t, 1, catalog.callsFor("nothing"))
	assert.Equal(t, 1, catalog.callsFor("all"))
}

func TestService_Spell_RateLimitedTitleOnlySinksItsPartitions(t *testing.T) {
	t.Parallel()

	catalog := newFakeCatalog("X Y", "Y")
	catalog.failing["x"] = fmt.Errorf("spotify: %w", domain.ErrRateLimited)
	svc := newTestService(catalog, Options{})

	res, err := svc.Spell(context.Background(), SpellInput{Quote: "x y"})
	require.NoError(t, err)

	require.True(t, res.Found)
	assert.Equal(t, []string{"id-x y"}, trackIDs(res.Playlist))
}

func TestService_Spell_RateLimitedTitleRetriedInLaterChunk(t *testing.T) {
	t.Parallel()

	// "a b c" with chunks of two:
	//   chunk 1: [a b c] [a, b c]
	//   chunk 2: [a b, c] [a b c]
	var cCalls atomic.Int32
	base := newFakeCatalog("a", "b", "a b", "c")
	catalog := &mockCatalog{
		SearchTracksFunc: func(ctx context.Context, cred string, q provider.TrackQuery) (*provider.TrackPage, error) {
			if q.Title == "c" && cCalls.Add(1) == 1 {
				return nil, domain.ErrRateLimited
			}
			return base.SearchTracks(ctx, cred, q)
		},
	}
	svc := newTestService(catalog, Options{ChunkSize: 2})

	res, err := svc.Spell(context.Background(), SpellInput{Quote: "a b c"})
	require.NoError(t, err)

	require.True(t, res.Found)
	assert.Equal(t, []string{"id-a b", "id-c"}, trackIDs(res.Playlist))
	assert.Equal(t, int32(2), cCalls.Load())
}

func TestService_Spell_EarlierChunkWins(t *testing.T) {
	t.Parallel()

	catalog := newFakeCatalog("a", "b", "c", "a b c")
	svc := newTestService(catalog, Options{ChunkSize: 2})

	res, err := svc.Spell(context.Background(), SpellInput{Quote: "a b c"})
	require.NoError(t, err)

	require.True(t, res.Found)
	assert.Equal(t, []string{"id-a", "id-b", "id-c"}, trackIDs(res.Playlist))
	assert.Zero(t, catalog.callsFor("a b c"), "second chunk must not start")
	assert.Zero(t, catalog.callsFor("a b"))
}

func TestService_Spell_LaterChunkUsedWhenEarlierFails(t *testing.T) {
	t.Parallel()

	catalog := newFakeCatalog("a b c")
	svc := newTestService(catalog, Options{ChunkSize: 2})

	res, err := svc.Spell(context.Background(), SpellInput{Quote: "a b c"})
	require.NoError(t, err)

	require.True(t, res.Found)
	assert.Equal(t, []string{"id-a b c"}, trackIDs(res.Playlist))
	assert.Equal(t, 1, catalog.callsFor("c"))
}

func TestService_Spell_UpstreamErrorFailsTitle(t *testing.T) {
	t.Parallel()

	catalog := newFakeCatalog("one two")
	catalog.failing["one"] = fmt.Errorf("boom: %w", domain.ErrUpstream)
	svc := newTestService(catalog, Options{})

	res, err := svc.Spell(context.Background(), SpellInput{Quote: "one two"})
	require.NoError(t, err)

	require.True(t, res.Found)
	assert.Equal(t, []string{"id-one two"}, trackIDs(res.Playlist))
}

func TestService_Spell_AuthFailureIsFatal(t *testing.T) {
	t.Parallel()

	catalog := &mockCatalog{
		SearchTracksFunc: func(context.Context, string, provider.TrackQuery) (*provider.TrackPage, error) {
			t.Fatal("catalog must not be queried without a credential")
			return nil, nil
		},
	}
	creds := &mockCredentials{
		CredentialFunc: func(context.Context) (string, error) {
			return "", errors.New("connection refused")
		},
	}
	svc := NewService(newTestLogger(), catalog, creds, nil, nil, Options{})

	res, err := svc.Spell(context.Background(), SpellInput{Quote: "hello"})

	assert.Nil(t, res)
	assert.ErrorIs(t, err, domain.ErrCatalogAuth)
}

func TestService_Spell_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		quote string
	}{
		{name: "empty", quote: ""},
		{name: "blank", quote: "   "},
		{name: "punctuation only", quote: "?!?"},
		{name: "too many words", quote: "one two three four five six"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			creds := &mockCredentials{
				CredentialFunc: func(context.Context) (string, error) {
					t.Fatal("credential must not be requested for invalid input")
					return "", nil
				},
			}
			svc := NewService(newTestLogger(), newFakeCatalog(), creds, nil, nil, Options{MaxWords: 5})

			_, err := svc.Spell(context.Background(), SpellInput{Quote: tt.quote})

			assert.ErrorIs(t, err, domain.ErrValidation)
			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, "quote", ve.Errors[0].Field)
		})
	}
}

func TestService_Spell_CancelledContext(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeCatalog("hello"), Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Spell(ctx, SpellInput{Quote: "hello"})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestService_Spell_ConcurrencyCap(t *testing.T) {
	t.Parallel()

	var inFlight, peak atomic.Int32
	catalog := &mockCatalog{
		SearchTracksFunc: func(ctx context.Context, _ string, q provider.TrackQuery) (*provider.TrackPage, error) {
			n := inFlight.Add(1)
			defer inFlight.Add(-1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			return &provider.TrackPage{}, nil
		},
	}
	svc := newTestService(catalog, Options{MaxConcurrentTitles: 2})

	res, err := svc.Spell(context.Background(), SpellInput{Quote: "a b c d e"})
	require.NoError(t, err)

	assert.False(t, res.Found)
	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Positive(t, peak.Load())
}

func TestService_Spell_RecordsHistory(t *testing.T) {
	t.Parallel()

	var saved *domain.Spell
	history := &mockHistory{
		CreateFunc: func(_ context.Context, s *domain.Spell) error {
			saved = s
			return nil
		},
	}
	svc := NewService(newTestLogger(), newFakeCatalog("hello"), okCredentials(), nil, history, Options{})

	res, err := svc.Spell(context.Background(), SpellInput{Quote: "Hello!"})
	require.NoError(t, err)

	require.NotNil(t, saved)
	require.NotNil(t, res.ID)
	assert.Equal(t, saved.ID, *res.ID)
	assert.Equal(t, "Hello!", saved.Quote)
	assert.Equal(t, "hello", saved.Phrase)
	assert.Equal(t, 1, saved.Combinations)
	assert.True(t, saved.Found)
	assert.Equal(t, []string{"id-hello"}, trackIDs(saved.Playlist))
	assert.False(t, saved.CreatedAt.IsZero())
}

func TestService_Spell_HistoryFailureIgnored(t *testing.T) {
	t.Parallel()

	history := &mockHistory{
		CreateFunc: func(context.Context, *domain.Spell) error {
			return errors.New("db down")
		},
	}
	svc := NewService(newTestLogger(), newFakeCatalog(), okCredentials(), nil, history, Options{})

	res, err := svc.Spell(context.Background(), SpellInput{Quote: "hello"})
	require.NoError(t, err)

	assert.False(t, res.Found)
	assert.Nil(t, res.ID)
}

func TestService_Spell_HistoryWriteOutlivesRequest(t *testing.T) {
	t.Parallel()

	var writeCtx context.Context
	history := &mockHistory{
		CreateFunc: func(ctx context.Context, _ *domain.Spell) error {
			writeCtx = ctx
			return ctx.Err()
		},
	}
	svc := NewService(newTestLogger(), newFakeCatalog("hello"), okCredentials(), nil, history, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := &SpellResult{Phrase: "hello", Found: true}
	svc.record(ctx, "Hello!", result)

	require.NotNil(t, writeCtx)
	assert.NoError(t, writeCtx.Err())
	_, hasDeadline := writeCtx.Deadline()
	assert.True(t, hasDeadline)
	assert.NotNil(t, result.ID)
}

func TestService_Combinations(t *testing.T) {
	t.Parallel()

	svc := newTestService(&mockCatalog{}, Options{MaxWords: 3})

	got, err := svc.Combinations("To be, or")
	require.NoError(t, err)
	assert.Len(t, got, 4)

	_, err = svc.Combinations("to be or not")
	assert.ErrorIs(t, err, domain.ErrValidation)
}
