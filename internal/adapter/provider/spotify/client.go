package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/heartmarshall/quotespell/internal/domain"
	"github.com/heartmarshall/quotespell/internal/provider"
)

const (
	defaultAPIURL   = "https://api.spotify.com/v1"
	defaultPageSize = 50
	retryDelay      = 500 * time.Millisecond
)

// Options tunes the HTTP side of the catalog adapters.
type Options struct {
	Timeout time.Duration
	// RequestsPerSecond paces outbound search calls; zero disables pacing.
	RequestsPerSecond float64
	Burst             int
}

// Client searches the Spotify track catalog.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	retryDelay time.Duration
	log        *slog.Logger
}

// NewClient creates a Client for the public Spotify Web API.
func NewClient(opts Options, logger *slog.Logger) *Client {
	return NewClientWithURL(defaultAPIURL, opts, logger)
}

// NewClientWithURL creates a Client with a custom base URL (for testing).
func NewClientWithURL(baseURL string, opts Options, logger *slog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		retryDelay: retryDelay,
		log:        logger.With("adapter", "spotify"),
	}
}

// SearchTracks fetches one page of a field-scoped track search.
// credential is sent verbatim as the Authorization header.
//
// A throttled request fails with domain.ErrRateLimited and is not retried.
// Every other non-200 answer fails with domain.ErrUpstream.
func (c *Client) SearchTracks(ctx context.Context, credential string, q provider.TrackQuery) (*provider.TrackPage, error) {
	reqURL, err := c.pageURL(q)
	if err != nil {
		return nil, err
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("spotify: wait for request slot: %w", err)
		}
	}

	c.log.DebugContext(ctx, "spotify search", slog.String("title", q.Title), slog.String("url", reqURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("spotify: create request: %w", err)
	}
	req.Header.Set("Authorization", credential)
	req.Header.Set("Accept", "application/json")

	resp, err := c.doWithRetry(ctx, req, q.Title)
	if err != nil {
		c.log.ErrorContext(ctx, "spotify request failed", slog.String("title", q.Title), slog.String("error", err.Error()))
		return nil, fmt.Errorf("spotify: request failed: %w: %w", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		c.log.WarnContext(ctx, "spotify rate limited",
			slog.String("title", q.Title),
			slog.String("retry_after", resp.Header.Get("Retry-After")),
		)
		return nil, fmt.Errorf("spotify: search %q (retry after %q): %w",
			q.Title, resp.Header.Get("Retry-After"), domain.ErrRateLimited)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("spotify: credential rejected with status %d: %w", resp.StatusCode, domain.ErrUpstream)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("spotify: unexpected status %d: %w", resp.StatusCode, domain.ErrUpstream)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("spotify: read body: %w: %w", domain.ErrUpstream, err)
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("spotify: decode json: %w: %w", domain.ErrUpstream, err)
	}

	page := mapSearchResponse(&sr)

	c.log.DebugContext(ctx, "spotify response",
		slog.String("title", q.Title),
		slog.Int("offset", page.Offset),
		slog.Int("items", len(page.Items)),
		slog.Bool("has_next", page.HasNext()),
	)

	return page, nil
}

// pageURL builds the first-page search URL, or validates a cursor so the
// credential is never sent to a host other than the API's.
func (c *Client) pageURL(q provider.TrackQuery) (string, error) {
	if q.Cursor != "" {
		base, err := url.Parse(c.baseURL)
		if err != nil {
			return "", fmt.Errorf("spotify: parse base url: %w", err)
		}
		next, err := url.Parse(q.Cursor)
		if err != nil {
			return "", fmt.Errorf("spotify: parse cursor: %w: %w", domain.ErrUpstream, err)
		}
		if next.Scheme != base.Scheme || next.Host != base.Host {
			return "", fmt.Errorf("spotify: cursor host %q does not match %q: %w", next.Host, base.Host, domain.ErrUpstream)
		}
		return next.String(), nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}

	params := url.Values{}
	params.Set("q", "track:"+q.Title)
	params.Set("type", "track")
	params.Set("limit", strconv.Itoa(limit))

	return c.baseURL + "/search?" + params.Encode(), nil
}

// doWithRetry executes the request with a single retry on 5xx or network errors.
func (c *Client) doWithRetry(ctx context.Context, req *http.Request, title string) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)

	shouldRetry := err != nil || (resp != nil && resp.StatusCode >= 500)
	if !shouldRetry {
		return resp, err
	}

	// Don't retry if context is already cancelled.
	if ctx.Err() != nil {
		return resp, err
	}

	reason := "network error"
	if err == nil && resp != nil {
		reason = fmt.Sprintf("status %d", resp.StatusCode)
	}
	c.log.WarnContext(ctx, "spotify retry", slog.String("title", title), slog.String("reason", reason))

	// Close body from the failed attempt before retrying.
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(c.retryDelay):
	}

	return c.httpClient.Do(req.Clone(ctx))
}

func mapSearchResponse(sr *searchResponse) *provider.TrackPage {
	page := &provider.TrackPage{
		Items:  make([]domain.Track, 0, len(sr.Tracks.Items)),
		Offset: sr.Tracks.Offset,
		Total:  sr.Tracks.Total,
	}
	if sr.Tracks.Next != nil {
		page.Next = *sr.Tracks.Next
	}

	for _, it := range sr.Tracks.Items {
		if it == nil {
			continue
		}
		track := domain.Track{
			ID:      it.ID,
			Name:    it.Name,
			Artists: make([]domain.Artist, 0, len(it.Artists)),
		}
		for _, a := range it.Artists {
			track.Artists = append(track.Artists, domain.Artist{ID: a.ID, Name: a.Name})
		}
		page.Items = append(page.Items, track)
	}

	return page
}
