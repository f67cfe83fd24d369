package spotify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/heartmarshall/quotespell/internal/domain"
	"github.com/heartmarshall/quotespell/internal/provider"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(url string) *Client {
	c := NewClientWithURL(url, Options{}, newTestLogger())
	c.retryDelay = 0
	return c
}

func TestClient_SearchTracks_FirstPage(t *testing.T) {
	t.Parallel()

	var srvURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("q"); got != "track:hello world" {
			t.Errorf("q = %q, want %q", got, "track:hello world")
		}
		if got := r.URL.Query().Get("type"); got != "track" {
			t.Errorf("type = %q, want track", got)
		}
		if got := r.URL.Query().Get("limit"); got != "20" {
			t.Errorf("limit = %q, want 20", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q, want %q", got, "Bearer tok")
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"tracks": {
			"offset": 0,
			"total": 41,
			"next": "%s/search?q=track%%3Ahello+world&type=track&offset=20&limit=20",
			"items": [
				{"id": "t1", "name": "Hello World!", "artists": [{"id": "a1", "name": "Band"}]},
				null,
				{"id": "t2", "name": "Hello", "artists": []}
			]
		}}`, srvURL)
	}))
	defer srv.Close()
	srvURL = srv.URL

	c := newTestClient(srv.URL)
	page, err := c.SearchTracks(context.Background(), "Bearer tok", provider.TrackQuery{Title: "hello world", Limit: 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(page.Items) != 2 {
		t.Fatalf("len(Items) = %d, want 2", len(page.Items))
	}
	if page.Items[0].ID != "t1" || page.Items[0].Name != "Hello World!" {
		t.Errorf("Items[0] = %+v", page.Items[0])
	}
	if len(page.Items[0].Artists) != 1 || page.Items[0].Artists[0].Name != "Band" {
		t.Errorf("Items[0].Artists = %+v", page.Items[0].Artists)
	}
	if page.Total != 41 {
		t.Errorf("Total = %d, want 41", page.Total)
	}
	if !page.HasNext() {
		t.Fatal("expected a next cursor")
	}
}

func TestClient_SearchTracks_FollowsCursor(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("offset"); got != "50" {
			t.Errorf("offset = %q, want 50", got)
		}
		w.Write([]byte(`{"tracks": {"offset": 50, "total": 51, "next": null, "items": [{"id": "t9", "name": "x"}]}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	page, err := c.SearchTracks(context.Background(), "Bearer tok", provider.TrackQuery{
		Title:  "x",
		Cursor: srv.URL + "/search?q=track%3Ax&type=track&offset=50&limit=50",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Offset != 50 {
		t.Errorf("Offset = %d, want 50", page.Offset)
	}
	if page.HasNext() {
		t.Errorf("expected last page, got next %q", page.Next)
	}
}

func TestClient_SearchTracks_ForeignCursorRejected(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.SearchTracks(context.Background(), "Bearer tok", provider.TrackQuery{
		Title:  "x",
		Cursor: "https://evil.example.com/search?offset=50",
	})
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if calls.Load() != 0 {
		t.Errorf("expected no requests, got %d", calls.Load())
	}
}

func TestClient_SearchTracks_RateLimitedNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "3")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.SearchTracks(context.Background(), "Bearer tok", provider.TrackQuery{Title: "x"})
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 request, got %d", calls.Load())
	}
}

func TestClient_SearchTracks_RetryOn5xx(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"tracks": {"offset": 0, "next": null, "items": [{"id": "t1", "name": "x"}]}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	page, err := c.SearchTracks(context.Background(), "Bearer tok", provider.TrackQuery{Title: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Items) != 1 {
		t.Errorf("len(Items) = %d, want 1", len(page.Items))
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 requests, got %d", calls.Load())
	}
}

func TestClient_SearchTracks_ServerErrorAfterRetry(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.SearchTracks(context.Background(), "Bearer tok", provider.TrackQuery{Title: "x"})
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 requests, got %d", calls.Load())
	}
}

func TestClient_SearchTracks_Unauthorized(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.SearchTracks(context.Background(), "Bearer stale", provider.TrackQuery{Title: "x"})
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if errors.Is(err, domain.ErrRateLimited) {
		t.Fatal("401 must not be reported as rate limited")
	}
}

func TestClient_SearchTracks_BadJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.SearchTracks(context.Background(), "Bearer tok", provider.TrackQuery{Title: "x"})
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestClient_SearchTracks_RateLimiterHonoursContext(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not be sent")
	}))
	defer srv.Close()

	c := NewClientWithURL(srv.URL, Options{RequestsPerSecond: 1, Burst: 1}, newTestLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.SearchTracks(ctx, "Bearer tok", provider.TrackQuery{Title: "x"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
