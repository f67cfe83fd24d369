package spotify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"

	"github.com/heartmarshall/quotespell/internal/domain"
)

const defaultTokenURL = "https://accounts.spotify.com/api/token"

// Authenticator obtains application tokens with the client-credentials
// grant and hands them out as Authorization header values.
type Authenticator struct {
	cfg        clientcredentials.Config
	httpClient *http.Client
	log        *slog.Logger

	group singleflight.Group
	mu    sync.RWMutex
	token *oauth2.Token
}

// NewAuthenticator creates an Authenticator for the Spotify accounts service.
func NewAuthenticator(clientID, clientSecret string, opts Options, logger *slog.Logger) *Authenticator {
	return NewAuthenticatorWithURL(defaultTokenURL, clientID, clientSecret, opts, logger)
}

// NewAuthenticatorWithURL creates an Authenticator with a custom token URL (for testing).
func NewAuthenticatorWithURL(tokenURL, clientID, clientSecret string, opts Options, logger *slog.Logger) *Authenticator {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Authenticator{
		cfg: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.With("adapter", "spotify_auth"),
	}
}

// Credential returns "<token type> <access token>", fetching a new token
// when the cached one is missing or about to expire. Concurrent callers
// share a single token request.
func (a *Authenticator) Credential(ctx context.Context) (string, error) {
	a.mu.RLock()
	tok := a.token
	a.mu.RUnlock()

	if tok.Valid() {
		return headerValue(tok), nil
	}

	// The shared fetch outlives any single caller; the http client timeout
	// bounds it.
	fetchCtx := context.WithValue(context.WithoutCancel(ctx), oauth2.HTTPClient, a.httpClient)
	ch := a.group.DoChan("token", func() (any, error) {
		fresh, err := a.cfg.Token(fetchCtx)
		if err != nil {
			return nil, err
		}

		a.mu.Lock()
		a.token = fresh
		a.mu.Unlock()

		a.log.DebugContext(fetchCtx, "spotify token refreshed", slog.Time("expiry", fresh.Expiry))
		return fresh, nil
	})

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("spotify: wait for token: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			a.log.ErrorContext(ctx, "spotify token request failed", slog.String("error", res.Err.Error()))
			return "", fmt.Errorf("spotify: fetch token: %w: %w", domain.ErrCatalogAuth, res.Err)
		}
		return headerValue(res.Val.(*oauth2.Token)), nil
	}
}

func headerValue(tok *oauth2.Token) string {
	return tok.Type() + " " + tok.AccessToken
}
