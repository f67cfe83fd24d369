package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/heartmarshall/quotespell/internal/config"
	"github.com/heartmarshall/quotespell/internal/transport/middleware"
	"github.com/heartmarshall/quotespell/internal/transport/rest"
)

// NewHandler registers all routes over the wired components. The
// returned stop func releases the rate limiter's sweeper.
func NewHandler(cfg *config.Config, c *Components, logger *slog.Logger) (http.Handler, func()) {
	mux := http.NewServeMux()

	health := rest.NewHealthHandler(c.Pingers, BuildVersion())
	mux.HandleFunc("GET /live", health.Live)
	mux.HandleFunc("GET /ready", health.Ready)
	mux.HandleFunc("GET /health", health.Health)

	var reader rest.SpellReader
	if c.History != nil {
		reader = c.History
	}
	spells := rest.NewSpellHandler(c.Spells, reader, logger)
	search := http.Handler(http.HandlerFunc(spells.Search))
	if cfg.Server.RequestTimeout > 0 {
		search = withTimeout(search, cfg.Server.RequestTimeout)
	}
	mux.Handle("POST /api/search", search)
	mux.HandleFunc("GET /api/spells/{id}", spells.Get)

	if c.History != nil && c.Tokens != nil {
		admin := rest.NewAdminHandler(c.History, logger)
		requireAdmin := middleware.RequireAdmin()
		mux.Handle("GET /admin/spells", requireAdmin(http.HandlerFunc(admin.ListSpells)))
		mux.Handle("DELETE /admin/spells", requireAdmin(http.HandlerFunc(admin.PurgeSpells)))
	}

	mws := []middleware.Middleware{
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.CORS(cfg.CORS),
	}

	stop := func() {}
	if cfg.RateLimit.Enabled {
		rl := middleware.NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst, cfg.RateLimit.CleanupInterval)
		mws = append(mws, rl.Middleware())
		stop = rl.Stop
	}
	if c.Tokens != nil {
		mws = append(mws, middleware.Auth(c.Tokens))
	}

	return middleware.Chain(mws...)(mux), stop
}

// withTimeout bounds the request context; the handler still writes its
// own response after expiry.
func withTimeout(next http.Handler, d time.Duration) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), d)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
