package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const minJWTSecretLen = 32

// Validate checks business rules that struct tags cannot express.
// Load calls it automatically.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Catalog.validate(); err != nil {
		errs = append(errs, fmt.Errorf("catalog: %w", err))
	}
	if err := c.Resolver.validate(); err != nil {
		errs = append(errs, fmt.Errorf("resolver: %w", err))
	}
	if c.Auth.Enabled() && len(c.Auth.JWTSecret) < minJWTSecretLen {
		errs = append(errs, fmt.Errorf("auth.jwt_secret must be at least %d characters (got %d)",
			minJWTSecretLen, len(c.Auth.JWTSecret)))
	}
	if c.History.RetentionDays < 1 {
		errs = append(errs, fmt.Errorf("history.retention_days must be >= 1 (got %d)", c.History.RetentionDays))
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range (got %d)", c.Server.Port))
	}
	if c.RateLimit.Enabled && c.RateLimit.PerMinute < 1 {
		errs = append(errs, fmt.Errorf("rate_limit.per_minute must be >= 1 (got %d)", c.RateLimit.PerMinute))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or text (got %q)", c.Log.Format))
	}

	return errors.Join(errs...)
}

func (c *CatalogConfig) validate() error {
	for name, raw := range map[string]string{"token_url": c.TokenURL, "api_url": c.APIURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL (got %q)", name, raw)
		}
	}
	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests_per_second must be > 0 (got %v)", c.RequestsPerSecond)
	}
	if c.Burst < 1 {
		return fmt.Errorf("burst must be >= 1 (got %d)", c.Burst)
	}
	return nil
}

func (r *ResolverConfig) validate() error {
	if r.ChunkSize < 1 {
		return fmt.Errorf("chunk_size must be >= 1 (got %d)", r.ChunkSize)
	}
	if r.PageSize < 1 || r.PageSize > 50 {
		return fmt.Errorf("page_size must be within [1, 50] (got %d)", r.PageSize)
	}
	if r.MaxOffset < 0 {
		return fmt.Errorf("max_offset must be >= 0 (got %d)", r.MaxOffset)
	}
	if r.MaxConcurrentTitles < 1 {
		return fmt.Errorf("max_concurrent_titles must be >= 1 (got %d)", r.MaxConcurrentTitles)
	}
	if r.MaxWords < 1 || r.MaxWords > 24 {
		return fmt.Errorf("max_words must be within [1, 24] (got %d)", r.MaxWords)
	}
	return nil
}
