package config

import "time"

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Resolver  ResolverConfig  `yaml:"resolver"`
	Cache     CacheConfig     `yaml:"cache"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	History   HistoryConfig   `yaml:"history"`
	Log       LogConfig       `yaml:"log"`
	CORS      CORSConfig      `yaml:"cors"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"120s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"15s"`
	RequestTimeout  time.Duration `yaml:"request_timeout"  env:"SERVER_REQUEST_TIMEOUT"  env-default:"90s"`
}

// CatalogConfig holds the music catalog credentials and client pacing.
type CatalogConfig struct {
	ClientID          string        `yaml:"client_id"           env:"SPOTIFY_CLIENT_ID"     env-required:"true"`
	ClientSecret      string        `yaml:"client_secret"       env:"SPOTIFY_CLIENT_SECRET" env-required:"true"`
	TokenURL          string        `yaml:"token_url"           env:"SPOTIFY_TOKEN_URL"     env-default:"https://accounts.spotify.com/api/token"`
	APIURL            string        `yaml:"api_url"             env:"SPOTIFY_API_URL"       env-default:"https://api.spotify.com/v1"`
	Timeout           time.Duration `yaml:"timeout"             env:"CATALOG_TIMEOUT"       env-default:"10s"`
	RequestsPerSecond float64       `yaml:"requests_per_second" env:"CATALOG_RPS"           env-default:"10"`
	Burst             int           `yaml:"burst"               env:"CATALOG_BURST"         env-default:"10"`
}

// ResolverConfig tunes partition resolution.
type ResolverConfig struct {
	ChunkSize           int           `yaml:"chunk_size"            env:"RESOLVER_CHUNK_SIZE"             env-default:"10"`
	PageSize            int           `yaml:"page_size"             env:"RESOLVER_PAGE_SIZE"              env-default:"50"`
	MaxOffset           int           `yaml:"max_offset"            env:"RESOLVER_MAX_OFFSET"             env-default:"500"`
	MaxConcurrentTitles int           `yaml:"max_concurrent_titles" env:"RESOLVER_MAX_CONCURRENT_TITLES"  env-default:"10"`
	MaxWords            int           `yaml:"max_words"             env:"RESOLVER_MAX_WORDS"              env-default:"16"`
	BatchWait           time.Duration `yaml:"batch_wait"            env:"RESOLVER_BATCH_WAIT"             env-default:"1ms"`
}

// CacheConfig holds the cross-request title cache. An empty RedisURL
// disables it.
type CacheConfig struct {
	RedisURL string        `yaml:"redis_url" env:"CACHE_REDIS_URL"`
	TTL      time.Duration `yaml:"ttl"       env:"CACHE_TTL"       env-default:"24h"`
}

// Enabled reports whether a Redis cache is configured.
func (c CacheConfig) Enabled() bool { return c.RedisURL != "" }

// DatabaseConfig holds PostgreSQL connection settings. An empty DSN
// disables spell history.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"`
	AutoMigrate     bool          `yaml:"auto_migrate"       env:"DATABASE_AUTO_MIGRATE"       env-default:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"10"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"1"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// Enabled reports whether a database is configured.
func (c DatabaseConfig) Enabled() bool { return c.DSN != "" }

// AuthConfig holds admin token settings. An empty JWTSecret disables the
// admin endpoints.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret" env:"AUTH_JWT_SECRET"`
	JWTIssuer string        `yaml:"jwt_issuer" env:"AUTH_JWT_ISSUER" env-default:"quotespell"`
	TokenTTL  time.Duration `yaml:"token_ttl"  env:"AUTH_TOKEN_TTL"  env-default:"24h"`
}

// Enabled reports whether admin tokens can be issued and checked.
func (c AuthConfig) Enabled() bool { return c.JWTSecret != "" }

// HistoryConfig holds spell history retention.
type HistoryConfig struct {
	RetentionDays int `yaml:"retention_days" env:"HISTORY_RETENTION_DAYS" env-default:"30"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"*"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,DELETE,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Authorization,Content-Type,X-Request-Id"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"false"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"86400"`
}

// RateLimitConfig limits inbound requests per client IP.
type RateLimitConfig struct {
	Enabled         bool          `yaml:"enabled"          env:"RATE_LIMIT_ENABLED"          env-default:"true"`
	PerMinute       int           `yaml:"per_minute"       env:"RATE_LIMIT_PER_MINUTE"       env-default:"30"`
	Burst           int           `yaml:"burst"            env:"RATE_LIMIT_BURST"            env-default:"5"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" env:"RATE_LIMIT_CLEANUP_INTERVAL" env-default:"5m"`
}
