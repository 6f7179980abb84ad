package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"witchmart/pkg/secrets"
)

// Defaults applied when the matching environment variable is unset or malformed.
var (
	DefaultSessionTTL      = 2 * time.Hour
	DefaultUpstreamTimeout = 60 * time.Second
	DefaultCleanupInterval = time.Minute
	DefaultRequestTimeout  = 15 * time.Second
)

// Server captures process level configuration.
type Server struct {
	Addr        string
	Environment string

	// SessionSigningKey signs session tokens. Generated per process in
	// development when unset, which invalidates sessions on restart.
	SessionSigningKey string
	SessionTTL        time.Duration
	CleanupInterval   time.Duration
	RequestTimeout    time.Duration

	Upstream   UpstreamConfig
	Revocation RevocationConfig
	Redis      RedisConfig
}

// UpstreamConfig describes the remote text-generation service.
type UpstreamConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// RevocationConfig describes the revocation notification endpoint.
// An empty URL disables notifications.
type RevocationConfig struct {
	URL     string
	Timeout time.Duration
}

// RedisConfig selects the Redis session store. An empty URL keeps sessions
// in process memory.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// IsProduction reports whether the service runs with production safeguards.
func (s Server) IsProduction() bool {
	return s.Environment == "production"
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	cfg := Server{
		Addr:              envOr("WITCHMART_ADDR", ":8080"),
		Environment:       envOr("ENVIRONMENT", "development"),
		SessionSigningKey: os.Getenv("SESSION_SIGNING_KEY"),
		SessionTTL:        durationOr("SESSION_TTL", DefaultSessionTTL),
		CleanupInterval:   durationOr("SESSION_CLEANUP_INTERVAL", DefaultCleanupInterval),
		RequestTimeout:    durationOr("REQUEST_TIMEOUT", DefaultRequestTimeout),
		Upstream: UpstreamConfig{
			URL:     os.Getenv("UPSTREAM_URL"),
			APIKey:  os.Getenv("UPSTREAM_API_KEY"),
			Timeout: durationOr("UPSTREAM_TIMEOUT", DefaultUpstreamTimeout),
		},
		Revocation: RevocationConfig{
			URL:     os.Getenv("REVOCATION_URL"),
			Timeout: durationOr("REVOCATION_TIMEOUT", 5*time.Second),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     intOr("REDIS_POOL_SIZE", 10),
			MinIdleConns: intOr("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  durationOr("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  durationOr("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: durationOr("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
	}

	if cfg.SessionSigningKey == "" && !cfg.IsProduction() {
		key, err := secrets.Generate()
		if err != nil {
			return Server{}, err
		}
		cfg.SessionSigningKey = key
	}

	return cfg, cfg.Validate()
}

// Validate rejects configurations the server cannot run with.
func (s Server) Validate() error {
	var errs []error
	if s.Upstream.URL == "" {
		errs = append(errs, errors.New("UPSTREAM_URL is required"))
	} else if err := validURL(s.Upstream.URL); err != nil {
		errs = append(errs, fmt.Errorf("UPSTREAM_URL: %w", err))
	}
	if s.Revocation.URL != "" {
		if err := validURL(s.Revocation.URL); err != nil {
			errs = append(errs, fmt.Errorf("REVOCATION_URL: %w", err))
		}
	}
	if s.IsProduction() && len(s.SessionSigningKey) < secrets.MinSigningKeyLength {
		errs = append(errs, fmt.Errorf("SESSION_SIGNING_KEY must be at least %d characters in production", secrets.MinSigningKeyLength))
	}
	if s.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if s.Upstream.Timeout <= 0 {
		errs = append(errs, errors.New("UPSTREAM_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

func validURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func intOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
