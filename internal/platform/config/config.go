package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// ErrMissingSigningKey is returned when JWT_SIGNING_KEY is unset. The server
// has no fallback secret.
var ErrMissingSigningKey = errors.New("JWT_SIGNING_KEY is required")

// Server captures process level configuration.
type Server struct {
	Addr            string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	BcryptCost      int
	// TrustedProxies lists CIDRs or addresses whose forwarding headers are
	// believed. Empty means clients are keyed on the connection address.
	TrustedProxies []string

	Auth      AuthConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Search    SearchConfig
	Kafka     KafkaConfig
	RateLimit RateLimitConfig
}

// AuthConfig configures token issuance and verification.
type AuthConfig struct {
	JWTSigningKey string
	Issuer        string
	Audience      string
	TokenTTL      time.Duration
}

// DatabaseConfig selects postgres storage when URL is set.
type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
	ConnMaxLife  time.Duration
}

// RedisConfig configures the optional search cache backend.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// SearchConfig tunes the search cache.
type SearchConfig struct {
	CacheTTL time.Duration
}

// KafkaConfig selects event dispatch through Kafka when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	Group   string
}

// RateLimitConfig bounds mutating requests per client IP. Windows live in
// Redis when REDIS_URL is set, otherwise in process memory.
type RateLimitConfig struct {
	Disabled   bool
	AuthLimit  int
	WriteLimit int
	Window     time.Duration
}

// Enabled reports whether review events go through Kafka.
func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

// FromEnv loads an optional .env file and builds the Server config from the
// environment.
func FromEnv() (Server, error) {
	// .env is a development convenience; its absence is not an error.
	_ = godotenv.Load()
	return fromLookup(os.Getenv)
}

func fromLookup(get func(string) string) (Server, error) {
	p := parser{get: get}
	cfg := Server{
		Addr:            p.str("REVIEWHUB_ADDR", ":8080"),
		LogLevel:        p.str("LOG_LEVEL", "info"),
		LogFormat:       p.str("LOG_FORMAT", "json"),
		ShutdownTimeout: p.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
		BcryptCost:      p.integer("BCRYPT_COST", bcrypt.DefaultCost),
		TrustedProxies:  p.list("TRUSTED_PROXIES"),
		Auth: AuthConfig{
			JWTSigningKey: get("JWT_SIGNING_KEY"),
			Issuer:        p.str("JWT_ISSUER", "reviewhub"),
			Audience:      p.str("JWT_AUDIENCE", "reviewhub-api"),
			TokenTTL:      p.duration("TOKEN_TTL", time.Hour),
		},
		Database: DatabaseConfig{
			URL:          get("DATABASE_URL"),
			MaxOpenConns: p.integer("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns: p.integer("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLife:  p.duration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          get("REDIS_URL"),
			PoolSize:     p.integer("REDIS_POOL_SIZE", 10),
			MinIdleConns: p.integer("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  p.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  p.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: p.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Search: SearchConfig{
			CacheTTL: p.duration("SEARCH_CACHE_TTL", 30*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: p.list("KAFKA_BROKERS"),
			Topic:   p.str("KAFKA_TOPIC", "review-events"),
			Group:   p.str("KAFKA_GROUP", "reviewhub-rating"),
		},
		RateLimit: RateLimitConfig{
			Disabled:   p.boolean("RATE_LIMIT_DISABLED", false),
			AuthLimit:  p.integer("RATE_LIMIT_AUTH", 10),
			WriteLimit: p.integer("RATE_LIMIT_WRITE", 50),
			Window:     p.duration("RATE_LIMIT_WINDOW", time.Minute),
		},
	}

	if p.err != nil {
		return Server{}, p.err
	}
	if cfg.Auth.JWTSigningKey == "" {
		return Server{}, ErrMissingSigningKey
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		return Server{}, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return cfg, nil
}

// parser records the first malformed value so FromEnv reports it once.
type parser struct {
	get func(string) string
	err error
}

func (p *parser) str(key, def string) string {
	if v := strings.TrimSpace(p.get(key)); v != "" {
		return v
	}
	return def
}

func (p *parser) integer(key string, def int) int {
	raw := strings.TrimSpace(p.get(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(key, raw, err)
		return def
	}
	return v
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(p.get(key))
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(key, raw, err)
		return def
	}
	return v
}

func (p *parser) boolean(key string, def bool) bool {
	raw := strings.TrimSpace(p.get(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.fail(key, raw, err)
		return def
	}
	return v
}

func (p *parser) list(key string) []string {
	var out []string
	for _, part := range strings.Split(p.get(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (p *parser) fail(key, raw string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
}
