package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func lookup(env map[string]string) func(string) string {
	return func(k string) string { return env[k] }
}

func TestFromLookupDefaults(t *testing.T) {
	cfg, err := fromLookup(lookup(map[string]string{"JWT_SIGNING_KEY": "secret"}))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "reviewhub", cfg.Auth.Issuer)
	assert.Equal(t, "reviewhub-api", cfg.Auth.Audience)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 30*time.Second, cfg.Search.CacheTTL)
	assert.Equal(t, "review-events", cfg.Kafka.Topic)
	assert.Equal(t, bcrypt.DefaultCost, cfg.BcryptCost)
	assert.False(t, cfg.Kafka.Enabled())
	assert.Empty(t, cfg.Database.URL)
	assert.False(t, cfg.RateLimit.Disabled)
	assert.Empty(t, cfg.TrustedProxies)
	assert.Equal(t, 10, cfg.RateLimit.AuthLimit)
	assert.Equal(t, 50, cfg.RateLimit.WriteLimit)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
}

func TestFromLookupRequiresSigningKey(t *testing.T) {
	_, err := fromLookup(lookup(map[string]string{}))
	assert.ErrorIs(t, err, ErrMissingSigningKey)
}

func TestFromLookupOverrides(t *testing.T) {
	cfg, err := fromLookup(lookup(map[string]string{
		"JWT_SIGNING_KEY":     "secret",
		"REVIEWHUB_ADDR":      ":9090",
		"TOKEN_TTL":           "15m",
		"KAFKA_BROKERS":       "kafka-1:9092, kafka-2:9092,",
		"SEARCH_CACHE_TTL":    "1m",
		"BCRYPT_COST":         "4",
		"RATE_LIMIT_DISABLED": "true",
		"TRUSTED_PROXIES":     "10.0.0.0/8, 192.0.2.1",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, 15*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled())
	assert.Equal(t, time.Minute, cfg.Search.CacheTTL)
	assert.Equal(t, 4, cfg.BcryptCost)
	assert.True(t, cfg.RateLimit.Disabled)
	assert.Equal(t, []string{"10.0.0.0/8", "192.0.2.1"}, cfg.TrustedProxies)
}

func TestFromLookupRejectsMalformedValues(t *testing.T) {
	_, err := fromLookup(lookup(map[string]string{
		"JWT_SIGNING_KEY": "secret",
		"TOKEN_TTL":       "forever",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TOKEN_TTL")

	_, err = fromLookup(lookup(map[string]string{
		"JWT_SIGNING_KEY": "secret",
		"BCRYPT_COST":     "99",
	}))
	assert.Error(t, err)

	_, err = fromLookup(lookup(map[string]string{
		"JWT_SIGNING_KEY":     "secret",
		"RATE_LIMIT_DISABLED": "sometimes",
	}))
	assert.ErrorContains(t, err, "RATE_LIMIT_DISABLED")
}
