package ai

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	obsadapter "github.com/fairyhunter13/ielts-writing-coach/internal/adapter/observability"
	"github.com/fairyhunter13/ielts-writing-coach/internal/domain"
	"github.com/fairyhunter13/ielts-writing-coach/internal/observability"
)

const cacheKeyPrefix = "ielts:ai:"

// CachedGenerator serves repeated prompts from redis. Only successful
// generations are stored; redis failures are logged and bypassed.
type CachedGenerator struct {
	base      domain.TextGenerator
	rdb       redis.UniversalClient
	ttl       time.Duration
	namespace string
}

// NewCachedGenerator wraps base with a redis cache. Keys are scoped by
// namespace (typically the model name). If rdb is nil or ttl <= 0, base is
// returned unmodified.
func NewCachedGenerator(base domain.TextGenerator, rdb redis.UniversalClient, ttl time.Duration, namespace string) domain.TextGenerator {
	if base == nil || rdb == nil || ttl <= 0 {
		return base
	}
	return &CachedGenerator{base: base, rdb: rdb, ttl: ttl, namespace: namespace}
}

// Generate returns the cached response for prompt or calls the wrapped generator.
func (c *CachedGenerator) Generate(ctx domain.Context, prompt string) (string, error) {
	key := c.keyFor(prompt)
	lg := observability.LoggerFromContext(ctx)

	v, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		obsadapter.AICacheTotal.WithLabelValues("hit").Inc()
		return v, nil
	case errors.Is(err, redis.Nil):
		obsadapter.AICacheTotal.WithLabelValues("miss").Inc()
	default:
		obsadapter.AICacheTotal.WithLabelValues("error").Inc()
		lg.Warn("ai cache lookup failed", slog.Any("error", err))
	}

	out, err := c.base.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	if err := c.rdb.Set(ctx, key, out, c.ttl).Err(); err != nil {
		lg.Warn("ai cache store failed", slog.Any("error", err))
	}
	return out, nil
}

func (c *CachedGenerator) keyFor(prompt string) string {
	h := sha256.Sum256([]byte(strings.TrimSpace(prompt)))
	return cacheKeyPrefix + c.namespace + ":" + hex.EncodeToString(h[:])
}
