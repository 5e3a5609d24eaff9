package cache

import (
	"context"
	"log/slog"
	"time"

	"similarity-checker/internal/similarity"
)

// Comparer serves repeated comparisons from a Cache and delegates misses.
type Comparer struct {
	next        similarity.Comparer
	cache       Cache
	fingerprint string
	model       string
	ttl         time.Duration
	log         *slog.Logger
}

// NewComparer wraps next. The fingerprint must change whenever next would
// answer the same texts differently (model, style, normalization).
func NewComparer(next similarity.Comparer, c Cache, cfg similarity.Config, ttl time.Duration, log *slog.Logger) *Comparer {
	if log == nil {
		log = slog.Default()
	}
	return &Comparer{
		next:        next,
		cache:       c,
		fingerprint: cfg.Fingerprint(),
		model:       cfg.ActiveModel(),
		ttl:         ttl,
		log:         log,
	}
}

func (c *Comparer) Compare(ctx context.Context, text1, text2 string) (similarity.Score, error) {
	key := GenerateKey(c.fingerprint, text1, text2)
	if entry, err := c.cache.GetScore(ctx, key); err != nil {
		c.log.Warn("cache lookup failed", "err", err)
	} else if entry != nil && entry.Score.Valid() {
		c.log.Debug("cache hit", "score", float64(entry.Score))
		return entry.Score, nil
	}

	score, err := c.next.Compare(ctx, text1, text2)
	if err != nil {
		return score, err
	}

	entry := &Entry{Score: score, Model: c.model, CachedAt: time.Now().UTC()}
	if err := c.cache.SetScore(ctx, key, entry, c.ttl); err != nil {
		// Log cache write failure but don't fail the comparison
		c.log.Warn("failed to cache score", "err", err)
	}
	return score, nil
}
