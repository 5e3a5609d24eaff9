package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"similarity-checker/internal/similarity"
)

// Cache stores comparison scores keyed by GenerateKey.
type Cache interface {
	// GetScore returns nil on a miss.
	GetScore(ctx context.Context, key string) (*Entry, error)

	SetScore(ctx context.Context, key string, entry *Entry, ttl time.Duration) error

	Close() error
}

// Entry is a cached comparison outcome. Only successful scores are cached.
type Entry struct {
	Score    similarity.Score `json:"score"`
	Model    string           `json:"model"`
	CachedAt time.Time        `json:"cached_at"`
}

// GenerateKey hashes the client fingerprint and both texts. A zero byte separates
// fields so ("ab","c") and ("a","bc") never collide.
func GenerateKey(fingerprint, text1, text2 string) string {
	h := sha256.New()
	for _, part := range []string{fingerprint, text1, text2} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
