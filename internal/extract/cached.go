package extract

import (
	"time"

	"github.com/ppiankov/curato/internal/cache"
	"github.com/ppiankov/curato/internal/model"
)

// CachedExtractor memoizes another extractor's evidence per sentence.
// Identical sentences at the same offset reuse the stored evidence.
type CachedExtractor struct {
	inner Extractor
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedExtractor wraps inner; ttl 0 uses the cache's default
func NewCachedExtractor(inner Extractor, c cache.Cache, ttl time.Duration) *CachedExtractor {
	return &CachedExtractor{inner: inner, cache: c, ttl: ttl}
}

// FindAll returns cached evidence or computes and stores it
func (c *CachedExtractor) FindAll(s model.Sentence) ([]model.Evidence, error) {
	key := cache.Key(s)
	if evs, ok := c.cache.Get(key); ok {
		return evs, nil
	}

	evs, err := c.inner.FindAll(s)
	if err != nil {
		return nil, err
	}
	// Set errors are ignored; a miss recomputes
	_ = c.cache.Set(key, evs, c.ttl)
	return evs, nil
}

// ToGrounds wraps FindAll's result with the sentence
func (c *CachedExtractor) ToGrounds(s model.Sentence) (model.Grounds, error) {
	return toGrounds(c, s)
}
