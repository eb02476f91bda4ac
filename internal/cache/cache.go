package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/ppiankov/curato/internal/model"
)

// Cache defines the interface for memoizing per-sentence evidence
type Cache interface {
	Get(key string) ([]model.Evidence, bool)
	Set(key string, value []model.Evidence, ttl time.Duration) error
}

// Key generates a cache key from a sentence. The offset takes part in the
// key because evidence carries absolute positions.
func Key(s model.Sentence) string {
	h := sha256.New()
	h.Write([]byte(strconv.Itoa(s.Offset)))
	h.Write([]byte{0})
	h.Write([]byte(s.Text))
	return "curato:v1:" + hex.EncodeToString(h.Sum(nil))
}
