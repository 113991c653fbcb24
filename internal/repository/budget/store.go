package budget

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/moviemind/moviemind/internal/db"
)

// kv is the consumer interface for counter persistence (ISP).
type kv interface {
	Get(ctx context.Context, key string) ([]byte, error)
	IncrByTTL(ctx context.Context, key string, val int64, ttl time.Duration) (int64, error)
}

// Counters keeps language-model token counters in Redis so every replica
// charges the same window. A counter expires on its own after its window.
type Counters struct {
	kv kv
}

// New creates counters over a key-value backend.
func New(kv kv) *Counters {
	return &Counters{kv: kv}
}

// Add charges tokens to a window counter and returns the total across replicas.
// The TTL is armed only by the first charge of a window.
func (c *Counters) Add(ctx context.Context, key string, tokens int64, ttl time.Duration) (int64, error) {
	total, err := c.kv.IncrByTTL(ctx, key, tokens, ttl)
	if err != nil {
		return total, fmt.Errorf("charge %s: %w", key, err)
	}
	return total, nil
}

// Load returns a window counter. A missing key is an untouched window.
func (c *Counters) Load(ctx context.Context, key string) (int64, error) {
	data, err := c.kv.Get(ctx, key)
	if errors.Is(err, db.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load %s: %w", key, err)
	}

	val, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("load %s: counter %q is not an integer: %w", key, data, err)
	}
	return val, nil
}
