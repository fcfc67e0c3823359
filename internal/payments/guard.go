package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/meghshyam-labs/vyapar-backend/pkg/redis"
)

const verifyScope = "payment_verify"

// IdempotencyGuard is the redis fast path for duplicate verification
// callbacks. The conditional payment update in the database stays the
// authority; the guard only short-circuits obvious replays.
type IdempotencyGuard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
}

// NewIdempotencyGuard builds a guard over the shared redis client.
func NewIdempotencyGuard(store redis.IdempotencyStore, ttl time.Duration) (*IdempotencyGuard, error) {
	if store == nil {
		return nil, fmt.Errorf("idempotency store required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyGuard{store: store, ttl: ttl}, nil
}

// CheckAndMark marks the gateway payment id as seen. It reports true when a
// marker already existed. Redis outages degrade to "not seen": verification
// then relies on the database guard alone.
func (g *IdempotencyGuard) CheckAndMark(ctx context.Context, paymentID string) (bool, error) {
	key := g.store.IdempotencyKey(verifyScope, paymentID)
	stored, err := g.store.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), g.ttl)
	if err != nil {
		return false, err
	}
	return !stored, nil
}

// Release removes the marker so a failed verification can be retried.
func (g *IdempotencyGuard) Release(ctx context.Context, paymentID string) error {
	return g.store.Del(ctx, g.store.IdempotencyKey(verifyScope, paymentID))
}
