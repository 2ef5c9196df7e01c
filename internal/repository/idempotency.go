package repository

import (
	"context"
	"fmt"
	"time"

	"payguard/internal/model"
)

// Retrying agents resend submits with the same idempotency key; the key
// is reserved in Redis before the decision runs, so a duplicate is
// rejected without touching the budget.
const idemTTL = 24 * time.Hour

// ReserveIdempotencyKey returns false when the key was already used.
func (r *Repo) ReserveIdempotencyKey(ctx context.Context, key string) (bool, error) {
	ok, err := r.rdb.SetNX(ctx, "idem:"+key, 1, idemTTL).Result()
	if err != nil {
		return false, fmt.Errorf("%w: reserve idempotency key: %v", model.ErrStore, err)
	}
	return ok, nil
}

// ReleaseIdempotencyKey frees a reservation when the guarded submit
// failed before reaching its commit point, so the caller may retry.
func (r *Repo) ReleaseIdempotencyKey(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, "idem:"+key).Err(); err != nil {
		return fmt.Errorf("%w: release idempotency key: %v", model.ErrStore, err)
	}
	return nil
}
