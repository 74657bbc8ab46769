package cache

import (
	"context"

	"github.com/google/uuid"

	"github.com/josh-kwaku/pocket-ledger/internal/logging"
)

// Publisher broadcasts dropped keys to the other API instances.
type Publisher interface {
	PublishInvalidation(ctx context.Context, userID uuid.UUID, keys []string) error
}

// Invalidator drops keys from the local store and, when a publisher is set,
// fans the same keys out to peers. It never fails the caller.
type Invalidator struct {
	store     Store
	publisher Publisher
}

func NewInvalidator(store Store, publisher Publisher) *Invalidator {
	return &Invalidator{store: store, publisher: publisher}
}

func (i *Invalidator) Invalidate(ctx context.Context, userID uuid.UUID, keys ...string) {
	if len(keys) == 0 {
		return
	}
	log := logging.FromContext(ctx)

	if err := i.store.Delete(ctx, keys...); err != nil {
		log.Warn("cache invalidation failed", "user_id", userID, "keys", keys, "error", err)
	}
	if i.publisher == nil {
		return
	}
	if err := i.publisher.PublishInvalidation(ctx, userID, keys); err != nil {
		log.Warn("cache invalidation publish failed", "user_id", userID, "keys", keys, "error", err)
	}
}

// Apply drops keys received from a peer without re-publishing them.
func (i *Invalidator) Apply(ctx context.Context, keys []string) error {
	return i.store.Delete(ctx, keys...)
}
