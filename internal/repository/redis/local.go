package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/momofof/genie-cart/internal/domain"
	apperrors "github.com/momofof/genie-cart/pkg/errors"
)

const (
	cartKeyPrefix    = "cart:local:"
	pendingKeyPrefix = "cart:pending:"
)

// LocalCartRepository implements repository.LocalCartRepository using Redis.
// Anonymous carts and pending intents are stored as JSON blobs keyed by
// session ID, expiring after the configured TTL of inactivity.
type LocalCartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLocalCartRepository creates a new Redis-backed local cart repository.
func NewLocalCartRepository(client *redis.Client, ttl time.Duration) *LocalCartRepository {
	return &LocalCartRepository{
		client: client,
		ttl:    ttl,
	}
}

// Load retrieves the anonymous snapshot for a session.
func (r *LocalCartRepository) Load(ctx context.Context, sessionID string) (domain.Snapshot, error) {
	data, err := r.client.Get(ctx, cartKeyPrefix+sessionID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.NotFound("cart", sessionID)
		}
		return nil, fmt.Errorf("redis get cart: %w", err)
	}

	var snapshot domain.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}
	return snapshot, nil
}

// Save stores the snapshot with the configured TTL.
func (r *LocalCartRepository) Save(ctx context.Context, sessionID string, snapshot domain.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}

	if err := r.client.Set(ctx, cartKeyPrefix+sessionID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}
	return nil
}

// Delete removes the anonymous snapshot for a session.
func (r *LocalCartRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, cartKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("redis del cart: %w", err)
	}
	return nil
}

// SavePending queues a single intent for the session, replacing any
// previously queued one.
func (r *LocalCartRepository) SavePending(ctx context.Context, sessionID string, intent domain.PendingIntent) error {
	data, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("marshal pending intent: %w", err)
	}

	if err := r.client.Set(ctx, pendingKeyPrefix+sessionID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set pending intent: %w", err)
	}
	return nil
}

// TakePending reads and removes the queued intent in one round trip, so two
// concurrent replays can never both observe it.
func (r *LocalCartRepository) TakePending(ctx context.Context, sessionID string) (*domain.PendingIntent, error) {
	data, err := r.client.GetDel(ctx, pendingKeyPrefix+sessionID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.NotFound("pending intent", sessionID)
		}
		return nil, fmt.Errorf("redis getdel pending intent: %w", err)
	}

	var intent domain.PendingIntent
	if err := json.Unmarshal(data, &intent); err != nil {
		return nil, fmt.Errorf("unmarshal pending intent: %w", err)
	}
	return &intent, nil
}
