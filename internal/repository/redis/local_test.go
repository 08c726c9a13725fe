package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momofof/genie-cart/internal/domain"
	apperrors "github.com/momofof/genie-cart/pkg/errors"
)

func setupTestRedis(t *testing.T) (*LocalCartRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	repo := NewLocalCartRepository(client, 24*time.Hour)
	return repo, mr
}

func sampleSnapshot() domain.Snapshot {
	return domain.Snapshot{
		{
			ProductID:         "tee-1",
			ProductName:       "Custom Tee",
			UnitPrice:         2500,
			Quantity:          2,
			VariantAttributes: map[string]string{"color": "red"},
		},
	}
}

func TestLocalCartRepository_SaveAndLoad(t *testing.T) {
	repo, mr := setupTestRedis(t)

	want := sampleSnapshot()
	require.NoError(t, repo.Save(context.Background(), "sess-1", want))
	assert.True(t, mr.Exists("cart:local:sess-1"))

	got, err := repo.Load(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLocalCartRepository_Load_NotFound(t *testing.T) {
	repo, _ := setupTestRedis(t)

	got, err := repo.Load(context.Background(), "nobody")
	assert.Nil(t, got)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestLocalCartRepository_Load_CorruptBlob(t *testing.T) {
	repo, mr := setupTestRedis(t)

	require.NoError(t, mr.Set("cart:local:sess-bad", "{{not-json"))

	got, err := repo.Load(context.Background(), "sess-bad")
	assert.Nil(t, got)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal cart")
}

func TestLocalCartRepository_Save_TTL(t *testing.T) {
	repo, mr := setupTestRedis(t)

	require.NoError(t, repo.Save(context.Background(), "sess-1", sampleSnapshot()))

	ttl := mr.TTL("cart:local:sess-1")
	assert.True(t, ttl > 23*time.Hour, "expected TTL > 23h, got %v", ttl)
	assert.True(t, ttl <= 24*time.Hour, "expected TTL <= 24h, got %v", ttl)
}

func TestLocalCartRepository_Delete(t *testing.T) {
	repo, mr := setupTestRedis(t)

	require.NoError(t, repo.Save(context.Background(), "sess-1", sampleSnapshot()))
	require.NoError(t, repo.Delete(context.Background(), "sess-1"))

	assert.False(t, mr.Exists("cart:local:sess-1"))
}

func TestLocalCartRepository_PendingRoundTrip(t *testing.T) {
	repo, mr := setupTestRedis(t)

	intent := domain.PendingIntent{
		ProductID:   "mug-1",
		ProductName: "Custom Mug",
		UnitPrice:   1200,
		Quantity:    2,
	}
	require.NoError(t, repo.SavePending(context.Background(), "sess-1", intent))
	assert.True(t, mr.Exists("cart:pending:sess-1"))

	got, err := repo.TakePending(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, intent, *got)

	// Taking consumes: the key must be gone and a second take finds nothing.
	assert.False(t, mr.Exists("cart:pending:sess-1"))
	_, err = repo.TakePending(context.Background(), "sess-1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestLocalCartRepository_SavePending_ReplacesPrevious(t *testing.T) {
	repo, mr := setupTestRedis(t)

	first := domain.PendingIntent{ProductID: "mug-1", Quantity: 1}
	second := domain.PendingIntent{ProductID: "tee-1", Quantity: 3}

	require.NoError(t, repo.SavePending(context.Background(), "sess-1", first))
	require.NoError(t, repo.SavePending(context.Background(), "sess-1", second))

	raw, err := mr.Get("cart:pending:sess-1")
	require.NoError(t, err)

	var stored domain.PendingIntent
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	assert.Equal(t, "tee-1", stored.ProductID)
	assert.Equal(t, 3, stored.Quantity)
}
