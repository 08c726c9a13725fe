package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momofof/genie-cart/internal/cart"
	"github.com/momofof/genie-cart/internal/domain"
	apperrors "github.com/momofof/genie-cart/pkg/errors"
)

func newTestManager(t *testing.T) (*Manager, *fakeRemote, *fakeLocal) {
	t.Helper()
	remote := newFakeRemote()
	local := newFakeLocal()
	adapter := NewAdapter(remote, local, NopNotifier{}, discardLogger())
	m := NewManager(adapter, local, NopPublisher{}, discardLogger(), time.Minute)
	return m, remote, local
}

func anon(session string) Identity {
	return Identity{SessionID: session}
}

func signedIn(session, user string) Identity {
	return Identity{SessionID: session, UserID: user}
}

func TestManager_AddItem_AnonymousPersistsLocally(t *testing.T) {
	m, remote, local := newTestManager(t)

	got := m.AddItem(context.Background(), anon("sess-1"), redTee(2))
	require.Len(t, got, 1)

	assert.Len(t, local.carts["sess-1"], 1)
	assert.Empty(t, remote.carts)
}

func TestManager_AddItem_SignedInPersistsRemotely(t *testing.T) {
	m, remote, local := newTestManager(t)

	m.AddItem(context.Background(), signedIn("sess-1", "user-1"), redTee(2))

	assert.Len(t, remote.carts["user-1"], 1)
	assert.Empty(t, local.carts)
}

func TestManager_AddItem_MergesAcrossCalls(t *testing.T) {
	m, _, _ := newTestManager(t)
	id := anon("sess-1")

	m.AddItem(context.Background(), id, redTee(1))
	got := m.AddItem(context.Background(), id, redTee(2))

	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].Quantity)
}

func TestManager_Snapshot_LoadsOnFirstAccess(t *testing.T) {
	m, remote, _ := newTestManager(t)
	remote.carts["user-1"] = domain.Snapshot{redTee(4)}

	got := m.Snapshot(context.Background(), signedIn("sess-1", "user-1"))
	require.Len(t, got, 1)
	assert.Equal(t, 4, got[0].Quantity)
}

func TestManager_SetQuantityZero_EquivalentToRemove(t *testing.T) {
	m, _, _ := newTestManager(t)
	id := anon("sess-1")
	m.AddItem(context.Background(), id, redTee(2))

	got, err := m.SetQuantity(context.Background(), id, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestManager_RemoveItem_OutOfRange(t *testing.T) {
	m, _, _ := newTestManager(t)

	_, err := m.RemoveItem(context.Background(), anon("sess-1"), 7)
	assert.ErrorIs(t, err, cart.ErrIndexOutOfRange)
}

func TestManager_DeleteSelected(t *testing.T) {
	m, _, _ := newTestManager(t)
	id := anon("sess-1")
	m.AddItem(context.Background(), id, redTee(1))
	m.AddItem(context.Background(), id, domain.LineItem{ProductID: "mug-1", UnitPrice: 1200, Quantity: 1})

	got, err := m.DeleteSelected(context.Background(), id, []int{0})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "mug-1", got[0].ProductID)
}

func TestManager_Clear_RemovesStoredSnapshot(t *testing.T) {
	m, _, local := newTestManager(t)
	id := anon("sess-1")
	m.AddItem(context.Background(), id, redTee(1))
	require.Len(t, local.carts["sess-1"], 1)

	m.Clear(context.Background(), id)

	assert.Empty(t, m.Snapshot(context.Background(), id))
	assert.Empty(t, local.carts)
}

func TestManager_QueuePending_AnonymousOnly(t *testing.T) {
	m, _, local := newTestManager(t)
	intent := domain.PendingIntent{ProductID: "tee-1", UnitPrice: 2500, Quantity: 1}

	require.NoError(t, m.QueuePending(context.Background(), anon("sess-1"), intent))
	assert.Contains(t, local.pending, "sess-1")

	err := m.QueuePending(context.Background(), signedIn("sess-1", "user-1"), intent)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestManager_SignIn_RemoteWinsAndLocalStaysDormant(t *testing.T) {
	m, remote, local := newTestManager(t)

	// Anonymous cart with one tee.
	m.AddItem(context.Background(), anon("sess-1"), redTee(5))
	remote.carts["user-1"] = domain.Snapshot{{ProductID: "mug-1", UnitPrice: 1200, Quantity: 1}}

	m.HandleSessionChange(context.Background(), "sess-1", "user-1")

	got := m.Snapshot(context.Background(), signedIn("sess-1", "user-1"))
	require.Len(t, got, 1)
	assert.Equal(t, "mug-1", got[0].ProductID)

	// The anonymous snapshot survives untouched for a later sign-out.
	assert.Len(t, local.carts["sess-1"], 1)
}

func TestManager_SignIn_ReplaysPendingIntentOnce(t *testing.T) {
	m, remote, local := newTestManager(t)

	intent := domain.PendingIntent{ProductID: "tee-1", ProductName: "Custom Tee", UnitPrice: 2500, Quantity: 2}
	require.NoError(t, m.QueuePending(context.Background(), anon("sess-1"), intent))

	m.HandleSessionChange(context.Background(), "sess-1", "user-1")

	got := m.Snapshot(context.Background(), signedIn("sess-1", "user-1"))
	require.Len(t, got, 1)
	assert.Equal(t, "tee-1", got[0].ProductID)
	assert.Equal(t, 2, got[0].Quantity)

	// Replayed cart was persisted remotely and the intent consumed.
	assert.Len(t, remote.carts["user-1"], 1)
	assert.Empty(t, local.pending)
}

func TestManager_SignIn_DiscardsPendingIntentWhenLineAlreadyInCart(t *testing.T) {
	m, remote, local := newTestManager(t)
	remote.carts["user-1"] = domain.Snapshot{redTee(1)}

	intent := domain.PendingIntent{
		ProductID:         "tee-1",
		ProductName:       "Custom Tee",
		UnitPrice:         2500,
		Quantity:          2,
		VariantAttributes: map[string]string{"color": "red"},
	}
	require.NoError(t, m.QueuePending(context.Background(), anon("sess-1"), intent))

	m.HandleSessionChange(context.Background(), "sess-1", "user-1")

	// The durable line wins untouched; the intent is consumed, not merged.
	got := m.Snapshot(context.Background(), signedIn("sess-1", "user-1"))
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Quantity)
	assert.Empty(t, local.pending)

	require.Len(t, remote.carts["user-1"], 1)
	assert.Equal(t, 1, remote.carts["user-1"][0].Quantity)
}

func TestManager_SignIn_ReplayGuardSuppressesDuplicateTransition(t *testing.T) {
	m, _, local := newTestManager(t)

	require.NoError(t, m.QueuePending(context.Background(), anon("sess-1"), domain.PendingIntent{ProductID: "tee-1", UnitPrice: 2500, Quantity: 1}))
	m.HandleSessionChange(context.Background(), "sess-1", "user-1")

	// A second transition inside the cooldown must not replay the freshly
	// queued intent; the guard is still held.
	require.NoError(t, local.SavePending(context.Background(), "sess-1", domain.PendingIntent{ProductID: "mug-1", UnitPrice: 1200, Quantity: 1}))
	m.HandleSessionChange(context.Background(), "sess-1", "user-1")

	got := m.Snapshot(context.Background(), signedIn("sess-1", "user-1"))
	require.Len(t, got, 1)
	assert.Equal(t, "tee-1", got[0].ProductID)
	assert.Contains(t, local.pending, "sess-1")
}

func TestManager_SignIn_ReplayGuardReleasesAfterCooldown(t *testing.T) {
	remote := newFakeRemote()
	local := newFakeLocal()
	adapter := NewAdapter(remote, local, NopNotifier{}, discardLogger())
	m := NewManager(adapter, local, NopPublisher{}, discardLogger(), 20*time.Millisecond)

	require.NoError(t, m.QueuePending(context.Background(), anon("sess-1"), domain.PendingIntent{ProductID: "tee-1", UnitPrice: 2500, Quantity: 1}))
	m.HandleSessionChange(context.Background(), "sess-1", "user-1")

	time.Sleep(50 * time.Millisecond)

	require.NoError(t, local.SavePending(context.Background(), "sess-1", domain.PendingIntent{ProductID: "mug-1", UnitPrice: 1200, Quantity: 1}))
	m.HandleSessionChange(context.Background(), "sess-1", "user-1")

	got := m.Snapshot(context.Background(), signedIn("sess-1", "user-1"))
	require.Len(t, got, 2)
	assert.Empty(t, local.pending)
}

func TestManager_SignOut_RestoresDormantLocalCart(t *testing.T) {
	m, remote, _ := newTestManager(t)

	m.AddItem(context.Background(), anon("sess-1"), redTee(3))
	remote.carts["user-1"] = domain.Snapshot{{ProductID: "mug-1", UnitPrice: 1200, Quantity: 1}}

	m.HandleSessionChange(context.Background(), "sess-1", "user-1")
	m.HandleSessionChange(context.Background(), "sess-1", "")

	got := m.Snapshot(context.Background(), anon("sess-1"))
	require.Len(t, got, 1)
	assert.Equal(t, "tee-1", got[0].ProductID)
	assert.Equal(t, 3, got[0].Quantity)
}
