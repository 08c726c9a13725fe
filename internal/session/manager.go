package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/momofof/genie-cart/internal/cart"
	"github.com/momofof/genie-cart/internal/domain"
	"github.com/momofof/genie-cart/internal/repository"
	apperrors "github.com/momofof/genie-cart/pkg/errors"
)

// DefaultReplayCooldown is how long the replay guard stays held after a
// sign-in transition. Transitions for the same session arriving inside the
// window are treated as duplicates of the one already handled.
const DefaultReplayCooldown = 2 * time.Second

// Publisher publishes cart lifecycle events. *event.Producer satisfies it.
type Publisher interface {
	PublishCartUpdated(ctx context.Context, ownerID string, snapshot domain.Snapshot) error
	PublishCartCleared(ctx context.Context, ownerID string) error
}

// NopPublisher discards events. Useful in tests.
type NopPublisher struct{}

func (NopPublisher) PublishCartUpdated(context.Context, string, domain.Snapshot) error {
	return nil
}
func (NopPublisher) PublishCartCleared(context.Context, string) error { return nil }

// Manager owns the live cart of every active session and moves it between
// persistence backends as the session's identity changes. All cart
// operations for one session are serialized by that session's mutex, so
// saves for an identity are ordered and last write wins.
type Manager struct {
	adapter        *Adapter
	local          repository.LocalCartRepository
	publisher      Publisher
	logger         *slog.Logger
	replayCooldown time.Duration

	mu       sync.Mutex
	sessions map[string]*sessionState
}

type sessionState struct {
	mu     sync.Mutex
	store  *cart.Store
	userID string

	// loadedFor is the persistence owner the store currently mirrors.
	// Empty until the first load; a differing owner forces a reload.
	loadedFor string

	replaying atomic.Bool
}

// NewManager creates a session manager. A zero replayCooldown selects
// DefaultReplayCooldown.
func NewManager(adapter *Adapter, local repository.LocalCartRepository, publisher Publisher, logger *slog.Logger, replayCooldown time.Duration) *Manager {
	if replayCooldown <= 0 {
		replayCooldown = DefaultReplayCooldown
	}
	return &Manager{
		adapter:        adapter,
		local:          local,
		publisher:      publisher,
		logger:         logger,
		replayCooldown: replayCooldown,
		sessions:       make(map[string]*sessionState),
	}
}

func (m *Manager) state(sessionID string) *sessionState {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.sessions[sessionID]
	if !ok {
		st = &sessionState{store: cart.NewStore()}
		m.sessions[sessionID] = st
	}
	return st
}

// ensureLoaded hydrates the store from the identity's backend if it does not
// already mirror that owner. Must be called with st.mu held.
func (m *Manager) ensureLoaded(ctx context.Context, st *sessionState, id Identity) {
	if st.loadedFor == id.Owner() {
		return
	}
	st.store.Replace(m.adapter.Load(ctx, id))
	st.loadedFor = id.Owner()
}

// Snapshot returns the identity's current cart, loading it on first access.
func (m *Manager) Snapshot(ctx context.Context, id Identity) domain.Snapshot {
	st := m.state(id.SessionID)
	st.mu.Lock()
	defer st.mu.Unlock()

	m.ensureLoaded(ctx, st, id)
	return st.store.Items()
}

// AddItem merges or appends the line and persists the result. Persistence
// failures do not fail the operation; the adapter reports them through its
// notifier and the in-memory cart stays authoritative.
func (m *Manager) AddItem(ctx context.Context, id Identity, item domain.LineItem) domain.Snapshot {
	st := m.state(id.SessionID)
	st.mu.Lock()
	defer st.mu.Unlock()

	m.ensureLoaded(ctx, st, id)
	snapshot := st.store.AddItem(item)
	m.persistAndAnnounce(ctx, id, snapshot)
	return snapshot
}

// RemoveItem removes the line at index.
func (m *Manager) RemoveItem(ctx context.Context, id Identity, index int) (domain.Snapshot, error) {
	st := m.state(id.SessionID)
	st.mu.Lock()
	defer st.mu.Unlock()

	m.ensureLoaded(ctx, st, id)
	snapshot, err := st.store.RemoveItem(index)
	if err != nil {
		return nil, err
	}
	m.persistAndAnnounce(ctx, id, snapshot)
	return snapshot, nil
}

// SetQuantity sets the line's quantity; zero or less removes it.
func (m *Manager) SetQuantity(ctx context.Context, id Identity, index, quantity int) (domain.Snapshot, error) {
	st := m.state(id.SessionID)
	st.mu.Lock()
	defer st.mu.Unlock()

	m.ensureLoaded(ctx, st, id)
	snapshot, err := st.store.SetQuantity(index, quantity)
	if err != nil {
		return nil, err
	}
	m.persistAndAnnounce(ctx, id, snapshot)
	return snapshot, nil
}

// DeleteSelected removes the lines at the given indices in one operation.
func (m *Manager) DeleteSelected(ctx context.Context, id Identity, indices []int) (domain.Snapshot, error) {
	st := m.state(id.SessionID)
	st.mu.Lock()
	defer st.mu.Unlock()

	m.ensureLoaded(ctx, st, id)
	snapshot, err := st.store.DeleteSelected(indices)
	if err != nil {
		return nil, err
	}
	m.persistAndAnnounce(ctx, id, snapshot)
	return snapshot, nil
}

// Clear empties the cart and its stored snapshot.
func (m *Manager) Clear(ctx context.Context, id Identity) {
	st := m.state(id.SessionID)
	st.mu.Lock()
	defer st.mu.Unlock()

	st.store.Clear()
	st.loadedFor = id.Owner()
	if err := m.adapter.Clear(ctx, id); err != nil {
		m.logger.WarnContext(ctx, "clear persisted cart failed",
			slog.String("owner_id", id.Owner()),
			slog.String("error", err.Error()),
		)
	}
	if err := m.publisher.PublishCartCleared(ctx, id.Owner()); err != nil {
		m.logger.WarnContext(ctx, "publish cart.cleared failed",
			slog.String("error", err.Error()),
		)
	}
}

// QueuePending stores an add-to-cart intent to be replayed once after the
// session signs in. Only anonymous sessions queue; a signed-in caller should
// add the item directly.
func (m *Manager) QueuePending(ctx context.Context, id Identity, intent domain.PendingIntent) error {
	if id.Authenticated() {
		return apperrors.InvalidInput("pending intent requires an anonymous session")
	}
	return m.local.SavePending(ctx, id.SessionID, intent)
}

// HandleSessionChange reacts to an identity transition for a session. A
// non-empty userID is a sign-in: the durable cart wins and any queued intent
// is replayed at most once. An empty userID is a sign-out: the session falls
// back to its dormant anonymous cart.
func (m *Manager) HandleSessionChange(ctx context.Context, sessionID, userID string) {
	if userID != "" {
		m.handleSignIn(ctx, sessionID, userID)
		return
	}
	m.handleSignOut(ctx, sessionID)
}

func (m *Manager) handleSignIn(ctx context.Context, sessionID, userID string) {
	st := m.state(sessionID)
	st.mu.Lock()
	defer st.mu.Unlock()

	id := Identity{SessionID: sessionID, UserID: userID}
	st.userID = userID

	// Remote wins. The anonymous snapshot stays where it is, dormant until
	// the session signs out again.
	st.store.Replace(m.adapter.Load(ctx, id))
	st.loadedFor = id.Owner()

	if !st.replaying.CompareAndSwap(false, true) {
		m.logger.DebugContext(ctx, "replay suppressed, transition already being handled",
			slog.String("session_id", sessionID),
		)
		return
	}
	time.AfterFunc(m.replayCooldown, func() { st.replaying.Store(false) })

	intent, err := m.local.TakePending(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			m.logger.ErrorContext(ctx, "take pending intent failed",
				slog.String("session_id", sessionID),
				slog.String("error", err.Error()),
			)
		}
		return
	}

	item := intent.LineItem()
	if st.store.Items().FindMatch(item) >= 0 {
		// The durable cart already holds an equivalent line; the intent is
		// consumed and dropped rather than merged into it.
		m.logger.InfoContext(ctx, "pending intent discarded, line already in cart",
			slog.String("session_id", sessionID),
			slog.String("user_id", userID),
			slog.String("product_id", intent.ProductID),
		)
		return
	}

	snapshot := st.store.AddItem(item)
	m.persistAndAnnounce(ctx, id, snapshot)
	m.logger.InfoContext(ctx, "replayed pending intent",
		slog.String("session_id", sessionID),
		slog.String("user_id", userID),
		slog.String("product_id", intent.ProductID),
	)
}

func (m *Manager) handleSignOut(ctx context.Context, sessionID string) {
	st := m.state(sessionID)
	st.mu.Lock()
	defer st.mu.Unlock()

	id := Identity{SessionID: sessionID}
	st.userID = ""
	st.store.Replace(m.adapter.Load(ctx, id))
	st.loadedFor = id.Owner()
}

// persistAndAnnounce saves the snapshot and publishes cart.updated, both
// best effort. Must be called with the session state's mutex held so writes
// for an identity stay ordered.
func (m *Manager) persistAndAnnounce(ctx context.Context, id Identity, snapshot domain.Snapshot) {
	// Save errors were already logged and pushed to the notifier by the
	// adapter; the in-memory cart remains the source of truth.
	_ = m.adapter.Save(ctx, id, snapshot)

	if err := m.publisher.PublishCartUpdated(ctx, id.Owner(), snapshot); err != nil {
		m.logger.WarnContext(ctx, "publish cart.updated failed",
			slog.String("owner_id", id.Owner()),
			slog.String("error", err.Error()),
		)
	}
}
