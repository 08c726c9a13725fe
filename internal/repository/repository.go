package repository

import (
	"context"

	"github.com/momofof/genie-cart/internal/domain"
)

// RemoteCartRepository is the durable per-user store used while the shopper
// is signed in. Save replaces the whole snapshot; the stored state always
// mirrors the last snapshot written, never an incremental diff.
type RemoteCartRepository interface {
	// Load returns the stored snapshot for a user. A user with no rows gets
	// apperrors.ErrNotFound, not an empty snapshot; callers decide how to
	// treat absence.
	Load(ctx context.Context, userID string) (domain.Snapshot, error)

	// Save atomically replaces the user's stored snapshot.
	Save(ctx context.Context, userID string, snapshot domain.Snapshot) error

	// Delete removes every stored line for the user.
	Delete(ctx context.Context, userID string) error
}

// LocalCartRepository is the volatile per-session store used while the
// shopper is anonymous. It also holds the single pending add-to-cart intent
// a session may queue before signing in.
type LocalCartRepository interface {
	Load(ctx context.Context, sessionID string) (domain.Snapshot, error)
	Save(ctx context.Context, sessionID string, snapshot domain.Snapshot) error
	Delete(ctx context.Context, sessionID string) error

	// SavePending queues an intent, replacing any previous one.
	SavePending(ctx context.Context, sessionID string, intent domain.PendingIntent) error

	// TakePending atomically reads and removes the queued intent so a
	// replay can never run twice. Returns apperrors.ErrNotFound when no
	// intent is queued.
	TakePending(ctx context.Context, sessionID string) (*domain.PendingIntent, error)
}

// TransactionRepository stores payment transactions awaiting verification.
type TransactionRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	Create(ctx context.Context, tx *domain.Transaction) error
	UpdateStatus(ctx context.Context, id string, status domain.TransactionStatus) error
}
