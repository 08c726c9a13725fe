package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/momofof/genie-cart/internal/domain"
	"github.com/momofof/genie-cart/internal/repository"
	apperrors "github.com/momofof/genie-cart/pkg/errors"
)

// Identity is the caller's current standing: the session always exists, the
// user ID only while signed in.
type Identity struct {
	SessionID string
	UserID    string
}

// Authenticated reports whether the identity carries a signed-in user.
func (id Identity) Authenticated() bool {
	return id.UserID != ""
}

// Owner is the persistence key for this identity: the user ID when signed
// in, the session ID otherwise.
func (id Identity) Owner() string {
	if id.Authenticated() {
		return id.UserID
	}
	return id.SessionID
}

// Notifier receives persistence failures the adapter absorbed. Reads fail
// open into an empty snapshot; the notifier is the only trace the failure
// leaves besides the log line.
type Notifier interface {
	NotifySyncFailure(ctx context.Context, ownerID, operation, backend string, err error)
}

// NopNotifier discards notifications. Useful in tests.
type NopNotifier struct{}

func (NopNotifier) NotifySyncFailure(context.Context, string, string, string, error) {}

// Adapter routes snapshot persistence to the backend the identity selects:
// the durable per-user store while signed in, the per-session store while
// anonymous.
type Adapter struct {
	remote   repository.RemoteCartRepository
	local    repository.LocalCartRepository
	notifier Notifier
	logger   *slog.Logger
}

// NewAdapter creates a persistence adapter.
func NewAdapter(remote repository.RemoteCartRepository, local repository.LocalCartRepository, notifier Notifier, logger *slog.Logger) *Adapter {
	return &Adapter{
		remote:   remote,
		local:    local,
		notifier: notifier,
		logger:   logger,
	}
}

// Load fetches the identity's snapshot from its backend and normalizes it.
// Absence and read failures both yield an empty snapshot so the cart keeps
// working; failures are additionally logged and pushed to the notifier.
func (a *Adapter) Load(ctx context.Context, id Identity) domain.Snapshot {
	var (
		raw domain.Snapshot
		err error
	)
	if id.Authenticated() {
		raw, err = a.remote.Load(ctx, id.UserID)
	} else {
		raw, err = a.local.Load(ctx, id.SessionID)
	}
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			a.logger.ErrorContext(ctx, "cart load failed, starting empty",
				slog.String("owner_id", id.Owner()),
				slog.String("backend", a.backendName(id)),
				slog.String("error", err.Error()),
			)
			a.notifier.NotifySyncFailure(ctx, id.Owner(), "load", a.backendName(id), err)
		}
		return domain.Snapshot{}
	}
	return domain.GroupDuplicates(raw)
}

// Save writes the snapshot to the identity's backend. The error is returned
// for the caller to decide on, and mirrored to the notifier; the in-memory
// cart stays authoritative either way.
func (a *Adapter) Save(ctx context.Context, id Identity, snapshot domain.Snapshot) error {
	var err error
	if id.Authenticated() {
		err = a.remote.Save(ctx, id.UserID, snapshot)
	} else {
		err = a.local.Save(ctx, id.SessionID, snapshot)
	}
	if err != nil {
		a.logger.ErrorContext(ctx, "cart save failed",
			slog.String("owner_id", id.Owner()),
			slog.String("backend", a.backendName(id)),
			slog.String("error", err.Error()),
		)
		a.notifier.NotifySyncFailure(ctx, id.Owner(), "save", a.backendName(id), err)
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// Clear removes the identity's stored snapshot.
func (a *Adapter) Clear(ctx context.Context, id Identity) error {
	var err error
	if id.Authenticated() {
		err = a.remote.Delete(ctx, id.UserID)
	} else {
		err = a.local.Delete(ctx, id.SessionID)
	}
	if err != nil {
		a.notifier.NotifySyncFailure(ctx, id.Owner(), "clear", a.backendName(id), err)
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (a *Adapter) backendName(id Identity) string {
	if id.Authenticated() {
		return "postgres"
	}
	return "redis"
}
