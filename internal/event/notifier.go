package event

import (
	"context"
	"log/slog"
)

// SyncNotifier forwards absorbed persistence failures to the sync_failed
// topic so operators and downstream consumers see them even though the cart
// itself kept working.
type SyncNotifier struct {
	producer *Producer
	logger   *slog.Logger
}

// NewSyncNotifier creates a notifier backed by the event producer.
func NewSyncNotifier(producer *Producer, logger *slog.Logger) *SyncNotifier {
	return &SyncNotifier{producer: producer, logger: logger}
}

// NotifySyncFailure publishes a cart.sync_failed event, best effort.
func (n *SyncNotifier) NotifySyncFailure(ctx context.Context, ownerID, operation, backend string, err error) {
	if perr := n.producer.PublishCartSyncFailed(ctx, ownerID, operation, backend, err); perr != nil {
		n.logger.WarnContext(ctx, "publish cart.sync_failed failed",
			slog.String("owner_id", ownerID),
			slog.String("operation", operation),
			slog.String("error", perr.Error()),
		)
	}
}
