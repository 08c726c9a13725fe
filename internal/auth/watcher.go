// Package auth consumes identity-change notifications from the auth
// collaborator and feeds them to the session manager. The service never
// issues or validates sessions itself.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	pkgkafka "github.com/momofof/genie-cart/pkg/kafka"
)

// TopicSessionChanged is the auth collaborator's transition feed.
const TopicSessionChanged = "ecommerce.auth.session_changed"

// SessionChange is one identity transition. An empty UserID means the
// session became anonymous.
type SessionChange struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
}

// TransitionFunc handles one transition for a session.
type TransitionFunc func(ctx context.Context, sessionID, userID string)

// Watcher delivers session transitions to a handler. Implementations run
// until the context is canceled.
type Watcher interface {
	Watch(ctx context.Context, fn TransitionFunc) error
}

// KafkaWatcher consumes the session_changed topic with the standard
// consumer, deduplicating redeliveries by event ID so a transition is
// handled once per delivery window.
type KafkaWatcher struct {
	brokers []string
	groupID string
	logger  *slog.Logger

	consumer *pkgkafka.Consumer
}

// NewKafkaWatcher creates a watcher bound to the session_changed topic.
func NewKafkaWatcher(brokers []string, groupID string, logger *slog.Logger) *KafkaWatcher {
	return &KafkaWatcher{
		brokers: brokers,
		groupID: groupID,
		logger:  logger,
	}
}

// handle adapts a TransitionFunc to the envelope handler signature.
func (w *KafkaWatcher) handle(fn TransitionFunc) pkgkafka.Handler {
	return func(ctx context.Context, event *pkgkafka.Event) error {
		var change SessionChange
		if err := event.UnmarshalData(&change); err != nil {
			return fmt.Errorf("unmarshal session change: %w", err)
		}
		if change.SessionID == "" {
			w.logger.WarnContext(ctx, "session change without session id, skipping",
				slog.String("event_id", event.EventID),
			)
			return nil
		}
		fn(ctx, change.SessionID, change.UserID)
		return nil
	}
}

// Watch consumes transitions until the context is canceled.
func (w *KafkaWatcher) Watch(ctx context.Context, fn TransitionFunc) error {
	dedup := pkgkafka.NewMemoryIdempotencyStore(time.Hour)
	w.consumer = pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
		Brokers: w.brokers,
		GroupID: w.groupID,
		Topic:   TopicSessionChanged,
	}, pkgkafka.IdempotentHandler(dedup, TopicSessionChanged, w.groupID, w.handle(fn), w.logger), w.logger)

	return w.consumer.Start(ctx)
}

// Close releases the underlying reader.
func (w *KafkaWatcher) Close() error {
	if w.consumer == nil {
		return nil
	}
	return w.consumer.Close()
}
