package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/momofof/genie-cart/internal/domain"
	pkgkafka "github.com/momofof/genie-cart/pkg/kafka"
)

// Kafka topic constants for cart domain events.
const (
	TopicCartUpdated     = "ecommerce.cart.updated"
	TopicCartCleared     = "ecommerce.cart.cleared"
	TopicCartSyncFailed  = "ecommerce.cart.sync_failed"
	TopicPaymentVerified = "ecommerce.payment.verified"
)

// Aggregate type constants.
const (
	AggregateTypeCart    = "cart"
	AggregateTypePayment = "payment"
)

// Source identifier for events originating from this service.
const SourceCartService = "cart-service"

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	OwnerID     string         `json:"owner_id"`
	Items       []CartItemData `json:"items"`
	ItemCount   int            `json:"item_count"`
	TotalAmount int64          `json:"total_amount"`
}

// CartItemData is the line payload within cart events.
type CartItemData struct {
	ProductID   string            `json:"product_id"`
	ProductName string            `json:"product_name"`
	UnitPrice   int64             `json:"unit_price"`
	Quantity    int               `json:"quantity"`
	SupplierID  string            `json:"supplier_id,omitempty"`
	Variants    map[string]string `json:"variants,omitempty"`
}

// CartClearedData is the payload for a cart.cleared event.
type CartClearedData struct {
	OwnerID string `json:"owner_id"`
}

// CartSyncFailedData is the payload for a cart.sync_failed event, published
// when a persistence backend could not serve a load or save.
type CartSyncFailedData struct {
	OwnerID   string `json:"owner_id"`
	Operation string `json:"operation"`
	Backend   string `json:"backend"`
	Reason    string `json:"reason"`
}

// PaymentVerifiedData is the payload for a payment.verified event.
type PaymentVerifiedData struct {
	TransactionID string `json:"transaction_id"`
	UserID        string `json:"user_id"`
	Status        string `json:"status"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
}

// Producer publishes cart and payment domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishCartUpdated publishes a cart.updated event for the given owner
// (user ID when signed in, session ID otherwise).
func (p *Producer) PublishCartUpdated(ctx context.Context, ownerID string, snapshot domain.Snapshot) error {
	items := make([]CartItemData, len(snapshot))
	for i, it := range snapshot {
		items[i] = CartItemData{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			UnitPrice:   it.UnitPrice,
			Quantity:    it.Quantity,
			SupplierID:  it.SupplierID,
			Variants:    it.VariantAttributes,
		}
	}

	data := CartUpdatedData{
		OwnerID:     ownerID,
		Items:       items,
		ItemCount:   snapshot.ItemCount(),
		TotalAmount: snapshot.Total(),
	}

	event, err := pkgkafka.NewEvent(TopicCartUpdated, ownerID, AggregateTypeCart, SourceCartService, data)
	if err != nil {
		return fmt.Errorf("create cart.updated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartUpdated, event); err != nil {
		return fmt.Errorf("publish cart.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.updated event",
		slog.String("owner_id", ownerID),
		slog.Int("item_count", snapshot.ItemCount()),
	)

	return nil
}

// PublishCartCleared publishes a cart.cleared event.
func (p *Producer) PublishCartCleared(ctx context.Context, ownerID string) error {
	event, err := pkgkafka.NewEvent(TopicCartCleared, ownerID, AggregateTypeCart, SourceCartService, CartClearedData{OwnerID: ownerID})
	if err != nil {
		return fmt.Errorf("create cart.cleared event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartCleared, event); err != nil {
		return fmt.Errorf("publish cart.cleared event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.cleared event",
		slog.String("owner_id", ownerID),
	)

	return nil
}

// PublishCartSyncFailed publishes a cart.sync_failed event.
func (p *Producer) PublishCartSyncFailed(ctx context.Context, ownerID, operation, backend string, cause error) error {
	data := CartSyncFailedData{
		OwnerID:   ownerID,
		Operation: operation,
		Backend:   backend,
		Reason:    cause.Error(),
	}

	event, err := pkgkafka.NewEvent(TopicCartSyncFailed, ownerID, AggregateTypeCart, SourceCartService, data)
	if err != nil {
		return fmt.Errorf("create cart.sync_failed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartSyncFailed, event); err != nil {
		return fmt.Errorf("publish cart.sync_failed event: %w", err)
	}

	return nil
}

// PublishPaymentVerified publishes a payment.verified event with the final
// verification status, whatever it is.
func (p *Producer) PublishPaymentVerified(ctx context.Context, txn *domain.Transaction) error {
	data := PaymentVerifiedData{
		TransactionID: txn.ID,
		UserID:        txn.UserID,
		Status:        string(txn.Status),
		Amount:        txn.Amount,
		Currency:      txn.Currency,
	}

	event, err := pkgkafka.NewEvent(TopicPaymentVerified, txn.ID, AggregateTypePayment, SourceCartService, data)
	if err != nil {
		return fmt.Errorf("create payment.verified event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicPaymentVerified, event); err != nil {
		return fmt.Errorf("publish payment.verified event: %w", err)
	}

	p.logger.DebugContext(ctx, "published payment.verified event",
		slog.String("transaction_id", txn.ID),
		slog.String("status", string(txn.Status)),
	)

	return nil
}
