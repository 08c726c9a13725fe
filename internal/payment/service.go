package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/momofof/genie-cart/internal/domain"
	"github.com/momofof/genie-cart/internal/repository"
	apperrors "github.com/momofof/genie-cart/pkg/errors"
)

// EventPublisher publishes the verification outcome. *event.Producer
// satisfies it.
type EventPublisher interface {
	PublishPaymentVerified(ctx context.Context, txn *domain.Transaction) error
}

// VerifyResult is the outcome reported to the storefront.
type VerifyResult struct {
	PaymentSuccessful bool                     `json:"payment_successful"`
	Status            domain.TransactionStatus `json:"status"`
}

// Service verifies payment transactions against the provider. A gateway that
// cannot be reached or answers ambiguously yields verification_failed rather
// than an error: the payment may still have happened, and a later attempt
// can settle it.
type Service struct {
	repo      repository.TransactionRepository
	gateway   StatusClient
	publisher EventPublisher
	logger    *slog.Logger
}

// NewService creates a payment verification service.
func NewService(repo repository.TransactionRepository, gateway StatusClient, publisher EventPublisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		gateway:   gateway,
		publisher: publisher,
		logger:    logger,
	}
}

// Verify settles the transaction's status. Transactions already settled as
// completed or failed are returned as-is without another gateway round trip,
// so repeated verification calls are harmless.
func (s *Service) Verify(ctx context.Context, transactionID string) (*VerifyResult, error) {
	if transactionID == "" {
		return nil, apperrors.InvalidInput("transaction id is required")
	}

	txn, err := s.repo.GetByID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load transaction: %w", err)
	}

	if txn.Status == domain.TransactionStatusCompleted || txn.Status == domain.TransactionStatusFailed {
		return &VerifyResult{
			PaymentSuccessful: txn.Succeeded(),
			Status:            txn.Status,
		}, nil
	}

	status := s.resolve(ctx, txn)

	if err := s.repo.UpdateStatus(ctx, txn.ID, status); err != nil {
		return nil, fmt.Errorf("update transaction status: %w", err)
	}
	txn.Status = status

	if err := s.publisher.PublishPaymentVerified(ctx, txn); err != nil {
		s.logger.WarnContext(ctx, "publish payment.verified failed",
			slog.String("transaction_id", txn.ID),
			slog.String("error", err.Error()),
		)
	}

	return &VerifyResult{
		PaymentSuccessful: txn.Succeeded(),
		Status:            txn.Status,
	}, nil
}

// resolve asks the gateway and maps its answer onto the transaction
// lifecycle. Outages and ambiguous answers map to verification_failed.
func (s *Service) resolve(ctx context.Context, txn *domain.Transaction) domain.TransactionStatus {
	gwStatus, err := s.gateway.Status(ctx, txn.ProviderRef)
	if err != nil {
		s.logger.ErrorContext(ctx, "gateway status check failed",
			slog.String("transaction_id", txn.ID),
			slog.String("provider", txn.Provider),
			slog.String("error", err.Error()),
		)
		return domain.TransactionStatusVerificationFailed
	}

	switch gwStatus {
	case GatewayStatusPaid:
		return domain.TransactionStatusCompleted
	case GatewayStatusDeclined:
		return domain.TransactionStatusFailed
	default:
		return domain.TransactionStatusVerificationFailed
	}
}
