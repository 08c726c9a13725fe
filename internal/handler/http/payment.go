package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/momofof/genie-cart/internal/payment"
	apperrors "github.com/momofof/genie-cart/pkg/errors"
	"github.com/momofof/genie-cart/pkg/validator"
)

// PaymentHandler handles the payment verification relay.
type PaymentHandler struct {
	service *payment.Service
	logger  *slog.Logger
}

// NewPaymentHandler creates a new payment HTTP handler.
func NewPaymentHandler(svc *payment.Service, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: svc,
		logger:  logger,
	}
}

// VerifyRequest is the JSON request body for verifying a transaction.
type VerifyRequest struct {
	TransactionID string `json:"transaction_id" validate:"required"`
}

type verifyResponse struct {
	Success           bool   `json:"success"`
	PaymentSuccessful bool   `json:"payment_successful"`
	Status            string `json:"status"`
}

// Verify handles POST /api/v1/payments/verify
func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}
	if err := validator.Validate(req); err != nil {
		var valErr *validator.ValidationError
		if errors.As(err, &valErr) {
			writeJSON(w, http.StatusBadRequest, response{
				Error: &errorResponse{
					Code:    "VALIDATION_ERROR",
					Message: "request validation failed",
					Fields:  valErr.Fields(),
				},
			})
			return
		}
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: err.Error()},
		})
		return
	}

	result, err := h.service.Verify(r.Context(), req.TransactionID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: verifyResponse{
		Success:           true,
		PaymentSuccessful: result.PaymentSuccessful,
		Status:            string(result.Status),
	}})
}

func (h *PaymentHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		writeJSON(w, appErr.Status, response{
			Error: &errorResponse{Code: appErr.Code, Message: appErr.Message},
		})
		return
	}

	h.logger.ErrorContext(r.Context(), "payment verification error",
		slog.String("error", err.Error()),
	)
	writeJSON(w, http.StatusInternalServerError, response{
		Error: &errorResponse{Code: "INTERNAL_ERROR", Message: "an internal error occurred"},
	})
}
