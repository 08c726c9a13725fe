package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/momofof/genie-cart/internal/cart"
	"github.com/momofof/genie-cart/internal/domain"
	"github.com/momofof/genie-cart/internal/session"
	apperrors "github.com/momofof/genie-cart/pkg/errors"
	"github.com/momofof/genie-cart/pkg/validator"
)

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	manager *session.Manager
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(manager *session.Manager, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		manager: manager,
		logger:  logger,
	}
}

// --- Request DTOs ---

// AddItemRequest is the JSON request body for adding a line item.
type AddItemRequest struct {
	ProductID         string            `json:"product_id" validate:"required"`
	ProductName       string            `json:"product_name" validate:"required,min=1,max=500"`
	UnitPrice         int64             `json:"unit_price" validate:"gte=0"`
	Quantity          int               `json:"quantity" validate:"required,gte=1"`
	ImageURL          string            `json:"image_url"`
	SupplierID        string            `json:"supplier_id"`
	VariantAttributes map[string]string `json:"variant_attributes"`
}

func (r AddItemRequest) lineItem() domain.LineItem {
	return domain.LineItem{
		ProductID:         r.ProductID,
		ProductName:       r.ProductName,
		UnitPrice:         r.UnitPrice,
		Quantity:          r.Quantity,
		ImageURL:          r.ImageURL,
		SupplierID:        r.SupplierID,
		VariantAttributes: r.VariantAttributes,
	}
}

// UpdateQuantityRequest is the JSON request body for setting a line's quantity.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

// DeleteSelectionRequest is the JSON request body for batch removal.
type DeleteSelectionRequest struct {
	Indices []int `json:"indices" validate:"required,min=1"`
}

// PendingRequest queues an add-to-cart intent for replay after sign-in.
type PendingRequest struct {
	ProductID         string            `json:"product_id" validate:"required"`
	ProductName       string            `json:"product_name" validate:"required,min=1,max=500"`
	UnitPrice         int64             `json:"unit_price" validate:"gte=0"`
	Quantity          int               `json:"quantity" validate:"required,gte=1"`
	VariantAttributes map[string]string `json:"variant_attributes"`
}

// --- Response envelope ---

type response struct {
	Data  any            `json:"data,omitempty"`
	Error *errorResponse `json:"error,omitempty"`
}

type errorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type cartResponse struct {
	Items       domain.Snapshot `json:"items"`
	ItemCount   int             `json:"item_count"`
	TotalAmount int64           `json:"total_amount"`
}

func newCartResponse(snapshot domain.Snapshot) cartResponse {
	return cartResponse{
		Items:       snapshot,
		ItemCount:   snapshot.ItemCount(),
		TotalAmount: snapshot.Total(),
	}
}

// --- Handlers ---

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	id := identityFromContext(r.Context())
	snapshot := h.manager.Snapshot(r.Context(), id)
	writeJSON(w, http.StatusOK, response{Data: newCartResponse(snapshot)})
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	id := identityFromContext(r.Context())

	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}
	if err := validator.Validate(req); err != nil {
		h.writeValidationError(w, err)
		return
	}

	snapshot := h.manager.AddItem(r.Context(), id, req.lineItem())
	writeJSON(w, http.StatusOK, response{Data: newCartResponse(snapshot)})
}

// UpdateItemQuantity handles PUT /api/v1/cart/items/{index}
func (h *CartHandler) UpdateItemQuantity(w http.ResponseWriter, r *http.Request) {
	id := identityFromContext(r.Context())

	index, ok := h.lineIndex(w, r)
	if !ok {
		return
	}

	var req UpdateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}
	if err := validator.Validate(req); err != nil {
		h.writeValidationError(w, err)
		return
	}

	snapshot, err := h.manager.SetQuantity(r.Context(), id, index, req.Quantity)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Data: newCartResponse(snapshot)})
}

// RemoveItem handles DELETE /api/v1/cart/items/{index}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id := identityFromContext(r.Context())

	index, ok := h.lineIndex(w, r)
	if !ok {
		return
	}

	snapshot, err := h.manager.RemoveItem(r.Context(), id, index)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Data: newCartResponse(snapshot)})
}

// DeleteSelection handles POST /api/v1/cart/items/selection
func (h *CartHandler) DeleteSelection(w http.ResponseWriter, r *http.Request) {
	id := identityFromContext(r.Context())

	var req DeleteSelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}
	if err := validator.Validate(req); err != nil {
		h.writeValidationError(w, err)
		return
	}

	snapshot, err := h.manager.DeleteSelected(r.Context(), id, req.Indices)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Data: newCartResponse(snapshot)})
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	id := identityFromContext(r.Context())
	h.manager.Clear(r.Context(), id)
	writeJSON(w, http.StatusOK, response{Data: map[string]string{"status": "cleared"}})
}

// QueuePending handles POST /api/v1/cart/pending
func (h *CartHandler) QueuePending(w http.ResponseWriter, r *http.Request) {
	id := identityFromContext(r.Context())

	var req PendingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}
	if err := validator.Validate(req); err != nil {
		h.writeValidationError(w, err)
		return
	}

	intent := domain.PendingIntent{
		ProductID:         req.ProductID,
		ProductName:       req.ProductName,
		UnitPrice:         req.UnitPrice,
		Quantity:          req.Quantity,
		VariantAttributes: req.VariantAttributes,
	}
	if err := h.manager.QueuePending(r.Context(), id, intent); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, response{Data: map[string]string{"status": "queued"}})
}

// --- Helpers ---

func (h *CartHandler) lineIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "index")
	index, err := strconv.Atoi(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "index must be an integer"},
		})
		return 0, false
	}
	return index, true
}

func (h *CartHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, cart.ErrIndexOutOfRange) {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: err.Error()},
		})
		return
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		writeJSON(w, appErr.Status, response{
			Error: &errorResponse{Code: appErr.Code, Message: appErr.Message},
		})
		return
	}

	status := apperrors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "internal error",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
		writeJSON(w, status, response{
			Error: &errorResponse{Code: "INTERNAL_ERROR", Message: "an internal error occurred"},
		})
		return
	}

	writeJSON(w, status, response{
		Error: &errorResponse{Code: "ERROR", Message: err.Error()},
	})
}

func (h *CartHandler) writeValidationError(w http.ResponseWriter, err error) {
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
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}
