package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/momofof/genie-cart/internal/payment"
	"github.com/momofof/genie-cart/internal/session"
	"github.com/momofof/genie-cart/pkg/health"
	"github.com/momofof/genie-cart/pkg/middleware"
)

// NewRouter creates a chi router with all service routes registered.
func NewRouter(
	manager *session.Manager,
	paymentService *payment.Service,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS)
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("cart"))
	r.Use(middleware.Tracing("cart"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	cartHandler := NewCartHandler(manager, logger)
	paymentHandler := NewPaymentHandler(paymentService, logger)

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(IdentityFromHeaders)

		r.Get("/", cartHandler.GetCart)
		r.Delete("/", cartHandler.ClearCart)

		r.Post("/items", cartHandler.AddItem)
		r.Put("/items/{index}", cartHandler.UpdateItemQuantity)
		r.Delete("/items/{index}", cartHandler.RemoveItem)
		r.Post("/items/selection", cartHandler.DeleteSelection)

		r.Post("/pending", cartHandler.QueuePending)
	})

	r.Route("/api/v1/payments", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/verify", paymentHandler.Verify)
	})

	return r
}
