package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/momofof/genie-cart/pkg/httpclient"
)

// GatewayStatus is the provider's answer about one transaction.
type GatewayStatus string

const (
	GatewayStatusPaid     GatewayStatus = "paid"
	GatewayStatusDeclined GatewayStatus = "declined"
	GatewayStatusPending  GatewayStatus = "pending"
)

// StatusClient asks the payment provider for a transaction's final state.
type StatusClient interface {
	Status(ctx context.Context, providerRef string) (GatewayStatus, error)
}

type statusResponse struct {
	Status GatewayStatus `json:"status"`
}

// HTTPStatusClient calls the provider's status endpoint through the retrying
// client wrapped in a circuit breaker, so a flapping provider is cut off
// instead of hammered.
type HTTPStatusClient struct {
	client  *httpclient.CircuitBreakerClient
	baseURL string
}

// NewHTTPStatusClient creates a gateway status client.
func NewHTTPStatusClient(client *httpclient.CircuitBreakerClient, baseURL string) *HTTPStatusClient {
	return &HTTPStatusClient{
		client:  client,
		baseURL: baseURL,
	}
}

// Status fetches the provider's status for a transaction reference.
func (c *HTTPStatusClient) Status(ctx context.Context, providerRef string) (GatewayStatus, error) {
	url := fmt.Sprintf("%s/v1/transactions/%s/status", c.baseURL, providerRef)

	resp, err := c.client.Get(ctx, url)
	if err != nil {
		return "", fmt.Errorf("gateway status request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", httpclient.ParseResponseError(resp, "payment-gateway")
	}

	var sr statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", fmt.Errorf("decode gateway status: %w", err)
	}
	return sr.Status, nil
}
