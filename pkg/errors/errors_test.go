package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	err := NotFound("cart", "user-1")
	assert.Contains(t, err.Error(), "NOT_FOUND")
	assert.Contains(t, err.Error(), "cart with id user-1 not found")
}

func TestAppError_Unwrap(t *testing.T) {
	err := InvalidInput("quantity must be positive")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestWrap_PreservesChain(t *testing.T) {
	inner := NotFound("transaction", "tx-9")
	wrapped := Wrap(inner, "verify payment")

	assert.ErrorIs(t, wrapped, ErrNotFound)
	assert.Contains(t, wrapped.Error(), "verify payment")
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error not found", NotFound("cart", "u1"), http.StatusNotFound},
		{"app error invalid", InvalidInput("bad"), http.StatusBadRequest},
		{"app error unauthorized", Unauthorized("no"), http.StatusUnauthorized},
		{"app error conflict", Conflict("busy"), http.StatusConflict},
		{"app error unavailable", Unavailable("down"), http.StatusServiceUnavailable},
		{"app error internal", Internal(errors.New("boom")), http.StatusInternalServerError},
		{"wrapped sentinel", fmt.Errorf("load: %w", ErrNotFound), http.StatusNotFound},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}
