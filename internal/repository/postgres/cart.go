package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/momofof/genie-cart/internal/domain"
	"github.com/momofof/genie-cart/pkg/database"
	apperrors "github.com/momofof/genie-cart/pkg/errors"
)

// CartRepository implements repository.RemoteCartRepository using PostgreSQL.
// One row per line item, ordered by position so snapshots round-trip in
// insertion order.
type CartRepository struct {
	pool database.DBTX
}

// NewCartRepository creates a new PostgreSQL-backed cart repository.
func NewCartRepository(pool database.DBTX) *CartRepository {
	return &CartRepository{pool: pool}
}

// Load retrieves the full snapshot stored for a user.
func (r *CartRepository) Load(ctx context.Context, userID string) (domain.Snapshot, error) {
	query := `
		SELECT product_id, product_name, unit_price, quantity, image_url, supplier_id, variants
		FROM cart_items
		WHERE user_id = $1
		ORDER BY position`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query cart items: %w", err)
	}
	defer rows.Close()

	snapshot := domain.Snapshot{}
	for rows.Next() {
		var (
			it           domain.LineItem
			variantsJSON []byte
		)
		if err := rows.Scan(
			&it.ProductID,
			&it.ProductName,
			&it.UnitPrice,
			&it.Quantity,
			&it.ImageURL,
			&it.SupplierID,
			&variantsJSON,
		); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		if len(variantsJSON) > 0 {
			if err := json.Unmarshal(variantsJSON, &it.VariantAttributes); err != nil {
				return nil, fmt.Errorf("unmarshal variants: %w", err)
			}
		}
		snapshot = append(snapshot, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart items: %w", err)
	}

	if len(snapshot) == 0 {
		return nil, apperrors.NotFound("cart", userID)
	}
	return snapshot, nil
}

// Save replaces the user's stored snapshot inside a single transaction:
// delete everything, then re-insert the snapshot in order. The stored state
// therefore always equals the last snapshot written.
func (r *CartRepository) Save(ctx context.Context, userID string, snapshot domain.Snapshot) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear cart items: %w", err)
	}

	insertQuery := `
		INSERT INTO cart_items (user_id, position, product_id, product_name, unit_price, quantity, image_url, supplier_id, variants)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	for i, it := range snapshot {
		var variantsJSON []byte
		if len(it.VariantAttributes) > 0 {
			variantsJSON, err = json.Marshal(it.VariantAttributes)
			if err != nil {
				return fmt.Errorf("marshal variants: %w", err)
			}
		}

		if _, err := tx.Exec(ctx, insertQuery,
			userID,
			i,
			it.ProductID,
			it.ProductName,
			it.UnitPrice,
			it.Quantity,
			it.ImageURL,
			it.SupplierID,
			variantsJSON,
		); err != nil {
			return fmt.Errorf("insert cart item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Delete removes every stored line for the user.
func (r *CartRepository) Delete(ctx context.Context, userID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete cart items: %w", err)
	}
	return nil
}
