// internal/checkout/repository.go
package checkout

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// SalesRepository persists a committed order. Implementations must
// guarantee that a sale is never visible without its line items.
type SalesRepository interface {
	CreateSale(ctx context.Context, sale *Sale, items []SaleItem) error
}

type postgresSales struct {
	db     *sqlx.DB
	tracer trace.Tracer
}

// NewPostgresSales creates a sales repository backed by Postgres.
func NewPostgresSales(db *sqlx.DB) SalesRepository {
	return &postgresSales{
		db:     db,
		tracer: otel.Tracer("bookhaven/sales"),
	}
}

// CreateSale writes the sale header and all line items in one
// transaction, so the sale and its items become visible atomically.
func (r *postgresSales) CreateSale(ctx context.Context, sale *Sale, items []SaleItem) error {
	ctx, span := r.tracer.Start(ctx, "sales.create",
		trace.WithAttributes(
			attribute.String("sale.id", sale.ID.String()),
			attribute.Int("sale.items", len(items)),
		),
	)
	defer span.End()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO sales (id, total_amount, currency, payment_method, square_transaction_id,
			receipt_url, customer_email, customer_name, status, created_at)
		VALUES (:id, :total_amount, :currency, :payment_method, :square_transaction_id,
			:receipt_url, :customer_email, :customer_name, :status, :created_at)
	`, sale)
	if err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}

	for i := range items {
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO sale_items (id, sale_id, book_id, quantity, unit_price, line_total, price_type)
			VALUES (:id, :sale_id, :book_id, :quantity, :unit_price, :line_total, :price_type)
		`, items[i])
		if err != nil {
			return fmt.Errorf("insert sale item %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	span.SetAttributes(attribute.Bool("sale.committed", true))
	return nil
}
