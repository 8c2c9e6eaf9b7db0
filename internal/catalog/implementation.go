// internal/catalog/implementation.go
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// postgresStore implements Store against Postgres. The conditional
// UPDATE in TryAdjustStock is the sole synchronization point for
// concurrent checkouts; there are no application-level locks.
type postgresStore struct {
	db     *sqlx.DB
	tracer trace.Tracer
}

// NewPostgresStore creates a catalog store backed by Postgres.
func NewPostgresStore(db *sqlx.DB) Store {
	return &postgresStore{
		db:     db,
		tracer: otel.Tracer("bookhaven/catalog"),
	}
}

func (s *postgresStore) FindBooksByIDs(ctx context.Context, ids []uuid.UUID) ([]Book, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.find_books",
		trace.WithAttributes(attribute.Int("book.count", len(ids))),
	)
	defer span.End()

	if len(ids) == 0 {
		return nil, nil
	}

	var books []Book
	err := s.db.SelectContext(ctx, &books, `
		SELECT id, isbn, title, author, sell_price, member_price, stock_quantity, created_at, updated_at
		FROM books
		WHERE id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}

	span.SetAttributes(attribute.Int("book.found", len(books)))
	return books, nil
}

func (s *postgresStore) FindBookByID(ctx context.Context, id uuid.UUID) (*Book, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.find_book",
		trace.WithAttributes(attribute.String("book.id", id.String())),
	)
	defer span.End()

	book := &Book{}
	err := s.db.GetContext(ctx, book, `
		SELECT id, isbn, title, author, sell_price, member_price, stock_quantity, created_at, updated_at
		FROM books
		WHERE id = $1
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("query book: %w", err)
	}

	return book, nil
}

// TryAdjustStock is the optimistic stock ledger. The WHERE clause
// carries both the version check and the stock floor, so a row only
// matches when nobody wrote the book since expectedVersion AND the
// adjusted quantity stays non-negative.
func (s *postgresStore) TryAdjustStock(ctx context.Context, id uuid.UUID, delta int, expectedVersion time.Time) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.try_adjust_stock",
		trace.WithAttributes(
			attribute.String("book.id", id.String()),
			attribute.Int("stock.delta", delta),
		),
	)
	defer span.End()

	res, err := s.db.ExecContext(ctx, `
		UPDATE books
		SET stock_quantity = stock_quantity + $1, updated_at = NOW()
		WHERE id = $2 AND updated_at = $3 AND stock_quantity + $1 >= 0
	`, delta, id, expectedVersion)
	if err != nil {
		return false, fmt.Errorf("adjust stock: %w", err)
	}

	matched, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}

	applied := matched == 1
	span.SetAttributes(attribute.Bool("stock.applied", applied))
	return applied, nil
}

func (s *postgresStore) CreateBook(ctx context.Context, book *Book) error {
	ctx, span := s.tracer.Start(ctx, "catalog.create_book",
		trace.WithAttributes(attribute.String("book.isbn", book.ISBN)),
	)
	defer span.End()

	if book.ID == uuid.Nil {
		book.ID = uuid.New()
	}
	now := time.Now().UTC()
	book.CreatedAt = now
	book.UpdatedAt = now

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO books (id, isbn, title, author, sell_price, member_price, stock_quantity, created_at, updated_at)
		VALUES (:id, :isbn, :title, :author, :sell_price, :member_price, :stock_quantity, :created_at, :updated_at)
	`, book)
	if err != nil {
		return fmt.Errorf("insert book: %w", err)
	}
	return nil
}
