// internal/catalog/service.go
package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store is the catalog surface the checkout core depends on. The
// stock ledger lives behind TryAdjustStock: a lock-free conditional
// write that never blocks and never lets stock go below zero.
type Store interface {
	// FindBooksByIDs fetches the named books in one query. Books that
	// do not exist are simply absent from the result.
	FindBooksByIDs(ctx context.Context, ids []uuid.UUID) ([]Book, error)

	// FindBookByID fetches a single book, or ErrBookNotFound.
	FindBookByID(ctx context.Context, id uuid.UUID) (*Book, error)

	// TryAdjustStock applies delta to the book's stock only if the
	// book's version token still equals expectedVersion and the
	// resulting quantity stays non-negative. It reports applied=false
	// when zero rows matched; the caller must re-read and decide
	// whether to retry. This is a compare-and-swap, not a lock.
	TryAdjustStock(ctx context.Context, id uuid.UUID, delta int, expectedVersion time.Time) (applied bool, err error)

	// CreateBook inserts a new catalog row.
	CreateBook(ctx context.Context, book *Book) error
}
