// internal/catalog/memory.go
package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"bookhaven/internal/money"
)

// MemoryStore implements Store with in-memory storage. It is used for
// local development and tests; the compare-and-swap semantics match
// the Postgres implementation.
type MemoryStore struct {
	mu    sync.Mutex
	books map[uuid.UUID]*Book
}

// NewMemoryStore creates an empty in-memory catalog store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{books: make(map[uuid.UUID]*Book)}
}

func (s *MemoryStore) FindBooksByIDs(_ context.Context, ids []uuid.UUID) ([]Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var books []Book
	for _, id := range ids {
		if b, ok := s.books[id]; ok {
			books = append(books, *b)
		}
	}
	return books, nil
}

func (s *MemoryStore) FindBookByID(_ context.Context, id uuid.UUID) (*Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.books[id]
	if !ok {
		return nil, ErrBookNotFound
	}
	copied := *b
	return &copied, nil
}

func (s *MemoryStore) TryAdjustStock(_ context.Context, id uuid.UUID, delta int, expectedVersion time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.books[id]
	if !ok {
		return false, nil
	}
	if !b.UpdatedAt.Equal(expectedVersion) {
		return false, nil
	}
	if b.StockQuantity+delta < 0 {
		return false, nil
	}

	b.StockQuantity += delta
	b.UpdatedAt = bumpVersion(b.UpdatedAt)
	return true, nil
}

func (s *MemoryStore) CreateBook(_ context.Context, book *Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if book.ID == uuid.Nil {
		book.ID = uuid.New()
	}
	now := time.Now().UTC()
	book.CreatedAt = now
	book.UpdatedAt = now

	copied := *book
	s.books[book.ID] = &copied
	return nil
}

// Touch bumps a book's version token without changing stock, the way
// any unrelated catalog write would. Test helper for contention cases.
func (s *MemoryStore) Touch(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok := s.books[id]; ok {
		b.UpdatedAt = bumpVersion(b.UpdatedAt)
	}
}

// SetSellPrice updates the catalog price, bumping the version token.
func (s *MemoryStore) SetSellPrice(id uuid.UUID, price money.Cents) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok := s.books[id]; ok {
		b.SellPrice = price
		b.UpdatedAt = bumpVersion(b.UpdatedAt)
	}
}

// bumpVersion guarantees a strictly advancing version token even when
// the clock has not moved between writes.
func bumpVersion(prev time.Time) time.Time {
	next := time.Now().UTC()
	if !next.After(prev) {
		next = prev.Add(time.Nanosecond)
	}
	return next
}
