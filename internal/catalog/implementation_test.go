package catalog

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB connects to a PostgreSQL database for testing and skips
// the test when no database is reachable.
func setupTestDB(t testing.TB) *sqlx.DB {
	t.Helper()

	pgUser := os.Getenv("PGUSER")
	pgPassword := os.Getenv("PGPASSWORD")
	pgHost := os.Getenv("PGHOST")
	pgPort := os.Getenv("PGPORT")
	pgDB := os.Getenv("PGDATABASE")

	if pgUser == "" {
		pgUser = "user"
	}
	if pgPassword == "" {
		pgPassword = "password"
	}
	if pgHost == "" {
		pgHost = "localhost"
	}
	if pgPort == "" {
		pgPort = "5432"
	}
	if pgDB == "" {
		pgDB = "testdb"
	}

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		pgHost, pgPort, pgUser, pgPassword, pgDB)

	db, err := sqlx.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("failed to open database connection: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Skipf("skipping postgres tests: could not connect: %v", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS books (
			id UUID PRIMARY KEY,
			isbn TEXT NOT NULL DEFAULT '',
			title TEXT NOT NULL,
			author TEXT NOT NULL DEFAULT '',
			sell_price BIGINT NOT NULL,
			member_price BIGINT NOT NULL DEFAULT 0,
			stock_quantity INT NOT NULL CHECK (stock_quantity >= 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	return db
}

func TestPostgresTryAdjustStock(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	store := NewPostgresStore(db)

	book := &Book{
		ISBN:          "9780141439518",
		Title:         "Pride and Prejudice",
		Author:        "Jane Austen",
		SellPrice:     2500,
		StockQuantity: 10,
	}
	require.NoError(t, store.CreateBook(context.Background(), book))

	current, err := store.FindBookByID(context.Background(), book.ID)
	require.NoError(t, err)

	applied, err := store.TryAdjustStock(context.Background(), book.ID, -4, current.UpdatedAt)
	require.NoError(t, err)
	assert.True(t, applied)

	// The consumed version token no longer matches.
	applied, err = store.TryAdjustStock(context.Background(), book.ID, -1, current.UpdatedAt)
	require.NoError(t, err)
	assert.False(t, applied)

	fresh, err := store.FindBookByID(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, fresh.StockQuantity)

	// The floor guard rejects a decrement past zero.
	applied, err = store.TryAdjustStock(context.Background(), book.ID, -7, fresh.UpdatedAt)
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestPostgresConcurrentDecrements(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	store := NewPostgresStore(db)

	const stock = 5
	const contenders = 20

	book := &Book{
		Title:         "The Luminaries",
		Author:        "Eleanor Catton",
		SellPrice:     3200,
		StockQuantity: stock,
	}
	require.NoError(t, store.CreateBook(context.Background(), book))

	var wg sync.WaitGroup
	successes := make(chan struct{}, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for attempt := 0; attempt < 3; attempt++ {
				current, err := store.FindBookByID(context.Background(), book.ID)
				if err != nil {
					return
				}
				if current.StockQuantity < 1 {
					return
				}
				applied, err := store.TryAdjustStock(context.Background(), book.ID, -1, current.UpdatedAt)
				if err != nil {
					return
				}
				if applied {
					successes <- struct{}{}
					return
				}
			}
		}()
	}
	wg.Wait()
	close(successes)

	committed := len(successes)
	assert.LessOrEqual(t, committed, stock, "no oversell: at most %d units may commit", stock)

	final, err := store.FindBookByID(context.Background(), book.ID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, final.StockQuantity, 0)
	assert.Equal(t, stock-committed, final.StockQuantity)
}
