// internal/checkout/implementation.go
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bookhaven/internal/cart"
	"bookhaven/internal/catalog"
	"bookhaven/internal/money"
)

// reserveAttempts is the compare-and-swap ceiling per cart line. It is
// the orchestrator's only self-imposed bound on contention latency.
const reserveAttempts = 3

// service implements the order commit orchestrator. Cart lines are
// reserved sequentially, never concurrently, to keep retry logic
// simple and error attribution clear per book.
type service struct {
	books  catalog.Store
	sales  SalesRepository
	tracer trace.Tracer
	now    func() time.Time
}

// NewService creates the order commit orchestrator.
func NewService(books catalog.Store, sales SalesRepository) Service {
	return &service{
		books:  books,
		sales:  sales,
		tracer: otel.Tracer("bookhaven/checkout"),
		now:    time.Now,
	}
}

// reservation tracks a cart line whose stock decrement has committed,
// so it can be compensated if a later line fails.
type reservation struct {
	line cart.Line
	book catalog.Book
}

func (s *service) CreateOrder(ctx context.Context, input *OrderInput) (*OrderResult, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.create_order")
	defer span.End()

	// VALIDATING
	snapshot := input.Snapshot
	if snapshot == nil {
		return failed(span, ErrEmptyCart), nil
	}
	if snapshot.Expired(s.now()) {
		return failed(span, ErrCartExpired), nil
	}
	if snapshot.Empty() {
		return failed(span, ErrEmptyCart), nil
	}

	// CHECKING_STOCK: one bulk read, then an optimistic pre-check to
	// fail fast before mutating anything. The authoritative guarantee
	// is the compare-and-swap below, not this check.
	booksByID, err := s.fetchBooks(ctx, snapshot)
	if err != nil {
		return nil, err
	}

	var warnings []string
	var resolved []cart.Line
	for _, line := range snapshot.Items {
		book, ok := booksByID[line.BookID]
		if !ok {
			warnings = append(warnings, fmt.Sprintf("An item in your cart is no longer available and was removed (book %s)", line.BookID))
			continue
		}
		if !book.InStock(line.Quantity) {
			return failed(span, insufficientStock(book.Title, line.Quantity, book.StockQuantity)), nil
		}
		resolved = append(resolved, line)
	}
	if len(resolved) == 0 {
		return failed(span, ErrBooksNotFound), nil
	}

	// RESERVING_STOCK: per-line compare-and-swap with bounded retry.
	// Any failure rolls back the lines already reserved.
	var reserved []reservation
	for _, line := range resolved {
		book := booksByID[line.BookID]
		res, err := s.reserveLine(ctx, line, book)
		if err != nil {
			s.compensate(ctx, reserved)
			if isDomainError(err) {
				return failed(span, err), nil
			}
			return nil, err
		}
		reserved = append(reserved, *res)
	}

	// Price staleness: warn past 10% drift in either direction, but
	// bill at the price the shopper agreed to when adding the item.
	for _, res := range reserved {
		if priceDrifted(res.line.PriceAtAdd, res.book.SellPrice) {
			warnings = append(warnings, fmt.Sprintf("Price for %q has changed since it was added to cart", res.book.Title))
		}
	}

	// PERSISTING: line items and the sale commit together; the sale is
	// created only after every reservation succeeded.
	sale, items := s.buildSale(input, reserved)
	if err := s.sales.CreateSale(ctx, sale, items); err != nil {
		// The shopper was already charged; release the stock and leave
		// a loud trail for manual reconciliation against the payment.
		log.Printf("order persist failed for transaction %s, releasing reserved stock: %v", input.SquareTransactionID, err)
		s.compensate(ctx, reserved)
		return nil, fmt.Errorf("persist order: %w", err)
	}

	span.SetAttributes(
		attribute.String("sale.id", sale.ID.String()),
		attribute.Int("sale.items", len(items)),
		attribute.Int("sale.warnings", len(warnings)),
	)

	return &OrderResult{
		Success:  true,
		SaleID:   sale.ID,
		Warnings: warnings,
	}, nil
}

func (s *service) fetchBooks(ctx context.Context, snapshot *cart.Snapshot) (map[uuid.UUID]catalog.Book, error) {
	seen := make(map[uuid.UUID]struct{}, len(snapshot.Items))
	ids := make([]uuid.UUID, 0, len(snapshot.Items))
	for _, line := range snapshot.Items {
		if _, ok := seen[line.BookID]; ok {
			continue
		}
		seen[line.BookID] = struct{}{}
		ids = append(ids, line.BookID)
	}

	books, err := s.books.FindBooksByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch cart books: %w", err)
	}

	byID := make(map[uuid.UUID]catalog.Book, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}
	return byID, nil
}

// reserveLine attempts the conditional decrement up to reserveAttempts
// times, re-reading the book between attempts. It distinguishes a true
// stock shortage from pure version churn.
func (s *service) reserveLine(ctx context.Context, line cart.Line, book catalog.Book) (*reservation, error) {
	for attempt := 1; attempt <= reserveAttempts; attempt++ {
		applied, err := s.books.TryAdjustStock(ctx, line.BookID, -line.Quantity, book.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("reserve stock for %q: %w", book.Title, err)
		}
		if applied {
			return &reservation{line: line, book: book}, nil
		}
		if attempt == reserveAttempts {
			break
		}

		fresh, err := s.books.FindBookByID(ctx, line.BookID)
		if err != nil {
			if errors.Is(err, catalog.ErrBookNotFound) {
				// Deleted mid-checkout; indistinguishable from churn
				// for the shopper.
				return nil, ErrConcurrentModification
			}
			return nil, fmt.Errorf("re-read book %q: %w", book.Title, err)
		}
		if !fresh.InStock(line.Quantity) {
			return nil, insufficientStock(fresh.Title, line.Quantity, fresh.StockQuantity)
		}
		book = *fresh
	}
	return nil, ErrConcurrentModification
}

// isDomainError reports whether the error carries a shopper-safe
// message that belongs in the OrderResult rather than a 500.
func isDomainError(err error) bool {
	return errors.Is(err, ErrInsufficientStock) || errors.Is(err, ErrConcurrentModification)
}

// compensate re-increments stock for every line already reserved.
// Best effort: a failure here is logged, never masks the primary
// error, and leaves the count for manual correction.
func (s *service) compensate(ctx context.Context, reserved []reservation) {
	for _, res := range reserved {
		restored := false
		for attempt := 1; attempt <= reserveAttempts && !restored; attempt++ {
			fresh, err := s.books.FindBookByID(ctx, res.line.BookID)
			if err != nil {
				log.Printf("compensation: re-read of book %s failed: %v", res.line.BookID, err)
				break
			}
			applied, err := s.books.TryAdjustStock(ctx, res.line.BookID, res.line.Quantity, fresh.UpdatedAt)
			if err != nil {
				log.Printf("compensation: restock of book %s failed: %v", res.line.BookID, err)
				break
			}
			restored = applied
		}
		if !restored {
			log.Printf("compensation: could not restore %d units of book %s", res.line.Quantity, res.line.BookID)
		}
	}
}

func (s *service) buildSale(input *OrderInput, reserved []reservation) (*Sale, []SaleItem) {
	saleID := uuid.New()

	var total money.Cents
	items := make([]SaleItem, 0, len(reserved))
	for _, res := range reserved {
		priceType := PriceRegular
		if res.line.IsMemberPrice {
			priceType = PriceMember
		}
		items = append(items, SaleItem{
			ID:        uuid.New(),
			SaleID:    saleID,
			BookID:    res.line.BookID,
			Quantity:  res.line.Quantity,
			UnitPrice: res.line.PriceAtAdd,
			LineTotal: res.line.LineTotal(),
			PriceType: priceType,
		})
		total += res.line.LineTotal()
	}

	sale := &Sale{
		ID:                  saleID,
		TotalAmount:         total,
		Currency:            input.Snapshot.Currency,
		PaymentMethod:       input.PaymentMethod,
		SquareTransactionID: input.SquareTransactionID,
		ReceiptURL:          input.ReceiptURL,
		CustomerEmail:       input.CustomerEmail,
		CustomerName:        input.CustomerName,
		Status:              SalePending,
		CreatedAt:           s.now().UTC(),
	}
	return sale, items
}

// priceDrifted reports whether the catalog price moved more than 10%
// from the add-time price, in either direction. A drift of exactly 10%
// does not warn. Integer arithmetic: 10*|diff| > priceAtAdd is the
// strict form of |diff|/priceAtAdd > 0.10.
func priceDrifted(priceAtAdd, sellPrice money.Cents) bool {
	if priceAtAdd <= 0 {
		return false
	}
	diff := sellPrice - priceAtAdd
	if diff < 0 {
		diff = -diff
	}
	return diff*10 > priceAtAdd
}

func insufficientStock(title string, requested, available int) error {
	return fmt.Errorf("%w for %q: %d requested, %d available", ErrInsufficientStock, title, requested, available)
}

func failed(span trace.Span, err error) *OrderResult {
	span.SetAttributes(attribute.String("checkout.failure", err.Error()))
	return &OrderResult{Success: false, Error: err.Error()}
}
