// internal/cart/handler.go
package cart

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"bookhaven/internal/catalog"
	"bookhaven/internal/money"
)

// Handler exposes cart mutations. Each mutation re-issues the signed
// cookie; prices are captured from the catalog at add time.
type Handler struct {
	books catalog.Store
	codec *CookieCodec
	now   func() time.Time
}

func NewHandler(books catalog.Store, codec *CookieCodec) *Handler {
	return &Handler{books: books, codec: codec, now: time.Now}
}

// Routes mounts the cart endpoints onto a chi router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/cart", h.handleGetCart)
	r.Post("/cart/items", h.handleAddItem)
	r.Patch("/cart/items/{bookID}", h.handleUpdateItem)
	r.Delete("/cart/items/{bookID}", h.handleRemoveItem)
	r.Delete("/cart", h.handleClearCart)
}

type cartView struct {
	Items     []Line      `json:"items"`
	Subtotal  money.Cents `json:"subtotal"`
	Currency  string      `json:"currency"`
	ExpiresAt time.Time   `json:"expires_at"`
}

func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.codec.Decode(r)
	if err != nil {
		http.Error(w, "invalid cart", http.StatusBadRequest)
		return
	}
	if snapshot == nil || snapshot.Expired(h.now()) {
		snapshot = New(defaultCurrency, h.now())
	}
	h.writeCart(w, snapshot, http.StatusOK)
}

func (h *Handler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BookID        uuid.UUID `json:"book_id"`
		Quantity      int       `json:"quantity"`
		IsMemberPrice bool      `json:"is_member_price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Quantity < 1 {
		http.Error(w, "quantity must be at least 1", http.StatusBadRequest)
		return
	}

	book, err := h.books.FindBookByID(r.Context(), req.BookID)
	if err != nil {
		if errors.Is(err, catalog.ErrBookNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	// Soft check only: stock is re-validated authoritatively at commit.
	if !book.InStock(req.Quantity) {
		http.Error(w, "not enough stock available", http.StatusConflict)
		return
	}

	snapshot, err := h.codec.Decode(r)
	if err != nil {
		http.Error(w, "invalid cart", http.StatusBadRequest)
		return
	}
	if snapshot == nil || snapshot.Expired(h.now()) {
		snapshot = New(defaultCurrency, h.now())
	}

	price := book.SellPrice
	if req.IsMemberPrice {
		price = book.MemberPrice
	}
	snapshot.Add(book.ID, req.Quantity, price, req.IsMemberPrice)

	h.writeCart(w, snapshot, http.StatusOK)
}

func (h *Handler) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	bookID, err := uuid.Parse(chi.URLParam(r, "bookID"))
	if err != nil {
		http.Error(w, "invalid book ID", http.StatusBadRequest)
		return
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	snapshot, err := h.codec.Decode(r)
	if err != nil || snapshot == nil {
		http.Error(w, "no cart", http.StatusBadRequest)
		return
	}

	snapshot.UpdateQuantity(bookID, req.Quantity)
	h.writeCart(w, snapshot, http.StatusOK)
}

func (h *Handler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	bookID, err := uuid.Parse(chi.URLParam(r, "bookID"))
	if err != nil {
		http.Error(w, "invalid book ID", http.StatusBadRequest)
		return
	}

	snapshot, err := h.codec.Decode(r)
	if err != nil || snapshot == nil {
		http.Error(w, "no cart", http.StatusBadRequest)
		return
	}

	snapshot.Remove(bookID)
	h.writeCart(w, snapshot, http.StatusOK)
}

func (h *Handler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.codec.Clear())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeCart(w http.ResponseWriter, snapshot *Snapshot, status int) {
	cookie, err := h.codec.Encode(snapshot)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, cookie)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(cartView{
		Items:     snapshot.Items,
		Subtotal:  snapshot.Subtotal(),
		Currency:  snapshot.Currency,
		ExpiresAt: snapshot.ExpiresAt,
	})
}
