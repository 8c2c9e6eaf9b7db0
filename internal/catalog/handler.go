// internal/catalog/handler.go
package catalog

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"bookhaven/internal/money"
)

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// Routes mounts the catalog endpoints onto a chi router.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/books", h.handleCreateBook)
	r.Get("/books/{id}", h.handleGetBook)
}

func (h *Handler) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ISBN          string      `json:"isbn"`
		Title         string      `json:"title"`
		Author        string      `json:"author"`
		SellPrice     money.Cents `json:"sell_price"`
		MemberPrice   money.Cents `json:"member_price"`
		StockQuantity int         `json:"stock_quantity"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Title == "" || req.SellPrice <= 0 || req.StockQuantity < 0 {
		http.Error(w, "title, positive sell_price and non-negative stock_quantity are required", http.StatusBadRequest)
		return
	}

	book := &Book{
		ISBN:          req.ISBN,
		Title:         req.Title,
		Author:        req.Author,
		SellPrice:     req.SellPrice,
		MemberPrice:   req.MemberPrice,
		StockQuantity: req.StockQuantity,
	}
	if err := h.store.CreateBook(r.Context(), book); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(book)
}

func (h *Handler) handleGetBook(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid book ID", http.StatusBadRequest)
		return
	}

	book, err := h.store.FindBookByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrBookNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(book)
}
