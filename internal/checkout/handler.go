// internal/checkout/handler.go
package checkout

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"bookhaven/internal/cart"
	"bookhaven/internal/money"
	"bookhaven/internal/payment"
)

// genericFailure is the non-leaking message returned for unexpected
// errors; the detail goes to the log only.
const genericFailure = "Something went wrong while placing your order, please contact support"

type Handler struct {
	service  Service
	verifier payment.Verifier
	carts    *cart.CookieCodec
}

func NewHandler(service Service, verifier payment.Verifier, carts *cart.CookieCodec) *Handler {
	return &Handler{
		service:  service,
		verifier: verifier,
		carts:    carts,
	}
}

type checkoutRequest struct {
	PaymentMethod       string `json:"payment_method"`
	SquareTransactionID string `json:"square_transaction_id"`
	ReceiptURL          string `json:"receipt_url"`
	CustomerEmail       string `json:"customer_email"`
	CustomerName        string `json:"customer_name"`
}

// HandleCheckout is the single checkout entry point: verify the charge
// against the cart total, then hand off to the orchestrator. The cart
// cookie is cleared only on success.
func (h *Handler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.carts.Decode(r)
	if err != nil {
		writeResult(w, http.StatusBadRequest, &OrderResult{Success: false, Error: "Invalid cart"})
		return
	}
	if snapshot == nil || snapshot.Empty() {
		writeResult(w, http.StatusBadRequest, &OrderResult{Success: false, Error: ErrEmptyCart.Error()})
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeResult(w, http.StatusBadRequest, &OrderResult{Success: false, Error: "Invalid request body"})
		return
	}
	if req.SquareTransactionID == "" {
		writeResult(w, http.StatusBadRequest, &OrderResult{Success: false, Error: "Missing payment reference"})
		return
	}

	// Payment verification gate: the charge must match the cart total
	// (tax included) before any stock is touched. Failed verifications
	// are never retried here.
	tax := money.CalculateTax(snapshot.Subtotal(), snapshot.Currency)
	if err := h.verifier.Verify(r.Context(), req.SquareTransactionID, tax.TotalWithTax, snapshot.Currency); err != nil {
		if errors.Is(err, payment.ErrVerificationFailed) {
			writeResult(w, http.StatusPaymentRequired, &OrderResult{Success: false, Error: err.Error()})
			return
		}
		log.Printf("payment verification error for %s: %v", req.SquareTransactionID, err)
		writeResult(w, http.StatusInternalServerError, &OrderResult{Success: false, Error: genericFailure})
		return
	}

	result, err := h.service.CreateOrder(r.Context(), &OrderInput{
		Snapshot:            snapshot,
		PaymentMethod:       req.PaymentMethod,
		SquareTransactionID: req.SquareTransactionID,
		ReceiptURL:          req.ReceiptURL,
		CustomerEmail:       req.CustomerEmail,
		CustomerName:        req.CustomerName,
	})
	if err != nil {
		log.Printf("checkout failed for %s: %v", req.SquareTransactionID, err)
		writeResult(w, http.StatusInternalServerError, &OrderResult{Success: false, Error: genericFailure})
		return
	}
	if !result.Success {
		writeResult(w, http.StatusBadRequest, result)
		return
	}

	http.SetCookie(w, h.carts.Clear())
	writeResult(w, http.StatusCreated, result)
}

func writeResult(w http.ResponseWriter, status int, result *OrderResult) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(result)
}
