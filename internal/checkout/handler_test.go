package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookhaven/internal/cart"
	"bookhaven/internal/money"
	"bookhaven/internal/payment"
)

type mockService struct {
	result *OrderResult
	err    error
	input  *OrderInput
}

func (m *mockService) CreateOrder(_ context.Context, input *OrderInput) (*OrderResult, error) {
	m.input = input
	return m.result, m.err
}

type mockVerifier struct {
	err       error
	reference string
	amount    money.Cents
	currency  string
}

func (m *mockVerifier) Verify(_ context.Context, reference string, amount money.Cents, currency string) error {
	m.reference = reference
	m.amount = amount
	m.currency = currency
	return m.err
}

var testCodec = cart.NewCookieCodec([]byte("test-secret"))

func requestWithCart(t *testing.T, body string) *http.Request {
	t.Helper()
	snapshot := cart.New("AUD", time.Now())
	snapshot.Add(uuid.New(), 1, 2500, false)
	cookie, err := testCodec.Encode(snapshot)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(body))
	r.AddCookie(cookie)
	return r
}

const validBody = `{"payment_method":"card","square_transaction_id":"txn-123","customer_email":"shopper@example.com","customer_name":"Test Shopper"}`

func TestHandleCheckoutSuccess(t *testing.T) {
	saleID := uuid.New()
	svc := &mockService{result: &OrderResult{Success: true, SaleID: saleID}}
	verifier := &mockVerifier{}
	h := NewHandler(svc, verifier, testCodec)

	w := httptest.NewRecorder()
	h.HandleCheckout(w, requestWithCart(t, validBody))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), saleID.String())

	// The charge is verified against the tax-inclusive cart total:
	// 25.00 AUD subtotal + 10% GST.
	assert.Equal(t, "txn-123", verifier.reference)
	assert.Equal(t, money.Cents(2750), verifier.amount)
	assert.Equal(t, "AUD", verifier.currency)

	// Cart cookie is cleared on success.
	var cleared bool
	for _, c := range w.Result().Cookies() {
		if c.Name == cart.CookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "cart cookie must be cleared after a successful order")

	require.NotNil(t, svc.input)
	assert.Equal(t, "txn-123", svc.input.SquareTransactionID)
	assert.Equal(t, "Test Shopper", svc.input.CustomerName)
}

func TestHandleCheckoutNoCart(t *testing.T) {
	h := NewHandler(&mockService{}, &mockVerifier{}, testCodec)

	w := httptest.NewRecorder()
	h.HandleCheckout(w, httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(validBody)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "empty")
}

func TestHandleCheckoutMissingPaymentReference(t *testing.T) {
	h := NewHandler(&mockService{}, &mockVerifier{}, testCodec)

	w := httptest.NewRecorder()
	h.HandleCheckout(w, requestWithCart(t, `{"payment_method":"card"}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "payment reference")
}

func TestHandleCheckoutPaymentRejected(t *testing.T) {
	svc := &mockService{}
	verifier := &mockVerifier{err: fmt.Errorf("%w: charge amount mismatch", payment.ErrVerificationFailed)}
	h := NewHandler(svc, verifier, testCodec)

	w := httptest.NewRecorder()
	h.HandleCheckout(w, requestWithCart(t, validBody))

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Nil(t, svc.input, "the orchestrator must not run after a failed verification")
}

func TestHandleCheckoutDomainFailure(t *testing.T) {
	svc := &mockService{result: &OrderResult{Success: false, Error: "Insufficient stock for \"The Slap\": 2 requested, 1 available"}}
	h := NewHandler(svc, &mockVerifier{}, testCodec)

	w := httptest.NewRecorder()
	h.HandleCheckout(w, requestWithCart(t, validBody))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Insufficient stock")
}

func TestHandleCheckoutInfrastructureFailure(t *testing.T) {
	svc := &mockService{err: errors.New("pq: connection refused")}
	h := NewHandler(svc, &mockVerifier{}, testCodec)

	w := httptest.NewRecorder()
	h.HandleCheckout(w, requestWithCart(t, validBody))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "pq:", "internal detail must not leak to shoppers")
	assert.Contains(t, w.Body.String(), "contact support")
}
