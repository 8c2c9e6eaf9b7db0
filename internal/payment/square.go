// internal/payment/square.go
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"bookhaven/internal/money"
)

var errPaymentNotFound = errors.New("payment not found")

// SquareClient verifies charges against the Square payments API.
// Calls go through a circuit breaker and inherit the caller's
// context deadline.
type SquareClient struct {
	baseURL     string
	accessToken string
	client      *http.Client
	breaker     *gobreaker.CircuitBreaker
}

func NewSquareClient(baseURL, accessToken string) *SquareClient {
	return &SquareClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
		client:      &http.Client{Timeout: 10 * time.Second},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "square-payments",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

type squarePayment struct {
	Payment struct {
		ID          string `json:"id"`
		Status      string `json:"status"`
		AmountMoney struct {
			Amount   int64  `json:"amount"`
			Currency string `json:"currency"`
		} `json:"amount_money"`
	} `json:"payment"`
}

func (c *SquareClient) Verify(ctx context.Context, reference string, amount money.Cents, currency string) error {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetchPayment(ctx, reference)
	})
	if err != nil {
		if errors.Is(err, errPaymentNotFound) {
			return fmt.Errorf("%w: no charge found for reference %s", ErrVerificationFailed, reference)
		}
		return fmt.Errorf("square payment lookup: %w", err)
	}
	p := result.(*squarePayment)

	if p.Payment.Status != "COMPLETED" {
		return fmt.Errorf("%w: charge status is %s", ErrVerificationFailed, p.Payment.Status)
	}
	if p.Payment.AmountMoney.Currency != currency {
		return fmt.Errorf("%w: charge currency %s does not match %s",
			ErrVerificationFailed, p.Payment.AmountMoney.Currency, currency)
	}
	if money.Cents(p.Payment.AmountMoney.Amount) != amount {
		return fmt.Errorf("%w: charge amount %s does not match expected %s",
			ErrVerificationFailed,
			money.Cents(p.Payment.AmountMoney.Amount).Format(currency),
			amount.Format(currency))
	}
	return nil
}

func (c *SquareClient) fetchPayment(ctx context.Context, reference string) (*squarePayment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/v2/payments/%s", c.baseURL, reference), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errPaymentNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var payment squarePayment
	if err := json.NewDecoder(resp.Body).Decode(&payment); err != nil {
		return nil, err
	}
	return &payment, nil
}
