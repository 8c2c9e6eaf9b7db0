package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestAllowEnforcesBurst(t *testing.T) {
	p := New(rate.Every(time.Hour), 2)
	defer p.Close()

	assert.True(t, p.Allow("client-a"))
	assert.True(t, p.Allow("client-a"))
	assert.False(t, p.Allow("client-a"))

	// Independent keys get independent budgets.
	assert.True(t, p.Allow("client-b"))
}

func TestPruneDropsIdleEntries(t *testing.T) {
	p := New(rate.Every(time.Second), 1)
	defer p.Close()

	p.Allow("client-a")
	p.Allow("client-b")
	assert.Equal(t, 2, p.Len())

	p.mu.Lock()
	p.limiters["client-a"].lastSeen = time.Now().Add(-2 * entryTTL)
	p.mu.Unlock()

	p.prune()
	assert.Equal(t, 1, p.Len())
}

func TestMiddlewareRejectsWithTooManyRequests(t *testing.T) {
	p := New(rate.Every(time.Hour), 1)
	defer p.Close()

	handler := p.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/checkout", nil)
	r.RemoteAddr = "192.0.2.1:51234"
	handler.ServeHTTP(first, r)
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, r)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}
