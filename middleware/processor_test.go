package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"pokuclick/config"
)

func newTestThrottler(t *testing.T, enabled bool) (*ClickThrottler, *time.Time) {
	t.Helper()
	ct := NewClickThrottler(config.ThrottleConfig{
		Enabled:     enabled,
		MinInterval: "100ms",
		TTL:         "1m",
		Capacity:    16,
	}, zaptest.NewLogger(t))
	t.Cleanup(ct.Stop)

	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ct.now = func() time.Time { return clock }
	return ct, &clock
}

func click(h http.Handler, client string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/click", nil)
	req.Header.Set("X-Client-ID", client)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestThrottle_RejectsFastClients(t *testing.T) {
	ct, clock := newTestThrottler(t, true)
	calls := 0
	h := ct.Throttle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))

	assert.Equal(t, http.StatusOK, click(h, "a").Code)

	*clock = clock.Add(50 * time.Millisecond)
	rec := click(h, "a")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	// Other clients are tracked separately.
	assert.Equal(t, http.StatusOK, click(h, "b").Code)

	*clock = clock.Add(60 * time.Millisecond)
	assert.Equal(t, http.StatusOK, click(h, "a").Code)

	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, ct.Tracked())
}

func TestThrottle_Disabled(t *testing.T) {
	ct, _ := newTestThrottler(t, false)
	calls := 0
	h := ct.Throttle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, click(h, "a").Code)
	}
	assert.Equal(t, 5, calls)
}

func TestGetClientKey_Fallbacks(t *testing.T) {
	ct, _ := newTestThrottler(t, true)

	req := httptest.NewRequest(http.MethodPost, "/click", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	byAddr := ct.getClientKey(req)

	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	byForward := ct.getClientKey(req)

	req.Header.Set("X-Client-ID", "player-1")
	byID := ct.getClientKey(req)

	assert.Len(t, byAddr, 64)
	assert.NotEqual(t, byAddr, byForward)
	assert.NotEqual(t, byForward, byID)
}
