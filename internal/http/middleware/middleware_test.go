package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frodoestate/internal/chain"
)

func TestRateLimiterPerKey(t *testing.T) {
	rl := NewRateLimiter(2)
	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))

	var nilRL *RateLimiter
	assert.True(t, nilRL.Allow("x"))
}

func TestLimitWritesSkipsReads(t *testing.T) {
	rl := NewRateLimiter(1)
	h := rl.LimitWrites(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestClientIP(t *testing.T) {
	rl := NewRateLimiter(1)
	require.NoError(t, rl.TrustProxies("10.0.0.0/8", "192.168.1.5"))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	assert.Equal(t, "10.0.0.1", ClientIP(r, rl.trusted))
	r.Header.Set("X-Forwarded-For", "9.9.9.9, 1.2.3.4, 10.0.0.7")
	assert.Equal(t, "1.2.3.4", ClientIP(r, rl.trusted), "right-most untrusted hop")
	r.Header.Del("X-Forwarded-For")
	r.Header.Set("X-Real-IP", "5.6.7.8")
	assert.Equal(t, "5.6.7.8", ClientIP(r, rl.trusted))

	r.RemoteAddr = "192.168.1.5:80"
	assert.Equal(t, "5.6.7.8", ClientIP(r, rl.trusted))

	r.RemoteAddr = "203.0.113.9:5555"
	r.Header.Set("X-Forwarded-For", "1.2.3.4")
	assert.Equal(t, "203.0.113.9", ClientIP(r, rl.trusted), "headers from an untrusted peer are ignored")
	assert.Equal(t, "203.0.113.9", ClientIP(r, nil))

	assert.Error(t, rl.TrustProxies("not-an-ip"))
}

func TestForwardedHeadersDoNotEvadeLimit(t *testing.T) {
	rl := NewRateLimiter(1)
	h := rl.LimitWrites(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	codes := make([]int, 0, 3)
	for _, fwd := range []string{"1.1.1.1", "2.2.2.2", "3.3.3.3"} {
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		r.RemoteAddr = "203.0.113.9:5555"
		r.Header.Set("X-Forwarded-For", fwd)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
}

type resolver map[string]chain.Address

func (m resolver) Resolve(tok string) (chain.Address, bool) {
	a, ok := m[tok]
	return a, ok
}

func TestWithSession(t *testing.T) {
	addr := chain.MustAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	var got chain.Address
	var connected bool
	h := WithSession(resolver{"good": addr})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, connected = Address(r)
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "good"})
	h.ServeHTTP(httptest.NewRecorder(), r)
	assert.True(t, connected)
	assert.Equal(t, addr, got)

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "bad"})
	h.ServeHTTP(httptest.NewRecorder(), r)
	assert.False(t, connected)
}
