package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"frodoestate/internal/http/middleware"
	"frodoestate/internal/logging"
	"frodoestate/internal/market"
	"frodoestate/internal/partner"
	"frodoestate/internal/wallet"
	"frodoestate/internal/web"
)

// Deps are the collaborators built at startup and shared by every handler.
type Deps struct {
	Store        market.Store
	Wallet       *wallet.Config
	Sessions     *wallet.Sessions
	Purchaser    *market.Purchaser
	Partner      *partner.Service
	TPL          *web.Renderer
	Metrics      *Metrics
	Limiter      *middleware.RateLimiter
	Logger       *slog.Logger
	BaseURL      string
	SecureCookie bool
}

func NewMux(d Deps) (*http.ServeMux, error) {
	mux := http.NewServeMux()

	if d.TPL == nil {
		return nil, errors.New("http: renderer required")
	}
	if d.Metrics == nil {
		d.Metrics = NewMetrics()
	}
	shell := &Shell{TPL: d.TPL, Wallet: d.Wallet, Sessions: d.Sessions, Tokens: web.DefaultTokens(), Metrics: d.Metrics}

	mux.Handle("GET /{$}", &SplashHandler{Shell: shell})
	mux.Handle("GET /", &NotFoundHandler{Shell: shell})
	mux.Handle("GET /home", &HomeHandler{Shell: shell, Store: d.Store})
	mux.Handle("GET /borrowing-history", &BorrowingHandler{Shell: shell, Store: d.Store})
	mux.Handle("GET /transaction-history", &TransactionsHandler{Shell: shell, Store: d.Store})
	mux.Handle("GET /static/", web.Static())

	(&PropertyHandler{Shell: shell, Store: d.Store, Purchaser: d.Purchaser}).Routes(mux)
	(&VaultHandler{Shell: shell, Store: d.Store}).Routes(mux)
	(&StrategiesHandler{Shell: shell, Store: d.Store}).Routes(mux)
	(&PoolsHandler{Shell: shell, Store: d.Store}).Routes(mux)
	(&PartnerHandler{Shell: shell, Partner: d.Partner}).Routes(mux)
	(&WalletHandler{Shell: shell, BaseURL: d.BaseURL, SecureCookie: d.SecureCookie}).Routes(mux)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := d.Store.Ping(ctx); err != nil {
			logging.From(r.Context()).Warn("readyz", "err", err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	mux.Handle("GET /metrics", d.Metrics.Handler())

	return mux, nil
}

// WithStandardMiddleware wraps mux with logging, metrics, security headers,
// panic recovery, the wallet session and write rate limiting.
func WithStandardMiddleware(mux *http.ServeMux, d Deps) http.Handler {
	var h http.Handler = mux
	h = d.Limiter.LimitWrites(h)
	h = middleware.WithSession(d.Sessions)(h)
	h = recoverPanics(d.TPL, h)
	h = securityHeaders(h)
	if d.Metrics != nil {
		h = d.Metrics.Instrument(mux, h)
	}
	return requestLogger(d.Logger, h)
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "same-origin")
		w.Header().Set("Content-Security-Policy",
			"default-src 'self'; img-src 'self' https: data:; style-src 'self' 'unsafe-inline'; script-src 'self'; connect-src 'self'")
		next.ServeHTTP(w, r)
	})
}

func requestLogger(base *slog.Logger, next http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)
		log := base.With("request_id", reqID)
		r = r.WithContext(logging.WithLogger(r.Context(), log))

		ww := &wrapWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(ww, r)
		log.Info("http.request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

type wrapWriter struct {
	http.ResponseWriter
	status int
}

func (w *wrapWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
