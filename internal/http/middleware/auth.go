package middleware

import (
	"context"
	"net/http"

	"frodoestate/internal/chain"
)

type ctxKey string

const CtxAddress ctxKey = "wallet_address"

// SessionCookie carries the wallet session token.
const SessionCookie = "session"

// SessionResolver maps a session token to the connected wallet address.
type SessionResolver interface {
	Resolve(token string) (chain.Address, bool)
}

// WithSession puts the connected wallet address, if any, into the request
// context.
func WithSession(s SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(SessionCookie)
			if err != nil || c.Value == "" {
				next.ServeHTTP(w, r)
				return
			}
			if addr, ok := s.Resolve(c.Value); ok {
				next.ServeHTTP(w, r.WithContext(WithAddress(r.Context(), addr)))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func WithAddress(ctx context.Context, addr chain.Address) context.Context {
	return context.WithValue(ctx, CtxAddress, addr)
}

// Address returns the connected wallet of the request.
func Address(r *http.Request) (chain.Address, bool) {
	a, ok := r.Context().Value(CtxAddress).(chain.Address)
	return a, ok && !a.IsZero()
}
