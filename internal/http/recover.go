package http

import (
	"net/http"
	"runtime/debug"

	"frodoestate/internal/logging"
	"frodoestate/internal/web"
)

const msgInternal = "An error occurred. Please try again."

// recoverPanics turns a handler panic into the error page and a logged stack.
func recoverPanics(tpl *web.Renderer, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			p := recover()
			if p == nil {
				return
			}
			if p == http.ErrAbortHandler {
				panic(p)
			}
			logging.From(r.Context()).Error("http.panic", "panic", p, "stack", string(debug.Stack()))
			if tpl == nil {
				http.Error(w, msgInternal, http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusInternalServerError)
			_ = tpl.Render(w, "error", web.Page[string]{
				Title:   "Error",
				Theme:   web.DetectTheme(r, web.DefaultTokens()),
				Content: msgInternal,
			})
		}()
		next.ServeHTTP(w, r)
	})
}
