package http

import (
	"net/http"

	"frodoestate/internal/market"
	"frodoestate/internal/nav"
	"frodoestate/internal/web"
)

// SplashHandler shows the logo then moves on to /home.
type SplashHandler struct {
	*Shell
}

type splashContent struct {
	Description string
}

func (h *SplashHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rc := h.begin(w, r)
	render(h.Shell, rc, pageOpts{
		Name:    "splash",
		Layout:  "none",
		Refresh: &web.Refresh{Seconds: 2, URL: nav.PathHome},
	}, splashContent{})
}

type HomeHandler struct {
	*Shell
	Store market.Store
}

type homeContent struct {
	Properties []market.Property
}

func (h *HomeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rc := h.begin(w, r)
	ctl := controller(h.Shell, rc, "home", h.Store.Properties, "Failed to fetch properties")
	defer ctl.Unmount()
	load(r, ctl)

	render(h.Shell, rc, pageOpts{Name: "home", Title: "Available Properties", Loading: ctl.Loading()}, homeContent{
		Properties: ctl.Records(),
	})
}

// NotFoundHandler answers every unrouted GET.
type NotFoundHandler struct {
	*Shell
}

func (h *NotFoundHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.notFound(h.begin(w, r), "Page Not Found", "The page you are looking for does not exist.")
}
