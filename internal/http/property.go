package http

import (
	"context"
	"errors"
	"net/http"

	"frodoestate/internal/market"
	"frodoestate/internal/nav"
)

type PropertyHandler struct {
	*Shell
	Store     market.Store
	Purchaser *market.Purchaser
}

type propertyContent struct {
	Property market.Property
}

func (h *PropertyHandler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /properties/{propertyId}", h.Show)
	mux.HandleFunc("POST /properties/{propertyId}/buy", h.Buy)
}

func (h *PropertyHandler) Show(w http.ResponseWriter, r *http.Request) {
	rc := h.begin(w, r)
	id := r.PathValue("propertyId")

	missing := false
	fetch := func(ctx context.Context) ([]market.Property, error) {
		p, err := h.Store.Property(ctx, id)
		if errors.Is(err, market.ErrNotFound) {
			missing = true
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return []market.Property{p}, nil
	}
	ctl := controller(h.Shell, rc, "property", fetch, "Failed to fetch property details")
	defer ctl.Unmount()
	load(r, ctl)

	recs := ctl.Records()
	if missing || len(recs) == 0 {
		h.notFound(rc, "Property Not Found", "The property you are looking for does not exist.")
		return
	}
	render(h.Shell, rc, pageOpts{Name: "property", Title: recs[0].Name}, propertyContent{Property: recs[0]})
}

// Buy runs the purchase flow. Success lands on the holdings view, anything
// else returns to the property with the notices carried in the flash cookie.
func (h *PropertyHandler) Buy(w http.ResponseWriter, r *http.Request) {
	rc := h.begin(w, r)
	id := r.PathValue("propertyId")

	ctx, cancel := context.WithTimeout(r.Context(), fetchTimeout)
	defer cancel()
	h.Purchaser.Buy(ctx, id, rc, rc, rc)

	target := rc.target
	if target == "" {
		target = nav.PropertyPath(id)
	}
	rc.redirect(target)
}
