package http

import (
	"context"
	"net/http"

	"frodoestate/internal/chain"
	"frodoestate/internal/nav"
	"frodoestate/internal/notify"
	"frodoestate/internal/partner"
)

type PartnerHandler struct {
	*Shell
	Partner *partner.Service
}

type partnerContent struct {
	TokenURI     string
	Usage        string
	InitialValue string
	Usages       []chain.Usage
	Tx           *chain.TxRequest
}

func (h *PartnerHandler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /partner", h.Form)
	mux.HandleFunc("POST /partner", h.Submit)
}

func (h *PartnerHandler) Form(w http.ResponseWriter, r *http.Request) {
	rc := h.begin(w, r)
	render(h.Shell, rc, pageOpts{Name: "partner", Title: "Add Property"}, partnerContent{
		Usage:  chain.UsageFlip.String(),
		Usages: chain.Usages(),
	})
}

func (h *PartnerHandler) Submit(w http.ResponseWriter, r *http.Request) {
	rc := h.begin(w, r)
	if !rc.requireWallet(nav.PathPartner) {
		return
	}
	content := partnerContent{
		TokenURI:     r.FormValue("token_uri"),
		Usage:        r.FormValue("usage"),
		InitialValue: r.FormValue("initial_value"),
		Usages:       chain.Usages(),
	}
	draft, err := partner.ParseDraft(content.TokenURI, content.Usage, content.InitialValue)
	if err != nil {
		rc.Notify(err.Error(), notify.Error)
		render(h.Shell, rc, pageOpts{Name: "partner", Title: "Add Property", Status: http.StatusUnprocessableEntity}, content)
		return
	}
	content.Usage = draft.Usage.String()

	ctx, cancel := context.WithTimeout(r.Context(), fetchTimeout)
	defer cancel()
	if tx, ok := h.Partner.Prepare(ctx, rc.addr, draft, rc); ok {
		content.Tx = &tx
	}
	render(h.Shell, rc, pageOpts{Name: "partner", Title: "Add Property"}, content)
}
