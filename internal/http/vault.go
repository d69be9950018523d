package http

import (
	"context"
	"net/http"

	"frodoestate/internal/chain"
	"frodoestate/internal/market"
	"frodoestate/internal/nav"
	"frodoestate/internal/view"
)

type VaultHandler struct {
	*Shell
	Store market.Store
}

type vaultContent struct {
	Allocations []market.VaultAllocation
}

func (h *VaultHandler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /vault-allocations", h.List)
	mux.HandleFunc("POST /vault-allocations/{id}/{action}", h.Act)
}

func (h *VaultHandler) actions(actor chain.Address) []view.Action {
	return []view.Action{
		{
			Name:    "sell",
			Title:   "Sell Property Part",
			Prompt:  "Are you sure you want to sell this property part?",
			Success: "Property part sold successfully",
			Failure: "Failed to sell property part",
			Mutate: func(ctx context.Context, id string) error {
				return h.Store.SellAllocation(ctx, actor.Hex(), id)
			},
		},
		{
			Name:    "borrow",
			Title:   "Borrow Against Property Part",
			Prompt:  "Are you sure you want to borrow against this property part?",
			Success: "Borrowed against property part successfully",
			Failure: "Failed to borrow against property part",
			Mutate: func(ctx context.Context, id string) error {
				_, err := h.Store.BorrowAgainst(ctx, actor.Hex(), id)
				return err
			},
		},
	}
}

func (h *VaultHandler) controller(rc *reqCtx) *view.Controller[market.VaultAllocation] {
	return controller(h.Shell, rc, "vault", h.Store.Allocations, "Failed to fetch vault allocations", h.actions(rc.addr)...)
}

// List renders the allocations. ?confirm=sell|borrow&id= opens the
// confirmation dialog for that row.
func (h *VaultHandler) List(w http.ResponseWriter, r *http.Request) {
	rc := h.begin(w, r)
	ctl := h.controller(rc)
	defer ctl.Unmount()
	load(r, ctl)

	q := r.URL.Query()
	if action := q.Get("confirm"); action != "" {
		if err := ctl.Open(action, q.Get("id")); err != nil {
			http.Redirect(w, r, nav.PathVaultAllocations, http.StatusSeeOther)
			return
		}
	}
	var modal *view.Modal
	if m, ok := ctl.Modal(); ok {
		modal = &m
	}
	render(h.Shell, rc, pageOpts{Name: "vault", Title: "Vault Allocations", Modal: modal}, vaultContent{
		Allocations: ctl.Records(),
	})
}

// Act is the confirmation of the dialog opened by List. The page is rendered
// straight from the controller's single refresh.
func (h *VaultHandler) Act(w http.ResponseWriter, r *http.Request) {
	rc := h.begin(w, r)
	if !rc.requireWallet(nav.PathVaultAllocations) {
		return
	}
	action, id := r.PathValue("action"), r.PathValue("id")
	if action != "sell" && action != "borrow" {
		http.NotFound(w, r)
		return
	}

	ctl := h.controller(rc)
	defer ctl.Unmount()
	submit(r, ctl, action, id)

	render(h.Shell, rc, pageOpts{Name: "vault", Title: "Vault Allocations", Path: nav.PathVaultAllocations}, vaultContent{
		Allocations: ctl.Records(),
	})
}
