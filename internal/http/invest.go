package http

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"frodoestate/internal/chain"
	"frodoestate/internal/market"
	"frodoestate/internal/nav"
	"frodoestate/internal/notify"
	"frodoestate/internal/view"
)

type StrategiesHandler struct {
	*Shell
	Store market.Store
}

type strategiesContent struct {
	Strategies []market.Strategy
}

func (h *StrategiesHandler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /investment-strategy", h.List)
	mux.HandleFunc("POST /investment-strategy/{id}/{action}", h.Act)
}

func (h *StrategiesHandler) actions(actor chain.Address, amount decimal.Decimal) []view.Action {
	return []view.Action{
		{
			Name:    "invest",
			Success: "Invested successfully",
			Failure: "Failed to invest",
			Mutate: func(ctx context.Context, id string) error {
				return h.Store.Invest(ctx, actor.Hex(), id, amount)
			},
		},
		{
			Name:    "withdraw",
			Success: "Withdrawn successfully",
			Failure: "Failed to withdraw",
			Mutate: func(ctx context.Context, id string) error {
				return h.Store.Withdraw(ctx, actor.Hex(), id, amount)
			},
		},
	}
}

func (h *StrategiesHandler) List(w http.ResponseWriter, r *http.Request) {
	rc := h.begin(w, r)
	ctl := controller(h.Shell, rc, "strategies", h.Store.Strategies, "Failed to fetch investment strategies")
	defer ctl.Unmount()
	load(r, ctl)
	render(h.Shell, rc, pageOpts{Name: "strategies", Title: "Investment Strategies"}, strategiesContent{
		Strategies: ctl.Records(),
	})
}

func (h *StrategiesHandler) Act(w http.ResponseWriter, r *http.Request) {
	rc := h.begin(w, r)
	if !rc.requireWallet(nav.PathInvestmentStrategy) {
		return
	}
	action := r.PathValue("action")
	if action != "invest" && action != "withdraw" {
		http.NotFound(w, r)
		return
	}
	amount, err := market.ParseAmount(r.FormValue("amount"))
	if err != nil {
		rc.Notify("Enter a positive amount", notify.Error)
		rc.redirect(nav.PathInvestmentStrategy)
		return
	}

	ctl := controller(h.Shell, rc, "strategies", h.Store.Strategies, "Failed to fetch investment strategies",
		h.actions(rc.addr, amount)...)
	defer ctl.Unmount()
	submit(r, ctl, action, r.PathValue("id"))

	render(h.Shell, rc, pageOpts{Name: "strategies", Title: "Investment Strategies", Path: nav.PathInvestmentStrategy}, strategiesContent{
		Strategies: ctl.Records(),
	})
}

type PoolsHandler struct {
	*Shell
	Store market.Store
}

type poolsContent struct {
	Pools []market.Pool
	Ops   []market.PoolOp
}

func (h *PoolsHandler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /pools", h.List)
	mux.HandleFunc("POST /pools/{id}/{op}", h.Act)
}

func (h *PoolsHandler) actions(actor chain.Address, amount decimal.Decimal) []view.Action {
	var out []view.Action
	for _, op := range market.PoolOps() {
		out = append(out, view.Action{
			Name:    string(op),
			Success: op.Title() + " successful",
			Failure: "Failed to " + string(op),
			Mutate: func(ctx context.Context, id string) error {
				return h.Store.PoolAction(ctx, actor.Hex(), id, op, amount)
			},
		})
	}
	return out
}

func (h *PoolsHandler) List(w http.ResponseWriter, r *http.Request) {
	rc := h.begin(w, r)
	ctl := controller(h.Shell, rc, "pools", h.Store.Pools, "Failed to fetch pools")
	defer ctl.Unmount()
	load(r, ctl)
	render(h.Shell, rc, pageOpts{Name: "pools", Title: "Lend/Borrow Pools"}, poolsContent{
		Pools: ctl.Records(),
		Ops:   market.PoolOps(),
	})
}

func (h *PoolsHandler) Act(w http.ResponseWriter, r *http.Request) {
	rc := h.begin(w, r)
	if !rc.requireWallet(nav.PathPools) {
		return
	}
	op, err := market.ParsePoolOp(r.PathValue("op"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	amount, err := market.ParseAmount(r.FormValue("amount"))
	if err != nil {
		rc.Notify("Enter a positive amount", notify.Error)
		rc.redirect(nav.PathPools)
		return
	}

	ctl := controller(h.Shell, rc, "pools", h.Store.Pools, "Failed to fetch pools", h.actions(rc.addr, amount)...)
	defer ctl.Unmount()
	submit(r, ctl, string(op), r.PathValue("id"))

	render(h.Shell, rc, pageOpts{Name: "pools", Title: "Lend/Borrow Pools", Path: nav.PathPools}, poolsContent{
		Pools: ctl.Records(),
		Ops:   market.PoolOps(),
	})
}
