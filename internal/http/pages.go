package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"frodoestate/internal/chain"
	"frodoestate/internal/http/middleware"
	"frodoestate/internal/logging"
	"frodoestate/internal/market"
	"frodoestate/internal/nav"
	"frodoestate/internal/notify"
	"frodoestate/internal/view"
	"frodoestate/internal/wallet"
	"frodoestate/internal/web"
)

const fetchTimeout = 5 * time.Second

// Shell carries what every page handler needs to render the layout.
type Shell struct {
	TPL      *web.Renderer
	Wallet   *wallet.Config
	Sessions *wallet.Sessions
	Tokens   web.Tokens
	Metrics  *Metrics
}

// reqCtx is the per-request page context: the notifications raised while
// serving it and the connected wallet. It also acts as the wallet connector
// and navigator of the purchase flow.
type reqCtx struct {
	w         http.ResponseWriter
	r         *http.Request
	notices   *notify.Collector
	addr      chain.Address
	connected bool
	target    string
}

func (s *Shell) begin(w http.ResponseWriter, r *http.Request) *reqCtx {
	rc := &reqCtx{w: w, r: r, notices: &notify.Collector{}}
	rc.notices.Add(notify.TakeFlash(w, r)...)
	rc.addr, rc.connected = middleware.Address(r)
	return rc
}

func (rc *reqCtx) Notify(message string, variant notify.Variant) { rc.notices.Notify(message, variant) }

func (rc *reqCtx) Navigate(path string) { rc.target = path }

func (rc *reqCtx) Connect(context.Context) (chain.Address, error) {
	if !rc.connected {
		return chain.Address{}, market.ErrWalletNotConnected
	}
	return rc.addr, nil
}

// requireWallet reports a missing wallet connection and sends the user back.
func (rc *reqCtx) requireWallet(back string) bool {
	if rc.connected {
		return true
	}
	rc.Notify(market.MsgWalletFailed, notify.Error)
	rc.redirect(back)
	return false
}

// redirect carries pending notices across a 303.
func (rc *reqCtx) redirect(path string) {
	notify.SaveFlash(rc.w, rc.notices.Notices())
	http.Redirect(rc.w, rc.r, path, http.StatusSeeOther)
}

type pageOpts struct {
	Name    string
	Path    string // route the page belongs to; defaults to the request path
	Title   string
	Layout  string
	Status  int
	Modal   *view.Modal
	Loading bool
	Refresh *web.Refresh
}

func render[T any](s *Shell, rc *reqCtx, o pageOpts, content T) {
	if o.Layout == "" {
		o.Layout = nav.TypeBar
	}
	if o.Status == 0 {
		o.Status = http.StatusOK
	}
	if o.Path == "" {
		o.Path = rc.r.URL.Path
	}
	layout := nav.NewLayout(o.Layout, rc.connected)
	page := web.Page[T]{
		Title:       o.Title,
		Path:        o.Path,
		ShowSidebar: layout.ShowSidebar(),
		Sidebar:     layout.Sidebar(o.Path),
		Wallet:      walletData(s.Wallet, s.Sessions.RequireSignature(), rc.addr, rc.connected),
		Theme:       web.DetectTheme(rc.r, s.Tokens),
		Notices:     rc.notices.Notices(),
		Modal:       o.Modal,
		Loading:     o.Loading,
		Refresh:     o.Refresh,
		Content:     content,
	}
	rc.w.Header().Set("Content-Type", "text/html; charset=utf-8")
	rc.w.Header().Set("Accept-CH", "Sec-CH-Viewport-Width, Sec-CH-UA-Mobile")
	rc.w.Header().Set("Vary", "Sec-CH-Viewport-Width, Sec-CH-UA-Mobile, Cookie")
	rc.w.WriteHeader(o.Status)
	if err := s.TPL.Render(rc.w, o.Name, page); err != nil {
		logging.From(rc.r.Context()).Error("render", "page", o.Name, "err", err)
	}
}

// controller builds the page controller for this request. Action outcomes
// are counted under page.
func controller[T any](s *Shell, rc *reqCtx, page string, fetch view.FetchFunc[T], fetchFailure string, actions ...view.Action) *view.Controller[T] {
	c := view.NewController(fetch, rc, fetchFailure, actions...)
	c.Observe(func(action string, outcome view.State) { s.Metrics.Action(page, action, outcome) })
	return c
}

// load runs the first fetch of ctl bounded by fetchTimeout.
func load[T any](r *http.Request, ctl *view.Controller[T]) {
	ctx, cancel := context.WithTimeout(r.Context(), fetchTimeout)
	defer cancel()
	ctl.Load(ctx)
}

// submit runs a confirmed action. A success refreshes the records once
// inside the controller; any other outcome still needs the list loaded to
// render the page.
func submit[T any](r *http.Request, ctl *view.Controller[T], action, id string) view.State {
	ctx, cancel := context.WithTimeout(r.Context(), fetchTimeout)
	defer cancel()
	st, err := ctl.Submit(ctx, action, id)
	if err != nil {
		lvl := logging.From(r.Context()).Warn
		if errors.Is(err, view.ErrUnknownAction) {
			lvl = logging.From(r.Context()).Info
		}
		lvl("page.action", "action", action, "id", id, "err", err)
	}
	if st != view.Success {
		ctl.Load(ctx)
	}
	return st
}

func (s *Shell) notFound(rc *reqCtx, heading, message string) {
	render(s, rc, pageOpts{Name: "notfound", Title: heading, Status: http.StatusNotFound}, notFoundContent{
		Heading: heading,
		Message: message,
	})
}

type notFoundContent struct {
	Heading string
	Message string
}
