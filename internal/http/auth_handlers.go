package http

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"frodoestate/internal/chain"
	"frodoestate/internal/http/middleware"
	"frodoestate/internal/logging"
	"frodoestate/internal/market"
	"frodoestate/internal/nav"
	"frodoestate/internal/notify"
	"frodoestate/internal/wallet"
)

// WalletHandler runs the connect handshake and owns the session cookie.
type WalletHandler struct {
	*Shell
	BaseURL      string
	SecureCookie bool
}

func (h *WalletHandler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /wallet/challenge", h.Challenge)
	mux.HandleFunc("POST /wallet/connect", h.Connect)
	mux.HandleFunc("POST /wallet/disconnect", h.Disconnect)
}

type challengeResp struct {
	Address string `json:"address"`
	Nonce   string `json:"nonce"`
	Message string `json:"message"`
	Token   string `json:"token"`
	URI     string `json:"uri"`
}

func (h *WalletHandler) Challenge(w http.ResponseWriter, r *http.Request) {
	addr, err := chain.ParseAddress(r.URL.Query().Get("address"))
	if err != nil {
		http.Error(w, "invalid address", http.StatusBadRequest)
		return
	}
	ch, err := h.Sessions.NewChallenge(addr)
	if err != nil {
		logging.From(r.Context()).Error("wallet.challenge", "err", err)
		http.Error(w, "challenge error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(challengeResp{
		Address: ch.Address.Hex(),
		Nonce:   ch.Nonce,
		Message: ch.Message,
		Token:   ch.Token,
		URI:     absURL(h.BaseURL, "/wallet/connect"),
	})
}

func (h *WalletHandler) Connect(w http.ResponseWriter, r *http.Request) {
	rc := h.begin(w, r)
	back := backPath(r)
	log := logging.From(r.Context())

	if id := strings.TrimSpace(r.FormValue("connector")); id != "" && id != "injected" {
		if _, ok := h.Wallet.Connector(id); !ok {
			log.Info("wallet.connect", "connector", id, "err", "connector not enabled")
			rc.Notify(market.MsgWalletFailed, notify.Error)
			rc.redirect(back)
			return
		}
	}

	tok, addr, err := h.Sessions.Connect(wallet.ConnectRequest{
		Address:        r.FormValue("address"),
		ConnectorID:    r.FormValue("connector"),
		ChallengeToken: r.FormValue("challenge"),
		Signature:      r.FormValue("signature"),
	})
	if err != nil {
		log.Info("wallet.connect", "err", err)
		rc.Notify(market.MsgWalletFailed, notify.Error)
		rc.redirect(back)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    tok,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(h.Sessions.TTL()),
	})
	log.Info("wallet.connected", "address", addr.Hex())
	rc.Notify("Wallet connected", notify.Success)
	rc.redirect(back)
}

func (h *WalletHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
	http.Redirect(w, r, nav.PathHome, http.StatusSeeOther)
}

// backPath returns the local page the form was posted from.
func backPath(r *http.Request) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Path == "" || !strings.HasPrefix(ref.Path, "/") || strings.HasPrefix(ref.Path, "//") {
		return nav.PathHome
	}
	if ref.Host != "" && ref.Host != r.Host {
		return nav.PathHome
	}
	return ref.Path
}
