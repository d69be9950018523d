package web

import (
	"frodoestate/internal/nav"
	"frodoestate/internal/notify"
	"frodoestate/internal/view"
	"frodoestate/internal/wallet"
)

// WalletData drives the wallet-connect control in the side panel.
type WalletData struct {
	AppName          string
	Connected        bool
	Address          string
	Short            string
	Chain            wallet.Chain
	Groups           []wallet.ConnectorGroup
	RequireSignature bool
}

// Refresh makes the browser move on to URL after Seconds.
type Refresh struct {
	Seconds int
	URL     string
}

// Page wraps the shared shell and page-specific Content.
type Page[T any] struct {
	Title       string
	Path        string
	ShowSidebar bool
	Sidebar     nav.SidebarView
	Wallet      WalletData
	Theme       Theme
	Notices     []notify.Notice
	Modal       *view.Modal
	Loading     bool
	Refresh     *Refresh
	Content     T
}
