package http

import (
	"frodoestate/internal/chain"
	"frodoestate/internal/wallet"
	"frodoestate/internal/web"
)

// walletData fills the wallet-connect control shown in the side panel.
func walletData(cfg *wallet.Config, requireSig bool, addr chain.Address, connected bool) web.WalletData {
	wd := web.WalletData{
		AppName:          cfg.AppName(),
		Chain:            cfg.DefaultChain(),
		Groups:           cfg.Groups(),
		RequireSignature: requireSig,
	}
	if connected {
		wd.Connected = true
		wd.Address = addr.Hex()
		wd.Short = addr.Short()
	}
	return wd
}
