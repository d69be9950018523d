package wallet

// Connector is a wallet plugin offered in the connect modal.
type Connector struct {
	ID                string
	Name              string
	RequiresProjectID bool
	Preference        string
}

type ConnectorGroup struct {
	Name       string
	Connectors []Connector
}

var (
	Rainbow       = Connector{ID: "rainbow", Name: "Rainbow", RequiresProjectID: true}
	WalletConnect = Connector{ID: "walletConnect", Name: "WalletConnect", RequiresProjectID: true}
	Safe          = Connector{ID: "safe", Name: "Safe"}
	Coinbase      = Connector{ID: "coinbase", Name: "Coinbase Wallet", Preference: "smartWalletOnly"}
	Ledger        = Connector{ID: "ledger", Name: "Ledger", RequiresProjectID: true}
	MetaMask      = Connector{ID: "metaMask", Name: "MetaMask", RequiresProjectID: true}
	Rabby         = Connector{ID: "rabby", Name: "Rabby"}
	Phantom       = Connector{ID: "phantom", Name: "Phantom"}
	Trust         = Connector{ID: "trust", Name: "Trust Wallet", RequiresProjectID: true}
	Zerion        = Connector{ID: "zerion", Name: "Zerion", RequiresProjectID: true}
	Uniswap       = Connector{ID: "uniswap", Name: "Uniswap Wallet", RequiresProjectID: true}
)

// DefaultGroups is the connector layout shown by the connect modal.
func DefaultGroups() []ConnectorGroup {
	return []ConnectorGroup{
		{Name: "Recommended", Connectors: []Connector{Rainbow, WalletConnect, Safe, Coinbase, Ledger}},
		{Name: "Others", Connectors: []Connector{MetaMask, Rabby, Phantom, Trust, Zerion, Uniswap}},
	}
}
