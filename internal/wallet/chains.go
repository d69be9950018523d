package wallet

import (
	"fmt"
	"strings"
)

type Currency struct {
	Name     string
	Symbol   string
	Decimals int
}

// Chain describes one EVM network the dApp can connect to.
type Chain struct {
	ID             uint64
	Name           string
	Network        string // catalogue key, e.g. "base-sepolia"
	RPCURL         string // public default RPC
	Explorer       string
	Testnet        bool
	NativeCurrency Currency
	alchemyHost    string
}

var ether = Currency{Name: "Ether", Symbol: "ETH", Decimals: 18}

var catalogue = []Chain{
	{ID: 1, Name: "Ethereum", Network: "mainnet", RPCURL: "https://cloudflare-eth.com", Explorer: "https://etherscan.io", NativeCurrency: ether, alchemyHost: "eth-mainnet"},
	{ID: 10, Name: "OP Mainnet", Network: "optimism", RPCURL: "https://mainnet.optimism.io", Explorer: "https://optimistic.etherscan.io", NativeCurrency: ether, alchemyHost: "opt-mainnet"},
	{ID: 137, Name: "Polygon", Network: "polygon", RPCURL: "https://polygon-rpc.com", Explorer: "https://polygonscan.com", NativeCurrency: Currency{Name: "POL", Symbol: "POL", Decimals: 18}, alchemyHost: "polygon-mainnet"},
	{ID: 8453, Name: "Base", Network: "base", RPCURL: "https://mainnet.base.org", Explorer: "https://basescan.org", NativeCurrency: ether, alchemyHost: "base-mainnet"},
	{ID: 42161, Name: "Arbitrum One", Network: "arbitrum", RPCURL: "https://arb1.arbitrum.io/rpc", Explorer: "https://arbiscan.io", NativeCurrency: ether, alchemyHost: "arb-mainnet"},
	{ID: 84532, Name: "Base Sepolia", Network: "base-sepolia", RPCURL: "https://sepolia.base.org", Explorer: "https://sepolia.basescan.org", Testnet: true, NativeCurrency: Currency{Name: "Sepolia Ether", Symbol: "ETH", Decimals: 18}, alchemyHost: "base-sepolia"},
	{ID: 11155111, Name: "Sepolia", Network: "sepolia", RPCURL: "https://rpc.sepolia.org", Explorer: "https://sepolia.etherscan.io", Testnet: true, NativeCurrency: Currency{Name: "Sepolia Ether", Symbol: "ETH", Decimals: 18}, alchemyHost: "eth-sepolia"},
}

// LookupChain finds a catalogue chain by network key or decimal id.
func LookupChain(name string) (Chain, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, c := range catalogue {
		if c.Network == key || fmt.Sprint(c.ID) == key {
			return c, nil
		}
	}
	return Chain{}, fmt.Errorf("unknown chain %q", name)
}

// KnownChains returns a copy of the catalogue.
func KnownChains() []Chain {
	return append([]Chain(nil), catalogue...)
}

func (c Chain) alchemyURL(key string) string {
	if key == "" || c.alchemyHost == "" {
		return ""
	}
	return "https://" + c.alchemyHost + ".g.alchemy.com/v2/" + key
}

// TxURL links a transaction hash on the chain's explorer.
func (c Chain) TxURL(hash string) string {
	if c.Explorer == "" {
		return ""
	}
	return c.Explorer + "/tx/" + hash
}
