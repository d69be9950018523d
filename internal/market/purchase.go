package market

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/shopspring/decimal"

	"frodoestate/internal/chain"
	"frodoestate/internal/logging"
	"frodoestate/internal/notify"
)

const (
	MsgWalletFailed   = "Failed to connect to wallet"
	MsgInsufficient   = "Insufficient USDC balance"
	MsgPurchased      = "Purchase successful"
	MsgPurchaseFailed = "Purchase failed"
)

// HoldingsPath is where a successful purchase lands.
const HoldingsPath = "/vault-allocations"

var ErrWalletNotConnected = errors.New("wallet not connected")

// WalletConnector establishes the buyer's wallet connection.
type WalletConnector interface {
	Connect(ctx context.Context) (chain.Address, error)
}

// BalanceChecker confirms the buyer holds at least amount of the stable token.
type BalanceChecker interface {
	HasBalance(ctx context.Context, holder chain.Address, amount decimal.Decimal) (bool, error)
}

// Navigator receives the redirect issued after a successful purchase.
type Navigator interface {
	Navigate(path string)
}

// Alerter relays completed activity to operators.
type Alerter interface {
	Alert(ctx context.Context, msg string)
}

// Purchaser runs the buy flow of the property detail page.
type Purchaser struct {
	Store    Store
	Balances BalanceChecker
	Alerts   Alerter // optional
}

// Buy checks the wallet, then the balance, then takes one lot. Every outcome
// is reported through n; only success navigates.
func (p *Purchaser) Buy(ctx context.Context, propertyID string, wallet WalletConnector, n notify.Notifier, nav Navigator) bool {
	log := logging.From(ctx)

	buyer, err := wallet.Connect(ctx)
	if err != nil {
		log.Info("purchase.wallet", "property", propertyID, "err", err)
		n.Notify(MsgWalletFailed, notify.Error)
		return false
	}

	prop, err := p.Store.Property(ctx, propertyID)
	if err != nil {
		log.Warn("purchase.property", "property", propertyID, "err", err)
		n.Notify(MsgPurchaseFailed, notify.Error)
		return false
	}

	ok, err := p.Balances.HasBalance(ctx, buyer, prop.Price)
	if err != nil {
		log.Error("purchase.balance", "buyer", buyer.Hex(), "err", err)
		n.Notify(MsgPurchaseFailed, notify.Error)
		return false
	}
	if !ok {
		n.Notify(MsgInsufficient, notify.Error)
		return false
	}

	if _, err := p.Store.Purchase(ctx, buyer.Hex(), propertyID); err != nil {
		log.Warn("purchase.store", "property", propertyID, "buyer", buyer.Hex(), "err", err)
		n.Notify(MsgPurchaseFailed, notify.Error)
		return false
	}
	log.Info("purchase.ok", slog.String("property", propertyID), slog.String("buyer", buyer.Hex()))
	if p.Alerts != nil {
		p.Alerts.Alert(ctx, fmt.Sprintf("%s bought a lot of %s for %s USDC", buyer.Hex(), prop.Name, prop.Price.StringFixed(2)))
	}
	n.Notify(MsgPurchased, notify.Success)
	nav.Navigate(HoldingsPath)
	return true
}

// DemoBalances reports every balance as sufficient.
type DemoBalances struct{}

func (DemoBalances) HasBalance(context.Context, chain.Address, decimal.Decimal) (bool, error) {
	return true, nil
}

// TokenReader is the slice of the RPC client ChainBalances needs.
type TokenReader interface {
	BalanceOf(ctx context.Context, token, holder chain.Address) (*big.Int, error)
}

// ChainBalances reads the holder's USDC balance with balanceOf.
type ChainBalances struct {
	Client   TokenReader
	Token    chain.Address
	Decimals int32
}

func (c ChainBalances) HasBalance(ctx context.Context, holder chain.Address, amount decimal.Decimal) (bool, error) {
	bal, err := c.Client.BalanceOf(ctx, c.Token, holder)
	if err != nil {
		return false, fmt.Errorf("usdc balance: %w", err)
	}
	need := amount.Shift(c.Decimals).Ceil().BigInt()
	return bal.Cmp(need) >= 0, nil
}
