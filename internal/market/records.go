// Package market holds the investment records shown by the pages and the
// record-keeping mutations performed on them. Nothing here settles on chain.
package market

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"frodoestate/internal/chain"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
	ErrSoldOut      = errors.New("no lots available")
)

type Property struct {
	ID            string          `yaml:"id"`
	Name          string          `yaml:"name"`
	Price         decimal.Decimal `yaml:"price"`
	Description   string          `yaml:"description"` // markdown
	ImageURL      string          `yaml:"image_url"`
	Location      string          `yaml:"location"`
	Owner         string          `yaml:"owner"`
	DateListed    time.Time       `yaml:"date_listed"`
	TotalLots     int             `yaml:"total_lots"`
	AvailableLots int             `yaml:"available_lots"`
	Usage         chain.Usage     `yaml:"usage"`
}

// LotShare is the percentage of the property one lot represents.
func (p Property) LotShare() decimal.Decimal {
	if p.TotalLots <= 0 {
		return decimal.Zero
	}
	return hundred.DivRound(decimal.NewFromInt(int64(p.TotalLots)), 4)
}

// VaultAllocation is a fractional stake in a tokenized property.
type VaultAllocation struct {
	ID           string          `yaml:"id"`
	PropertyID   string          `yaml:"property_id"`
	PropertyName string          `yaml:"property_name"`
	Allocation   decimal.Decimal `yaml:"allocation"` // percent
	Value        decimal.Decimal `yaml:"value"`
	Pledged      bool            `yaml:"pledged"`
}

type Strategy struct {
	ID          string          `yaml:"id"`
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Invested    decimal.Decimal `yaml:"invested"`
}

// Pool is a lending pool backed by one real-estate position.
type Pool struct {
	ID          string          `yaml:"id"`
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Supplied    decimal.Decimal `yaml:"supplied"`
	Borrowed    decimal.Decimal `yaml:"borrowed"`
}

// Available is the liquidity left to borrow.
func (p Pool) Available() decimal.Decimal { return p.Supplied.Sub(p.Borrowed) }

type TxKind string

const (
	TxPurchase TxKind = "purchase"
	TxSell     TxKind = "sell"
	TxBorrow   TxKind = "borrow"
	TxInvest   TxKind = "invest"
	TxWithdraw TxKind = "withdraw"
	TxLend     TxKind = "lend"
	TxRepay    TxKind = "repay"
)

type Transaction struct {
	ID        string          `yaml:"id"`
	Kind      TxKind          `yaml:"kind"`
	Title     string          `yaml:"title"`
	Message   string          `yaml:"message"`
	Sender    string          `yaml:"sender"`
	Amount    decimal.Decimal `yaml:"amount"`
	CreatedAt time.Time       `yaml:"created_at"`
}

// Loan records a borrow against a vault allocation.
type Loan struct {
	ID           string          `yaml:"id"`
	AllocationID string          `yaml:"allocation_id"`
	PropertyName string          `yaml:"property_name"`
	Amount       decimal.Decimal `yaml:"amount"`
	Borrower     string          `yaml:"borrower"`
	CreatedAt    time.Time       `yaml:"created_at"`
}

var (
	// BorrowRatio is the share of an allocation's value recorded as borrowed.
	BorrowRatio = decimal.RequireFromString("0.5")
	hundred     = decimal.NewFromInt(100)
)

type PoolOp string

const (
	PoolLend     PoolOp = "lend"
	PoolBorrow   PoolOp = "borrow"
	PoolWithdraw PoolOp = "withdraw"
	PoolRepay    PoolOp = "repay"
)

func PoolOps() []PoolOp { return []PoolOp{PoolLend, PoolBorrow, PoolWithdraw, PoolRepay} }

func ParsePoolOp(s string) (PoolOp, error) {
	for _, op := range PoolOps() {
		if strings.EqualFold(s, string(op)) {
			return op, nil
		}
	}
	return "", fmt.Errorf("%w: pool action %q", ErrInvalidInput, s)
}

// Title is the button label.
func (op PoolOp) Title() string {
	s := string(op)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// ParseAmount reads a positive money amount from a form value.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: amount %q", ErrInvalidInput, s)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	return d.Round(2), nil
}
