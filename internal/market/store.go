package market

import (
	"context"

	"github.com/shopspring/decimal"
)

// Store is the record source behind every page. Implementations must be safe
// for concurrent use. actor is the checksummed address of the connected
// wallet, recorded as the sender of the resulting transaction.
type Store interface {
	Properties(ctx context.Context) ([]Property, error)
	Property(ctx context.Context, id string) (Property, error)

	Allocations(ctx context.Context) ([]VaultAllocation, error)
	SellAllocation(ctx context.Context, actor, id string) error
	BorrowAgainst(ctx context.Context, actor, id string) (Loan, error)

	Strategies(ctx context.Context) ([]Strategy, error)
	Invest(ctx context.Context, actor, id string, amount decimal.Decimal) error
	Withdraw(ctx context.Context, actor, id string, amount decimal.Decimal) error

	Pools(ctx context.Context) ([]Pool, error)
	PoolAction(ctx context.Context, actor, id string, op PoolOp, amount decimal.Decimal) error

	Transactions(ctx context.Context) ([]Transaction, error)
	Loans(ctx context.Context) ([]Loan, error)

	// Purchase takes one lot of the property for actor.
	Purchase(ctx context.Context, actor, propertyID string) (VaultAllocation, error)

	// Replace swaps every record for the contents of seed.
	Replace(ctx context.Context, seed *Seed) error
	Ping(ctx context.Context) error
}
