package market

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frodoestate/internal/dbinit"
)

// newPGStore migrates the database named by TEST_DATABASE_URL and loads the
// demo records. Every market table is truncated, so never point it at data
// you want to keep.
func newPGStore(t *testing.T) *PGStore {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping postgres integration test")
	}
	ctx := context.Background()

	conn, err := pgx.Connect(ctx, dsn)
	require.NoError(t, err)
	_, err = dbinit.Migrate(ctx, conn)
	require.NoError(t, err)
	require.NoError(t, conn.Close(ctx))

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	s := NewPGStore(pool)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	require.NoError(t, s.Replace(ctx, DemoSeed()))
	return s
}

func TestPGStoreReadsSeed(t *testing.T) {
	ctx := context.Background()
	s := newPGStore(t)
	require.NoError(t, s.Ping(ctx))

	props, err := s.Properties(ctx)
	require.NoError(t, err)
	require.Len(t, props, 10)
	assert.Equal(t, "1", props[0].ID, "seed order is display order")
	assert.True(t, props[9].Price.Equal(d("100")))
	assert.Equal(t, 200, props[9].AvailableLots)

	p, err := s.Property(ctx, "10")
	require.NoError(t, err)
	assert.Equal(t, props[9].Usage, p.Usage)
	_, err = s.Property(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	allocs, err := s.Allocations(ctx)
	require.NoError(t, err)
	require.Len(t, allocs, 2)
	assert.Equal(t, "Property A", allocs[0].PropertyName)
	assert.True(t, allocs[0].Allocation.Equal(d("25")))
}

func TestPGStoreSellAllocation(t *testing.T) {
	ctx := context.Background()
	s := newPGStore(t)

	require.NoError(t, s.SellAllocation(ctx, buyer.Hex(), "1"))
	allocs, err := s.Allocations(ctx)
	require.NoError(t, err)
	require.Len(t, allocs, 1)
	assert.Equal(t, "2", allocs[0].ID)

	txs, err := s.Transactions(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, TxSell, txs[0].Kind)
	assert.Equal(t, buyer.Hex(), txs[0].Sender)
	assert.True(t, txs[0].Amount.Equal(d("50000")))

	assert.ErrorIs(t, s.SellAllocation(ctx, buyer.Hex(), "1"), ErrNotFound)
}

func TestPGStoreBorrowPledgesAllocation(t *testing.T) {
	ctx := context.Background()
	s := newPGStore(t)

	loan, err := s.BorrowAgainst(ctx, buyer.Hex(), "2")
	require.NoError(t, err)
	assert.True(t, loan.Amount.Equal(d("50000")))

	_, err = s.BorrowAgainst(ctx, buyer.Hex(), "2")
	assert.ErrorIs(t, err, ErrConflict)
	assert.ErrorIs(t, s.SellAllocation(ctx, buyer.Hex(), "2"), ErrConflict)

	loans, err := s.Loans(ctx)
	require.NoError(t, err)
	require.Len(t, loans, 1)
	assert.Equal(t, "Property B", loans[0].PropertyName)
	assert.Equal(t, buyer.Hex(), loans[0].Borrower)

	allocs, err := s.Allocations(ctx)
	require.NoError(t, err)
	assert.True(t, allocs[1].Pledged)
}

func TestPGStorePurchase(t *testing.T) {
	ctx := context.Background()
	s := newPGStore(t)

	a, err := s.Purchase(ctx, buyer.Hex(), "10")
	require.NoError(t, err)
	assert.True(t, a.Allocation.Equal(d("0.5")))
	b, err := s.Purchase(ctx, buyer.Hex(), "10")
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)
	assert.True(t, b.Allocation.Equal(d("1")))
	assert.True(t, b.Value.Equal(d("200")))

	p, err := s.Property(ctx, "10")
	require.NoError(t, err)
	assert.Equal(t, 198, p.AvailableLots)

	_, err = s.BorrowAgainst(ctx, buyer.Hex(), b.ID)
	require.NoError(t, err)
	c, err := s.Purchase(ctx, buyer.Hex(), "10")
	require.NoError(t, err)
	assert.NotEqual(t, b.ID, c.ID, "pledged allocation is not grown")

	allocs, err := s.Allocations(ctx)
	require.NoError(t, err)
	require.Len(t, allocs, 4)
	assert.True(t, allocs[2].Value.Equal(d("200")))

	_, err = s.Purchase(ctx, buyer.Hex(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPGStoreStrategyAndPools(t *testing.T) {
	ctx := context.Background()
	s := newPGStore(t)
	a := buyer.Hex()

	require.NoError(t, s.Invest(ctx, a, "1", d("150.25")))
	require.NoError(t, s.Withdraw(ctx, a, "1", d("50")))
	assert.ErrorIs(t, s.Withdraw(ctx, a, "1", d("500")), ErrConflict)
	assert.ErrorIs(t, s.Invest(ctx, a, "9", d("1")), ErrNotFound)
	st, err := s.Strategies(ctx)
	require.NoError(t, err)
	assert.True(t, st[0].Invested.Equal(d("100.25")))

	require.NoError(t, s.PoolAction(ctx, a, "1", PoolBorrow, d("60000")))
	assert.ErrorIs(t, s.PoolAction(ctx, a, "1", PoolWithdraw, d("50000")), ErrConflict)
	require.NoError(t, s.PoolAction(ctx, a, "1", PoolRepay, d("10000")))
	require.NoError(t, s.PoolAction(ctx, a, "1", PoolLend, d("5")))
	require.NoError(t, s.PoolAction(ctx, a, "1", PoolWithdraw, d("50005")))

	pools, err := s.Pools(ctx)
	require.NoError(t, err)
	assert.True(t, pools[0].Supplied.Equal(d("50000")))
	assert.True(t, pools[0].Borrowed.Equal(d("50000")))
}

func TestPGStoreTransactionsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := newPGStore(t)

	_, err := s.Purchase(ctx, buyer.Hex(), "1")
	require.NoError(t, err)
	require.NoError(t, s.Invest(ctx, buyer.Hex(), "2", d("10")))
	require.NoError(t, s.SellAllocation(ctx, buyer.Hex(), "1"))

	txs, err := s.Transactions(ctx)
	require.NoError(t, err)
	var kinds []TxKind
	for _, tx := range txs {
		kinds = append(kinds, tx.Kind)
	}
	assert.Equal(t, []TxKind{TxSell, TxInvest, TxPurchase}, kinds)
}
