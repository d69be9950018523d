package market

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// MemoryStore keeps records in process. Slices preserve seed order, which is
// display order.
type MemoryStore struct {
	mu  sync.RWMutex
	now func() time.Time

	properties   []Property
	allocations  []VaultAllocation
	strategies   []Strategy
	pools        []Pool
	transactions []Transaction
	loans        []Loan
}

func NewMemoryStore(seed *Seed) *MemoryStore {
	m := &MemoryStore{now: time.Now}
	if seed != nil {
		m.load(seed)
	}
	return m
}

func (m *MemoryStore) load(s *Seed) {
	m.properties = slices.Clone(s.Properties)
	m.allocations = slices.Clone(s.Allocations)
	m.strategies = slices.Clone(s.Strategies)
	m.pools = slices.Clone(s.Pools)
	m.transactions = slices.Clone(s.Transactions)
	m.loans = slices.Clone(s.Loans)
}

func (m *MemoryStore) Replace(ctx context.Context, s *Seed) error {
	if err := s.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.load(s)
	return nil
}

func (m *MemoryStore) Ping(ctx context.Context) error { return ctx.Err() }

func find[T any](xs []T, id string, key func(T) string) int {
	return slices.IndexFunc(xs, func(x T) bool { return key(x) == id })
}

func (m *MemoryStore) Properties(ctx context.Context) ([]Property, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.properties), nil
}

func (m *MemoryStore) Property(ctx context.Context, id string) (Property, error) {
	if err := ctx.Err(); err != nil {
		return Property{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := find(m.properties, id, func(p Property) string { return p.ID })
	if i < 0 {
		return Property{}, fmt.Errorf("property %q: %w", id, ErrNotFound)
	}
	return m.properties[i], nil
}

func (m *MemoryStore) Allocations(ctx context.Context) ([]VaultAllocation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.allocations), nil
}

func (m *MemoryStore) SellAllocation(ctx context.Context, actor, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := find(m.allocations, id, func(a VaultAllocation) string { return a.ID })
	if i < 0 {
		return fmt.Errorf("allocation %q: %w", id, ErrNotFound)
	}
	tx, err := sellRule(m.allocations[i], actor, m.now())
	if err != nil {
		return err
	}
	m.allocations = slices.Delete(m.allocations, i, i+1)
	m.transactions = append(m.transactions, tx)
	return nil
}

func (m *MemoryStore) BorrowAgainst(ctx context.Context, actor, id string) (Loan, error) {
	if err := ctx.Err(); err != nil {
		return Loan{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := find(m.allocations, id, func(a VaultAllocation) string { return a.ID })
	if i < 0 {
		return Loan{}, fmt.Errorf("allocation %q: %w", id, ErrNotFound)
	}
	a := m.allocations[i]
	loan, tx, err := borrowRule(&a, actor, m.now())
	if err != nil {
		return Loan{}, err
	}
	m.allocations[i] = a
	m.loans = append(m.loans, loan)
	m.transactions = append(m.transactions, tx)
	return loan, nil
}

func (m *MemoryStore) Strategies(ctx context.Context) ([]Strategy, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.strategies), nil
}

func (m *MemoryStore) Invest(ctx context.Context, actor, id string, amount decimal.Decimal) error {
	return m.strategy(ctx, actor, id, TxInvest, amount)
}

func (m *MemoryStore) Withdraw(ctx context.Context, actor, id string, amount decimal.Decimal) error {
	return m.strategy(ctx, actor, id, TxWithdraw, amount)
}

func (m *MemoryStore) strategy(ctx context.Context, actor, id string, kind TxKind, amount decimal.Decimal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := find(m.strategies, id, func(s Strategy) string { return s.ID })
	if i < 0 {
		return fmt.Errorf("strategy %q: %w", id, ErrNotFound)
	}
	s := m.strategies[i]
	tx, err := strategyRule(&s, kind, amount, actor, m.now())
	if err != nil {
		return err
	}
	m.strategies[i] = s
	m.transactions = append(m.transactions, tx)
	return nil
}

func (m *MemoryStore) Pools(ctx context.Context) ([]Pool, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.pools), nil
}

func (m *MemoryStore) PoolAction(ctx context.Context, actor, id string, op PoolOp, amount decimal.Decimal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := find(m.pools, id, func(p Pool) string { return p.ID })
	if i < 0 {
		return fmt.Errorf("pool %q: %w", id, ErrNotFound)
	}
	p := m.pools[i]
	tx, err := poolRule(&p, op, amount, actor, m.now())
	if err != nil {
		return err
	}
	m.pools[i] = p
	m.transactions = append(m.transactions, tx)
	return nil
}

// Transactions are returned newest first.
func (m *MemoryStore) Transactions(ctx context.Context) ([]Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	out := slices.Clone(m.transactions)
	m.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Loans are returned newest first.
func (m *MemoryStore) Loans(ctx context.Context) ([]Loan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	out := slices.Clone(m.loans)
	m.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) Purchase(ctx context.Context, actor, propertyID string) (VaultAllocation, error) {
	if err := ctx.Err(); err != nil {
		return VaultAllocation{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	pi := find(m.properties, propertyID, func(p Property) string { return p.ID })
	if pi < 0 {
		return VaultAllocation{}, fmt.Errorf("property %q: %w", propertyID, ErrNotFound)
	}
	p := m.properties[pi]

	ai := slices.IndexFunc(m.allocations, func(a VaultAllocation) bool {
		return a.PropertyID == propertyID && !a.Pledged
	})
	var held *VaultAllocation
	if ai >= 0 {
		held = &m.allocations[ai]
	}
	a, tx, err := purchaseRule(&p, held, actor, m.now())
	if err != nil {
		return VaultAllocation{}, err
	}
	m.properties[pi] = p
	if ai >= 0 {
		m.allocations[ai] = a
	} else {
		m.allocations = append(m.allocations, a)
	}
	m.transactions = append(m.transactions, tx)
	return a, nil
}

var _ Store = (*MemoryStore)(nil)
