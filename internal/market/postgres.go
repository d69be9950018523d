package market

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"frodoestate/internal/chain"
)

// PGStore keeps records in Postgres. The schema lives in the dbinit
// migrations. Money columns travel as text to keep decimal precision.
type PGStore struct {
	db  *pgxpool.Pool
	now func() time.Time
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db, now: time.Now}
}

func (s *PGStore) Ping(ctx context.Context) error { return s.db.Ping(ctx) }

func (s *PGStore) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func dec(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("scan %s: %w", field, err)
	}
	return d, nil
}

func notFound(err error, what, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %q: %w", what, id, ErrNotFound)
	}
	return fmt.Errorf("load %s %q: %w", what, id, err)
}

const propertyCols = `id, name, price::text, description, image_url, location, owner, date_listed, total_lots, available_lots, usage`

func scanProperty(row pgx.Row) (Property, error) {
	var (
		p     Property
		price string
		usage int16
	)
	if err := row.Scan(&p.ID, &p.Name, &price, &p.Description, &p.ImageURL, &p.Location, &p.Owner,
		&p.DateListed, &p.TotalLots, &p.AvailableLots, &usage); err != nil {
		return Property{}, err
	}
	var err error
	if p.Price, err = dec("price", price); err != nil {
		return Property{}, err
	}
	p.Usage = chain.Usage(usage)
	return p, nil
}

func (s *PGStore) Properties(ctx context.Context) ([]Property, error) {
	rows, err := s.db.Query(ctx, `select `+propertyCols+` from properties order by seq`)
	if err != nil {
		return nil, fmt.Errorf("query properties: %w", err)
	}
	return pgx.CollectRows(rows, func(r pgx.CollectableRow) (Property, error) { return scanProperty(r) })
}

func (s *PGStore) Property(ctx context.Context, id string) (Property, error) {
	p, err := scanProperty(s.db.QueryRow(ctx, `select `+propertyCols+` from properties where id = $1`, id))
	if err != nil {
		return Property{}, notFound(err, "property", id)
	}
	return p, nil
}

const allocationCols = `id, property_id, property_name, allocation::text, value::text, pledged`

func scanAllocation(row pgx.Row) (VaultAllocation, error) {
	var (
		a          VaultAllocation
		pct, value string
	)
	if err := row.Scan(&a.ID, &a.PropertyID, &a.PropertyName, &pct, &value, &a.Pledged); err != nil {
		return VaultAllocation{}, err
	}
	var err error
	if a.Allocation, err = dec("allocation", pct); err != nil {
		return VaultAllocation{}, err
	}
	if a.Value, err = dec("value", value); err != nil {
		return VaultAllocation{}, err
	}
	return a, nil
}

func (s *PGStore) Allocations(ctx context.Context) ([]VaultAllocation, error) {
	rows, err := s.db.Query(ctx, `select `+allocationCols+` from vault_allocations order by seq`)
	if err != nil {
		return nil, fmt.Errorf("query allocations: %w", err)
	}
	return pgx.CollectRows(rows, func(r pgx.CollectableRow) (VaultAllocation, error) { return scanAllocation(r) })
}

func insertTx(ctx context.Context, q pgx.Tx, t Transaction) error {
	_, err := q.Exec(ctx, `
		insert into transactions (id, kind, title, message, sender, amount, created_at)
		values ($1, $2, $3, $4, $5, $6::text::numeric, $7)`,
		t.ID, string(t.Kind), t.Title, t.Message, t.Sender, t.Amount.String(), t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (s *PGStore) SellAllocation(ctx context.Context, actor, id string) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		a, err := scanAllocation(tx.QueryRow(ctx, `select `+allocationCols+` from vault_allocations where id = $1 for update`, id))
		if err != nil {
			return notFound(err, "allocation", id)
		}
		t, err := sellRule(a, actor, s.now())
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `delete from vault_allocations where id = $1`, id); err != nil {
			return fmt.Errorf("delete allocation: %w", err)
		}
		return insertTx(ctx, tx, t)
	})
}

func (s *PGStore) BorrowAgainst(ctx context.Context, actor, id string) (Loan, error) {
	var loan Loan
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		a, err := scanAllocation(tx.QueryRow(ctx, `select `+allocationCols+` from vault_allocations where id = $1 for update`, id))
		if err != nil {
			return notFound(err, "allocation", id)
		}
		l, t, err := borrowRule(&a, actor, s.now())
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `update vault_allocations set pledged = true where id = $1`, id); err != nil {
			return fmt.Errorf("pledge allocation: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			insert into loans (id, allocation_id, property_name, amount, borrower, created_at)
			values ($1, $2, $3, $4::text::numeric, $5, $6)`,
			l.ID, l.AllocationID, l.PropertyName, l.Amount.String(), l.Borrower, l.CreatedAt); err != nil {
			return fmt.Errorf("insert loan: %w", err)
		}
		loan = l
		return insertTx(ctx, tx, t)
	})
	return loan, err
}

const strategyCols = `id, name, description, invested::text`

func scanStrategy(row pgx.Row) (Strategy, error) {
	var (
		st       Strategy
		invested string
	)
	if err := row.Scan(&st.ID, &st.Name, &st.Description, &invested); err != nil {
		return Strategy{}, err
	}
	var err error
	st.Invested, err = dec("invested", invested)
	return st, err
}

func (s *PGStore) Strategies(ctx context.Context) ([]Strategy, error) {
	rows, err := s.db.Query(ctx, `select `+strategyCols+` from strategies order by seq`)
	if err != nil {
		return nil, fmt.Errorf("query strategies: %w", err)
	}
	return pgx.CollectRows(rows, func(r pgx.CollectableRow) (Strategy, error) { return scanStrategy(r) })
}

func (s *PGStore) Invest(ctx context.Context, actor, id string, amount decimal.Decimal) error {
	return s.strategy(ctx, actor, id, TxInvest, amount)
}

func (s *PGStore) Withdraw(ctx context.Context, actor, id string, amount decimal.Decimal) error {
	return s.strategy(ctx, actor, id, TxWithdraw, amount)
}

func (s *PGStore) strategy(ctx context.Context, actor, id string, kind TxKind, amount decimal.Decimal) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		st, err := scanStrategy(tx.QueryRow(ctx, `select `+strategyCols+` from strategies where id = $1 for update`, id))
		if err != nil {
			return notFound(err, "strategy", id)
		}
		t, err := strategyRule(&st, kind, amount, actor, s.now())
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `update strategies set invested = $2::text::numeric where id = $1`, id, st.Invested.String()); err != nil {
			return fmt.Errorf("update strategy: %w", err)
		}
		return insertTx(ctx, tx, t)
	})
}

const poolCols = `id, name, description, supplied::text, borrowed::text`

func scanPool(row pgx.Row) (Pool, error) {
	var (
		p                  Pool
		supplied, borrowed string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &supplied, &borrowed); err != nil {
		return Pool{}, err
	}
	var err error
	if p.Supplied, err = dec("supplied", supplied); err != nil {
		return Pool{}, err
	}
	p.Borrowed, err = dec("borrowed", borrowed)
	return p, err
}

func (s *PGStore) Pools(ctx context.Context) ([]Pool, error) {
	rows, err := s.db.Query(ctx, `select `+poolCols+` from pools order by seq`)
	if err != nil {
		return nil, fmt.Errorf("query pools: %w", err)
	}
	return pgx.CollectRows(rows, func(r pgx.CollectableRow) (Pool, error) { return scanPool(r) })
}

func (s *PGStore) PoolAction(ctx context.Context, actor, id string, op PoolOp, amount decimal.Decimal) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		p, err := scanPool(tx.QueryRow(ctx, `select `+poolCols+` from pools where id = $1 for update`, id))
		if err != nil {
			return notFound(err, "pool", id)
		}
		t, err := poolRule(&p, op, amount, actor, s.now())
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			update pools set supplied = $2::text::numeric, borrowed = $3::text::numeric where id = $1`,
			id, p.Supplied.String(), p.Borrowed.String()); err != nil {
			return fmt.Errorf("update pool: %w", err)
		}
		return insertTx(ctx, tx, t)
	})
}

func (s *PGStore) Transactions(ctx context.Context) ([]Transaction, error) {
	rows, err := s.db.Query(ctx, `
		select id, kind, title, message, sender, amount::text, created_at
		from transactions
		order by created_at desc, id desc
		limit 500`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	return pgx.CollectRows(rows, func(r pgx.CollectableRow) (Transaction, error) {
		var (
			t      Transaction
			kind   string
			amount string
		)
		if err := r.Scan(&t.ID, &kind, &t.Title, &t.Message, &t.Sender, &amount, &t.CreatedAt); err != nil {
			return Transaction{}, err
		}
		t.Kind = TxKind(kind)
		var err error
		t.Amount, err = dec("amount", amount)
		return t, err
	})
}

func (s *PGStore) Loans(ctx context.Context) ([]Loan, error) {
	rows, err := s.db.Query(ctx, `
		select id, allocation_id, property_name, amount::text, borrower, created_at
		from loans
		order by created_at desc, id desc`)
	if err != nil {
		return nil, fmt.Errorf("query loans: %w", err)
	}
	return pgx.CollectRows(rows, func(r pgx.CollectableRow) (Loan, error) {
		var (
			l      Loan
			amount string
		)
		if err := r.Scan(&l.ID, &l.AllocationID, &l.PropertyName, &amount, &l.Borrower, &l.CreatedAt); err != nil {
			return Loan{}, err
		}
		var err error
		l.Amount, err = dec("amount", amount)
		return l, err
	})
}

func (s *PGStore) Purchase(ctx context.Context, actor, propertyID string) (VaultAllocation, error) {
	var out VaultAllocation
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		p, err := scanProperty(tx.QueryRow(ctx, `select `+propertyCols+` from properties where id = $1 for update`, propertyID))
		if err != nil {
			return notFound(err, "property", propertyID)
		}
		var held *VaultAllocation
		a, err := scanAllocation(tx.QueryRow(ctx,
			`select `+allocationCols+` from vault_allocations where property_id = $1 and not pledged order by seq limit 1 for update`, propertyID))
		switch {
		case err == nil:
			held = &a
		case !errors.Is(err, pgx.ErrNoRows):
			return fmt.Errorf("load allocation: %w", err)
		}

		next, t, err := purchaseRule(&p, held, actor, s.now())
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `update properties set available_lots = $2 where id = $1`, p.ID, p.AvailableLots); err != nil {
			return fmt.Errorf("update property: %w", err)
		}
		if err := upsertAllocation(ctx, tx, next); err != nil {
			return err
		}
		out = next
		return insertTx(ctx, tx, t)
	})
	return out, err
}

func upsertAllocation(ctx context.Context, tx pgx.Tx, a VaultAllocation) error {
	_, err := tx.Exec(ctx, `
		insert into vault_allocations (id, property_id, property_name, allocation, value, pledged)
		values ($1, $2, $3, $4::text::numeric, $5::text::numeric, $6)
		on conflict (id) do update set
			allocation = excluded.allocation,
			value = excluded.value,
			pledged = excluded.pledged`,
		a.ID, a.PropertyID, a.PropertyName, a.Allocation.String(), a.Value.String(), a.Pledged)
	if err != nil {
		return fmt.Errorf("upsert allocation: %w", err)
	}
	return nil
}

// Replace truncates every market table and loads seed in one transaction.
func (s *PGStore) Replace(ctx context.Context, seed *Seed) error {
	if err := seed.Validate(); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `truncate properties, vault_allocations, strategies, pools, transactions, loans`); err != nil {
			return fmt.Errorf("truncate: %w", err)
		}
		for _, p := range seed.Properties {
			if _, err := tx.Exec(ctx, `
				insert into properties (id, name, price, description, image_url, location, owner, date_listed, total_lots, available_lots, usage)
				values ($1, $2, $3::text::numeric, $4, $5, $6, $7, $8, $9, $10, $11)`,
				p.ID, p.Name, p.Price.String(), p.Description, p.ImageURL, p.Location, p.Owner,
				p.DateListed, p.TotalLots, p.AvailableLots, int16(p.Usage)); err != nil {
				return fmt.Errorf("insert property %q: %w", p.ID, err)
			}
		}
		for _, a := range seed.Allocations {
			if err := upsertAllocation(ctx, tx, a); err != nil {
				return err
			}
		}
		for _, st := range seed.Strategies {
			if _, err := tx.Exec(ctx, `insert into strategies (id, name, description, invested) values ($1, $2, $3, $4::text::numeric)`,
				st.ID, st.Name, st.Description, st.Invested.String()); err != nil {
				return fmt.Errorf("insert strategy %q: %w", st.ID, err)
			}
		}
		for _, p := range seed.Pools {
			if _, err := tx.Exec(ctx, `insert into pools (id, name, description, supplied, borrowed) values ($1, $2, $3, $4::text::numeric, $5::text::numeric)`,
				p.ID, p.Name, p.Description, p.Supplied.String(), p.Borrowed.String()); err != nil {
				return fmt.Errorf("insert pool %q: %w", p.ID, err)
			}
		}
		for _, t := range seed.Transactions {
			if err := insertTx(ctx, tx, t); err != nil {
				return err
			}
		}
		for _, l := range seed.Loans {
			if _, err := tx.Exec(ctx, `
				insert into loans (id, allocation_id, property_name, amount, borrower, created_at)
				values ($1, $2, $3, $4::text::numeric, $5, $6)`,
				l.ID, l.AllocationID, l.PropertyName, l.Amount.String(), l.Borrower, l.CreatedAt); err != nil {
				return fmt.Errorf("insert loan %q: %w", l.ID, err)
			}
		}
		return nil
	})
}

var _ Store = (*PGStore)(nil)
