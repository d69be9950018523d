package market

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// The rules below are shared by every Store driver. Drivers load the record,
// apply the rule and persist the result together with the transaction row.

func newTx(kind TxKind, title, msg, sender string, amount decimal.Decimal, now time.Time) Transaction {
	return Transaction{
		ID:        uuid.NewString(),
		Kind:      kind,
		Title:     title,
		Message:   msg,
		Sender:    sender,
		Amount:    amount,
		CreatedAt: now.UTC(),
	}
}

func sellRule(a VaultAllocation, actor string, now time.Time) (Transaction, error) {
	if a.Pledged {
		return Transaction{}, fmt.Errorf("%w: allocation %s is pledged against a loan", ErrConflict, a.ID)
	}
	msg := fmt.Sprintf("Sold %s%% of %s", a.Allocation.String(), a.PropertyName)
	return newTx(TxSell, "Sell", msg, actor, a.Value, now), nil
}

func borrowRule(a *VaultAllocation, actor string, now time.Time) (Loan, Transaction, error) {
	if a.Pledged {
		return Loan{}, Transaction{}, fmt.Errorf("%w: allocation %s already backs a loan", ErrConflict, a.ID)
	}
	amount := a.Value.Mul(BorrowRatio).Round(2)
	a.Pledged = true
	loan := Loan{
		ID:           uuid.NewString(),
		AllocationID: a.ID,
		PropertyName: a.PropertyName,
		Amount:       amount,
		Borrower:     actor,
		CreatedAt:    now.UTC(),
	}
	msg := fmt.Sprintf("Borrowed against %s", a.PropertyName)
	return loan, newTx(TxBorrow, "Borrow", msg, actor, amount, now), nil
}

func strategyRule(s *Strategy, kind TxKind, amount decimal.Decimal, actor string, now time.Time) (Transaction, error) {
	if !amount.IsPositive() {
		return Transaction{}, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	switch kind {
	case TxInvest:
		s.Invested = s.Invested.Add(amount)
		return newTx(kind, "Invest", "Invested in "+s.Name, actor, amount, now), nil
	case TxWithdraw:
		if amount.GreaterThan(s.Invested) {
			return Transaction{}, fmt.Errorf("%w: only %s invested in %s", ErrConflict, s.Invested.StringFixed(2), s.Name)
		}
		s.Invested = s.Invested.Sub(amount)
		return newTx(kind, "Withdraw", "Withdrew from "+s.Name, actor, amount, now), nil
	default:
		return Transaction{}, fmt.Errorf("%w: strategy action %q", ErrInvalidInput, kind)
	}
}

func poolRule(p *Pool, op PoolOp, amount decimal.Decimal, actor string, now time.Time) (Transaction, error) {
	if !amount.IsPositive() {
		return Transaction{}, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	var kind TxKind
	switch op {
	case PoolLend:
		p.Supplied = p.Supplied.Add(amount)
		kind = TxLend
	case PoolBorrow:
		if amount.GreaterThan(p.Available()) {
			return Transaction{}, fmt.Errorf("%w: pool %s has %s available", ErrConflict, p.Name, p.Available().StringFixed(2))
		}
		p.Borrowed = p.Borrowed.Add(amount)
		kind = TxBorrow
	case PoolWithdraw:
		if amount.GreaterThan(p.Available()) {
			return Transaction{}, fmt.Errorf("%w: pool %s has %s available", ErrConflict, p.Name, p.Available().StringFixed(2))
		}
		p.Supplied = p.Supplied.Sub(amount)
		kind = TxWithdraw
	case PoolRepay:
		if amount.GreaterThan(p.Borrowed) {
			return Transaction{}, fmt.Errorf("%w: only %s borrowed from %s", ErrConflict, p.Borrowed.StringFixed(2), p.Name)
		}
		p.Borrowed = p.Borrowed.Sub(amount)
		kind = TxRepay
	default:
		return Transaction{}, fmt.Errorf("%w: pool action %q", ErrInvalidInput, op)
	}
	return newTx(kind, op.Title(), fmt.Sprintf("%s %s pool", op.Title(), p.Name), actor, amount, now), nil
}

// purchaseRule takes one lot of p. When the buyer already holds an unpledged
// allocation in p it is grown, otherwise a new one is returned. A pledged
// allocation keeps the value its loan was sized on.
func purchaseRule(p *Property, held *VaultAllocation, actor string, now time.Time) (VaultAllocation, Transaction, error) {
	if p.AvailableLots <= 0 {
		return VaultAllocation{}, Transaction{}, fmt.Errorf("%w: %s", ErrSoldOut, p.Name)
	}
	p.AvailableLots--

	var a VaultAllocation
	if held != nil && !held.Pledged {
		a = *held
	} else {
		a = VaultAllocation{ID: uuid.NewString(), PropertyID: p.ID, PropertyName: p.Name}
	}
	a.Allocation = a.Allocation.Add(p.LotShare())
	a.Value = a.Value.Add(p.Price)

	msg := fmt.Sprintf("Bought one lot of %s", p.Name)
	return a, newTx(TxPurchase, "Purchase", msg, actor, p.Price, now), nil
}
