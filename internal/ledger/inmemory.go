package ledger

import (
	"context"
	"sync"
	"time"
)

type inMemoryLedger struct {
	mu           sync.RWMutex
	balances     map[string]int64
	entries      map[string][]Entry
	transactions map[string]TransactionResult
	now          func() time.Time
}

// NewInMemory creates a concurrency-safe in-memory ledger useful for unit tests.
func NewInMemory() Ledger {
	return &inMemoryLedger{
		balances:     map[string]int64{ExternalAccountCode: 0},
		entries:      make(map[string][]Entry),
		transactions: make(map[string]TransactionResult),
		now:          time.Now,
	}
}

func (l *inMemoryLedger) EnsureAccount(_ context.Context, code string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.balances[code]; !exists {
		l.balances[code] = 0
	}
	return nil
}

func (l *inMemoryLedger) Balance(_ context.Context, code string) (int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	balance, exists := l.balances[code]
	if !exists {
		return 0, ErrAccountNotFound
	}
	return balance, nil
}

func (l *inMemoryLedger) Transfer(_ context.Context, p Posting) (TransactionResult, error) {
	if p.Amount <= 0 {
		return TransactionResult{}, ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	key := p.Kind + ":" + p.ClientTxID
	if res, exists := l.transactions[key]; exists {
		return res, ErrDuplicateTransaction
	}

	fromBalance, ok := l.balances[p.From]
	if !ok {
		return TransactionResult{}, ErrAccountNotFound
	}
	toBalance, ok := l.balances[p.To]
	if !ok {
		return TransactionResult{}, ErrAccountNotFound
	}

	if p.From != ExternalAccountCode && fromBalance < p.Amount {
		return TransactionResult{}, ErrInsufficientFunds
	}

	fromBalance -= p.Amount
	toBalance += p.Amount

	l.balances[p.From] = fromBalance
	l.balances[p.To] = toBalance

	postedAt := l.now()
	l.entries[p.From] = append(l.entries[p.From], Entry{
		TransactionID: key,
		Kind:          p.Kind,
		Counterparty:  p.To,
		Amount:        -p.Amount,
		BalanceAfter:  fromBalance,
		Memo:          p.Memo,
		PostedAt:      postedAt,
	})
	l.entries[p.To] = append(l.entries[p.To], Entry{
		TransactionID: key,
		Kind:          p.Kind,
		Counterparty:  p.From,
		Amount:        p.Amount,
		BalanceAfter:  toBalance,
		Memo:          p.Memo,
		PostedAt:      postedAt,
	})

	res := TransactionResult{
		TransactionID: key,
		FromBalance:   fromBalance,
		ToBalance:     toBalance,
	}

	l.transactions[key] = res
	return res, nil
}

func (l *inMemoryLedger) Deposit(ctx context.Context, code, clientTxID, memo string, amount int64) (TransactionResult, error) {
	return l.Transfer(ctx, depositPosting(code, clientTxID, memo, amount))
}

func (l *inMemoryLedger) Withdraw(ctx context.Context, code, clientTxID, memo string, amount int64) (TransactionResult, error) {
	return l.Transfer(ctx, withdrawalPosting(code, clientTxID, memo, amount))
}

func (l *inMemoryLedger) History(_ context.Context, code string) ([]Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if _, exists := l.balances[code]; !exists {
		return nil, ErrAccountNotFound
	}
	stored := l.entries[code]
	out := make([]Entry, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		out = append(out, stored[i])
	}
	return out, nil
}
