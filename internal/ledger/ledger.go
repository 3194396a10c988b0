package ledger

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInsufficientFunds occurs when the source account lacks available balance
	// to cover a requested posting.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrDuplicateTransaction indicates the provided client transaction identifier
	// already exists and therefore the operation should be treated as idempotent.
	ErrDuplicateTransaction = errors.New("duplicate transaction")

	// ErrAccountNotFound is returned when a posting references an unknown account code.
	ErrAccountNotFound = errors.New("ledger account not found")

	// ErrInvalidAmount rejects zero or negative postings.
	ErrInvalidAmount = errors.New("amount must be positive")
)

const (
	// ExternalAccountCode is the clearing account on the other side of cash
	// deposits and withdrawals. It is the only account allowed to go negative.
	ExternalAccountCode = "external:clearing"

	KindDeposit    = "deposit"
	KindWithdrawal = "withdrawal"
)

// Posting describes a balanced movement of Amount won from one account code to another.
// Kind and ClientTxID together identify the posting for idempotency.
type Posting struct {
	From       string
	To         string
	Kind       string
	ClientTxID string
	Memo       string
	Amount     int64
}

// TransactionResult captures the outcome of a ledger posting.
type TransactionResult struct {
	TransactionID string
	FromBalance   int64
	ToBalance     int64
}

// Entry is one side of a posting as seen from a single account.
type Entry struct {
	TransactionID string    `json:"transactionId"`
	Kind          string    `json:"kind"`
	Counterparty  string    `json:"counterparty"`
	Amount        int64     `json:"amount"`
	BalanceAfter  int64     `json:"balanceAfter"`
	Memo          string    `json:"memo,omitempty"`
	PostedAt      time.Time `json:"postedAt"`
}

// Ledger defines the contract implemented by ledger backends (e.g. Postgres).
type Ledger interface {
	EnsureAccount(ctx context.Context, code string) error
	Balance(ctx context.Context, code string) (int64, error)
	Transfer(ctx context.Context, p Posting) (TransactionResult, error)
	Deposit(ctx context.Context, code, clientTxID, memo string, amount int64) (TransactionResult, error)
	Withdraw(ctx context.Context, code, clientTxID, memo string, amount int64) (TransactionResult, error)
	// History returns the entries of an account, newest first.
	History(ctx context.Context, code string) ([]Entry, error)
}

func depositPosting(code, clientTxID, memo string, amount int64) Posting {
	return Posting{From: ExternalAccountCode, To: code, Kind: KindDeposit, ClientTxID: clientTxID, Memo: memo, Amount: amount}
}

func withdrawalPosting(code, clientTxID, memo string, amount int64) Posting {
	return Posting{From: code, To: ExternalAccountCode, Kind: KindWithdrawal, ClientTxID: clientTxID, Memo: memo, Amount: amount}
}
