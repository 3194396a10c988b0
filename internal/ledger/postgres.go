package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const statusPosted = "posted"

const (
	lockAccountQuery   = `SELECT id FROM ledger_accounts WHERE code = $1 FOR UPDATE`
	accountSumQuery    = `SELECT COALESCE(SUM(amount), 0) FROM ledger_entries WHERE account_id = $1`
	postedTxQuery      = `SELECT id FROM ledger_transactions WHERE client_tx_id = $1 AND kind = $2`
	insertTxStatement  = `INSERT INTO ledger_transactions (id, client_tx_id, kind, status, memo, created_at) VALUES ($1, $2, $3, $4, $5, $6)`
	insertEntryStmt    = `INSERT INTO ledger_entries (id, transaction_id, account_id, amount, balance_after, created_at) VALUES ($1, $2, $3, $4, $5, $6)`
	ensureAccountQuery = `INSERT INTO ledger_accounts (id, code) VALUES ($1, $2) ON CONFLICT (code) DO NOTHING`
)

const balanceByCodeQuery = `
        SELECT a.id, COALESCE(SUM(e.amount), 0)
        FROM ledger_accounts a
        LEFT JOIN ledger_entries e ON e.account_id = a.id
        WHERE a.code = $1
        GROUP BY a.id`

// PostgresLedger books postings into ledger_transactions and ledger_entries.
// Every posting writes exactly two entries whose amounts sum to zero.
type PostgresLedger struct {
	db *pgxpool.Pool
}

// NewPostgresLedger returns a ledger backed by db.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// EnsureAccount creates the ledger account for code when it is missing.
func (l *PostgresLedger) EnsureAccount(ctx context.Context, code string) error {
	_, err := l.db.Exec(ctx, ensureAccountQuery, uuid.New(), code)
	return err
}

// Balance sums every entry booked against code.
func (l *PostgresLedger) Balance(ctx context.Context, code string) (int64, error) {
	var (
		id      uuid.UUID
		balance int64
	)
	err := l.db.QueryRow(ctx, balanceByCodeQuery, code).Scan(&id, &balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("account %s: %w", code, ErrAccountNotFound)
	}
	return balance, err
}

// side is one locked account taking part in a posting.
type side struct {
	id      uuid.UUID
	balance int64
}

// Transfer moves p.Amount from p.From to p.To in one transaction. Replaying a
// posting with the same kind and client id returns the original transaction
// together with ErrDuplicateTransaction.
func (l *PostgresLedger) Transfer(ctx context.Context, p Posting) (TransactionResult, error) {
	if p.Amount <= 0 {
		return TransactionResult{}, ErrInvalidAmount
	}

	var result TransactionResult
	var duplicate bool
	err := pgx.BeginTxFunc(ctx, l.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		from, to, err := lockPair(ctx, tx, p.From, p.To)
		if err != nil {
			return err
		}

		var existing uuid.UUID
		switch err := tx.QueryRow(ctx, postedTxQuery, p.ClientTxID, p.Kind).Scan(&existing); {
		case err == nil:
			duplicate = true
			result = TransactionResult{TransactionID: existing.String(), FromBalance: from.balance, ToBalance: to.balance}
			return nil
		case !errors.Is(err, pgx.ErrNoRows):
			return err
		}

		if p.From != ExternalAccountCode && from.balance < p.Amount {
			return ErrInsufficientFunds
		}

		txID := uuid.New()
		postedAt := time.Now().UTC()
		batch := &pgx.Batch{}
		batch.Queue(insertTxStatement, txID, p.ClientTxID, p.Kind, statusPosted, p.Memo, postedAt)
		batch.Queue(insertEntryStmt, uuid.New(), txID, from.id, -p.Amount, from.balance-p.Amount, postedAt)
		batch.Queue(insertEntryStmt, uuid.New(), txID, to.id, p.Amount, to.balance+p.Amount, postedAt)
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("book posting: %w", err)
		}

		result = TransactionResult{TransactionID: txID.String(), FromBalance: from.balance - p.Amount, ToBalance: to.balance + p.Amount}
		return nil
	})
	if err != nil {
		return TransactionResult{}, err
	}
	if duplicate {
		return result, ErrDuplicateTransaction
	}
	return result, nil
}

// Deposit credits code from the external clearing account.
func (l *PostgresLedger) Deposit(ctx context.Context, code, clientTxID, memo string, amount int64) (TransactionResult, error) {
	if err := l.EnsureAccount(ctx, ExternalAccountCode); err != nil {
		return TransactionResult{}, err
	}
	return l.Transfer(ctx, depositPosting(code, clientTxID, memo, amount))
}

// Withdraw debits code into the external clearing account.
func (l *PostgresLedger) Withdraw(ctx context.Context, code, clientTxID, memo string, amount int64) (TransactionResult, error) {
	if err := l.EnsureAccount(ctx, ExternalAccountCode); err != nil {
		return TransactionResult{}, err
	}
	return l.Transfer(ctx, withdrawalPosting(code, clientTxID, memo, amount))
}

// History lists the entries booked against code, newest first.
func (l *PostgresLedger) History(ctx context.Context, code string) ([]Entry, error) {
	const query = `
        SELECT t.id, t.kind, COALESCE(other.code, ''), e.amount, e.balance_after, t.memo, e.created_at
        FROM ledger_entries e
        JOIN ledger_accounts a ON a.id = e.account_id
        JOIN ledger_transactions t ON t.id = e.transaction_id
        LEFT JOIN ledger_entries oe ON oe.transaction_id = e.transaction_id AND oe.id <> e.id
        LEFT JOIN ledger_accounts other ON other.id = oe.account_id
        WHERE a.code = $1
        ORDER BY e.created_at DESC, e.id DESC`

	rows, err := l.db.Query(ctx, query, code)
	if err != nil {
		return nil, err
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entry, error) {
		var (
			entry Entry
			txID  uuid.UUID
		)
		err := row.Scan(&txID, &entry.Kind, &entry.Counterparty, &entry.Amount, &entry.BalanceAfter, &entry.Memo, &entry.PostedAt)
		entry.TransactionID = txID.String()
		return entry, err
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// lockPair takes row locks on both accounts in code order so two opposite
// transfers cannot deadlock, then reads their balances.
func lockPair(ctx context.Context, tx pgx.Tx, fromCode, toCode string) (side, side, error) {
	codes := [2]string{fromCode, toCode}
	if toCode < fromCode {
		codes[0], codes[1] = toCode, fromCode
	}
	locked := make(map[string]side, 2)
	for _, code := range codes {
		var s side
		if err := tx.QueryRow(ctx, lockAccountQuery, code).Scan(&s.id); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return side{}, side{}, fmt.Errorf("account %s: %w", code, ErrAccountNotFound)
			}
			return side{}, side{}, err
		}
		if err := tx.QueryRow(ctx, accountSumQuery, s.id).Scan(&s.balance); err != nil {
			return side{}, side{}, err
		}
		locked[code] = s
	}
	return locked[fromCode], locked[toCode], nil
}
