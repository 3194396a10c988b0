package account

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const uniqueViolation = "23505"

// Repository persists account metadata and participants.
type Repository interface {
	Create(ctx context.Context, acc Account) error
	Get(ctx context.Context, id string) (Account, error)
	GetByNumber(ctx context.Context, number string) (Account, error)
	// ListByUser returns accounts the user owns or participates in.
	ListByUser(ctx context.Context, userID string) ([]Account, error)
	ListByType(ctx context.Context, types ...string) ([]Account, error)
	AddParticipant(ctx context.Context, p Participant) error
	Participants(ctx context.Context, accountID string) ([]Participant, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

// PostgresRepository stores accounts in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const accountColumns = `id, user_id, COALESCE(product_id, ''), account_number, account_type, status, ledger_code, created_at`

// Create inserts an account record.
func (r *PostgresRepository) Create(ctx context.Context, acc Account) error {
	accountID, err := uuid.Parse(acc.ID)
	if err != nil {
		return err
	}
	userID, err := uuid.Parse(acc.UserID)
	if err != nil {
		return err
	}
	var productID *string
	if acc.ProductID != "" {
		productID = &acc.ProductID
	}
	_, err = r.db.Exec(ctx, `INSERT INTO accounts (id, user_id, product_id, account_number, account_type, status, ledger_code, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		accountID, userID, productID, acc.Number, acc.Type, acc.Status, acc.LedgerCode, acc.CreatedAt.UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateNumber
	}
	return err
}

// Get fetches an account by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Account, error) {
	accountID, err := uuid.Parse(id)
	if err != nil {
		return Account{}, ErrAccountNotFound
	}
	return scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, accountID))
}

// GetByNumber fetches an account by its display number.
func (r *PostgresRepository) GetByNumber(ctx context.Context, number string) (Account, error) {
	return scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE account_number = $1`, number))
}

// ListByUser returns owned and joined accounts.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]Account, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts
        WHERE user_id = $1
           OR id IN (SELECT account_id FROM account_participants WHERE user_id = $1)
        ORDER BY created_at, account_number`, uid)
	if err != nil {
		return nil, err
	}
	return collectAccounts(rows)
}

// ListByType returns every account of the given types.
func (r *PostgresRepository) ListByType(ctx context.Context, types ...string) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts
        WHERE account_type = ANY($1) ORDER BY created_at, account_number`, types)
	if err != nil {
		return nil, err
	}
	return collectAccounts(rows)
}

// AddParticipant links a user to an account.
func (r *PostgresRepository) AddParticipant(ctx context.Context, p Participant) error {
	accountID, err := uuid.Parse(p.AccountID)
	if err != nil {
		return ErrAccountNotFound
	}
	userID, err := uuid.Parse(p.UserID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO account_participants (account_id, user_id, role, contribution_rate, joined_at)
        VALUES ($1, $2, $3, $4, $5)`, accountID, userID, p.Role, p.ContributionRate, p.JoinedAt.UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrAlreadyParticipant
	}
	return err
}

// Participants lists the users linked to an account.
func (r *PostgresRepository) Participants(ctx context.Context, accountID string) ([]Participant, error) {
	aid, err := uuid.Parse(accountID)
	if err != nil {
		return nil, ErrAccountNotFound
	}
	rows, err := r.db.Query(ctx, `SELECT account_id, user_id, role, contribution_rate, joined_at
        FROM account_participants WHERE account_id = $1 ORDER BY joined_at`, aid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Participant
	for rows.Next() {
		var (
			p        Participant
			acc, usr uuid.UUID
			rate     decimal.NullDecimal
			joinedAt time.Time
		)
		if err := rows.Scan(&acc, &usr, &p.Role, &rate, &joinedAt); err != nil {
			return nil, err
		}
		p.AccountID = acc.String()
		p.UserID = usr.String()
		p.JoinedAt = joinedAt.UTC()
		if rate.Valid {
			v := rate.Decimal
			p.ContributionRate = &v
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanAccount(row pgx.Row) (Account, error) {
	var (
		acc       Account
		id, owner uuid.UUID
		createdAt time.Time
	)
	if err := row.Scan(&id, &owner, &acc.ProductID, &acc.Number, &acc.Type, &acc.Status, &acc.LedgerCode, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, err
	}
	acc.ID = id.String()
	acc.UserID = owner.String()
	acc.CreatedAt = createdAt.UTC()
	return acc, nil
}

func collectAccounts(rows pgx.Rows) ([]Account, error) {
	defer rows.Close()
	var out []Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, acc)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id, status string) error {
	accountID, err := uuid.Parse(id)
	if err != nil {
		return ErrAccountNotFound
	}
	tag, err := r.db.Exec(ctx, `UPDATE accounts SET status = $2 WHERE id = $1`, accountID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}
