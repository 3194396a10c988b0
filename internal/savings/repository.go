package savings

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// Repository persists the product catalogue, subscriptions and payment schedules.
type Repository interface {
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id string) (Product, error)
	CreateSavings(ctx context.Context, s UserSavings) error
	SavingsByUser(ctx context.Context, userID string) ([]UserSavings, error)
	SavingsByAccount(ctx context.Context, accountID string) ([]UserSavings, error)
	SavePayments(ctx context.Context, payments []Payment) error
	UpdatePayment(ctx context.Context, p Payment) error
	// Payments lists an account's schedule by due date; an empty userID means every participant.
	Payments(ctx context.Context, accountID, userID string) ([]Payment, error)
}

// PostgresRepository stores savings data in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const productColumns = `id, name, product_type, payment_method, compound_interest, tax_preference,
        payment_delay_months, early_withdraw_penalty_rate, base_interest_rate, preferential_interest_rate,
        term_months, min_deposit_amount, max_deposit_amount, interest_payment_method, status`

// ListProducts returns the active catalogue.
func (r *PostgresRepository) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.db.Query(ctx, `SELECT `+productColumns+` FROM savings_products WHERE status = 'ACTIVE' ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetProduct fetches a product by id.
func (r *PostgresRepository) GetProduct(ctx context.Context, id string) (Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM savings_products WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrProductNotFound
	}
	return p, err
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Type, &p.PaymentMethod, &p.CompoundInterest, &p.TaxPreference,
		&p.PaymentDelayMonths, &p.EarlyWithdrawPenaltyRate, &p.BaseInterestRate, &p.PreferentialInterestRate,
		&p.TermMonths, &p.MinDepositAmount, &p.MaxDepositAmount, &p.InterestPaymentMethod, &p.Status)
	return p, err
}

// CreateSavings inserts a subscription.
func (r *PostgresRepository) CreateSavings(ctx context.Context, s UserSavings) error {
	id, err := uuid.Parse(s.ID)
	if err != nil {
		return err
	}
	var autoDebit *string
	if s.AutoDebitAccount != "" {
		autoDebit = &s.AutoDebitAccount
	}
	_, err = r.db.Exec(ctx, `INSERT INTO user_savings (id, user_id, product_id, account_id, start_date, end_date,
        monthly_amount, status, auto_debit_account, auto_debit_day, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		id, s.UserID, s.ProductID, s.AccountID, s.StartDate, s.EndDate, s.MonthlyAmount, s.Status,
		autoDebit, s.AutoDebitDay, s.CreatedAt.UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrAlreadyJoined
	}
	return err
}

const savingsColumns = `id, user_id, product_id, account_id, start_date, end_date, monthly_amount, status,
        COALESCE(auto_debit_account, ''), auto_debit_day, created_at`

// SavingsByUser lists a user's subscriptions.
func (r *PostgresRepository) SavingsByUser(ctx context.Context, userID string) ([]UserSavings, error) {
	return r.querySavings(ctx, `SELECT `+savingsColumns+` FROM user_savings WHERE user_id = $1 ORDER BY created_at`, userID)
}

// SavingsByAccount lists every subscription on an account.
func (r *PostgresRepository) SavingsByAccount(ctx context.Context, accountID string) ([]UserSavings, error) {
	return r.querySavings(ctx, `SELECT `+savingsColumns+` FROM user_savings WHERE account_id = $1 ORDER BY created_at`, accountID)
}

func (r *PostgresRepository) querySavings(ctx context.Context, query string, arg string) ([]UserSavings, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []UserSavings
	for rows.Next() {
		var (
			s  UserSavings
			id uuid.UUID
		)
		if err := rows.Scan(&id, &s.UserID, &s.ProductID, &s.AccountID, &s.StartDate, &s.EndDate,
			&s.MonthlyAmount, &s.Status, &s.AutoDebitAccount, &s.AutoDebitDay, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.ID = id.String()
		out = append(out, s)
	}
	return out, rows.Err()
}

// SavePayments inserts schedule rows in one batch.
func (r *PostgresRepository) SavePayments(ctx context.Context, payments []Payment) error {
	batch := &pgx.Batch{}
	for _, p := range payments {
		id, err := uuid.Parse(p.ID)
		if err != nil {
			return err
		}
		batch.Queue(`INSERT INTO savings_payments (id, user_id, account_id, due_date, amount, status, paid_date)
            VALUES ($1, $2, $3, $4, $5, $6, $7)`, id, p.UserID, p.AccountID, p.DueDate, p.Amount, p.Status, p.PaidDate)
	}
	return r.db.SendBatch(ctx, batch).Close()
}

// UpdatePayment persists a payment's status and paid date.
func (r *PostgresRepository) UpdatePayment(ctx context.Context, p Payment) error {
	id, err := uuid.Parse(p.ID)
	if err != nil {
		return ErrPaymentNotFound
	}
	tag, err := r.db.Exec(ctx, `UPDATE savings_payments SET status = $2, paid_date = $3 WHERE id = $1`, id, p.Status, p.PaidDate)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

// Payments lists schedule rows by due date.
func (r *PostgresRepository) Payments(ctx context.Context, accountID, userID string) ([]Payment, error) {
	rows, err := r.db.Query(ctx, `SELECT id, user_id, account_id, due_date, amount, status, paid_date
        FROM savings_payments
        WHERE account_id = $1 AND ($2 = '' OR user_id = $2)
        ORDER BY due_date, user_id`, accountID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Payment
	for rows.Next() {
		var (
			p    Payment
			id   uuid.UUID
			paid *time.Time
		)
		if err := rows.Scan(&id, &p.UserID, &p.AccountID, &p.DueDate, &p.Amount, &p.Status, &paid); err != nil {
			return nil, err
		}
		p.ID = id.String()
		p.PaidDate = paid
		out = append(out, p)
	}
	return out, rows.Err()
}
