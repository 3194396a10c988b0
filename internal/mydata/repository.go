package mydata

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrProfileNotFound = errors.New("financial profile not found")
	ErrLoanNotFound    = errors.New("loan not found")
)

// Repository persists profiles and external loans.
type Repository interface {
	GetProfile(ctx context.Context, userID string) (Profile, error)
	UpsertProfile(ctx context.Context, profile Profile) error
	ListLoans(ctx context.Context, userID string) ([]Loan, error)
	CreateLoan(ctx context.Context, loan Loan) error
	DeleteLoan(ctx context.Context, userID, loanID string) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed mydata repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetProfile(ctx context.Context, userID string) (Profile, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return Profile{}, ErrProfileNotFound
	}
	var p Profile
	err = r.db.QueryRow(ctx, `SELECT annual_income, credit_grade, housing_status, region, updated_at
        FROM financial_profiles WHERE user_id = $1`, uid).Scan(&p.AnnualIncome, &p.CreditGrade, &p.HousingStatus, &p.Region, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrProfileNotFound
		}
		return Profile{}, err
	}
	p.UserID = userID
	return p, nil
}

func (r *PostgresRepository) UpsertProfile(ctx context.Context, p Profile) error {
	uid, err := uuid.Parse(p.UserID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO financial_profiles (user_id, annual_income, credit_grade, housing_status, region, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (user_id) DO UPDATE SET annual_income = EXCLUDED.annual_income, credit_grade = EXCLUDED.credit_grade,
            housing_status = EXCLUDED.housing_status, region = EXCLUDED.region, updated_at = EXCLUDED.updated_at`,
		uid, p.AnnualIncome, p.CreditGrade, p.HousingStatus, p.Region, p.UpdatedAt.UTC())
	return err
}

func (r *PostgresRepository) ListLoans(ctx context.Context, userID string) ([]Loan, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return []Loan{}, nil
	}
	rows, err := r.db.Query(ctx, `SELECT id, loan_type, institution, balance, interest_rate, repay_method, maturity_date, mortgage, created_at
        FROM external_loans WHERE user_id = $1 ORDER BY created_at`, uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	loans := make([]Loan, 0)
	for rows.Next() {
		var (
			id   uuid.UUID
			loan Loan
		)
		if err := rows.Scan(&id, &loan.LoanType, &loan.Institution, &loan.Balance, &loan.InterestRate, &loan.RepayMethod, &loan.MaturityDate, &loan.Mortgage, &loan.CreatedAt); err != nil {
			return nil, err
		}
		loan.ID = id.String()
		loan.UserID = userID
		loans = append(loans, loan)
	}
	return loans, rows.Err()
}

func (r *PostgresRepository) CreateLoan(ctx context.Context, loan Loan) error {
	id, err := uuid.Parse(loan.ID)
	if err != nil {
		return err
	}
	uid, err := uuid.Parse(loan.UserID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO external_loans (id, user_id, loan_type, institution, balance, interest_rate, repay_method, maturity_date, mortgage, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		id, uid, loan.LoanType, loan.Institution, loan.Balance, loan.InterestRate, loan.RepayMethod, loan.MaturityDate, loan.Mortgage, loan.CreatedAt.UTC())
	return err
}

func (r *PostgresRepository) DeleteLoan(ctx context.Context, userID, loanID string) error {
	id, err := uuid.Parse(loanID)
	if err != nil {
		return ErrLoanNotFound
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return ErrLoanNotFound
	}
	cmd, err := r.db.Exec(ctx, `DELETE FROM external_loans WHERE id = $1 AND user_id = $2`, id, uid)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrLoanNotFound
	}
	return nil
}

var _ Repository = (*PostgresRepository)(nil)
