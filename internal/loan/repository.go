package loan

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// InvitationFilter narrows invitation listings; empty fields match everything.
type InvitationFilter struct {
	ApplicationID string
	InviterID     string
}

// Repository persists loan products, applications, invitations, contracts and schedules.
type Repository interface {
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id string) (Product, error)
	// SaveApplication inserts or replaces an application.
	SaveApplication(ctx context.Context, app Application) error
	GetApplication(ctx context.Context, id string) (Application, error)
	ApplicationsByUser(ctx context.Context, userID string) ([]Application, error)
	// SaveInvitation inserts or replaces an invitation.
	SaveInvitation(ctx context.Context, inv Invitation) error
	GetInvitation(ctx context.Context, id string) (Invitation, error)
	Invitations(ctx context.Context, filter InvitationFilter) ([]Invitation, error)
	CreateContract(ctx context.Context, c Contract) error
	GetContract(ctx context.Context, id string) (Contract, error)
	// Contracts lists contracts; empty userID or status match everything.
	Contracts(ctx context.Context, userID, status string) ([]Contract, error)
	SaveRepayments(ctx context.Context, repayments []Repayment) error
	UpdateRepayment(ctx context.Context, rp Repayment) error
	Repayments(ctx context.Context, loanID string) ([]Repayment, error)
}

// PostgresRepository stores loan data in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const productColumns = `id, name, loan_type, interest_rate, max_amount, max_term_months, repay_type, joint, COALESCE(description, ''),
	COALESCE(target_type, '일반'), COALESCE(max_income, 0), COALESCE(max_house_price, 0), COALESCE(max_assets, 0), COALESCE(max_area, 0)`

// ListProducts returns the catalogue.
func (r *PostgresRepository) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.db.Query(ctx, `SELECT `+productColumns+` FROM loan_products ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetProduct fetches one product.
func (r *PostgresRepository) GetProduct(ctx context.Context, id string) (Product, error) {
	rows, err := r.db.Query(ctx, `SELECT `+productColumns+` FROM loan_products WHERE id = $1`, id)
	if err != nil {
		return Product{}, err
	}
	p, err := pgx.CollectOneRow(rows, scanProduct)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrProductNotFound
	}
	return p, err
}

func scanProduct(row pgx.CollectableRow) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.LoanType, &p.InterestRate, &p.MaxAmount, &p.MaxTermMonths, &p.RepayType, &p.Joint, &p.Description,
		&p.TargetType, &p.MaxIncome, &p.MaxHousePrice, &p.MaxAssets, &p.MaxArea)
	return p, err
}

// SaveApplication upserts an application.
func (r *PostgresRepository) SaveApplication(ctx context.Context, app Application) error {
	id, err := uuid.Parse(app.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO loan_applications (id, user_id, product_id, request_amount, term_months, repay_type,
            disburse_account_id, disburse_date, joint, status, submitted_at, reviewed_at, reviewer_id, remarks)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
        ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, reviewed_at = EXCLUDED.reviewed_at,
            reviewer_id = EXCLUDED.reviewer_id, remarks = EXCLUDED.remarks`,
		id, app.UserID, app.ProductID, app.RequestAmount, app.TermMonths, app.RepayType,
		app.DisburseAccountID, app.DisburseDate, app.Joint, app.Status, app.SubmittedAt, app.ReviewedAt, app.ReviewerID, app.Remarks)
	return err
}

const applicationColumns = `id, user_id, product_id, request_amount, term_months, repay_type, disburse_account_id,
        disburse_date, joint, status, submitted_at, reviewed_at, COALESCE(reviewer_id, ''), COALESCE(remarks, '')`

func scanApplication(row pgx.CollectableRow) (Application, error) {
	var (
		app Application
		id  uuid.UUID
	)
	err := row.Scan(&id, &app.UserID, &app.ProductID, &app.RequestAmount, &app.TermMonths, &app.RepayType, &app.DisburseAccountID,
		&app.DisburseDate, &app.Joint, &app.Status, &app.SubmittedAt, &app.ReviewedAt, &app.ReviewerID, &app.Remarks)
	app.ID = id.String()
	return app, err
}

// GetApplication fetches an application.
func (r *PostgresRepository) GetApplication(ctx context.Context, id string) (Application, error) {
	appID, err := uuid.Parse(id)
	if err != nil {
		return Application{}, ErrApplicationNotFound
	}
	rows, err := r.db.Query(ctx, `SELECT `+applicationColumns+` FROM loan_applications WHERE id = $1`, appID)
	if err != nil {
		return Application{}, err
	}
	app, err := pgx.CollectOneRow(rows, scanApplication)
	if errors.Is(err, pgx.ErrNoRows) {
		return Application{}, ErrApplicationNotFound
	}
	return app, err
}

// ApplicationsByUser lists a user's applications, newest first.
func (r *PostgresRepository) ApplicationsByUser(ctx context.Context, userID string) ([]Application, error) {
	rows, err := r.db.Query(ctx, `SELECT `+applicationColumns+` FROM loan_applications WHERE user_id = $1 ORDER BY submitted_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanApplication)
}

// SaveInvitation upserts an invitation.
func (r *PostgresRepository) SaveInvitation(ctx context.Context, inv Invitation) error {
	id, err := uuid.Parse(inv.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO loan_invitations (id, application_id, inviter_id, invitee_id, joint_name, joint_phone,
            status, created_at, responded_at)
        VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9)
        ON CONFLICT (id) DO UPDATE SET invitee_id = EXCLUDED.invitee_id, status = EXCLUDED.status,
            responded_at = EXCLUDED.responded_at`,
		id, inv.ApplicationID, inv.InviterID, inv.InviteeID, inv.JointName, inv.JointPhone, inv.Status, inv.CreatedAt, inv.RespondedAt)
	return err
}

const invitationColumns = `id, application_id, inviter_id, COALESCE(invitee_id, ''), COALESCE(joint_name, ''),
        COALESCE(joint_phone, ''), status, created_at, responded_at`

func scanInvitation(row pgx.CollectableRow) (Invitation, error) {
	var (
		inv Invitation
		id  uuid.UUID
	)
	err := row.Scan(&id, &inv.ApplicationID, &inv.InviterID, &inv.InviteeID, &inv.JointName, &inv.JointPhone,
		&inv.Status, &inv.CreatedAt, &inv.RespondedAt)
	inv.ID = id.String()
	return inv, err
}

// GetInvitation fetches an invitation.
func (r *PostgresRepository) GetInvitation(ctx context.Context, id string) (Invitation, error) {
	inviteID, err := uuid.Parse(id)
	if err != nil {
		return Invitation{}, ErrInvitationNotFound
	}
	rows, err := r.db.Query(ctx, `SELECT `+invitationColumns+` FROM loan_invitations WHERE id = $1`, inviteID)
	if err != nil {
		return Invitation{}, err
	}
	inv, err := pgx.CollectOneRow(rows, scanInvitation)
	if errors.Is(err, pgx.ErrNoRows) {
		return Invitation{}, ErrInvitationNotFound
	}
	return inv, err
}

// Invitations lists invitations, newest first.
func (r *PostgresRepository) Invitations(ctx context.Context, filter InvitationFilter) ([]Invitation, error) {
	rows, err := r.db.Query(ctx, `SELECT `+invitationColumns+` FROM loan_invitations
        WHERE ($1 = '' OR application_id::text = $1) AND ($2 = '' OR inviter_id = $2)
        ORDER BY created_at DESC`, filter.ApplicationID, filter.InviterID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanInvitation)
}

// CreateContract inserts a contract.
func (r *PostgresRepository) CreateContract(ctx context.Context, c Contract) error {
	id, err := uuid.Parse(c.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO loan_contracts (id, application_id, user_id, product_id, account_id, amount, rate,
            start_date, end_date, repay_type, disburse_account_id, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		id, c.ApplicationID, c.UserID, c.ProductID, c.AccountID, c.Amount, c.Rate,
		c.StartDate, c.EndDate, c.RepayType, c.DisburseAccountID, c.Status, c.CreatedAt)
	return err
}

const contractColumns = `id, application_id, user_id, product_id, account_id, amount, rate, start_date, end_date,
        repay_type, disburse_account_id, status, created_at`

func scanContract(row pgx.CollectableRow) (Contract, error) {
	var (
		c  Contract
		id uuid.UUID
	)
	err := row.Scan(&id, &c.ApplicationID, &c.UserID, &c.ProductID, &c.AccountID, &c.Amount, &c.Rate, &c.StartDate, &c.EndDate,
		&c.RepayType, &c.DisburseAccountID, &c.Status, &c.CreatedAt)
	c.ID = id.String()
	return c, err
}

// GetContract fetches a contract.
func (r *PostgresRepository) GetContract(ctx context.Context, id string) (Contract, error) {
	loanID, err := uuid.Parse(id)
	if err != nil {
		return Contract{}, ErrContractNotFound
	}
	rows, err := r.db.Query(ctx, `SELECT `+contractColumns+` FROM loan_contracts WHERE id = $1`, loanID)
	if err != nil {
		return Contract{}, err
	}
	c, err := pgx.CollectOneRow(rows, scanContract)
	if errors.Is(err, pgx.ErrNoRows) {
		return Contract{}, ErrContractNotFound
	}
	return c, err
}

// Contracts lists contracts by owner and status.
func (r *PostgresRepository) Contracts(ctx context.Context, userID, status string) ([]Contract, error) {
	rows, err := r.db.Query(ctx, `SELECT `+contractColumns+` FROM loan_contracts
        WHERE ($1 = '' OR user_id = $1) AND ($2 = '' OR status = $2)
        ORDER BY created_at`, userID, status)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanContract)
}

// SaveRepayments inserts schedule rows in one batch.
func (r *PostgresRepository) SaveRepayments(ctx context.Context, repayments []Repayment) error {
	batch := &pgx.Batch{}
	for _, rp := range repayments {
		id, err := uuid.Parse(rp.ID)
		if err != nil {
			return err
		}
		batch.Queue(`INSERT INTO loan_repayments (id, loan_id, due_date, principal, interest, total, status, paid_date)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			id, rp.LoanID, rp.DueDate, rp.Principal, rp.Interest, rp.Total, rp.Status, rp.PaidDate)
	}
	return r.db.SendBatch(ctx, batch).Close()
}

// UpdateRepayment persists a repayment's status and paid date.
func (r *PostgresRepository) UpdateRepayment(ctx context.Context, rp Repayment) error {
	id, err := uuid.Parse(rp.ID)
	if err != nil {
		return ErrRepaymentNotFound
	}
	tag, err := r.db.Exec(ctx, `UPDATE loan_repayments SET status = $2, paid_date = $3 WHERE id = $1`, id, rp.Status, rp.PaidDate)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRepaymentNotFound
	}
	return nil
}

// Repayments lists a contract's schedule by due date.
func (r *PostgresRepository) Repayments(ctx context.Context, loanID string) ([]Repayment, error) {
	rows, err := r.db.Query(ctx, `SELECT id, loan_id, due_date, principal, interest, total, status, paid_date
        FROM loan_repayments WHERE loan_id = $1 ORDER BY due_date`, loanID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Repayment, error) {
		var (
			rp Repayment
			id uuid.UUID
		)
		err := row.Scan(&id, &rp.LoanID, &rp.DueDate, &rp.Principal, &rp.Interest, &rp.Total, &rp.Status, &rp.PaidDate)
		rp.ID = id.String()
		return rp, err
	})
}
