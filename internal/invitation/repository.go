package invitation

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists joint account invitations.
type Repository interface {
	Create(ctx context.Context, inv Invitation) error
	Get(ctx context.Context, id string) (Invitation, error)
	Update(ctx context.Context, inv Invitation) error
	// ByStatus and ByAccount return the newest invitations first.
	ByStatus(ctx context.Context, status string) ([]Invitation, error)
	ByAccount(ctx context.Context, accountID string) ([]Invitation, error)
}

// PostgresRepository stores invitations in the account_invitations table.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a PostgreSQL-backed repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const invitationColumns = `id, account_id, inviter_id, role, status, created_at, responded_at`

// Create inserts an invitation.
func (r *PostgresRepository) Create(ctx context.Context, inv Invitation) error {
	id, err := uuid.Parse(inv.ID)
	if err != nil {
		return err
	}
	accountID, err := uuid.Parse(inv.AccountID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
        INSERT INTO account_invitations (`+invitationColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, id, accountID, inv.InviterID, inv.Role, inv.Status, inv.CreatedAt, inv.RespondedAt)
	return err
}

// Get fetches an invitation by id.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Invitation, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return Invitation{}, ErrInvitationNotFound
	}
	inv, err := scanInvitation(r.db.QueryRow(ctx, `SELECT `+invitationColumns+` FROM account_invitations WHERE id = $1`, uid))
	if errors.Is(err, pgx.ErrNoRows) {
		return Invitation{}, ErrInvitationNotFound
	}
	return inv, err
}

// Update stores the status and response time.
func (r *PostgresRepository) Update(ctx context.Context, inv Invitation) error {
	id, err := uuid.Parse(inv.ID)
	if err != nil {
		return ErrInvitationNotFound
	}
	tag, err := r.db.Exec(ctx, `UPDATE account_invitations SET status = $2, responded_at = $3 WHERE id = $1`,
		id, inv.Status, inv.RespondedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvitationNotFound
	}
	return nil
}

// ByStatus lists invitations in a status.
func (r *PostgresRepository) ByStatus(ctx context.Context, status string) ([]Invitation, error) {
	return r.list(ctx, `SELECT `+invitationColumns+` FROM account_invitations WHERE status = $1 ORDER BY created_at DESC`, status)
}

// ByAccount lists an account's invitations.
func (r *PostgresRepository) ByAccount(ctx context.Context, accountID string) ([]Invitation, error) {
	uid, err := uuid.Parse(accountID)
	if err != nil {
		return nil, nil
	}
	return r.list(ctx, `SELECT `+invitationColumns+` FROM account_invitations WHERE account_id = $1 ORDER BY created_at DESC`, uid)
}

func (r *PostgresRepository) list(ctx context.Context, query string, arg any) ([]Invitation, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func scanInvitation(row pgx.Row) (Invitation, error) {
	var (
		inv       Invitation
		id        uuid.UUID
		accountID uuid.UUID
	)
	if err := row.Scan(&id, &accountID, &inv.InviterID, &inv.Role, &inv.Status, &inv.CreatedAt, &inv.RespondedAt); err != nil {
		return Invitation{}, err
	}
	inv.ID = id.String()
	inv.AccountID = accountID.String()
	return inv, nil
}
