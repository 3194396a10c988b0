package couple

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// Repository persists couple invites and couples.
type Repository interface {
	CreateInvite(ctx context.Context, inv Invite) error
	InviteByToken(ctx context.Context, token string) (Invite, error)
	UpdateInviteStatus(ctx context.Context, id, status string) error
	// PendingInvites lists an inviter's PENDING invites, newest first.
	PendingInvites(ctx context.Context, inviterID string) ([]Invite, error)
	// CreateCouple fails with ErrAlreadyCoupled when either user is in an ACTIVE couple.
	CreateCouple(ctx context.Context, c Couple) error
	ActiveCouple(ctx context.Context, userID string) (Couple, error)
}

// PostgresRepository stores couples in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a PostgreSQL-backed repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const inviteColumns = `id, inviter_id, token, status, created_at, expires_at`

// CreateInvite inserts an invite.
func (r *PostgresRepository) CreateInvite(ctx context.Context, inv Invite) error {
	id, err := uuid.Parse(inv.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO couple_invites (`+inviteColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, inv.InviterID, inv.Token, inv.Status, inv.CreatedAt, inv.ExpiresAt)
	return err
}

// InviteByToken looks an invite up by its token.
func (r *PostgresRepository) InviteByToken(ctx context.Context, token string) (Invite, error) {
	inv, err := scanInvite(r.db.QueryRow(ctx, `SELECT `+inviteColumns+` FROM couple_invites WHERE token = $1`, token))
	if errors.Is(err, pgx.ErrNoRows) {
		return Invite{}, ErrInviteNotFound
	}
	return inv, err
}

// UpdateInviteStatus moves an invite to status.
func (r *PostgresRepository) UpdateInviteStatus(ctx context.Context, id, status string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return ErrInviteNotFound
	}
	tag, err := r.db.Exec(ctx, `UPDATE couple_invites SET status = $2 WHERE id = $1`, uid, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInviteNotFound
	}
	return nil
}

// PendingInvites lists the inviter's open invites.
func (r *PostgresRepository) PendingInvites(ctx context.Context, inviterID string) ([]Invite, error) {
	rows, err := r.db.Query(ctx, `SELECT `+inviteColumns+` FROM couple_invites
        WHERE inviter_id = $1 AND status = 'PENDING' ORDER BY created_at DESC`, inviterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Invite
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func scanInvite(row pgx.Row) (Invite, error) {
	var (
		inv Invite
		id  uuid.UUID
	)
	if err := row.Scan(&id, &inv.InviterID, &inv.Token, &inv.Status, &inv.CreatedAt, &inv.ExpiresAt); err != nil {
		return Invite{}, err
	}
	inv.ID = id.String()
	return inv, nil
}

// CreateCouple inserts an ACTIVE couple unless either user already has one.
func (r *PostgresRepository) CreateCouple(ctx context.Context, c Couple) error {
	id, err := uuid.Parse(c.ID)
	if err != nil {
		return err
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (
            SELECT 1 FROM couples WHERE status = 'ACTIVE'
               AND (user_id1 IN ($1, $2) OR user_id2 IN ($1, $2)))`, c.UserID1, c.UserID2).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrAlreadyCoupled
	}
	_, err = tx.Exec(ctx, `INSERT INTO couples (id, user_id1, user_id2, status, created_at) VALUES ($1, $2, $3, $4, $5)`,
		id, c.UserID1, c.UserID2, c.Status, c.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrAlreadyCoupled
		}
		return err
	}
	return tx.Commit(ctx)
}

// ActiveCouple returns the user's ACTIVE couple.
func (r *PostgresRepository) ActiveCouple(ctx context.Context, userID string) (Couple, error) {
	var (
		c  Couple
		id uuid.UUID
	)
	err := r.db.QueryRow(ctx, `SELECT id, user_id1, user_id2, status, created_at FROM couples
        WHERE status = 'ACTIVE' AND (user_id1 = $1 OR user_id2 = $1)
        ORDER BY created_at DESC LIMIT 1`, userID).Scan(&id, &c.UserID1, &c.UserID2, &c.Status, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Couple{}, ErrNoCouple
	}
	if err != nil {
		return Couple{}, err
	}
	c.ID = id.String()
	return c, nil
}
