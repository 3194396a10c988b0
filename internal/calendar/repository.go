package calendar

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists calendar events. Lists are ordered by event date.
type Repository interface {
	Create(ctx context.Context, events ...Event) error
	Get(ctx context.Context, id string) (Event, error)
	Update(ctx context.Context, e Event) error
	Delete(ctx context.Context, id string) error
	ByUser(ctx context.Context, userID string) ([]Event, error)
	// ByRange includes both bounds.
	ByRange(ctx context.Context, userID string, from, to time.Time) ([]Event, error)
	TitleExists(ctx context.Context, userID, title string) (bool, error)
	// RelatedExisting returns the subset of relatedIDs already linked to userID's events.
	RelatedExisting(ctx context.Context, userID string, relatedIDs []string) ([]string, error)
	DeleteByTitle(ctx context.Context, userID, title string) (int, error)
}

// PostgresRepository stores events in the calendar_events table.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a PostgreSQL-backed event store.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const eventColumns = `id, user_id, event_date, transaction_type, event_type, title, description, amount,
        status, COALESCE(related_id, ''), created_at, updated_at`

// Create inserts events in one batch.
func (r *PostgresRepository) Create(ctx context.Context, events ...Event) error {
	batch := &pgx.Batch{}
	for _, e := range events {
		id, err := uuid.Parse(e.ID)
		if err != nil {
			return err
		}
		batch.Queue(`INSERT INTO calendar_events (id, user_id, event_date, transaction_type, event_type, title,
                description, amount, status, related_id, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''), $11, $12)`,
			id, e.UserID, e.EventDate, e.TransactionType, e.EventType, e.Title,
			e.Description, e.Amount, e.Status, e.RelatedID, e.CreatedAt, e.UpdatedAt)
	}
	return r.db.SendBatch(ctx, batch).Close()
}

// Get fetches one event.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Event, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return Event{}, ErrEventNotFound
	}
	e, err := scanEvent(r.db.QueryRow(ctx, `SELECT `+eventColumns+` FROM calendar_events WHERE id = $1`, uid))
	if errors.Is(err, pgx.ErrNoRows) {
		return Event{}, ErrEventNotFound
	}
	return e, err
}

// Update stores the editable fields.
func (r *PostgresRepository) Update(ctx context.Context, e Event) error {
	uid, err := uuid.Parse(e.ID)
	if err != nil {
		return ErrEventNotFound
	}
	tag, err := r.db.Exec(ctx, `UPDATE calendar_events
        SET title = $2, description = $3, amount = $4, status = $5, updated_at = $6
        WHERE id = $1`, uid, e.Title, e.Description, e.Amount, e.Status, e.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEventNotFound
	}
	return nil
}

// Delete removes one event.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return ErrEventNotFound
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM calendar_events WHERE id = $1`, uid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEventNotFound
	}
	return nil
}

// ByUser lists every event of a user.
func (r *PostgresRepository) ByUser(ctx context.Context, userID string) ([]Event, error) {
	return r.query(ctx, `SELECT `+eventColumns+` FROM calendar_events
        WHERE user_id = $1 ORDER BY event_date, created_at`, userID)
}

// ByRange lists a user's events between from and to.
func (r *PostgresRepository) ByRange(ctx context.Context, userID string, from, to time.Time) ([]Event, error) {
	return r.query(ctx, `SELECT `+eventColumns+` FROM calendar_events
        WHERE user_id = $1 AND event_date BETWEEN $2 AND $3 ORDER BY event_date, created_at`, userID, from, to)
}

// TitleExists reports whether the user already has an event titled title.
func (r *PostgresRepository) TitleExists(ctx context.Context, userID, title string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM calendar_events WHERE user_id = $1 AND title = $2)`,
		userID, title).Scan(&exists)
	return exists, err
}

// RelatedExisting returns the related ids already registered.
func (r *PostgresRepository) RelatedExisting(ctx context.Context, userID string, relatedIDs []string) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT related_id FROM calendar_events
        WHERE user_id = $1 AND related_id = ANY($2)`, userID, relatedIDs)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// DeleteByTitle removes every event of the user with the given title.
func (r *PostgresRepository) DeleteByTitle(ctx context.Context, userID, title string) (int, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM calendar_events WHERE user_id = $1 AND title = $2`, userID, title)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *PostgresRepository) query(ctx context.Context, sql string, args ...any) ([]Event, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEvent(row pgx.Row) (Event, error) {
	var (
		e  Event
		id uuid.UUID
	)
	err := row.Scan(&id, &e.UserID, &e.EventDate, &e.TransactionType, &e.EventType, &e.Title, &e.Description,
		&e.Amount, &e.Status, &e.RelatedID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return Event{}, err
	}
	e.ID = id.String()
	return e, nil
}
