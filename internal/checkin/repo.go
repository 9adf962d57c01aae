package checkin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Repository persists events and check-in records in Postgres. The
// checkin_records table carries UNIQUE (event_id, user_id); that
// constraint, not application logic, is what makes duplicates impossible
// across server processes.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// GetEvent loads an event's date and raw TIME bounds.
func (r *Repository) GetEvent(ctx context.Context, eventID string) (Event, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT event_id, to_char(event_date, 'YYYY-MM-DD'), start_time::text, end_time::text
		FROM events WHERE event_id = $1
	`, eventID)
	var evt Event
	if err := row.Scan(&evt.EventID, &evt.Date, &evt.StartTime, &evt.EndTime); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Event{}, ErrEventNotFound
		}
		return Event{}, err
	}
	return evt, nil
}

// InsertRecord performs the conditional insert. ON CONFLICT DO NOTHING
// makes it insert-if-absent at the store: when the key already exists no
// row comes back and the caller lost the race.
func (r *Repository) InsertRecord(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO checkin_records (id, event_id, user_id, method)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (event_id, user_id) DO NOTHING
		RETURNING check_time
	`, rec.ID, rec.EventID, rec.UserID, rec.Method)
	if err := row.Scan(&rec.CheckTime); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrAlreadyCheckedIn
		}
		return Record{}, err
	}
	return rec, nil
}

// ListRecords returns records with basic filters.
func (r *Repository) ListRecords(ctx context.Context, eventID, userID string, limit, offset int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT id, event_id, user_id, method, check_time FROM checkin_records`
	args := []any{}
	clauses := []string{}
	if eventID != "" {
		clauses = append(clauses, "event_id = $"+itoa(len(args)+1))
		args = append(args, eventID)
	}
	if userID != "" {
		clauses = append(clauses, "user_id = $"+itoa(len(args)+1))
		args = append(args, userID)
	}
	if len(clauses) > 0 {
		query += " WHERE " + joinClauses(clauses, " AND ")
	}
	query += " ORDER BY check_time DESC LIMIT $" + itoa(len(args)+1) + " OFFSET $" + itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.EventID, &rec.UserID, &rec.Method, &rec.CheckTime); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

// CountByEvent returns how many records an event has; the worker uses it
// to refresh cached per-event tallies.
func (r *Repository) CountByEvent(ctx context.Context, eventID string) (int, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM checkin_records WHERE event_id = $1
	`, eventID)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// UpsertEvent creates or updates an event's schedule. The scheduling
// collaborator owns events; this exists for seeding and tooling.
func (r *Repository) UpsertEvent(ctx context.Context, evt Event) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO events (event_id, event_date, start_time, end_time)
		VALUES ($1, $2::date, $3::time, $4::time)
		ON CONFLICT (event_id) DO UPDATE SET
			event_date = EXCLUDED.event_date,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time
	`, evt.EventID, evt.Date, evt.StartTime, evt.EndTime)
	return err
}

func itoa(i int) string { return fmt.Sprintf("%d", i) }

func joinClauses(parts []string, sep string) string {
	if len(parts) == 0 {
		return ""
	}
	out := parts[0]
	for i := 1; i < len(parts); i++ {
		out += sep + parts[i]
	}
	return out
}
