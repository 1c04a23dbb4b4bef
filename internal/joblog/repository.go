package joblog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry is one persisted update-log row for a booking.
type Entry struct {
	ID        int64           `json:"id"`
	BookingID int64           `json:"booking_id"`
	ActorID   int64           `json:"actor_id"`
	Action    string          `json:"action"`
	Changes   json.RawMessage `json:"changes"`
	CreatedAt time.Time       `json:"created_at"`
}

// Repository persists the per-booking update log. Writes happen after
// the booking mutation commits; a lost log row is acceptable, a log row
// for a rolled-back change is not.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(ctx context.Context, bookingID, actorID int64, action string, entries any) error {
	changes, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO booking_logs (booking_id, actor_id, action, changes, created_at)
VALUES ($1, $2, $3, $4, NOW())
`
	_, err = r.db.Exec(ctx, q, bookingID, actorID, action, changes)
	return err
}

func (r *Repository) ListByBooking(ctx context.Context, bookingID int64) ([]Entry, error) {
	const q = `
SELECT id, booking_id, actor_id, action, changes, created_at
FROM booking_logs
WHERE booking_id = $1
ORDER BY created_at DESC, id DESC
`
	rows, err := r.db.Query(ctx, q, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.BookingID, &e.ActorID, &e.Action, &e.Changes, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
