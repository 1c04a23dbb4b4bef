package booking

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a booking, user or assignment does not
// exist.
var ErrNotFound = errors.New("not found")

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const bookingColumns = `
id, status, due, immediate, from_language_id, gender, certified, duration,
phone_type, physical_type, town, customer_id, user_email, reference,
admin_comments, session_time, job_type, specific_translator_id,
created_at, will_expire_at, end_at, customer_email_sent, admin_email_sent
`

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	if err := row.Scan(
		&b.ID, &b.Status, &b.Due, &b.Immediate, &b.LanguageID, &b.Gender, &b.Certified, &b.Duration,
		&b.PhoneType, &b.PhysicalType, &b.Town, &b.CustomerID, &b.UserEmail, &b.Reference,
		&b.AdminComments, &b.SessionTime, &b.JobType, &b.SpecificTranslatorID,
		&b.CreatedAt, &b.WillExpireAt, &b.EndAt, &b.CustomerEmailSent, &b.AdminEmailSent,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	return scanBooking(r.db.QueryRow(ctx, q, id))
}

// GetForUpdate locks the booking row for the duration of the transaction;
// every status mutation goes through it.
func GetForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 FOR UPDATE`
	return scanBooking(tx.QueryRow(ctx, q, id))
}

func (r *Repository) Insert(ctx context.Context, b *Booking) error {
	const q = `
INSERT INTO bookings (status, due, immediate, from_language_id, gender, certified, duration,
                      phone_type, physical_type, town, customer_id, user_email, reference,
                      admin_comments, session_time, job_type, specific_translator_id,
                      created_at, will_expire_at, end_at, customer_email_sent, admin_email_sent)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
RETURNING id
`
	return r.db.QueryRow(ctx, q,
		b.Status, b.Due, b.Immediate, b.LanguageID, b.Gender, b.Certified, b.Duration,
		b.PhoneType, b.PhysicalType, b.Town, b.CustomerID, b.UserEmail, b.Reference,
		b.AdminComments, b.SessionTime, b.JobType, b.SpecificTranslatorID,
		b.CreatedAt, b.WillExpireAt, b.EndAt, b.CustomerEmailSent, b.AdminEmailSent,
	).Scan(&b.ID)
}

// InsertTx inserts inside a transaction; used by the reopen
// archive-and-recreate path.
func InsertTx(ctx context.Context, tx pgx.Tx, b *Booking) error {
	const q = `
INSERT INTO bookings (status, due, immediate, from_language_id, gender, certified, duration,
                      phone_type, physical_type, town, customer_id, user_email, reference,
                      admin_comments, session_time, job_type, specific_translator_id,
                      created_at, will_expire_at, end_at, customer_email_sent, admin_email_sent)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
RETURNING id
`
	return tx.QueryRow(ctx, q,
		b.Status, b.Due, b.Immediate, b.LanguageID, b.Gender, b.Certified, b.Duration,
		b.PhoneType, b.PhysicalType, b.Town, b.CustomerID, b.UserEmail, b.Reference,
		b.AdminComments, b.SessionTime, b.JobType, b.SpecificTranslatorID,
		b.CreatedAt, b.WillExpireAt, b.EndAt, b.CustomerEmailSent, b.AdminEmailSent,
	).Scan(&b.ID)
}

// Update writes back every mutable field. Callers hold the row lock from
// GetForUpdate.
func Update(ctx context.Context, tx pgx.Tx, b *Booking) error {
	const q = `
UPDATE bookings
SET status = $1, due = $2, from_language_id = $3, admin_comments = $4, user_email = $5,
    reference = $6, session_time = $7, created_at = $8, will_expire_at = $9, end_at = $10,
    customer_email_sent = $11, admin_email_sent = $12, updated_at = NOW()
WHERE id = $13
`
	_, err := tx.Exec(ctx, q,
		b.Status, b.Due, b.LanguageID, b.AdminComments, b.UserEmail,
		b.Reference, b.SessionTime, b.CreatedAt, b.WillExpireAt, b.EndAt,
		b.CustomerEmailSent, b.AdminEmailSent, b.ID,
	)
	return err
}

func (r *Repository) Owner(ctx context.Context, bookingID int64) (User, error) {
	const q = `
SELECT u.id, u.name, u.email, u.mobile
FROM users u
JOIN bookings b ON b.customer_id = u.id
WHERE b.id = $1
`
	var u User
	if err := r.db.QueryRow(ctx, q, bookingID).Scan(&u.ID, &u.Name, &u.Email, &u.Mobile); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

func (r *Repository) UserByID(ctx context.Context, id int64) (User, error) {
	const q = `SELECT id, name, email, mobile FROM users WHERE id = $1`
	var u User
	if err := r.db.QueryRow(ctx, q, id).Scan(&u.ID, &u.Name, &u.Email, &u.Mobile); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

func (r *Repository) UserByEmail(ctx context.Context, email string) (User, error) {
	const q = `SELECT id, name, email, mobile FROM users WHERE lower(email) = lower($1)`
	var u User
	if err := r.db.QueryRow(ctx, q, email).Scan(&u.ID, &u.Name, &u.Email, &u.Mobile); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

// UserType reports whether the account is a customer or a translator.
func (r *Repository) UserType(ctx context.Context, id int64) (string, error) {
	const q = `SELECT user_type FROM users WHERE id = $1`
	var t string
	if err := r.db.QueryRow(ctx, q, id).Scan(&t); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return t, nil
}

// CustomerMeta is the slice of the booking owner's profile the workflow
// reads when creating bookings and composing SMS bodies.
type CustomerMeta struct {
	City         string
	CustomerType string
	ConsumerType string
}

func (r *Repository) OwnerMeta(ctx context.Context, userID int64) (CustomerMeta, error) {
	const q = `SELECT city, customer_type, consumer_type FROM user_meta WHERE user_id = $1`
	var m CustomerMeta
	if err := r.db.QueryRow(ctx, q, userID).Scan(&m.City, &m.CustomerType, &m.ConsumerType); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CustomerMeta{}, ErrNotFound
		}
		return CustomerMeta{}, err
	}
	return m, nil
}

func (r *Repository) LanguageName(ctx context.Context, id int64) (string, error) {
	const q = `SELECT name FROM languages WHERE id = $1`
	var name string
	if err := r.db.QueryRow(ctx, q, id).Scan(&name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return name, nil
}

// ActiveAssignment returns the booking's single uncancelled, uncompleted
// assignment, or nil when none exists.
func (r *Repository) ActiveAssignment(ctx context.Context, bookingID int64) (*Assignment, error) {
	const q = `
SELECT id, booking_id, translator_id, created_at, cancelled_at, completed_at, completed_by
FROM translator_assignments
WHERE booking_id = $1 AND cancelled_at IS NULL AND completed_at IS NULL
`
	var a Assignment
	err := r.db.QueryRow(ctx, q, bookingID).Scan(
		&a.ID, &a.BookingID, &a.TranslatorID, &a.CreatedAt, &a.CancelledAt, &a.CompletedAt, &a.CompletedBy,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// AssignedTranslator resolves the active assignment's translator account.
func (r *Repository) AssignedTranslator(ctx context.Context, bookingID int64) (User, error) {
	const q = `
SELECT u.id, u.name, u.email, u.mobile
FROM users u
JOIN translator_assignments ta ON ta.translator_id = u.id
WHERE ta.booking_id = $1 AND ta.cancelled_at IS NULL AND ta.completed_at IS NULL
`
	var u User
	if err := r.db.QueryRow(ctx, q, bookingID).Scan(&u.ID, &u.Name, &u.Email, &u.Mobile); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

// ActiveAssignmentTx is the transactional variant of ActiveAssignment.
func ActiveAssignmentTx(ctx context.Context, tx pgx.Tx, bookingID int64) (*Assignment, error) {
	const q = `
SELECT id, booking_id, translator_id, created_at, cancelled_at, completed_at, completed_by
FROM translator_assignments
WHERE booking_id = $1 AND cancelled_at IS NULL AND completed_at IS NULL
`
	var a Assignment
	err := tx.QueryRow(ctx, q, bookingID).Scan(
		&a.ID, &a.BookingID, &a.TranslatorID, &a.CreatedAt, &a.CancelledAt, &a.CompletedAt, &a.CompletedBy,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// AssignedTranslatorTx resolves the active translator inside the caller's
// transaction, before the assignment gets cancelled or completed.
func AssignedTranslatorTx(ctx context.Context, tx pgx.Tx, bookingID int64) (User, error) {
	const q = `
SELECT u.id, u.name, u.email, u.mobile
FROM users u
JOIN translator_assignments ta ON ta.translator_id = u.id
WHERE ta.booking_id = $1 AND ta.cancelled_at IS NULL AND ta.completed_at IS NULL
`
	var u User
	if err := tx.QueryRow(ctx, q, bookingID).Scan(&u.ID, &u.Name, &u.Email, &u.Mobile); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

// InsertAssignment is the atomic acceptance gate: the partial unique
// index on (booking_id) over active rows makes the first insert win and
// every competing insert report false.
func InsertAssignment(ctx context.Context, tx pgx.Tx, bookingID, translatorID int64, at time.Time) (bool, error) {
	const q = `
INSERT INTO translator_assignments (booking_id, translator_id, created_at)
VALUES ($1, $2, $3)
ON CONFLICT (booking_id) WHERE cancelled_at IS NULL AND completed_at IS NULL DO NOTHING
`
	tag, err := tx.Exec(ctx, q, bookingID, translatorID, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// InsertCancelledAssignment records a reopening marker: the row is
// born cancelled, so it never collides with the acceptance gate but
// still ties the requesting translator to the booking's history.
func InsertCancelledAssignment(ctx context.Context, tx pgx.Tx, bookingID, translatorID int64, at time.Time) error {
	const q = `
INSERT INTO translator_assignments (booking_id, translator_id, created_at, cancelled_at)
VALUES ($1, $2, $3, $3)
`
	_, err := tx.Exec(ctx, q, bookingID, translatorID, at)
	return err
}

// CancelActiveAssignments stamps cancelled_at on whatever active
// assignment the booking holds.
func CancelActiveAssignments(ctx context.Context, tx pgx.Tx, bookingID int64, at time.Time) error {
	const q = `
UPDATE translator_assignments
SET cancelled_at = $1
WHERE booking_id = $2 AND cancelled_at IS NULL AND completed_at IS NULL
`
	_, err := tx.Exec(ctx, q, at, bookingID)
	return err
}

func CompleteActiveAssignment(ctx context.Context, tx pgx.Tx, bookingID int64, at time.Time, completedBy int64) error {
	const q = `
UPDATE translator_assignments
SET completed_at = $1, completed_by = $2
WHERE booking_id = $3 AND cancelled_at IS NULL AND completed_at IS NULL
`
	_, err := tx.Exec(ctx, q, at, completedBy, bookingID)
	return err
}

// TranslatorHasOverlap reports whether the translator already holds an
// active assignment whose session overlaps [due, due+duration).
func (r *Repository) TranslatorHasOverlap(ctx context.Context, translatorID int64, due time.Time, duration int) (bool, error) {
	const q = `
SELECT EXISTS (
  SELECT 1
  FROM translator_assignments ta
  JOIN bookings b ON b.id = ta.booking_id
  WHERE ta.translator_id = $1
    AND ta.cancelled_at IS NULL AND ta.completed_at IS NULL
    AND b.status IN ('assigned', 'started')
    AND b.due < $2 + make_interval(mins => $3)
    AND $2 < b.due + make_interval(mins => b.duration)
)
`
	var exists bool
	if err := r.db.QueryRow(ctx, q, translatorID, due, duration).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// ExpiredPending lists pending bookings whose offer window has closed;
// the sweeper times them out.
func (r *Repository) ExpiredPending(ctx context.Context, now time.Time) ([]Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE status = 'pending' AND will_expire_at <= $1`
	rows, err := r.db.Query(ctx, q, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}
