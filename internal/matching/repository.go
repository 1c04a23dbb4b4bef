package matching

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mumairryk/BookingApp/internal/booking"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Meta loads a translator's matching profile. Opt-out flags are stored
// as 'yes'/'no' text.
func (r *Repository) Meta(ctx context.Context, userID int64) (TranslatorMeta, error) {
	const q = `
SELECT translator_type, gender, level, city,
       not_get_notification = 'yes',
       not_get_emergency = 'yes',
       not_get_nighttime = 'yes'
FROM user_meta
WHERE user_id = $1
`
	var m TranslatorMeta
	err := r.db.QueryRow(ctx, q, userID).Scan(
		&m.TranslatorType, &m.Gender, &m.Level, &m.City,
		&m.NotGetNotification, &m.NotGetEmergency, &m.NotGetNighttime,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return TranslatorMeta{}, booking.ErrNotFound
		}
		return TranslatorMeta{}, err
	}
	return m, nil
}

func (r *Repository) LanguageIDs(ctx context.Context, userID int64) ([]int64, error) {
	const q = `SELECT language_id FROM user_languages WHERE user_id = $1`
	rows, err := r.db.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// PotentialTranslators runs the fan-out side of matching: active
// translators of the right classification and level, speaking the
// booking's language, not blacklisted by the customer. Gender preference
// is applied when the booking states one.
func (r *Repository) PotentialTranslators(ctx context.Context, job *booking.Booking) ([]booking.User, error) {
	const q = `
SELECT u.id, u.name, u.email, u.mobile
FROM users u
JOIN user_meta m ON m.user_id = u.id
WHERE u.user_type = 'translator'
  AND u.active
  AND m.translator_type = $1
  AND m.level = ANY($2)
  AND ($3 = '' OR m.gender = $3)
  AND EXISTS (
    SELECT 1 FROM user_languages ul
    WHERE ul.user_id = u.id AND ul.language_id = $4
  )
  AND NOT EXISTS (
    SELECT 1 FROM users_blacklist b
    WHERE b.user_id = $5 AND b.translator_id = u.id
  )
ORDER BY u.id
`
	rows, err := r.db.Query(ctx, q,
		TranslatorTypeForJob(job.JobType),
		LevelsForCertified(job.Certified),
		job.Gender,
		job.LanguageID,
		job.CustomerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []booking.User
	for rows.Next() {
		var u booking.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Mobile); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

const jobColumns = `
id, status, due, immediate, from_language_id, gender, certified, duration,
phone_type, physical_type, town, customer_id, user_email, reference,
admin_comments, session_time, job_type, specific_translator_id,
created_at, will_expire_at, end_at, customer_email_sent, admin_email_sent
`

// PendingJobs lists open bookings of the given type in any of the
// translator's languages, honoring the booking's gender preference.
// Level, targeting and town filters run in Go on top of this.
func (r *Repository) PendingJobs(ctx context.Context, jobType booking.JobType, languageIDs []int64, gender string) ([]booking.Booking, error) {
	const q = `
SELECT ` + jobColumns + `
FROM bookings
WHERE status = 'pending'
  AND job_type = $1
  AND from_language_id = ANY($2)
  AND (gender = '' OR gender = $3)
ORDER BY due
`
	rows, err := r.db.Query(ctx, q, jobType, languageIDs, gender)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []booking.Booking
	for rows.Next() {
		var b booking.Booking
		if err := rows.Scan(
			&b.ID, &b.Status, &b.Due, &b.Immediate, &b.LanguageID, &b.Gender, &b.Certified, &b.Duration,
			&b.PhoneType, &b.PhysicalType, &b.Town, &b.CustomerID, &b.UserEmail, &b.Reference,
			&b.AdminComments, &b.SessionTime, &b.JobType, &b.SpecificTranslatorID,
			&b.CreatedAt, &b.WillExpireAt, &b.EndAt, &b.CustomerEmailSent, &b.AdminEmailSent,
		); err != nil {
			return nil, err
		}
		jobs = append(jobs, b)
	}
	return jobs, rows.Err()
}
