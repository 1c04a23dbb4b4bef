package booking

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/mumairryk/BookingApp/pkg/clock"
	"github.com/mumairryk/BookingApp/pkg/mail"
)

// Notifier is the push/SMS side-effect collaborator. Every call is
// fire-and-forget: implementations log transport failures and never
// return them.
type Notifier interface {
	NotifySuitableTranslators(ctx context.Context, job *Booking, excludeTranslatorID int64)
	SMSSuitableTranslators(ctx context.Context, job *Booking) int
	PushJobAccepted(ctx context.Context, job *Booking, customer User)
	PushJobExpired(ctx context.Context, job *Booking, customer User)
	PushCancelledToTranslator(ctx context.Context, job *Booking, translator User)
	PushCancelledToCustomer(ctx context.Context, job *Booking, customer User)
	PushSessionStartReminder(ctx context.Context, job *Booking, recipient User)
}

// JobLister recomputes a translator's open-jobs list.
type JobLister interface {
	PotentialJobs(ctx context.Context, translatorID int64) ([]Booking, error)
}

// UpdateLogger persists the per-booking update log entries.
type UpdateLogger interface {
	Insert(ctx context.Context, bookingID, actorID int64, action string, entries any) error
}

// RejectKind classifies refusals that are business outcomes, not errors.
type RejectKind string

const (
	RejectValidation RejectKind = "validation"
	RejectConflict   RejectKind = "conflict"
	RejectTransition RejectKind = "transition"
)

// Result is the caller-facing outcome of a mutation attempt. OK=false
// with a Reject kind means nothing was saved and nothing may be notified.
type Result struct {
	OK      bool
	Reject  RejectKind
	Message string
}

func ok() Result { return Result{OK: true} }

func reject(kind RejectKind, message string) Result {
	return Result{Reject: kind, Message: message}
}

type Service struct {
	DB       *pgxpool.Pool
	Repo     *Repository
	Engine   Engine
	Clock    clock.Clock
	Mailer   mail.Mailer
	Notifier Notifier
	Jobs     JobLister
	Updates  UpdateLogger
	Log      *zap.Logger
}

func NewService(db *pgxpool.Pool, repo *Repository, clk clock.Clock, mailer mail.Mailer, notifier Notifier, jobs JobLister, updates UpdateLogger, log *zap.Logger) *Service {
	return &Service{
		DB:       db,
		Repo:     repo,
		Engine:   Engine{Clock: clk},
		Clock:    clk,
		Mailer:   mailer,
		Notifier: notifier,
		Jobs:     jobs,
		Updates:  updates,
		Log:      log,
	}
}

// sendMail delivers best-effort booking mail: failures are logged and
// swallowed, the committed mutation stands.
func (s *Service) sendMail(ctx context.Context, toEmail, toName, subject, templateKey string, data map[string]any) {
	if err := s.Mailer.Send(ctx, toEmail, toName, subject, templateKey, data); err != nil {
		s.Log.Warn("booking mail failed",
			zap.String("to", toEmail),
			zap.String("template", templateKey),
			zap.Error(err))
	}
}

func subjectAccepted(jobID int64) string {
	return fmt.Sprintf("Bekräftelse - tolk har accepterat er bokning (bokning # %d)", jobID)
}

func subjectSessionEnded(jobID int64) string {
	return fmt.Sprintf("Information om avslutad tolkning för bokningsnummer #%d", jobID)
}

// sessionTimeText renders an H:MM:SS session interval the way booking
// mail presents it, e.g. "1 tim 35 min".
func sessionTimeText(sessionTime string) string {
	parts := strings.Split(sessionTime, ":")
	if len(parts) < 2 {
		return sessionTime
	}
	return parts[0] + " tim " + parts[1] + " min"
}

// formatInterval renders the elapsed time between due and end as H:MM:SS.
func formatInterval(seconds int64) string {
	if seconds < 0 {
		seconds = -seconds
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	sec := seconds % 60
	return strconv.FormatInt(h, 10) + ":" + fmt.Sprintf("%02d:%02d", m, sec)
}
