package booking

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mumairryk/BookingApp/pkg/db"
)

// EndJob closes a started session: status completed, session time set to
// the elapsed interval since due, invoice mail to the customer and
// payroll mail to the translator, assignment completed. Bookings that are
// not started are a no-op success.
func (s *Service) EndJob(ctx context.Context, bookingID, endedByUserID int64) (Result, error) {
	var (
		b          *Booking
		translator User
		ended      bool
	)
	err := db.WithTx(ctx, s.DB, func(tx pgx.Tx) error {
		locked, err := GetForUpdate(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if locked.Status != StatusStarted {
			return nil
		}

		tr, err := AssignedTranslatorTx(ctx, tx, bookingID)
		if err != nil {
			return fmt.Errorf("load assigned translator: %w", err)
		}

		now := s.Clock.Now()
		locked.Status = StatusCompleted
		locked.EndAt = &now
		locked.SessionTime = formatInterval(int64(now.Sub(locked.Due).Seconds()))

		if err := CompleteActiveAssignment(ctx, tx, bookingID, now, endedByUserID); err != nil {
			return err
		}
		if err := Update(ctx, tx, locked); err != nil {
			return err
		}
		b, translator, ended = locked, tr, true
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("end booking: %w", err)
	}
	if !ended {
		return ok(), nil
	}

	owner, err := s.Repo.Owner(ctx, bookingID)
	if err != nil {
		return Result{}, fmt.Errorf("load owner: %w", err)
	}
	sessionText := sessionTimeText(b.SessionTime)
	s.sendMail(ctx, b.MailAddress(owner), owner.Name, subjectSessionEnded(b.ID), "emails.session-ended", map[string]any{
		"user":         owner.Name,
		"job":          b.ID,
		"session_time": sessionText,
		"for_text":     "faktura",
	})
	s.sendMail(ctx, translator.Email, translator.Name, subjectSessionEnded(b.ID), "emails.session-ended", map[string]any{
		"user":         translator.Name,
		"job":          b.ID,
		"session_time": sessionText,
		"for_text":     "lön",
	})
	return ok(), nil
}

// CustomerNotCall records that the customer never showed: the booking
// ends as not_carried_out_customer and the assignment is completed by the
// translator who waited.
func (s *Service) CustomerNotCall(ctx context.Context, bookingID int64) (Result, error) {
	err := db.WithTx(ctx, s.DB, func(tx pgx.Tx) error {
		locked, err := GetForUpdate(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		assignment, err := ActiveAssignmentTx(ctx, tx, bookingID)
		if err != nil {
			return err
		}

		now := s.Clock.Now()
		locked.Status = StatusNotCarriedOutCustomer
		locked.EndAt = &now
		if assignment != nil {
			if err := CompleteActiveAssignment(ctx, tx, bookingID, now, assignment.TranslatorID); err != nil {
				return err
			}
		}
		return Update(ctx, tx, locked)
	})
	if err != nil {
		return Result{}, fmt.Errorf("mark not carried out: %w", err)
	}
	return ok(), nil
}
