package booking

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/mumairryk/BookingApp/pkg/db"
)

type AcceptResult struct {
	Result
	Booking *Booking
	// OpenJobs is the translator's recomputed open-jobs list.
	OpenJobs []Booking
}

// AcceptJob lets a translator claim a pending booking. The assignment
// insert is the race gate: among concurrent acceptors exactly one insert
// lands, everyone else gets a conflict rejection.
func (s *Service) AcceptJob(ctx context.Context, translator User, bookingID int64) (AcceptResult, error) {
	b, err := s.Repo.GetByID(ctx, bookingID)
	if err != nil {
		return AcceptResult{}, fmt.Errorf("load booking: %w", err)
	}

	booked, err := s.Repo.TranslatorHasOverlap(ctx, translator.ID, b.Due, b.Duration)
	if err != nil {
		return AcceptResult{}, fmt.Errorf("check overlap: %w", err)
	}
	if booked {
		return AcceptResult{Result: reject(RejectConflict,
			"Du har redan en bokning den tiden! Bokningen är inte accepterad.")}, nil
	}

	accepted := false
	err = db.WithTx(ctx, s.DB, func(tx pgx.Tx) error {
		locked, err := GetForUpdate(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if locked.Status != StatusPending {
			return nil
		}
		won, err := InsertAssignment(ctx, tx, bookingID, translator.ID, s.Clock.Now())
		if err != nil {
			return err
		}
		if !won {
			return nil
		}
		locked.Status = StatusAssigned
		if err := Update(ctx, tx, locked); err != nil {
			return err
		}
		accepted = true
		b = locked
		return nil
	})
	if err != nil {
		return AcceptResult{}, fmt.Errorf("accept booking: %w", err)
	}
	if !accepted {
		return AcceptResult{Result: reject(RejectConflict, "Kunde inte acceptera jobbet.")}, nil
	}

	owner, err := s.Repo.Owner(ctx, bookingID)
	if err != nil {
		return AcceptResult{}, fmt.Errorf("load owner: %w", err)
	}
	s.sendMail(ctx, b.MailAddress(owner), owner.Name, subjectAccepted(b.ID), "emails.job-accepted", map[string]any{
		"user": owner.Name,
		"job":  b.ID,
	})

	jobs, err := s.Jobs.PotentialJobs(ctx, translator.ID)
	if err != nil {
		s.Log.Warn("recompute open jobs failed", zap.Int64("translator", translator.ID), zap.Error(err))
		jobs = nil
	}

	return AcceptResult{Result: ok(), Booking: b, OpenJobs: jobs}, nil
}

// AcceptJobByID is the deep-link acceptance path: same gate as AcceptJob,
// but it also pushes the acceptance to the customer and returns localized
// messages for the app.
func (s *Service) AcceptJobByID(ctx context.Context, translator User, bookingID int64) (AcceptResult, error) {
	b, err := s.Repo.GetByID(ctx, bookingID)
	if err != nil {
		return AcceptResult{}, fmt.Errorf("load booking: %w", err)
	}
	language, err := s.Repo.LanguageName(ctx, b.LanguageID)
	if err != nil {
		s.Log.Warn("language lookup failed", zap.Int64("language", b.LanguageID), zap.Error(err))
	}
	due := b.Due.Format("2006-01-02 15:04:05")

	booked, err := s.Repo.TranslatorHasOverlap(ctx, translator.ID, b.Due, b.Duration)
	if err != nil {
		return AcceptResult{}, fmt.Errorf("check overlap: %w", err)
	}
	if booked {
		return AcceptResult{Result: reject(RejectConflict, fmt.Sprintf(
			"Du har redan en bokning den tiden %s. Du har inte fått denna tolkning", due))}, nil
	}

	accepted := false
	err = db.WithTx(ctx, s.DB, func(tx pgx.Tx) error {
		locked, err := GetForUpdate(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if locked.Status != StatusPending {
			return nil
		}
		won, err := InsertAssignment(ctx, tx, bookingID, translator.ID, s.Clock.Now())
		if err != nil {
			return err
		}
		if !won {
			return nil
		}
		locked.Status = StatusAssigned
		if err := Update(ctx, tx, locked); err != nil {
			return err
		}
		accepted = true
		b = locked
		return nil
	})
	if err != nil {
		return AcceptResult{}, fmt.Errorf("accept booking: %w", err)
	}
	if !accepted {
		return AcceptResult{Result: reject(RejectConflict, fmt.Sprintf(
			"Denna %stolkning %dmin %s har redan accepterats av annan tolk. Du har inte fått denna tolkning",
			language, b.Duration, due))}, nil
	}

	owner, err := s.Repo.Owner(ctx, bookingID)
	if err != nil {
		return AcceptResult{}, fmt.Errorf("load owner: %w", err)
	}
	s.sendMail(ctx, b.MailAddress(owner), owner.Name, subjectAccepted(b.ID), "emails.job-accepted", map[string]any{
		"user": owner.Name,
		"job":  b.ID,
	})
	s.Notifier.PushJobAccepted(ctx, b, owner)

	res := AcceptResult{Result: ok(), Booking: b}
	res.Message = fmt.Sprintf("Du har nu accepterat och fått bokningen för %stolk %dmin %s",
		language, b.Duration, due)
	return res, nil
}
