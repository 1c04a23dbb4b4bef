package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mumairryk/BookingApp/pkg/db"
)

// withdrawCutoff decides which withdraw status a customer cancellation
// lands in, and whether a translator may cancel at all.
const withdrawCutoff = 24 * time.Hour

func withdrawStatusFor(due, now time.Time) Status {
	if due.Sub(now) >= withdrawCutoff {
		return StatusWithdrawBefore24
	}
	return StatusWithdrawAfter24
}

func translatorMayCancel(due, now time.Time) bool {
	return due.Sub(now) >= withdrawCutoff
}

// CancelByCustomer withdraws the booking on behalf of its customer:
// withdrawbefore24 when at least 24 hours remain before due, else
// withdrawafter24. The previously assigned translator, if any, gets a
// cancellation push.
func (s *Service) CancelByCustomer(ctx context.Context, bookingID int64) (Result, error) {
	translator, err := s.Repo.AssignedTranslator(ctx, bookingID)
	hadTranslator := err == nil
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Result{}, fmt.Errorf("load assigned translator: %w", err)
	}

	var b *Booking
	err = db.WithTx(ctx, s.DB, func(tx pgx.Tx) error {
		locked, err := GetForUpdate(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		now := s.Clock.Now()
		locked.Status = withdrawStatusFor(locked.Due, now)
		if err := CancelActiveAssignments(ctx, tx, bookingID, now); err != nil {
			return err
		}
		b = locked
		return Update(ctx, tx, locked)
	})
	if err != nil {
		return Result{}, fmt.Errorf("cancel booking: %w", err)
	}

	if hadTranslator {
		s.Notifier.PushCancelledToTranslator(ctx, b, translator)
	}
	return ok(), nil
}

// CancelByTranslator hands the booking back: allowed only while at least
// 24 hours remain before due. The booking reopens to pending, the
// customer gets a cancellation push, and matching re-runs without the
// cancelling translator.
func (s *Service) CancelByTranslator(ctx context.Context, translatorID, bookingID int64) (Result, error) {
	b, err := s.Repo.GetByID(ctx, bookingID)
	if err != nil {
		return Result{}, fmt.Errorf("load booking: %w", err)
	}
	if !translatorMayCancel(b.Due, s.Clock.Now()) {
		return reject(RejectConflict,
			"Du kan inte avboka en bokning som sker inom 24 timmar genom DigitalTolk. "+
				"Vänligen ring på +46 73 75 86 865 och gör din avbokning över telefon. Tack!"), nil
	}

	err = db.WithTx(ctx, s.DB, func(tx pgx.Tx) error {
		locked, err := GetForUpdate(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		now := s.Clock.Now()
		locked.Status = StatusPending
		locked.CreatedAt = now
		locked.WillExpireAt = s.Clock.WillExpireAt(locked.Due, now)
		if err := CancelActiveAssignments(ctx, tx, bookingID, now); err != nil {
			return err
		}
		b = locked
		return Update(ctx, tx, locked)
	})
	if err != nil {
		return Result{}, fmt.Errorf("reopen booking: %w", err)
	}

	customer, err := s.Repo.Owner(ctx, bookingID)
	if err != nil {
		return Result{}, fmt.Errorf("load owner: %w", err)
	}
	s.Notifier.PushCancelledToCustomer(ctx, b, customer)
	s.Notifier.NotifySuitableTranslators(ctx, b, translatorID)
	return ok(), nil
}
