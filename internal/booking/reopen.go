package booking

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/mumairryk/BookingApp/pkg/db"
)

type ReopenResult struct {
	Result
	// BookingID is the booking that went back on the market. For a
	// timed-out original this is a fresh booking, otherwise the same id.
	BookingID int64
}

// Reopen puts a cancelled or expired booking back in front of
// translators. A booking that merely got withdrawn is reset in place; a
// timed-out one is archived as-is and cloned into a new pending booking,
// since its expiry history should stay readable.
func (s *Service) Reopen(ctx context.Context, userID, bookingID int64) (ReopenResult, error) {
	var reopened *Booking

	err := db.WithTx(ctx, s.DB, func(tx pgx.Tx) error {
		locked, err := GetForUpdate(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		now := s.Clock.Now()

		if err := CancelActiveAssignments(ctx, tx, bookingID, now); err != nil {
			return err
		}
		if err := InsertCancelledAssignment(ctx, tx, bookingID, userID, now); err != nil {
			return err
		}

		if locked.Status != StatusTimedOut {
			locked.Status = StatusPending
			locked.CreatedAt = now
			locked.WillExpireAt = s.Clock.WillExpireAt(locked.Due, now)
			locked.CustomerEmailSent = false
			locked.AdminEmailSent = false
			if err := Update(ctx, tx, locked); err != nil {
				return err
			}
			reopened = locked
			return nil
		}

		clone := *locked
		clone.ID = 0
		clone.Status = StatusPending
		clone.CreatedAt = now
		clone.WillExpireAt = s.Clock.WillExpireAt(clone.Due, now)
		clone.AdminComments = fmt.Sprintf("This booking is a reopening of booking #%d", bookingID)
		clone.SessionTime = ""
		clone.EndAt = nil
		clone.CustomerEmailSent = false
		clone.AdminEmailSent = false
		if err := InsertTx(ctx, tx, &clone); err != nil {
			return err
		}
		reopened = &clone
		return nil
	})
	if err != nil {
		return ReopenResult{}, fmt.Errorf("reopen booking: %w", err)
	}

	s.Log.Info("booking reopened",
		zap.Int64("booking", bookingID),
		zap.Int64("reopened_as", reopened.ID),
		zap.Int64("user", userID))
	s.Notifier.NotifySuitableTranslators(ctx, reopened, 0)

	return ReopenResult{Result: ok(), BookingID: reopened.ID}, nil
}
