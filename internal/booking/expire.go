package booking

import (
	"context"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/mumairryk/BookingApp/pkg/db"
)

// ExpireOverdue times out every pending booking whose acceptance window
// has closed. Each booking is handled in its own transaction with a
// fresh pending check under lock, so a translator accepting at the same
// moment always beats the sweeper.
func (s *Service) ExpireOverdue(ctx context.Context) (int, error) {
	now := s.Clock.Now()
	candidates, err := s.Repo.ExpiredPending(ctx, now)
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range candidates {
		id := candidates[i].ID
		var b *Booking
		err := db.WithTx(ctx, s.DB, func(tx pgx.Tx) error {
			locked, err := GetForUpdate(ctx, tx, id)
			if err != nil {
				return err
			}
			if locked.Status != StatusPending {
				return nil
			}
			locked.Status = StatusTimedOut
			b = locked
			return Update(ctx, tx, locked)
		})
		if err != nil {
			s.Log.Warn("expire booking failed", zap.Int64("booking", id), zap.Error(err))
			continue
		}
		if b == nil {
			continue
		}
		expired++
		s.Log.Info("booking timed out", zap.Int64("booking", id))

		owner, err := s.Repo.Owner(ctx, b.ID)
		if err != nil {
			s.Log.Warn("load owner failed", zap.Int64("booking", b.ID), zap.Error(err))
			continue
		}
		s.Notifier.PushJobExpired(ctx, b, owner)
	}
	return expired, nil
}
