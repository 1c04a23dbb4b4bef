package clock

import "time"

// Clock is the time source injected into the booking service, matcher and
// dispatcher so tests can pin "now" and the night window.
type Clock interface {
	Now() time.Time
	// IsNightTime reports whether t falls inside the configured night
	// window, during which opted-out translators get deferred pushes.
	IsNightTime(t time.Time) bool
	// NextBusinessTime returns the next moment at or after t that falls
	// at the start of business hours.
	NextBusinessTime(t time.Time) time.Time
	// WillExpireAt computes when a pending booking stops being offered to
	// translators, from its due time and creation time.
	WillExpireAt(due, createdAt time.Time) time.Time
}

type Real struct {
	// NightStartHour..NightEndHour wraps midnight, e.g. 21..9.
	NightStartHour    int
	NightEndHour      int
	BusinessStartHour int
}

func (r Real) Now() time.Time { return time.Now() }

func (r Real) IsNightTime(t time.Time) bool {
	h := t.Hour()
	if r.NightStartHour > r.NightEndHour {
		return h >= r.NightStartHour || h < r.NightEndHour
	}
	return h >= r.NightStartHour && h < r.NightEndHour
}

func (r Real) NextBusinessTime(t time.Time) time.Time {
	next := time.Date(t.Year(), t.Month(), t.Day(), r.BusinessStartHour, 0, 0, 0, t.Location())
	if !next.After(t) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// WillExpireAt keeps the original offer-window policy: near-term bookings
// stay open until due, same-day ones for 90 minutes, bookings within three
// days for 16 hours, and anything further out closes 48 hours before due.
func (r Real) WillExpireAt(due, createdAt time.Time) time.Time {
	diff := due.Sub(createdAt)
	switch {
	case diff <= 90*time.Minute:
		return due
	case diff <= 24*time.Hour:
		return createdAt.Add(90 * time.Minute)
	case diff <= 72*time.Hour:
		return createdAt.Add(16 * time.Hour)
	default:
		return due.Add(-48 * time.Hour)
	}
}
