package clock

import (
	"testing"
	"time"
)

func TestIsNightTimeWrapsMidnight(t *testing.T) {
	c := Real{NightStartHour: 21, NightEndHour: 9, BusinessStartHour: 9}
	day := func(hour int) time.Time {
		return time.Date(2026, 3, 10, hour, 30, 0, 0, time.UTC)
	}
	cases := map[int]bool{
		20: false,
		21: true,
		23: true,
		0:  true,
		8:  true,
		9:  false,
		12: false,
	}
	for hour, want := range cases {
		if got := c.IsNightTime(day(hour)); got != want {
			t.Fatalf("IsNightTime(%02d:30) = %v, want %v", hour, got, want)
		}
	}
}

func TestNextBusinessTime(t *testing.T) {
	c := Real{NightStartHour: 21, NightEndHour: 9, BusinessStartHour: 9}

	night := time.Date(2026, 3, 10, 23, 15, 0, 0, time.UTC)
	got := c.NextBusinessTime(night)
	want := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("NextBusinessTime(23:15) = %v, want %v", got, want)
	}

	early := time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)
	got = c.NextBusinessTime(early)
	want = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("NextBusinessTime(03:00) = %v, want %v", got, want)
	}
}

func TestWillExpireAt(t *testing.T) {
	c := Real{}
	created := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	// Within 90 minutes the offer stays open until due.
	due := created.Add(45 * time.Minute)
	if got := c.WillExpireAt(due, created); !got.Equal(due) {
		t.Fatalf("near-term: %v, want %v", got, due)
	}
	due = created.Add(90 * time.Minute)
	if got := c.WillExpireAt(due, created); !got.Equal(due) {
		t.Fatalf("90min boundary: %v, want %v", got, due)
	}

	// Same day: 90 minute offer window.
	due = created.Add(5 * time.Hour)
	want := created.Add(90 * time.Minute)
	if got := c.WillExpireAt(due, created); !got.Equal(want) {
		t.Fatalf("same-day: %v, want %v", got, want)
	}

	// Within three days: 16 hour window.
	due = created.Add(48 * time.Hour)
	want = created.Add(16 * time.Hour)
	if got := c.WillExpireAt(due, created); !got.Equal(want) {
		t.Fatalf("three-day: %v, want %v", got, want)
	}

	// Further out: closes 48 hours before due.
	due = created.Add(10 * 24 * time.Hour)
	want = due.Add(-48 * time.Hour)
	if got := c.WillExpireAt(due, created); !got.Equal(want) {
		t.Fatalf("far-out: %v, want %v", got, want)
	}
}
