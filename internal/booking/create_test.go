package booking

import (
	"testing"
	"time"
)

func TestCertifiedType(t *testing.T) {
	cases := []struct {
		jobFor []string
		want   string
	}{
		{nil, ""},
		{[]string{"normal"}, "normal"},
		{[]string{"certified"}, "yes"},
		{[]string{"normal", "certified"}, "both"},
		{[]string{"certified", "normal"}, "both"},
		{[]string{"certified_in_law"}, "certified_in_law"},
		{[]string{"certified_in_health"}, "certified_in_health"},
	}
	for _, c := range cases {
		if got := certifiedType(c.jobFor); got != c.want {
			t.Fatalf("certifiedType(%v) = %q, want %q", c.jobFor, got, c.want)
		}
	}
}

func TestJobTypeForConsumer(t *testing.T) {
	cases := map[string]JobType{
		"rwsconsumer": JobTypeRWS,
		"ngo":         JobTypeUnpaid,
		"paid":        JobTypePaid,
		"":            JobTypePaid,
	}
	for consumer, want := range cases {
		if got := JobTypeForConsumer(consumer); got != want {
			t.Fatalf("JobTypeForConsumer(%q) = %q, want %q", consumer, got, want)
		}
	}
}

func TestValidateCreate(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	b := &Booking{LanguageID: 1, Duration: 30}
	req := CreateRequest{Due: now.Add(time.Hour), PhoneType: true}
	if msg, valid := validateCreate(b, req, now); !valid {
		t.Fatalf("valid scheduled booking rejected: %s", msg)
	}

	b = &Booking{Duration: 30}
	if _, valid := validateCreate(b, req, now); valid {
		t.Fatalf("missing language must be rejected")
	}

	b = &Booking{LanguageID: 1, Duration: 30}
	req = CreateRequest{Due: now.Add(-time.Minute), PhoneType: true}
	msg, valid := validateCreate(b, req, now)
	if valid {
		t.Fatalf("past due must be rejected")
	}
	if msg != "Can't create booking in the past" {
		t.Fatalf("message = %q", msg)
	}

	// Neither phone nor physical picked.
	req = CreateRequest{Due: now.Add(time.Hour)}
	if _, valid := validateCreate(b, req, now); valid {
		t.Fatalf("scheduled booking without contact type must be rejected")
	}

	// Immediate bookings derive due and contact type themselves.
	req = CreateRequest{Immediate: true}
	if msg, valid := validateCreate(b, req, now); !valid {
		t.Fatalf("immediate booking rejected: %s", msg)
	}
}

func TestJobForDisplay(t *testing.T) {
	b := &Booking{Gender: "female", Certified: "both"}
	got := jobForDisplay(b)
	want := []string{"Kvinna", "Godkänd tolk", "Auktoriserad"}
	if len(got) != len(want) {
		t.Fatalf("jobForDisplay = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("jobForDisplay = %v, want %v", got, want)
		}
	}

	b = &Booking{Gender: "male", Certified: "n_law"}
	got = jobForDisplay(b)
	if len(got) != 2 || got[0] != "Man" || got[1] != "Rättstolk" {
		t.Fatalf("jobForDisplay = %v", got)
	}

	if got := jobForDisplay(&Booking{}); len(got) != 0 {
		t.Fatalf("no preferences should render nothing, got %v", got)
	}
}

func TestSessionTimeText(t *testing.T) {
	if got := sessionTimeText("1:35:00"); got != "1 tim 35 min" {
		t.Fatalf("sessionTimeText = %q", got)
	}
	if got := sessionTimeText("90"); got != "90" {
		t.Fatalf("malformed session time should pass through, got %q", got)
	}
}

func TestFormatInterval(t *testing.T) {
	cases := map[int64]string{
		0:     "0:00:00",
		59:    "0:00:59",
		3600:  "1:00:00",
		5415:  "1:30:15",
		-5415: "1:30:15",
	}
	for seconds, want := range cases {
		if got := formatInterval(seconds); got != want {
			t.Fatalf("formatInterval(%d) = %q, want %q", seconds, got, want)
		}
	}
}
