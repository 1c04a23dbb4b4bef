package booking

import (
	"testing"
	"time"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time                      { return c.now }
func (c fixedClock) IsNightTime(time.Time) bool          { return false }
func (c fixedClock) NextBusinessTime(t time.Time) time.Time { return t }
func (c fixedClock) WillExpireAt(due, createdAt time.Time) time.Time {
	return createdAt.Add(90 * time.Minute)
}

func testEngine(now time.Time) Engine {
	return Engine{Clock: fixedClock{now: now}}
}

func TestApplySameStatusIsNoOp(t *testing.T) {
	e := testEngine(time.Now())
	b := &Booking{Status: StatusPending}
	out := e.Apply(b, ChangeRequest{Status: StatusPending})
	if out.Changed {
		t.Fatalf("expected no-op, got change")
	}
	if out.Log != nil {
		t.Fatalf("no-op must not produce a log entry")
	}
}

func TestTimedOutReopensToPending(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	e := testEngine(now)
	b := &Booking{
		Status:            StatusTimedOut,
		Due:               now.Add(48 * time.Hour),
		CreatedAt:         now.Add(-72 * time.Hour),
		CustomerEmailSent: true,
		AdminEmailSent:    true,
	}
	out := e.Apply(b, ChangeRequest{Status: StatusPending})
	if !out.Changed {
		t.Fatalf("expected reopen to apply")
	}
	if b.Status != StatusPending {
		t.Fatalf("status = %s, want pending", b.Status)
	}
	if !b.CreatedAt.Equal(now) {
		t.Fatalf("created_at not reset: %v", b.CreatedAt)
	}
	if !b.WillExpireAt.Equal(now.Add(90 * time.Minute)) {
		t.Fatalf("will_expire_at not recomputed: %v", b.WillExpireAt)
	}
	if b.CustomerEmailSent || b.AdminEmailSent {
		t.Fatalf("reminder flags must reset on reopen")
	}
	wantEffects := []Effect{EffectReopenEmailCustomer, EffectNotifyMatchingTranslators}
	assertEffects(t, out.Effects, wantEffects)
	if out.Log == nil || out.Log.OldStatus != StatusTimedOut || out.Log.NewStatus != StatusPending {
		t.Fatalf("log = %+v", out.Log)
	}
}

func TestTimedOutWithTranslatorChange(t *testing.T) {
	e := testEngine(time.Now())
	b := &Booking{Status: StatusTimedOut}
	out := e.Apply(b, ChangeRequest{Status: StatusAssigned, TranslatorChanged: true})
	if !out.Changed {
		t.Fatalf("expected reassignment to apply")
	}
	if b.Status != StatusAssigned {
		t.Fatalf("status = %s, want assigned", b.Status)
	}
	assertEffects(t, out.Effects, []Effect{EffectAcceptedEmailCustomer})
}

func TestTimedOutRejectsWithoutTranslator(t *testing.T) {
	e := testEngine(time.Now())
	b := &Booking{Status: StatusTimedOut}
	out := e.Apply(b, ChangeRequest{Status: StatusAssigned})
	if out.Changed {
		t.Fatalf("timedout to assigned without a translator must be rejected")
	}
	if b.Status != StatusTimedOut {
		t.Fatalf("booking mutated on rejected transition")
	}
}

func TestCompletedCorrections(t *testing.T) {
	e := testEngine(time.Now())

	b := &Booking{Status: StatusCompleted}
	out := e.Apply(b, ChangeRequest{Status: StatusTimedOut})
	if out.Changed {
		t.Fatalf("completed to timedout without comment must be rejected")
	}

	b = &Booking{Status: StatusCompleted}
	out = e.Apply(b, ChangeRequest{Status: StatusTimedOut, AdminComments: "double booked"})
	if !out.Changed || b.Status != StatusTimedOut {
		t.Fatalf("completed to timedout with comment should apply")
	}
	if b.AdminComments != "double booked" {
		t.Fatalf("admin comment not stored")
	}

	b = &Booking{Status: StatusCompleted}
	out = e.Apply(b, ChangeRequest{Status: StatusWithdrawBefore24})
	if !out.Changed || b.Status != StatusWithdrawBefore24 {
		t.Fatalf("completed to withdrawbefore24 should apply without comment")
	}

	b = &Booking{Status: StatusCompleted}
	if out = e.Apply(b, ChangeRequest{Status: StatusPending}); out.Changed {
		t.Fatalf("completed to pending must be rejected")
	}
}

func TestStartedToCompleted(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)
	e := testEngine(now)

	b := &Booking{Status: StatusStarted}
	if out := e.Apply(b, ChangeRequest{Status: StatusCompleted, AdminComments: "done"}); out.Changed {
		t.Fatalf("completed without session time must be rejected")
	}

	b = &Booking{Status: StatusStarted}
	out := e.Apply(b, ChangeRequest{Status: StatusCompleted, AdminComments: "done", SessionTime: "1:30:00"})
	if !out.Changed || b.Status != StatusCompleted {
		t.Fatalf("started to completed should apply")
	}
	if b.SessionTime != "1:30:00" {
		t.Fatalf("session time = %q", b.SessionTime)
	}
	if b.EndAt == nil || !b.EndAt.Equal(now) {
		t.Fatalf("end_at = %v, want %v", b.EndAt, now)
	}
	assertEffects(t, out.Effects, []Effect{EffectSessionEndedEmails, EffectCompleteAssignment})
}

func TestStartedRequiresComment(t *testing.T) {
	e := testEngine(time.Now())
	b := &Booking{Status: StatusStarted}
	if out := e.Apply(b, ChangeRequest{Status: StatusWithdrawAfter24}); out.Changed {
		t.Fatalf("started transitions without comment must be rejected")
	}
	out := e.Apply(b, ChangeRequest{Status: StatusWithdrawAfter24, AdminComments: "no-show"})
	if !out.Changed || b.Status != StatusWithdrawAfter24 {
		t.Fatalf("started to withdrawafter24 with comment should apply")
	}
}

func TestPendingToAssigned(t *testing.T) {
	e := testEngine(time.Now())

	b := &Booking{Status: StatusPending}
	out := e.Apply(b, ChangeRequest{Status: StatusAssigned, TranslatorChanged: true})
	if !out.Changed || b.Status != StatusAssigned {
		t.Fatalf("pending to assigned should apply")
	}
	assertEffects(t, out.Effects, []Effect{
		EffectAcceptedEmailCustomer,
		EffectAcceptedEmailTranslator,
		EffectSessionStartReminders,
	})

	// Without a reassignment the save is treated as a plain status edit.
	b = &Booking{Status: StatusPending}
	out = e.Apply(b, ChangeRequest{Status: StatusAssigned})
	if !out.Changed {
		t.Fatalf("pending to assigned without translator should still apply")
	}
	assertEffects(t, out.Effects, []Effect{EffectCancellationEmailCustomer})
}

func TestPendingToTimedOutRequiresComment(t *testing.T) {
	e := testEngine(time.Now())
	b := &Booking{Status: StatusPending}
	if out := e.Apply(b, ChangeRequest{Status: StatusTimedOut}); out.Changed {
		t.Fatalf("pending to timedout without comment must be rejected")
	}
	out := e.Apply(b, ChangeRequest{Status: StatusTimedOut, AdminComments: "expired manually"})
	if !out.Changed || b.Status != StatusTimedOut {
		t.Fatalf("pending to timedout with comment should apply")
	}
}

func TestWithdrawAfter24OnlyAdmitsTimedOut(t *testing.T) {
	e := testEngine(time.Now())
	b := &Booking{Status: StatusWithdrawAfter24}
	if out := e.Apply(b, ChangeRequest{Status: StatusPending}); out.Changed {
		t.Fatalf("withdrawafter24 to pending must be rejected")
	}
	out := e.Apply(b, ChangeRequest{Status: StatusTimedOut, AdminComments: "correction"})
	if !out.Changed || b.Status != StatusTimedOut {
		t.Fatalf("withdrawafter24 to timedout with comment should apply")
	}
}

func TestAssignedWithdrawNotifiesBothParties(t *testing.T) {
	e := testEngine(time.Now())
	b := &Booking{Status: StatusAssigned}
	out := e.Apply(b, ChangeRequest{Status: StatusWithdrawBefore24})
	if !out.Changed || b.Status != StatusWithdrawBefore24 {
		t.Fatalf("assigned withdraw should apply")
	}
	assertEffects(t, out.Effects, []Effect{
		EffectCancellationEmailCustomer,
		EffectCancellationEmailTranslator,
	})
}

func TestTerminalStatusesRejectTransitions(t *testing.T) {
	e := testEngine(time.Now())
	for _, from := range []Status{StatusWithdrawBefore24, StatusNotCarriedOutCustomer} {
		b := &Booking{Status: from}
		if out := e.Apply(b, ChangeRequest{Status: StatusPending, AdminComments: "x"}); out.Changed {
			t.Fatalf("%s must not admit transitions", from)
		}
	}
}

func assertEffects(t *testing.T, got, want []Effect) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("effects = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("effects = %v, want %v", got, want)
		}
	}
}
