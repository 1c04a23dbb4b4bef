package booking

import (
	"github.com/mumairryk/BookingApp/pkg/clock"
)

// Effect names a side effect the caller must run after the transition has
// been durably saved. The engine itself never touches a collaborator.
type Effect string

const (
	// EffectReopenEmailCustomer mails the customer that their booking was
	// reopened and is being offered to translators again.
	EffectReopenEmailCustomer Effect = "reopen_email_customer"
	// EffectNotifyMatchingTranslators fans the booking out to all
	// suitable translators (push).
	EffectNotifyMatchingTranslators Effect = "notify_matching_translators"
	// EffectAcceptedEmailCustomer confirms to the customer that a
	// translator holds the booking.
	EffectAcceptedEmailCustomer Effect = "accepted_email_customer"
	// EffectAcceptedEmailTranslator mails the newly assigned translator.
	EffectAcceptedEmailTranslator Effect = "accepted_email_translator"
	// EffectSessionStartReminders schedules start reminders for both the
	// customer and the assigned translator.
	EffectSessionStartReminders Effect = "session_start_reminders"
	// EffectCancellationEmailCustomer sends the generic cancellation mail
	// to the customer.
	EffectCancellationEmailCustomer Effect = "cancellation_email_customer"
	// EffectCancellationEmailTranslator notifies the active translator
	// that the booking was withdrawn.
	EffectCancellationEmailTranslator Effect = "cancellation_email_translator"
	// EffectSessionEndedEmails sends the invoice mail to the customer and
	// the payroll mail to the active translator.
	EffectSessionEndedEmails Effect = "session_ended_emails"
	// EffectCompleteAssignment marks the active assignment completed.
	EffectCompleteAssignment Effect = "complete_assignment"
)

// StatusLog records one applied transition for the booking's update log.
type StatusLog struct {
	OldStatus Status `json:"old_status"`
	NewStatus Status `json:"new_status"`
}

// ChangeRequest is the admin's requested status change plus the side data
// some transitions require.
type ChangeRequest struct {
	Status        Status
	AdminComments string
	// SessionTime (H:MM:SS) is required when closing a started booking
	// as completed.
	SessionTime string
	// TranslatorChanged reports whether the same update also reassigned
	// the translator; timedout and pending branches behave differently
	// when it did.
	TranslatorChanged bool
}

// Outcome of a transition attempt. Changed=false means the caller must
// not save, log or notify.
type Outcome struct {
	Changed bool
	Log     *StatusLog
	Effects []Effect
}

// Engine is the pure status transition logic. Behavior dispatches on the
// booking's current status: each current status admits its own target set
// and side data requirements.
type Engine struct {
	Clock clock.Clock
}

// Apply mutates b in place when the transition is allowed and returns the
// outcome. A request equal to the current status is a no-op.
func (e Engine) Apply(b *Booking, req ChangeRequest) Outcome {
	if req.Status == b.Status {
		return Outcome{}
	}

	old := b.Status
	var out Outcome
	switch b.Status {
	case StatusTimedOut:
		out = e.fromTimedOut(b, req)
	case StatusCompleted:
		out = e.fromCompleted(b, req)
	case StatusStarted:
		out = e.fromStarted(b, req)
	case StatusPending:
		out = e.fromPending(b, req)
	case StatusWithdrawAfter24:
		out = e.fromWithdrawAfter24(b, req)
	case StatusAssigned:
		out = e.fromAssigned(b, req)
	default:
		return Outcome{}
	}
	if out.Changed {
		out.Log = &StatusLog{OldStatus: old, NewStatus: b.Status}
	}
	return out
}

// fromTimedOut reopens the booking, or confirms a concurrent reassignment.
func (e Engine) fromTimedOut(b *Booking, req ChangeRequest) Outcome {
	switch {
	case req.Status == StatusPending:
		now := e.Clock.Now()
		b.Status = StatusPending
		b.CreatedAt = now
		b.WillExpireAt = e.Clock.WillExpireAt(b.Due, now)
		b.CustomerEmailSent = false
		b.AdminEmailSent = false
		return Outcome{Changed: true, Effects: []Effect{
			EffectReopenEmailCustomer,
			EffectNotifyMatchingTranslators,
		}}
	case req.TranslatorChanged:
		b.Status = req.Status
		return Outcome{Changed: true, Effects: []Effect{EffectAcceptedEmailCustomer}}
	}
	return Outcome{}
}

// fromCompleted allows corrections into withdraw/timeout statuses; moving
// back to timedout needs an explanatory admin comment.
func (e Engine) fromCompleted(b *Booking, req ChangeRequest) Outcome {
	switch req.Status {
	case StatusWithdrawBefore24, StatusWithdrawAfter24, StatusTimedOut, StatusNotCarriedOutCustomer:
	default:
		return Outcome{}
	}
	if req.Status == StatusTimedOut {
		if req.AdminComments == "" {
			return Outcome{}
		}
		b.AdminComments = req.AdminComments
	}
	b.Status = req.Status
	return Outcome{Changed: true}
}

func (e Engine) fromStarted(b *Booking, req ChangeRequest) Outcome {
	switch req.Status {
	case StatusCompleted, StatusWithdrawBefore24, StatusWithdrawAfter24, StatusTimedOut, StatusNotCarriedOutCustomer:
	default:
		return Outcome{}
	}
	if req.AdminComments == "" {
		return Outcome{}
	}
	b.AdminComments = req.AdminComments

	if req.Status == StatusCompleted {
		if req.SessionTime == "" {
			return Outcome{}
		}
		now := e.Clock.Now()
		b.Status = StatusCompleted
		b.SessionTime = req.SessionTime
		b.EndAt = &now
		return Outcome{Changed: true, Effects: []Effect{
			EffectSessionEndedEmails,
			EffectCompleteAssignment,
		}}
	}

	b.Status = req.Status
	return Outcome{Changed: true}
}

func (e Engine) fromPending(b *Booking, req ChangeRequest) Outcome {
	switch req.Status {
	case StatusAssigned, StatusWithdrawBefore24, StatusWithdrawAfter24, StatusTimedOut:
	default:
		return Outcome{}
	}
	if req.Status == StatusTimedOut && req.AdminComments == "" {
		return Outcome{}
	}
	b.AdminComments = req.AdminComments
	b.Status = req.Status

	if req.Status == StatusAssigned && req.TranslatorChanged {
		return Outcome{Changed: true, Effects: []Effect{
			EffectAcceptedEmailCustomer,
			EffectAcceptedEmailTranslator,
			EffectSessionStartReminders,
		}}
	}
	return Outcome{Changed: true, Effects: []Effect{EffectCancellationEmailCustomer}}
}

// fromWithdrawAfter24 only admits the timedout correction.
func (e Engine) fromWithdrawAfter24(b *Booking, req ChangeRequest) Outcome {
	if req.Status != StatusTimedOut || req.AdminComments == "" {
		return Outcome{}
	}
	b.AdminComments = req.AdminComments
	b.Status = StatusTimedOut
	return Outcome{Changed: true}
}

func (e Engine) fromAssigned(b *Booking, req ChangeRequest) Outcome {
	switch req.Status {
	case StatusWithdrawBefore24, StatusWithdrawAfter24, StatusTimedOut:
	default:
		return Outcome{}
	}
	if req.Status == StatusTimedOut && req.AdminComments == "" {
		return Outcome{}
	}
	b.AdminComments = req.AdminComments
	b.Status = req.Status

	if req.Status == StatusWithdrawBefore24 || req.Status == StatusWithdrawAfter24 {
		return Outcome{Changed: true, Effects: []Effect{
			EffectCancellationEmailCustomer,
			EffectCancellationEmailTranslator,
		}}
	}
	return Outcome{Changed: true}
}
