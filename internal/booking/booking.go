package booking

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusPending               Status = "pending"
	StatusAssigned              Status = "assigned"
	StatusStarted               Status = "started"
	StatusCompleted             Status = "completed"
	StatusWithdrawBefore24      Status = "withdrawbefore24"
	StatusWithdrawAfter24       Status = "withdrawafter24"
	StatusTimedOut              Status = "timedout"
	StatusNotCarriedOutCustomer Status = "not_carried_out_customer"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusAssigned, StatusStarted, StatusCompleted,
		StatusWithdrawBefore24, StatusWithdrawAfter24, StatusTimedOut,
		StatusNotCarriedOutCustomer:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown status: %s", s)
	}
}

// Terminal reports whether no further transition is expected. timedout is
// not terminal: it can be reopened back to pending.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusWithdrawBefore24, StatusWithdrawAfter24, StatusNotCarriedOutCustomer:
		return true
	}
	return false
}

// JobType partitions bookings by who pays for them; translators only see
// bookings of the type their classification maps to.
type JobType string

const (
	JobTypePaid   JobType = "paid"
	JobTypeRWS    JobType = "rws"
	JobTypeUnpaid JobType = "unpaid"
)

// JobTypeForConsumer derives the booking's job type from the customer's
// consumer classification.
func JobTypeForConsumer(consumerType string) JobType {
	switch consumerType {
	case "rwsconsumer":
		return JobTypeRWS
	case "ngo":
		return JobTypeUnpaid
	default:
		return JobTypePaid
	}
}

// Booking is a requested interpreting session. Gender and Certified are
// matching preferences; empty means no preference.
type Booking struct {
	ID           int64
	Status       Status
	Due          time.Time
	Immediate    bool
	LanguageID   int64
	Gender       string
	Certified    string
	Duration     int // minutes
	PhoneType    bool
	PhysicalType bool
	Town         string
	CustomerID   int64
	// UserEmail overrides the owner's account address for booking mail.
	UserEmail     string
	Reference     string
	AdminComments string
	SessionTime   string // H:MM:SS, set when the session ends
	JobType       JobType
	// SpecificTranslatorID pre-targets the booking at one translator,
	// constraining general matching.
	SpecificTranslatorID *int64
	CreatedAt            time.Time
	WillExpireAt         time.Time
	EndAt                *time.Time
	// Reminder-mail bookkeeping, reset when a timedout booking reopens.
	CustomerEmailSent bool
	AdminEmailSent    bool
}

// OpenToTranslator reports whether general matching may offer the booking
// to the given translator, honoring specific-job targeting.
func (b *Booking) OpenToTranslator(translatorID int64) bool {
	return b.SpecificTranslatorID == nil || *b.SpecificTranslatorID == translatorID
}

// Assignment links a booking to the translator who accepted it. At most
// one active (not cancelled, not completed) assignment exists per booking,
// enforced by a partial unique index.
type Assignment struct {
	ID           int64
	BookingID    int64
	TranslatorID int64
	CreatedAt    time.Time
	CancelledAt  *time.Time
	CompletedAt  *time.Time
	CompletedBy  *int64
}

func (a *Assignment) Active() bool {
	return a.CancelledAt == nil && a.CompletedAt == nil
}

// User is the slice of an account the booking workflow needs: enough to
// address mail, SMS and push.
type User struct {
	ID     int64
	Name   string
	Email  string
	Mobile string
}

// MailAddress picks the booking's override address when present, else the
// owner's account address.
func (b *Booking) MailAddress(owner User) string {
	if b.UserEmail != "" {
		return b.UserEmail
	}
	return owner.Email
}
