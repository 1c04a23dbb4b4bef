package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// immediateLeadTime is how far in the future an immediate booking is due.
const immediateLeadTime = 5 * time.Minute

// CreateRequest carries the customer's booking form. JobFor holds the
// interpreter-qualification selection the certified requirement derives
// from ("normal", "certified", or a specialisation).
type CreateRequest struct {
	Immediate    bool
	Due          time.Time
	LanguageID   int64
	Gender       string
	JobFor       []string
	Duration     int
	PhoneType    bool
	PhysicalType bool
	Town         string
	UserEmail    string
	Reference    string
	ByAdmin      bool
}

type CreateResult struct {
	Result
	Booking      *Booking
	JobFor       []string
	CustomerTown string
	CustomerType string
}

// CreateBooking stores a new booking for the customer and fans it out to
// suitable translators by push and SMS. Only customers may book.
func (s *Service) CreateBooking(ctx context.Context, customer User, req CreateRequest) (CreateResult, error) {
	userType, err := s.Repo.UserType(ctx, customer.ID)
	if err != nil {
		return CreateResult{}, fmt.Errorf("load user type: %w", err)
	}
	if userType != "customer" {
		return CreateResult{Result: reject(RejectValidation, "Translator cannot create booking")}, nil
	}

	meta, err := s.Repo.OwnerMeta(ctx, customer.ID)
	if err != nil {
		return CreateResult{}, fmt.Errorf("load customer meta: %w", err)
	}

	now := s.Clock.Now()
	b := &Booking{
		Status:       StatusPending,
		Immediate:    req.Immediate,
		LanguageID:   req.LanguageID,
		Gender:       req.Gender,
		Certified:    certifiedType(req.JobFor),
		Duration:     req.Duration,
		PhoneType:    req.PhoneType,
		PhysicalType: req.PhysicalType,
		Town:         req.Town,
		CustomerID:   customer.ID,
		UserEmail:    req.UserEmail,
		Reference:    req.Reference,
		JobType:      JobTypeForConsumer(meta.ConsumerType),
		CreatedAt:    now,
	}
	if b.Town == "" {
		b.Town = meta.City
	}
	if b.Reference == "" {
		b.Reference = uuid.NewString()
	}

	if req.Immediate {
		// Immediate sessions start within minutes and are phone-only.
		b.Due = now.Add(immediateLeadTime)
		b.PhoneType = true
	} else {
		b.Due = req.Due
	}

	if msg, valid := validateCreate(b, req, now); !valid {
		return CreateResult{Result: reject(RejectValidation, msg)}, nil
	}
	b.WillExpireAt = s.Clock.WillExpireAt(b.Due, now)

	if err := s.Repo.Insert(ctx, b); err != nil {
		return CreateResult{}, fmt.Errorf("insert booking: %w", err)
	}

	subject := fmt.Sprintf("Vi har mottagit er tolkbokning. Bokningsnr: #%d", b.ID)
	s.sendMail(ctx, b.MailAddress(customer), customer.Name, subject, "emails.job-created", map[string]any{
		"user": customer.Name,
		"job":  b.ID,
		"due":  b.Due,
	})

	s.Notifier.NotifySuitableTranslators(ctx, b, 0)
	s.Notifier.SMSSuitableTranslators(ctx, b)

	return CreateResult{
		Result:       ok(),
		Booking:      b,
		JobFor:       jobForDisplay(b),
		CustomerTown: meta.City,
		CustomerType: meta.CustomerType,
	}, nil
}

func validateCreate(b *Booking, req CreateRequest, now time.Time) (string, bool) {
	if b.LanguageID == 0 || b.Duration == 0 {
		return "You must fill in all required fields", false
	}
	if !req.Immediate {
		if req.Due.IsZero() {
			return "You must fill in all required fields", false
		}
		if !req.PhoneType && !req.PhysicalType {
			return "You must fill in all required fields", false
		}
		if req.Due.Before(now) {
			return "Can't create booking in the past", false
		}
	}
	return "", true
}

// certifiedType derives the certification requirement from the customer's
// job-for selection.
func certifiedType(jobFor []string) string {
	has := func(v string) bool {
		for _, f := range jobFor {
			if f == v {
				return true
			}
		}
		return false
	}
	switch {
	case has("normal") && has("certified"):
		return "both"
	case has("certified"):
		return "yes"
	case len(jobFor) > 0:
		return jobFor[0]
	}
	return ""
}

// jobForDisplay renders the booking's preference tags the way customer
// views present them.
func jobForDisplay(b *Booking) []string {
	var out []string
	switch b.Gender {
	case "male":
		out = append(out, "Man")
	case "female":
		out = append(out, "Kvinna")
	}
	switch b.Certified {
	case "":
	case "both":
		out = append(out, "Godkänd tolk", "Auktoriserad")
	case "yes":
		out = append(out, "Auktoriserad")
	case "n_health":
		out = append(out, "Sjukvårdstolk")
	case "law", "n_law":
		out = append(out, "Rättstolk")
	default:
		out = append(out, b.Certified)
	}
	return out
}
