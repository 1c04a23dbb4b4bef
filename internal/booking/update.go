package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/mumairryk/BookingApp/pkg/db"
)

// UpdateRequest is the admin edit form for a booking. Zero values mean
// "leave alone": a nil Due/LanguageID skips that change, a zero
// TranslatorID with an empty TranslatorEmail skips reassignment.
type UpdateRequest struct {
	Status          Status
	AdminComments   string
	Reference       string
	SessionTime     string
	Due             *time.Time
	LanguageID      *int64
	TranslatorID    int64
	TranslatorEmail string
}

type UpdateResult struct {
	Result
	StatusChanged     bool
	TranslatorChanged bool
}

// UpdateBooking applies an admin edit: translator reassignment, due and
// language changes, and the status transition, in that order. Every
// applied change lands in the booking's update log; notifications go out
// only after the mutation is committed, and the due/translator/language
// notices are skipped entirely once the due time has passed.
func (s *Service) UpdateBooking(ctx context.Context, actor User, bookingID int64, req UpdateRequest) (UpdateResult, error) {
	var (
		b                 *Booking
		entries           []any
		outcome           Outcome
		oldDue            time.Time
		dueChanged        bool
		oldLangName       string
		langChanged       bool
		translatorChanged bool
		oldTranslator     *User
		newTranslator     *User
		assigned          *User
	)

	err := db.WithTx(ctx, s.DB, func(tx pgx.Tx) error {
		locked, err := GetForUpdate(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		now := s.Clock.Now()

		// Translator reassignment: cancel the active assignment and
		// create the new one; both rows stay for the audit trail.
		if req.TranslatorID != 0 || req.TranslatorEmail != "" {
			nt, err := s.resolveTranslator(ctx, req)
			if err != nil {
				return fmt.Errorf("resolve translator: %w", err)
			}
			current, err := ActiveAssignmentTx(ctx, tx, bookingID)
			if err != nil {
				return err
			}
			if current == nil || current.TranslatorID != nt.ID {
				if current != nil {
					prev, err := s.Repo.UserByID(ctx, current.TranslatorID)
					if err != nil {
						return fmt.Errorf("load current translator: %w", err)
					}
					oldTranslator = &prev
					if err := CancelActiveAssignments(ctx, tx, bookingID, now); err != nil {
						return err
					}
				}
				if _, err := InsertAssignment(ctx, tx, bookingID, nt.ID, now); err != nil {
					return err
				}
				translatorChanged = true
				newTranslator = &nt
				entry := map[string]string{"new_translator": nt.Email}
				if oldTranslator != nil {
					entry["old_translator"] = oldTranslator.Email
				}
				entries = append(entries, entry)
			}
		}

		if req.Due != nil && !req.Due.Equal(locked.Due) {
			oldDue = locked.Due
			entries = append(entries, map[string]string{
				"old_due": locked.Due.Format(time.RFC3339),
				"new_due": req.Due.Format(time.RFC3339),
			})
			locked.Due = *req.Due
			dueChanged = true
		}

		if req.LanguageID != nil && *req.LanguageID != locked.LanguageID {
			oldLangName = s.langName(ctx, locked.LanguageID)
			entries = append(entries, map[string]string{
				"old_lang": oldLangName,
				"new_lang": s.langName(ctx, *req.LanguageID),
			})
			locked.LanguageID = *req.LanguageID
			langChanged = true
		}

		if req.Status != "" {
			outcome = s.Engine.Apply(locked, ChangeRequest{
				Status:            req.Status,
				AdminComments:     req.AdminComments,
				SessionTime:       req.SessionTime,
				TranslatorChanged: translatorChanged,
			})
			if outcome.Log != nil {
				entries = append(entries, outcome.Log)
			}
		}

		locked.AdminComments = req.AdminComments
		if req.Reference != "" {
			locked.Reference = req.Reference
		}

		// Capture the active translator before any in-tx effect
		// completes the assignment; mail effects need the account.
		if tr, err := AssignedTranslatorTx(ctx, tx, bookingID); err == nil {
			assigned = &tr
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}

		for _, ef := range outcome.Effects {
			if ef == EffectCompleteAssignment {
				if err := CompleteActiveAssignment(ctx, tx, bookingID, now, actor.ID); err != nil {
					return err
				}
			}
		}

		b = locked
		return Update(ctx, tx, locked)
	})
	if err != nil {
		return UpdateResult{}, fmt.Errorf("update booking: %w", err)
	}

	if len(entries) > 0 {
		if err := s.Updates.Insert(ctx, b.ID, actor.ID, "booking_updated", entries); err != nil {
			s.Log.Warn("persist update log failed", zap.Int64("booking", b.ID), zap.Error(err))
		}
		s.Log.Info("booking updated",
			zap.Int64("booking", b.ID),
			zap.Int64("actor", actor.ID),
			zap.Any("changes", entries))
	}

	s.runEffects(ctx, b, outcome, assigned)

	// Past-due bookings only get the raw save; no change notices.
	if b.Due.After(s.Clock.Now()) {
		if dueChanged {
			s.sendChangedDateNotification(ctx, b, oldDue)
		}
		if translatorChanged {
			s.sendChangedTranslatorNotification(ctx, b, oldTranslator, newTranslator)
		}
		if langChanged {
			s.sendChangedLangNotification(ctx, b, oldLangName)
		}
	}

	return UpdateResult{
		Result:            ok(),
		StatusChanged:     outcome.Changed,
		TranslatorChanged: translatorChanged,
	}, nil
}

// resolveTranslator looks the new translator up by e-mail when given,
// else by id.
func (s *Service) resolveTranslator(ctx context.Context, req UpdateRequest) (User, error) {
	if req.TranslatorEmail != "" {
		return s.Repo.UserByEmail(ctx, req.TranslatorEmail)
	}
	return s.Repo.UserByID(ctx, req.TranslatorID)
}

func (s *Service) langName(ctx context.Context, id int64) string {
	name, err := s.Repo.LanguageName(ctx, id)
	if err != nil {
		s.Log.Warn("language lookup failed", zap.Int64("language", id), zap.Error(err))
		return ""
	}
	return name
}

// runEffects executes the engine's post-commit side effects. assigned is
// the active translator captured before in-tx effects ran, nil when the
// booking had none.
func (s *Service) runEffects(ctx context.Context, b *Booking, outcome Outcome, assigned *User) {
	if !outcome.Changed || len(outcome.Effects) == 0 {
		return
	}
	owner, err := s.Repo.Owner(ctx, b.ID)
	if err != nil {
		s.Log.Warn("load owner failed", zap.Int64("booking", b.ID), zap.Error(err))
		return
	}
	var oldStatus Status
	if outcome.Log != nil {
		oldStatus = outcome.Log.OldStatus
	}

	for _, ef := range outcome.Effects {
		switch ef {
		case EffectReopenEmailCustomer:
			language := s.langName(ctx, b.LanguageID)
			subject := fmt.Sprintf("Vi har nu återöppnat er bokning av %stolk för bokning #%d", language, b.ID)
			s.sendMail(ctx, b.MailAddress(owner), owner.Name, subject, "emails.job-change-status-to-customer", map[string]any{
				"user": owner.Name,
				"job":  b.ID,
			})

		case EffectNotifyMatchingTranslators:
			s.Notifier.NotifySuitableTranslators(ctx, b, 0)

		case EffectAcceptedEmailCustomer:
			s.sendMail(ctx, b.MailAddress(owner), owner.Name, subjectAccepted(b.ID), "emails.job-accepted", map[string]any{
				"user": owner.Name,
				"job":  b.ID,
			})

		case EffectAcceptedEmailTranslator:
			if assigned != nil {
				s.sendMail(ctx, assigned.Email, assigned.Name, subjectAccepted(b.ID), "emails.job-changed-translator-new-translator", map[string]any{
					"user": assigned.Name,
					"job":  b.ID,
				})
			}

		case EffectSessionStartReminders:
			s.Notifier.PushSessionStartReminder(ctx, b, owner)
			if assigned != nil {
				s.Notifier.PushSessionStartReminder(ctx, b, *assigned)
			}

		case EffectCancellationEmailCustomer:
			subject := fmt.Sprintf("Avbokning av bokningsnr: #%d", b.ID)
			if oldStatus == StatusAssigned {
				subject = subjectSessionEnded(b.ID)
			}
			s.sendMail(ctx, b.MailAddress(owner), owner.Name, subject, "emails.status-changed-from-pending-or-assigned-customer", map[string]any{
				"user": owner.Name,
				"job":  b.ID,
			})

		case EffectCancellationEmailTranslator:
			if assigned != nil {
				s.sendMail(ctx, assigned.Email, assigned.Name, subjectSessionEnded(b.ID), "emails.job-cancel-translator", map[string]any{
					"user": assigned.Name,
					"job":  b.ID,
				})
			}

		case EffectSessionEndedEmails:
			sessionText := sessionTimeText(b.SessionTime)
			s.sendMail(ctx, b.MailAddress(owner), owner.Name, subjectSessionEnded(b.ID), "emails.session-ended", map[string]any{
				"user":         owner.Name,
				"job":          b.ID,
				"session_time": sessionText,
				"for_text":     "faktura",
			})
			if assigned != nil {
				s.sendMail(ctx, assigned.Email, assigned.Name, subjectSessionEnded(b.ID), "emails.session-ended", map[string]any{
					"user":         assigned.Name,
					"job":          b.ID,
					"session_time": sessionText,
					"for_text":     "lön",
				})
			}

		case EffectCompleteAssignment:
			// Applied inside the update transaction.
		}
	}
}

func (s *Service) sendChangedDateNotification(ctx context.Context, b *Booking, oldDue time.Time) {
	owner, err := s.Repo.Owner(ctx, b.ID)
	if err != nil {
		s.Log.Warn("load owner failed", zap.Int64("booking", b.ID), zap.Error(err))
		return
	}
	subject := fmt.Sprintf("Meddelande om ändring av tolkbokning för uppdrag # %d", b.ID)
	data := map[string]any{
		"job":      b.ID,
		"old_time": oldDue,
		"new_time": b.Due,
	}
	s.sendMail(ctx, b.MailAddress(owner), owner.Name, subject, "emails.job-changed-date", data)

	if tr, err := s.Repo.AssignedTranslator(ctx, b.ID); err == nil {
		s.sendMail(ctx, tr.Email, tr.Name, subject, "emails.job-changed-date", data)
	}
}

func (s *Service) sendChangedTranslatorNotification(ctx context.Context, b *Booking, oldTranslator, newTranslator *User) {
	owner, err := s.Repo.Owner(ctx, b.ID)
	if err != nil {
		s.Log.Warn("load owner failed", zap.Int64("booking", b.ID), zap.Error(err))
		return
	}
	subject := fmt.Sprintf("Meddelande om tilldelning av tolkuppdrag för uppdrag # %d", b.ID)
	s.sendMail(ctx, b.MailAddress(owner), owner.Name, subject, "emails.job-changed-translator-customer", map[string]any{
		"user": owner.Name,
		"job":  b.ID,
	})
	if oldTranslator != nil {
		s.sendMail(ctx, oldTranslator.Email, oldTranslator.Name, subject, "emails.job-changed-translator-old-translator", map[string]any{
			"user": oldTranslator.Name,
			"job":  b.ID,
		})
	}
	if newTranslator != nil {
		s.sendMail(ctx, newTranslator.Email, newTranslator.Name, subject, "emails.job-changed-translator-new-translator", map[string]any{
			"user": newTranslator.Name,
			"job":  b.ID,
		})
	}
}

func (s *Service) sendChangedLangNotification(ctx context.Context, b *Booking, oldLang string) {
	owner, err := s.Repo.Owner(ctx, b.ID)
	if err != nil {
		s.Log.Warn("load owner failed", zap.Int64("booking", b.ID), zap.Error(err))
		return
	}
	subject := fmt.Sprintf("Meddelande om ändring av tolkbokning för uppdrag # %d", b.ID)
	data := map[string]any{
		"job":      b.ID,
		"old_lang": oldLang,
		"new_lang": s.langName(ctx, b.LanguageID),
	}
	s.sendMail(ctx, b.MailAddress(owner), owner.Name, subject, "emails.job-changed-lang", data)

	if tr, err := s.Repo.AssignedTranslator(ctx, b.ID); err == nil {
		s.sendMail(ctx, tr.Email, tr.Name, subject, "emails.job-changed-lang", data)
	}
}
