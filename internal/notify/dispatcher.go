package notify

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/mumairryk/BookingApp/internal/booking"
	"github.com/mumairryk/BookingApp/internal/matching"
	"github.com/mumairryk/BookingApp/pkg/clock"
	"github.com/mumairryk/BookingApp/pkg/onesignal"
)

// PushSender abstracts the OneSignal client for tests.
type PushSender interface {
	Send(ctx context.Context, n onesignal.Notification) error
}

// SMSSender abstracts the SMS gateway for tests.
type SMSSender interface {
	Send(ctx context.Context, from, to, message string) error
}

// CandidateFinder answers which translators a booking should fan out to.
type CandidateFinder interface {
	Candidates(ctx context.Context, job *booking.Booking) ([]matching.Candidate, error)
}

// ProfileSource loads a recipient's notification profile. Customers and
// translators without a profile row get the default (everything on).
type ProfileSource interface {
	Meta(ctx context.Context, userID int64) (matching.TranslatorMeta, error)
}

// LanguageNamer resolves a language id to its display name.
type LanguageNamer interface {
	Name(ctx context.Context, languageID int64) string
}

const dueFormat = "2006-01-02 15:04:05"

// send_after wants an explicit zone on top of the due format.
const sendAfterFormat = "2006-01-02 15:04:05 MST"

// Dispatcher implements the booking package's Notifier: it fans push and
// SMS out to matched translators and to booking parties. Every public
// method is fire-and-forget; transport failures are logged and swallowed
// so committed booking mutations always stand.
type Dispatcher struct {
	Push     PushSender
	SMS      SMSSender
	Matcher  CandidateFinder
	Profiles ProfileSource
	Langs    LanguageNamer
	Clock    clock.Clock
	Log      *zap.Logger
	Title    string
	SMSFrom  string
}

func NewDispatcher(push PushSender, sms SMSSender, matcher CandidateFinder, profiles ProfileSource, langs LanguageNamer, clk clock.Clock, log *zap.Logger, title, smsFrom string) *Dispatcher {
	return &Dispatcher{
		Push:     push,
		SMS:      sms,
		Matcher:  matcher,
		Profiles: profiles,
		Langs:    langs,
		Clock:    clk,
		Log:      log,
		Title:    title,
		SMSFrom:  smsFrom,
	}
}

// NotifySuitableTranslators pushes a new or reopened booking to every
// matched translator, splitting recipients by their night-time profile:
// opted-out translators get the push deferred to the next business
// morning instead of dropped.
func (d *Dispatcher) NotifySuitableTranslators(ctx context.Context, job *booking.Booking, excludeTranslatorID int64) {
	candidates, err := d.Matcher.Candidates(ctx, job)
	if err != nil {
		d.Log.Warn("match translators failed", zap.Int64("booking", job.ID), zap.Error(err))
		return
	}

	now := d.Clock.Now()
	var immediate, delayed []string
	for _, c := range candidates {
		if c.User.ID == excludeTranslatorID {
			continue
		}
		if !matching.ShouldPush(c.Meta, job.Immediate) {
			continue
		}
		if matching.DelayPush(d.Clock, now, c.Meta) {
			delayed = append(delayed, c.User.Email)
		} else {
			immediate = append(immediate, c.User.Email)
		}
	}

	language := d.Langs.Name(ctx, job.LanguageID)
	var text string
	if job.Immediate {
		text = fmt.Sprintf("Ny akutbokning för %stolk %dmin", language, job.Duration)
	} else {
		text = fmt.Sprintf("Ny bokning för %stolk %dmin %s", language, job.Duration, job.Due.Format(dueFormat))
	}

	d.send(ctx, job, "suitable_job", immediate, text, "")
	if len(delayed) > 0 {
		sendAfter := d.Clock.NextBusinessTime(now).Format(sendAfterFormat)
		d.send(ctx, job, "suitable_job", delayed, text, sendAfter)
	}
	d.Log.Info("booking fan-out",
		zap.Int64("booking", job.ID),
		zap.Int("immediate", len(immediate)),
		zap.Int("delayed", len(delayed)))
}

// SMSSuitableTranslators texts every matched translator and returns how
// many messages went out. Phone bookings take the phone wording even
// when the booking also allows on-site.
func (d *Dispatcher) SMSSuitableTranslators(ctx context.Context, job *booking.Booking) int {
	candidates, err := d.Matcher.Candidates(ctx, job)
	if err != nil {
		d.Log.Warn("match translators failed", zap.Int64("booking", job.ID), zap.Error(err))
		return 0
	}

	language := d.Langs.Name(ctx, job.LanguageID)
	date := job.Due.Format("2006-01-02")
	hour := job.Due.Format("15:04")
	duration := convertToHoursMins(job.Duration)

	var message string
	switch {
	case job.PhoneType || !job.PhysicalType:
		message = fmt.Sprintf(
			"Ny telefontolkning %s kl %s, %s, %stolk. Logga in i appen eller ring för att acceptera uppdrag #%d.",
			date, hour, duration, language, job.ID)
	default:
		message = fmt.Sprintf(
			"Ny platstolkning i %s %s kl %s, %s, %stolk. Logga in i appen eller ring för att acceptera uppdrag #%d.",
			job.Town, date, hour, duration, language, job.ID)
	}

	sent := 0
	for _, c := range candidates {
		if c.User.Mobile == "" {
			continue
		}
		if err := d.SMS.Send(ctx, d.SMSFrom, c.User.Mobile, message); err != nil {
			d.Log.Warn("booking sms failed",
				zap.Int64("booking", job.ID),
				zap.Int64("translator", c.User.ID),
				zap.Error(err))
			continue
		}
		sent++
	}
	return sent
}

// PushJobAccepted tells the customer a translator took the booking.
func (d *Dispatcher) PushJobAccepted(ctx context.Context, job *booking.Booking, customer booking.User) {
	language := d.Langs.Name(ctx, job.LanguageID)
	text := fmt.Sprintf(
		"Din bokning för %stolk %dmin %s har accepterats av en tolk. Vänligen öppna appen för att se detaljer om tolken.",
		language, job.Duration, job.Due.Format(dueFormat))
	d.sendDirect(ctx, job, "job_accepted", customer, text)
}

// PushJobExpired tells the customer nobody accepted in time.
func (d *Dispatcher) PushJobExpired(ctx context.Context, job *booking.Booking, customer booking.User) {
	language := d.Langs.Name(ctx, job.LanguageID)
	text := fmt.Sprintf(
		"Tyvärr har ingen tolk accepterat er bokning: (%stolk, %dmin, %s). Vänligen pröva boka om tiden.",
		language, job.Duration, job.Due.Format(dueFormat))
	d.sendDirect(ctx, job, "job_expired", customer, text)
}

// PushCancelledToTranslator tells the assigned translator the customer
// withdrew.
func (d *Dispatcher) PushCancelledToTranslator(ctx context.Context, job *booking.Booking, translator booking.User) {
	language := d.Langs.Name(ctx, job.LanguageID)
	text := fmt.Sprintf(
		"Kunden har avbokat bokningen för %stolk, %dmin, %s. Var god och kolla dina tidigare bokningar för detaljer.",
		language, job.Duration, job.Due.Format(dueFormat))
	d.sendDirect(ctx, job, "job_cancelled", translator, text)
}

// PushCancelledToCustomer tells the customer the translator backed out
// and the hunt restarted.
func (d *Dispatcher) PushCancelledToCustomer(ctx context.Context, job *booking.Booking, customer booking.User) {
	language := d.Langs.Name(ctx, job.LanguageID)
	text := fmt.Sprintf(
		"Er %stolk, %dmin %s, har avbokat tolkningen. Vi letar nu efter en ny tolk som kan ersätta den. Tack.",
		language, job.Duration, job.Due.Format(dueFormat))
	d.sendDirect(ctx, job, "job_cancelled", customer, text)
}

// PushSessionStartReminder nudges a booking party before the session.
func (d *Dispatcher) PushSessionStartReminder(ctx context.Context, job *booking.Booking, recipient booking.User) {
	language := d.Langs.Name(ctx, job.LanguageID)
	location := "(telefon)"
	if job.PhysicalType && !job.PhoneType {
		location = fmt.Sprintf("(på plats i %s)", job.Town)
	}
	text := fmt.Sprintf(
		"Detta är en påminnelse om att du har en %stolkning %s kl %s på %s som vara i %d min. Lycka till och kom ihåg att ge feedback efter utförd tolkning!",
		language, location, job.Due.Format("15:04"), job.Due.Format("2006-01-02"), job.Duration)
	d.sendDirect(ctx, job, "session_start_remind", recipient, text)
}

// sendDirect delivers a push to one known recipient, honoring their
// notification opt-out and night-time deferral. A missing profile row
// means the default profile.
func (d *Dispatcher) sendDirect(ctx context.Context, job *booking.Booking, notificationType string, recipient booking.User, text string) {
	meta, err := d.Profiles.Meta(ctx, recipient.ID)
	if err != nil {
		if !errors.Is(err, booking.ErrNotFound) {
			d.Log.Warn("load notification profile failed",
				zap.Int64("user", recipient.ID),
				zap.Error(err))
		}
		meta = matching.TranslatorMeta{}
	}
	if meta.NotGetNotification {
		return
	}
	sendAfter := ""
	now := d.Clock.Now()
	if matching.DelayPush(d.Clock, now, meta) {
		sendAfter = d.Clock.NextBusinessTime(now).Format(sendAfterFormat)
	}
	d.send(ctx, job, notificationType, []string{recipient.Email}, text, sendAfter)
}

func (d *Dispatcher) send(ctx context.Context, job *booking.Booking, notificationType string, emails []string, text, sendAfter string) {
	if len(emails) == 0 {
		return
	}
	androidSound, iosSound := sounds(notificationType, job.Immediate)
	n := onesignal.Notification{
		Tags:          onesignal.TagsFromEmails(emails),
		Data:          jobToData(job, notificationType),
		Title:         map[string]string{"en": d.Title},
		Contents:      map[string]string{"en": text},
		IOSBadgeType:  "Increase",
		IOSBadgeCount: 1,
		AndroidSound:  androidSound,
		IOSSound:      iosSound,
		SendAfter:     sendAfter,
	}
	if err := d.Push.Send(ctx, n); err != nil {
		d.Log.Warn("booking push failed",
			zap.Int64("booking", job.ID),
			zap.String("type", notificationType),
			zap.Int("recipients", len(emails)),
			zap.Error(err))
	}
}

// sounds picks the notification sound: new-booking pushes distinguish
// emergency from scheduled, everything else uses the platform default.
func sounds(notificationType string, immediate bool) (android, ios string) {
	if notificationType != "suitable_job" {
		return "default", "default"
	}
	if immediate {
		return "emergency_booking", "emergency_booking.mp3"
	}
	return "normal_booking", "normal_booking.mp3"
}

func jobToData(job *booking.Booking, notificationType string) map[string]any {
	return map[string]any{
		"job_id":            job.ID,
		"due":               job.Due.Format(dueFormat),
		"duration":          job.Duration,
		"immediate":         job.Immediate,
		"from_language_id":  job.LanguageID,
		"phone_type":        job.PhoneType,
		"physical_type":     job.PhysicalType,
		"town":              job.Town,
		"job_type":          string(job.JobType),
		"notification_type": notificationType,
	}
}

// convertToHoursMins renders a minute count for SMS, e.g. "45min",
// "1h", "02h 30min".
func convertToHoursMins(minutes int) string {
	if minutes < 60 {
		return strconv.Itoa(minutes) + "min"
	}
	if minutes == 60 {
		return "1h"
	}
	return fmt.Sprintf("%02dh %02dmin", minutes/60, minutes%60)
}

var _ booking.Notifier = (*Dispatcher)(nil)
