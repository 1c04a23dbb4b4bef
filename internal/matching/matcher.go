package matching

import (
	"time"

	"github.com/mumairryk/BookingApp/internal/booking"
	"github.com/mumairryk/BookingApp/pkg/clock"
)

// Translator certification levels as stored in user_meta.level.
const (
	LevelCertified       = "Certified"
	LevelCertifiedLaw    = "Certified with specialisation in law"
	LevelCertifiedHealth = "Certified with specialisation in health care"
	LevelLayman          = "Layman"
	LevelReadCourses     = "Read Translation courses"
)

// TranslatorMeta is the matching-relevant slice of a translator profile.
type TranslatorMeta struct {
	TranslatorType     string
	Gender             string
	Level              string
	City               string
	NotGetNotification bool
	NotGetEmergency    bool
	NotGetNighttime    bool
}

// TranslatorTypeForJob maps a booking's job type to the translator
// classification allowed to serve it.
func TranslatorTypeForJob(t booking.JobType) string {
	switch t {
	case booking.JobTypePaid:
		return "professional"
	case booking.JobTypeRWS:
		return "rwstranslator"
	default:
		return "volunteer"
	}
}

// JobTypeForTranslator is the inverse mapping, used when listing the
// jobs a translator may browse.
func JobTypeForTranslator(translatorType string) booking.JobType {
	switch translatorType {
	case "professional":
		return booking.JobTypePaid
	case "rwstranslator":
		return booking.JobTypeRWS
	default:
		return booking.JobTypeUnpaid
	}
}

// LevelsForCertified expands a booking's certification preference into
// the translator levels that satisfy it. An empty preference accepts
// every level.
func LevelsForCertified(certified string) []string {
	switch certified {
	case "":
		return []string{LevelCertified, LevelCertifiedLaw, LevelCertifiedHealth, LevelLayman, LevelReadCourses}
	case "yes", "both":
		return []string{LevelCertified, LevelCertifiedLaw, LevelCertifiedHealth}
	case "law", "n_law":
		return []string{LevelCertifiedLaw}
	case "health", "n_health":
		return []string{LevelCertifiedHealth}
	case "normal":
		return []string{LevelLayman, LevelReadCourses}
	default:
		return nil
	}
}

func levelAllowed(certified, level string) bool {
	for _, l := range LevelsForCertified(certified) {
		if l == level {
			return true
		}
	}
	return false
}

// TownRuleSatisfied applies the on-site rule: a physical booking with no
// phone fallback needs the translator in the customer's town.
func TownRuleSatisfied(job *booking.Booking, meta TranslatorMeta) bool {
	if !job.PhysicalType || job.PhoneType {
		return true
	}
	return job.Town != "" && job.Town == meta.City
}

// JobSuitsTranslator applies the per-job filters that the pending-jobs
// SQL cannot express: certification level, specific-job targeting and
// the on-site town rule.
func JobSuitsTranslator(job *booking.Booking, translatorID int64, meta TranslatorMeta) bool {
	if !levelAllowed(job.Certified, meta.Level) {
		return false
	}
	if !job.OpenToTranslator(translatorID) {
		return false
	}
	return TownRuleSatisfied(job, meta)
}

// ShouldPush reports whether the translator receives push for this
// booking at all, honoring the blanket and emergency opt-outs.
func ShouldPush(meta TranslatorMeta, immediate bool) bool {
	if meta.NotGetNotification {
		return false
	}
	if immediate && meta.NotGetEmergency {
		return false
	}
	return true
}

// DelayPush reports whether the push must wait for business hours. Only
// night-time sends to translators who opted out of night push are held.
func DelayPush(clk clock.Clock, now time.Time, meta TranslatorMeta) bool {
	if !clk.IsNightTime(now) {
		return false
	}
	return meta.NotGetNighttime
}
