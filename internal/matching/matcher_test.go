package matching

import (
	"testing"
	"time"

	"github.com/mumairryk/BookingApp/internal/booking"
	"github.com/mumairryk/BookingApp/pkg/clock"
)

func TestTranslatorTypeMapping(t *testing.T) {
	cases := map[booking.JobType]string{
		booking.JobTypePaid:   "professional",
		booking.JobTypeRWS:    "rwstranslator",
		booking.JobTypeUnpaid: "volunteer",
	}
	for jobType, translatorType := range cases {
		if got := TranslatorTypeForJob(jobType); got != translatorType {
			t.Fatalf("TranslatorTypeForJob(%s) = %q, want %q", jobType, got, translatorType)
		}
		if got := JobTypeForTranslator(translatorType); got != jobType {
			t.Fatalf("JobTypeForTranslator(%q) = %q, want %q", translatorType, got, jobType)
		}
	}
	if got := JobTypeForTranslator("unknown"); got != booking.JobTypeUnpaid {
		t.Fatalf("unknown translator type should map to unpaid, got %q", got)
	}
}

func TestLevelsForCertified(t *testing.T) {
	if got := LevelsForCertified(""); len(got) != 5 {
		t.Fatalf("no preference should accept every level, got %v", got)
	}
	for _, pref := range []string{"yes", "both"} {
		got := LevelsForCertified(pref)
		want := []string{LevelCertified, LevelCertifiedLaw, LevelCertifiedHealth}
		if len(got) != len(want) {
			t.Fatalf("LevelsForCertified(%q) = %v", pref, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("LevelsForCertified(%q) = %v", pref, got)
			}
		}
	}
	if got := LevelsForCertified("law"); len(got) != 1 || got[0] != LevelCertifiedLaw {
		t.Fatalf("LevelsForCertified(law) = %v", got)
	}
	if got := LevelsForCertified("n_health"); len(got) != 1 || got[0] != LevelCertifiedHealth {
		t.Fatalf("LevelsForCertified(n_health) = %v", got)
	}
	got := LevelsForCertified("normal")
	if len(got) != 2 || got[0] != LevelLayman || got[1] != LevelReadCourses {
		t.Fatalf("LevelsForCertified(normal) = %v", got)
	}
	// Unrecognized values match no level at all.
	if got := LevelsForCertified("gibberish"); len(got) != 0 {
		t.Fatalf("LevelsForCertified(gibberish) = %v, want empty", got)
	}
}

func TestTownRuleSatisfied(t *testing.T) {
	onsite := &booking.Booking{PhysicalType: true, Town: "Stockholm"}
	if !TownRuleSatisfied(onsite, TranslatorMeta{City: "Stockholm"}) {
		t.Fatalf("same town must satisfy the on-site rule")
	}
	if TownRuleSatisfied(onsite, TranslatorMeta{City: "Göteborg"}) {
		t.Fatalf("different town must fail the on-site rule")
	}
	if TownRuleSatisfied(&booking.Booking{PhysicalType: true}, TranslatorMeta{}) {
		t.Fatalf("unknown towns must fail the on-site rule")
	}

	// A phone fallback lifts the rule.
	flexible := &booking.Booking{PhysicalType: true, PhoneType: true, Town: "Stockholm"}
	if !TownRuleSatisfied(flexible, TranslatorMeta{City: "Göteborg"}) {
		t.Fatalf("phone fallback should lift the town rule")
	}
	if !TownRuleSatisfied(&booking.Booking{PhoneType: true}, TranslatorMeta{}) {
		t.Fatalf("phone bookings have no town rule")
	}
}

func TestJobSuitsTranslator(t *testing.T) {
	job := &booking.Booking{Certified: "yes", PhoneType: true}
	meta := TranslatorMeta{Level: LevelCertified}
	if !JobSuitsTranslator(job, 7, meta) {
		t.Fatalf("certified translator should suit a certified job")
	}
	if JobSuitsTranslator(job, 7, TranslatorMeta{Level: LevelLayman}) {
		t.Fatalf("layman must not suit a certified job")
	}

	specific := int64(9)
	targeted := &booking.Booking{PhoneType: true, SpecificTranslatorID: &specific}
	if JobSuitsTranslator(targeted, 7, TranslatorMeta{Level: LevelCertified}) {
		t.Fatalf("targeted job must not suit other translators")
	}
	if !JobSuitsTranslator(targeted, 9, TranslatorMeta{Level: LevelCertified}) {
		t.Fatalf("targeted job should suit its translator")
	}
}

func TestShouldPush(t *testing.T) {
	if !ShouldPush(TranslatorMeta{}, false) {
		t.Fatalf("default profile should receive push")
	}
	if ShouldPush(TranslatorMeta{NotGetNotification: true}, false) {
		t.Fatalf("blanket opt-out must suppress push")
	}
	if ShouldPush(TranslatorMeta{NotGetEmergency: true}, true) {
		t.Fatalf("emergency opt-out must suppress immediate push")
	}
	if !ShouldPush(TranslatorMeta{NotGetEmergency: true}, false) {
		t.Fatalf("emergency opt-out must not affect scheduled push")
	}
}

func TestDelayPush(t *testing.T) {
	clk := clock.Real{NightStartHour: 21, NightEndHour: 9, BusinessStartHour: 9}
	night := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)
	day := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

	if !DelayPush(clk, night, TranslatorMeta{NotGetNighttime: true}) {
		t.Fatalf("night opt-out at night must delay")
	}
	if DelayPush(clk, night, TranslatorMeta{}) {
		t.Fatalf("default profile is not delayed at night")
	}
	if DelayPush(clk, day, TranslatorMeta{NotGetNighttime: true}) {
		t.Fatalf("daytime pushes are never delayed")
	}
}
