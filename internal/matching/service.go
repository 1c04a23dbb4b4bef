package matching

import (
	"context"
	"fmt"

	"github.com/mumairryk/BookingApp/internal/booking"
)

// Service answers "which jobs can this translator take" and "which
// translators fit this job".
type Service struct {
	Repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{Repo: repo}
}

// PotentialJobs lists the pending bookings the translator may accept:
// right job type and language per profile, then level, targeting and
// town filters per job.
func (s *Service) PotentialJobs(ctx context.Context, translatorID int64) ([]booking.Booking, error) {
	meta, err := s.Repo.Meta(ctx, translatorID)
	if err != nil {
		return nil, fmt.Errorf("translator meta: %w", err)
	}
	langs, err := s.Repo.LanguageIDs(ctx, translatorID)
	if err != nil {
		return nil, fmt.Errorf("translator languages: %w", err)
	}
	if len(langs) == 0 {
		return nil, nil
	}

	jobs, err := s.Repo.PendingJobs(ctx, JobTypeForTranslator(meta.TranslatorType), langs, meta.Gender)
	if err != nil {
		return nil, fmt.Errorf("pending jobs: %w", err)
	}

	suited := jobs[:0]
	for i := range jobs {
		if JobSuitsTranslator(&jobs[i], translatorID, meta) {
			suited = append(suited, jobs[i])
		}
	}
	return suited, nil
}

// Candidates returns the translators a new or reopened booking should be
// offered to, paired with their notification profiles.
func (s *Service) Candidates(ctx context.Context, job *booking.Booking) ([]Candidate, error) {
	users, err := s.Repo.PotentialTranslators(ctx, job)
	if err != nil {
		return nil, fmt.Errorf("potential translators: %w", err)
	}

	var out []Candidate
	for _, u := range users {
		if !job.OpenToTranslator(u.ID) {
			continue
		}
		meta, err := s.Repo.Meta(ctx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("translator meta: %w", err)
		}
		if !TownRuleSatisfied(job, meta) {
			continue
		}
		out = append(out, Candidate{User: u, Meta: meta})
	}
	return out, nil
}

// Candidate is a matched translator with the profile flags the
// notification layer needs.
type Candidate struct {
	User booking.User
	Meta TranslatorMeta
}
