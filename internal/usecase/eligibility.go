package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/bloodlink/bloodlink/internal/domain"
)

// EligibilityUsecase answers whether an identity may currently act as a
// donor. The donation log is its only input: the most recent donation,
// regardless of source or blood group, starts the cooldown.
type EligibilityUsecase struct {
	donations DonationRepository
	now       func() time.Time
}

func NewEligibilityUsecase(donations DonationRepository) *EligibilityUsecase {
	return &EligibilityUsecase{
		donations: donations,
		now:       time.Now,
	}
}

// CanDonate reports eligibility and, when the cooldown is active, the
// number of whole days left until it expires. An identity with no
// donation history is unconditionally eligible.
func (uc *EligibilityUsecase) CanDonate(ctx context.Context, id domain.Identity) (domain.Eligibility, error) {
	last, err := uc.donations.Latest(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Eligibility{Eligible: true}, nil
		}
		return domain.Eligibility{}, err
	}

	readyAt := last.DonatedAt.AddDate(0, 0, domain.CooldownDays)
	remaining := readyAt.Sub(uc.now())
	if remaining <= 0 {
		return domain.Eligibility{Eligible: true}, nil
	}

	waitDays := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) != 0 {
		waitDays++
	}

	return domain.Eligibility{Eligible: false, WaitDays: waitDays}, nil
}
