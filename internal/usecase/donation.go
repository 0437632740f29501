package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/bloodlink/bloodlink/internal/domain"
)

// DonationUsecase covers donations logged outside the request flow and
// a donor's view of their own history.
type DonationUsecase struct {
	donations DonationRepository
	now       func() time.Time
}

func NewDonationUsecase(donations DonationRepository) *DonationUsecase {
	return &DonationUsecase{
		donations: donations,
		now:       time.Now,
	}
}

// LogDonationInput records a donation a donor made on their own, e.g.
// at a camp or a walk-in at a bank.
type LogDonationInput struct {
	Donor      domain.Identity
	BloodGroup domain.BloodGroup
	Units      int
	// DonatedAt defaults to now; donors may backdate a donation they
	// only log later. Future dates are rejected.
	DonatedAt *time.Time
}

// Log appends a self-reported donation to the log.
func (uc *DonationUsecase) Log(ctx context.Context, input LogDonationInput) (*domain.Donation, error) {
	if input.Units <= 0 {
		return nil, domain.ValidationError{Reason: "units must be a positive integer"}
	}

	donatedAt := uc.now()
	if input.DonatedAt != nil {
		if input.DonatedAt.After(donatedAt) {
			return nil, domain.ValidationError{Reason: "donation date cannot be in the future"}
		}
		donatedAt = *input.DonatedAt
	}

	donation := &domain.Donation{
		ID:         uuid.New().String(),
		Donor:      input.Donor,
		BloodGroup: input.BloodGroup,
		Units:      input.Units,
		DonatedAt:  donatedAt,
		Source:     domain.SourceSelfReported,
	}

	if err := uc.donations.Append(ctx, donation); err != nil {
		return nil, err
	}
	return donation, nil
}

// History lists the caller's donations, newest first.
func (uc *DonationUsecase) History(ctx context.Context, donor domain.Identity) ([]*domain.Donation, error) {
	return uc.donations.ListByDonor(ctx, donor)
}
