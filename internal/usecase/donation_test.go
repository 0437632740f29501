package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bloodlink/bloodlink/internal/domain"
)

func TestLogDonationRequiresPositiveUnits(t *testing.T) {
	uc := NewDonationUsecase(&mockDonationRepo{})

	_, err := uc.Log(context.Background(), LogDonationInput{Donor: bob, BloodGroup: domain.ONeg, Units: 0})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLogDonationRejectsFutureDate(t *testing.T) {
	uc := NewDonationUsecase(&mockDonationRepo{})

	future := time.Now().Add(24 * time.Hour)
	_, err := uc.Log(context.Background(), LogDonationInput{Donor: bob, BloodGroup: domain.ONeg, Units: 1, DonatedAt: &future})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLogDonationBackdates(t *testing.T) {
	repo := &mockDonationRepo{}
	uc := NewDonationUsecase(repo)

	past := time.Now().AddDate(0, 0, -10)
	donation, err := uc.Log(context.Background(), LogDonationInput{Donor: bob, BloodGroup: domain.ONeg, Units: 1, DonatedAt: &past})
	if err != nil {
		t.Fatalf("log failed: %v", err)
	}

	if !donation.DonatedAt.Equal(past) {
		t.Fatalf("expected backdated donation, got %v", donation.DonatedAt)
	}
	if donation.Source != domain.SourceSelfReported {
		t.Fatalf("expected self-reported source, got %s", donation.Source)
	}
	if len(repo.appended) != 1 {
		t.Fatalf("donation not persisted")
	}
}
