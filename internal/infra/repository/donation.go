package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/bloodlink/bloodlink/internal/domain"
	"github.com/bloodlink/bloodlink/internal/infra/database/models"
)

type DonationRepository struct {
	db *gorm.DB
}

func NewDonationRepository(db *gorm.DB) *DonationRepository {
	return &DonationRepository{db: db}
}

func (r *DonationRepository) Append(ctx context.Context, donation *domain.Donation) error {
	record := donationToModel(donation)
	return r.db.WithContext(ctx).Create(&record).Error
}

func (r *DonationRepository) Latest(ctx context.Context, donor domain.Identity) (*domain.Donation, error) {
	var record models.Donation
	err := r.db.WithContext(ctx).
		Where("donor_kind = ? AND donor_id = ?", string(donor.Kind), donor.ID).
		Order("donated_at DESC").
		Take(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundError{Resource: "donation"}
		}
		return nil, err
	}
	return donationFromModel(&record), nil
}

func (r *DonationRepository) ListByDonor(ctx context.Context, donor domain.Identity) ([]*domain.Donation, error) {
	var records []models.Donation
	err := r.db.WithContext(ctx).
		Where("donor_kind = ? AND donor_id = ?", string(donor.Kind), donor.ID).
		Order("donated_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	donations := make([]*domain.Donation, 0, len(records))
	for i := range records {
		donations = append(donations, donationFromModel(&records[i]))
	}
	return donations, nil
}

func donationToModel(donation *domain.Donation) models.Donation {
	return models.Donation{
		ID:         donation.ID,
		DonorKind:  string(donation.Donor.Kind),
		DonorID:    donation.Donor.ID,
		RequestID:  donation.RequestID,
		BloodGroup: string(donation.BloodGroup),
		Units:      donation.Units,
		DonatedAt:  donation.DonatedAt,
		Source:     string(donation.Source),
	}
}

func donationFromModel(record *models.Donation) *domain.Donation {
	return &domain.Donation{
		ID:         record.ID,
		Donor:      domain.Identity{Kind: domain.IdentityKind(record.DonorKind), ID: record.DonorID},
		RequestID:  record.RequestID,
		BloodGroup: domain.BloodGroup(record.BloodGroup),
		Units:      record.Units,
		DonatedAt:  record.DonatedAt,
		Source:     domain.DonationSource(record.Source),
	}
}
