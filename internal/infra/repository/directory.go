package repository

import (
	"context"
	"errors"
	"time"

	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"

	"github.com/bloodlink/bloodlink/internal/domain"
	"github.com/bloodlink/bloodlink/internal/geo"
	"github.com/bloodlink/bloodlink/internal/infra/database/models"
)

// DirectoryRepository reads the profile tables maintained by the
// account service. Candidate snapshots are cached briefly since one
// fanout burst tends to hit the same group several times.
type DirectoryRepository struct {
	db    *gorm.DB
	cache *cache.Cache
}

func NewDirectoryRepository(db *gorm.DB) *DirectoryRepository {
	return &DirectoryRepository{
		db:    db,
		cache: cache.New(30*time.Second, time.Minute),
	}
}

func (r *DirectoryRepository) VerifiedDonors(ctx context.Context, group domain.BloodGroup, exclude domain.Identity) ([]domain.Candidate, error) {
	key := "donors:" + string(group)
	if cached, found := r.cache.Get(key); found {
		return excludeIdentity(cached.([]domain.Candidate), exclude), nil
	}

	var records []models.Donor
	err := r.db.WithContext(ctx).
		Where("blood_group = ? AND verified = ? AND suspended = ?", string(group), true, false).
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	candidates := make([]domain.Candidate, 0, len(records))
	for i := range records {
		candidates = append(candidates, domain.Candidate{
			Identity: domain.Identity{Kind: domain.KindDonor, ID: records[i].ID},
			Location: pointFrom(records[i].Latitude, records[i].Longitude),
		})
	}
	r.cache.Set(key, candidates, cache.DefaultExpiration)

	return excludeIdentity(candidates, exclude), nil
}

func (r *DirectoryRepository) Organizations(ctx context.Context, kind domain.IdentityKind) ([]domain.Candidate, error) {
	key := "orgs:" + string(kind)
	if cached, found := r.cache.Get(key); found {
		return cached.([]domain.Candidate), nil
	}

	var records []models.Organization
	err := r.db.WithContext(ctx).
		Where("kind = ? AND latitude IS NOT NULL AND longitude IS NOT NULL", string(kind)).
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	candidates := make([]domain.Candidate, 0, len(records))
	for i := range records {
		candidates = append(candidates, domain.Candidate{
			Identity: domain.Identity{Kind: kind, ID: records[i].ID},
			Location: pointFrom(records[i].Latitude, records[i].Longitude),
		})
	}
	r.cache.Set(key, candidates, cache.DefaultExpiration)

	return candidates, nil
}

func (r *DirectoryRepository) Contact(ctx context.Context, id domain.Identity) (domain.Contact, error) {
	switch id.Kind {
	case domain.KindDonor:
		var donor models.Donor
		err := r.db.WithContext(ctx).Where("id = ?", id.ID).Take(&donor).Error
		if err != nil {
			return domain.Contact{}, translateProfileErr(err)
		}
		return domain.Contact{
			Name:       donor.Name,
			Phone:      donor.Phone,
			Email:      donor.Email,
			BloodGroup: domain.BloodGroup(donor.BloodGroup),
			Address:    donor.Address,
		}, nil
	case domain.KindNGO, domain.KindBank:
		var org models.Organization
		err := r.db.WithContext(ctx).Where("id = ? AND kind = ?", id.ID, string(id.Kind)).Take(&org).Error
		if err != nil {
			return domain.Contact{}, translateProfileErr(err)
		}
		return domain.Contact{
			Name:    org.Name,
			Phone:   org.Phone,
			Email:   org.Email,
			Address: org.Address,
		}, nil
	}
	return domain.Contact{}, domain.NotFoundError{Resource: "profile"}
}

func (r *DirectoryRepository) Location(ctx context.Context, id domain.Identity) (*geo.Point, error) {
	switch id.Kind {
	case domain.KindDonor:
		var donor models.Donor
		err := r.db.WithContext(ctx).Where("id = ?", id.ID).Take(&donor).Error
		if err != nil {
			return nil, translateProfileErr(err)
		}
		return pointFrom(donor.Latitude, donor.Longitude), nil
	case domain.KindNGO, domain.KindBank:
		var org models.Organization
		err := r.db.WithContext(ctx).Where("id = ? AND kind = ?", id.ID, string(id.Kind)).Take(&org).Error
		if err != nil {
			return nil, translateProfileErr(err)
		}
		return pointFrom(org.Latitude, org.Longitude), nil
	}
	return nil, domain.NotFoundError{Resource: "profile"}
}

func excludeIdentity(candidates []domain.Candidate, exclude domain.Identity) []domain.Candidate {
	filtered := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Identity == exclude {
			continue
		}
		filtered = append(filtered, c)
	}
	return filtered
}

func pointFrom(lat, lon *float64) *geo.Point {
	if lat == nil || lon == nil {
		return nil
	}
	return &geo.Point{Latitude: *lat, Longitude: *lon}
}

func translateProfileErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NotFoundError{Resource: "profile"}
	}
	return err
}
