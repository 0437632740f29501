package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/bloodlink/bloodlink/internal/domain"
	"github.com/bloodlink/bloodlink/internal/geo"
	"github.com/bloodlink/bloodlink/internal/infra/database/models"
)

type RequestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

func (r *RequestRepository) Create(ctx context.Context, request *domain.BloodRequest) error {
	record := requestToModel(request)
	return r.db.WithContext(ctx).Create(&record).Error
}

func (r *RequestRepository) Get(ctx context.Context, id string) (*domain.BloodRequest, error) {
	var record models.BloodRequest
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Take(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundError{Resource: "request"}
		}
		return nil, err
	}
	return requestFromModel(&record), nil
}

// UpdateStatus writes the transitioned request guarded on the expected
// current status. The guard and the write are a single conditional
// statement, so two racing transitions cannot both apply.
func (r *RequestRepository) UpdateStatus(ctx context.Context, request *domain.BloodRequest, expect domain.Status) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return conditionalTransition(tx, request, expect)
	})
}

// Fulfill flips the request to fulfilled and appends the linked
// donation atomically.
func (r *RequestRepository) Fulfill(ctx context.Context, request *domain.BloodRequest, donation *domain.Donation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := conditionalTransition(tx, request, domain.StatusAccepted); err != nil {
			return err
		}
		record := donationToModel(donation)
		return tx.Create(&record).Error
	})
}

func conditionalTransition(tx *gorm.DB, request *domain.BloodRequest, expect domain.Status) error {
	assignments := map[string]any{
		"status":      string(request.Status),
		"accepted_at": request.AcceptedAt,
	}
	if request.AcceptedBy != nil {
		assignments["accepted_by_kind"] = string(request.AcceptedBy.Kind)
		assignments["accepted_by_id"] = request.AcceptedBy.ID
	} else if request.Status != domain.StatusFulfilled {
		assignments["accepted_by_kind"] = nil
		assignments["accepted_by_id"] = nil
	}

	result := tx.Model(&models.BloodRequest{}).
		Where("id = ? AND status = ?", request.ID, string(expect)).
		Updates(assignments)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := tx.Model(&models.BloodRequest{}).
			Where("id = ?", request.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domain.NotFoundError{Resource: "request"}
		}
		return domain.ConflictError{Reason: "request status changed concurrently"}
	}
	return nil
}

func (r *RequestRepository) ListActive(ctx context.Context) ([]*domain.BloodRequest, error) {
	return r.list(ctx, "status = ?", string(domain.StatusActive))
}

func (r *RequestRepository) ListByRequester(ctx context.Context, requester domain.Identity) ([]*domain.BloodRequest, error) {
	return r.list(ctx, "requester_kind = ? AND requester_id = ?", string(requester.Kind), requester.ID)
}

func (r *RequestRepository) ListByAccepter(ctx context.Context, accepter domain.Identity) ([]*domain.BloodRequest, error) {
	return r.list(ctx, "accepted_by_kind = ? AND accepted_by_id = ?", string(accepter.Kind), accepter.ID)
}

func (r *RequestRepository) list(ctx context.Context, query string, args ...any) ([]*domain.BloodRequest, error) {
	var records []models.BloodRequest
	err := r.db.WithContext(ctx).
		Where(query, args...).
		Order("c_date DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	requests := make([]*domain.BloodRequest, 0, len(records))
	for i := range records {
		requests = append(requests, requestFromModel(&records[i]))
	}
	return requests, nil
}

func requestToModel(request *domain.BloodRequest) models.BloodRequest {
	record := models.BloodRequest{
		ID:            request.ID,
		RequesterKind: string(request.Requester.Kind),
		RequesterID:   request.Requester.ID,
		BloodGroup:    string(request.BloodGroup),
		UnitsNeeded:   request.UnitsNeeded,
		Address:       request.Address,
		Status:        string(request.Status),
		AcceptedAt:    request.AcceptedAt,
		DocumentRef:   request.DocumentRef,
		CDate:         request.CreatedAt,
	}
	if request.Location != nil {
		record.Latitude = &request.Location.Latitude
		record.Longitude = &request.Location.Longitude
	}
	if request.AcceptedBy != nil {
		kind := string(request.AcceptedBy.Kind)
		record.AcceptedByKind = &kind
		record.AcceptedByID = &request.AcceptedBy.ID
	}
	return record
}

func requestFromModel(record *models.BloodRequest) *domain.BloodRequest {
	request := &domain.BloodRequest{
		ID:          record.ID,
		Requester:   domain.Identity{Kind: domain.IdentityKind(record.RequesterKind), ID: record.RequesterID},
		BloodGroup:  domain.BloodGroup(record.BloodGroup),
		UnitsNeeded: record.UnitsNeeded,
		Address:     record.Address,
		Status:      domain.Status(record.Status),
		AcceptedAt:  record.AcceptedAt,
		DocumentRef: record.DocumentRef,
		CreatedAt:   record.CDate,
	}
	if record.Latitude != nil && record.Longitude != nil {
		request.Location = &geo.Point{Latitude: *record.Latitude, Longitude: *record.Longitude}
	}
	if record.AcceptedByKind != nil && record.AcceptedByID != nil {
		request.AcceptedBy = &domain.Identity{
			Kind: domain.IdentityKind(*record.AcceptedByKind),
			ID:   *record.AcceptedByID,
		}
	}
	return request
}
