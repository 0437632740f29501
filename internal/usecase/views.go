package usecase

import (
	"context"
	"log/slog"

	"github.com/bloodlink/bloodlink/internal/domain"
	"github.com/bloodlink/bloodlink/internal/geo"
)

// RequestView is a request joined with the counterpart's contact
// fields for display.
type RequestView struct {
	domain.BloodRequest
	RequesterContact *domain.Contact `json:"requesterContact,omitempty"`
	AccepterContact  *domain.Contact `json:"accepterContact,omitempty"`
	DistanceMeters   *float64        `json:"distanceMeters,omitempty"`
}

// Alerts lists the active requests within the geofence radius of the
// caller's stored location, excluding the caller's own requests.
func (uc *RequestUsecase) Alerts(ctx context.Context, caller domain.Identity) ([]RequestView, error) {
	origin, err := uc.directory.Location(ctx, caller)
	if err != nil {
		return nil, err
	}
	if origin == nil {
		return nil, domain.ValidationError{Reason: "caller has no known location"}
	}

	active, err := uc.requests.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]RequestView, 0, len(active))
	for _, request := range active {
		if request.Requester == caller {
			continue
		}
		if request.Location == nil {
			continue
		}
		distance := geo.Distance(*origin, *request.Location)
		if distance > uc.radius {
			continue
		}
		view := RequestView{
			BloodRequest:     *request,
			RequesterContact: uc.contact(ctx, request.Requester),
			DistanceMeters:   &distance,
		}
		views = append(views, view)
	}
	return views, nil
}

// Mine lists the caller's own requests, with the accepter's contact
// joined on where one exists.
func (uc *RequestUsecase) Mine(ctx context.Context, caller domain.Identity) ([]RequestView, error) {
	requests, err := uc.requests.ListByRequester(ctx, caller)
	if err != nil {
		return nil, err
	}

	views := make([]RequestView, 0, len(requests))
	for _, request := range requests {
		view := RequestView{BloodRequest: *request}
		if request.AcceptedBy != nil {
			view.AccepterContact = uc.contact(ctx, *request.AcceptedBy)
		}
		views = append(views, view)
	}
	return views, nil
}

// MineAccepted lists the requests the caller has accepted, with the
// requester's contact joined on.
func (uc *RequestUsecase) MineAccepted(ctx context.Context, caller domain.Identity) ([]RequestView, error) {
	requests, err := uc.requests.ListByAccepter(ctx, caller)
	if err != nil {
		return nil, err
	}

	views := make([]RequestView, 0, len(requests))
	for _, request := range requests {
		views = append(views, RequestView{
			BloodRequest:     *request,
			RequesterContact: uc.contact(ctx, request.Requester),
		})
	}
	return views, nil
}

// contact is best-effort view enrichment; a missing profile leaves the
// field empty rather than failing the whole view.
func (uc *RequestUsecase) contact(ctx context.Context, id domain.Identity) *domain.Contact {
	contact, err := uc.directory.Contact(ctx, id)
	if err != nil {
		slog.WarnContext(ctx, "contact lookup failed",
			slog.String("identity", id.String()),
			slog.String("error", err.Error()),
			slog.String("module", "request"),
		)
		return nil
	}
	return &contact
}
