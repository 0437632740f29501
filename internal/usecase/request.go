package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bloodlink/bloodlink/internal/domain"
	"github.com/bloodlink/bloodlink/internal/geo"
)

// RequestUsecase orchestrates the blood-request lifecycle: creation
// with geofenced fanout, the guarded transitions, and the scoped views.
type RequestUsecase struct {
	requests    RequestRepository
	donations   DonationRepository
	directory   Directory
	notifier    Notifier
	classifier  DocumentClassifier
	eligibility *EligibilityUsecase
	radius      float64
	now         func() time.Time
}

func NewRequestUsecase(
	requests RequestRepository,
	donations DonationRepository,
	directory Directory,
	notifier Notifier,
	classifier DocumentClassifier,
	eligibility *EligibilityUsecase,
) *RequestUsecase {
	return &RequestUsecase{
		requests:    requests,
		donations:   donations,
		directory:   directory,
		notifier:    notifier,
		classifier:  classifier,
		eligibility: eligibility,
		radius:      geo.DefaultRadiusMeters,
		now:         time.Now,
	}
}

// CreateRequestInput is the validated input for creating a request.
type CreateRequestInput struct {
	Requester   domain.Identity
	BloodGroup  domain.BloodGroup
	UnitsNeeded int
	Address     string
	Location    *geo.Point
	DocumentRef string
}

// CreateResult pairs the created request with the number of identities
// the fanout alerted.
type CreateResult struct {
	Request    *domain.BloodRequest `json:"request"`
	AlertsSent int                  `json:"alertsSent"`
}

// Create validates and persists a new request, then computes the
// notification set and pushes a new-request alert to each member.
// Fanout failure never fails the creation.
func (uc *RequestUsecase) Create(ctx context.Context, input CreateRequestInput) (*CreateResult, error) {
	if input.Address == "" {
		return nil, domain.ValidationError{Reason: "address is required"}
	}
	if input.UnitsNeeded <= 0 {
		return nil, domain.ValidationError{Reason: "units needed must be a positive integer"}
	}

	if input.DocumentRef != "" {
		ok, err := uc.classifier.Classify(ctx, input.DocumentRef)
		if err != nil {
			// Classification fails open: an unreachable classifier
			// must not block a plea for blood.
			slog.WarnContext(ctx, "document classification unavailable",
				slog.String("error", err.Error()),
				slog.String("ref", input.DocumentRef),
				slog.String("module", "request"),
			)
		} else if !ok {
			return nil, domain.ValidationError{Reason: "supporting document does not look like a medical document"}
		}
	}

	request := &domain.BloodRequest{
		ID:          uuid.New().String(),
		Requester:   input.Requester,
		BloodGroup:  input.BloodGroup,
		UnitsNeeded: input.UnitsNeeded,
		Location:    input.Location,
		Address:     input.Address,
		Status:      domain.StatusActive,
		DocumentRef: input.DocumentRef,
		CreatedAt:   uc.now(),
	}

	if err := uc.requests.Create(ctx, request); err != nil {
		return nil, err
	}

	alerts := uc.fanout(ctx, request)

	return &CreateResult{Request: request, AlertsSent: alerts}, nil
}

// fanout computes the geofenced notification set for a freshly created
// request and pushes a new-request event to it. Requests without a
// location alert nobody.
func (uc *RequestUsecase) fanout(ctx context.Context, request *domain.BloodRequest) int {
	if request.Location == nil {
		return 0
	}

	candidates, err := uc.directory.VerifiedDonors(ctx, request.BloodGroup, request.Requester)
	if err != nil {
		slog.ErrorContext(ctx, "fanout: donor lookup failed",
			slog.String("error", err.Error()),
			slog.String("module", "request"),
		)
		return 0
	}

	for _, kind := range []domain.IdentityKind{domain.KindNGO, domain.KindBank} {
		orgs, err := uc.directory.Organizations(ctx, kind)
		if err != nil {
			slog.ErrorContext(ctx, "fanout: organization lookup failed",
				slog.String("kind", string(kind)),
				slog.String("error", err.Error()),
				slog.String("module", "request"),
			)
			continue
		}
		for _, org := range orgs {
			if org.Identity == request.Requester {
				continue
			}
			candidates = append(candidates, org)
		}
	}

	matched := geo.WithinRadius(*request.Location, candidates, uc.radius)
	if len(matched) == 0 {
		return 0
	}

	targets := make([]domain.Identity, 0, len(matched))
	for _, c := range matched {
		targets = append(targets, c.Identity)
	}

	event := domain.Event{
		Type:      domain.EventNewRequest,
		RequestID: request.ID,
		Status:    request.Status,
		Request:   request,
		Targets:   targets,
	}
	if err := uc.notifier.Publish(ctx, event); err != nil {
		slog.ErrorContext(ctx, "fanout: publish failed",
			slog.String("requestId", request.ID),
			slog.String("error", err.Error()),
			slog.String("module", "request"),
		)
	}

	return len(targets)
}

// Accept moves an active request to accepted on behalf of actor,
// enforcing the donation cooldown and the self-acceptance ban. Exactly
// one of two concurrent accepts succeeds; the other sees a conflict.
func (uc *RequestUsecase) Accept(ctx context.Context, id string, actor domain.Identity) (*domain.BloodRequest, error) {
	request, err := uc.requests.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	// The self-acceptance ban holds regardless of request status, so
	// check it ahead of the cooldown for a stable error.
	if request.Requester == actor {
		return nil, domain.ConflictError{Reason: "requester cannot accept their own request"}
	}

	eligibility, err := uc.eligibility.CanDonate(ctx, actor)
	if err != nil {
		return nil, err
	}
	if !eligibility.Eligible {
		return nil, domain.ConflictError{
			Reason:   fmt.Sprintf("donation cooldown active, %d days remaining", eligibility.WaitDays),
			WaitDays: eligibility.WaitDays,
		}
	}

	return uc.transition(ctx, request, func(r *domain.BloodRequest) error {
		return r.Accept(actor, uc.now())
	})
}

// ConfirmFulfilled is the requester confirming the donation happened.
// The status flip and the donation record are written atomically.
func (uc *RequestUsecase) ConfirmFulfilled(ctx context.Context, id string, caller domain.Identity) (*domain.BloodRequest, error) {
	request, err := uc.requests.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	prev := request.Status
	if err := request.ConfirmFulfilled(caller); err != nil {
		return nil, err
	}

	donation := &domain.Donation{
		ID:         uuid.New().String(),
		Donor:      *request.AcceptedBy,
		RequestID:  &request.ID,
		BloodGroup: request.BloodGroup,
		Units:      request.UnitsNeeded,
		DonatedAt:  uc.now(),
		Source:     domain.SourceRequest,
	}

	if err := uc.requests.Fulfill(ctx, request, donation); err != nil {
		return nil, err
	}

	uc.announce(ctx, request, prev)
	return request, nil
}

// ReportUnresponsive returns an accepted request to the active pool
// when the accepter never followed through. Requester only.
func (uc *RequestUsecase) ReportUnresponsive(ctx context.Context, id string, caller domain.Identity) (*domain.BloodRequest, error) {
	request, err := uc.requests.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return uc.transition(ctx, request, func(r *domain.BloodRequest) error {
		return r.ReportUnresponsive(caller)
	})
}

// CancelAccept is the accepter backing out; the request returns to
// active.
func (uc *RequestUsecase) CancelAccept(ctx context.Context, id string, caller domain.Identity) (*domain.BloodRequest, error) {
	request, err := uc.requests.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return uc.transition(ctx, request, func(r *domain.BloodRequest) error {
		return r.CancelAccept(caller)
	})
}

// Cancel terminally cancels a request. Requester only.
func (uc *RequestUsecase) Cancel(ctx context.Context, id string, caller domain.Identity) (*domain.BloodRequest, error) {
	request, err := uc.requests.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return uc.transition(ctx, request, func(r *domain.BloodRequest) error {
		return r.Cancel(caller)
	})
}

// transition applies one guarded state change and persists it with a
// conditional write against the pre-transition status, then announces
// the new status.
func (uc *RequestUsecase) transition(ctx context.Context, request *domain.BloodRequest, apply func(*domain.BloodRequest) error) (*domain.BloodRequest, error) {
	prev := request.Status
	if err := apply(request); err != nil {
		return nil, err
	}
	if err := uc.requests.UpdateStatus(ctx, request, prev); err != nil {
		return nil, err
	}
	uc.announce(ctx, request, prev)
	return request, nil
}

// announce broadcasts a status change to every connected identity.
// Delivery is best-effort and unscoped; consumers filter relevance
// themselves.
func (uc *RequestUsecase) announce(ctx context.Context, request *domain.BloodRequest, prev domain.Status) {
	event := domain.Event{
		Type:      domain.EventStatusChanged,
		RequestID: request.ID,
		Status:    request.Status,
	}
	if err := uc.notifier.Publish(ctx, event); err != nil {
		slog.ErrorContext(ctx, "status broadcast failed",
			slog.String("requestId", request.ID),
			slog.String("from", string(prev)),
			slog.String("to", string(request.Status)),
			slog.String("error", err.Error()),
			slog.String("module", "request"),
		)
	}
}
