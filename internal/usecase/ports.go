package usecase

import (
	"context"

	"github.com/bloodlink/bloodlink/internal/domain"
	"github.com/bloodlink/bloodlink/internal/geo"
)

// RequestRepository defines storage operations for blood requests.
type RequestRepository interface {
	Create(ctx context.Context, r *domain.BloodRequest) error
	Get(ctx context.Context, id string) (*domain.BloodRequest, error)
	// UpdateStatus persists a transitioned request iff the stored row
	// still carries the expect status. It returns ErrConflict when the
	// guard no longer matches, so two concurrent transitions cannot
	// both succeed.
	UpdateStatus(ctx context.Context, r *domain.BloodRequest, expect domain.Status) error
	// Fulfill applies the accepted→fulfilled transition and appends
	// the linked donation in one transaction.
	Fulfill(ctx context.Context, r *domain.BloodRequest, d *domain.Donation) error
	ListActive(ctx context.Context) ([]*domain.BloodRequest, error)
	ListByRequester(ctx context.Context, requester domain.Identity) ([]*domain.BloodRequest, error)
	ListByAccepter(ctx context.Context, accepter domain.Identity) ([]*domain.BloodRequest, error)
}

// DonationRepository is the append-only donation log.
type DonationRepository interface {
	Append(ctx context.Context, d *domain.Donation) error
	// Latest returns the most recent donation by donor, or ErrNotFound
	// when the donor has no history.
	Latest(ctx context.Context, donor domain.Identity) (*domain.Donation, error)
	ListByDonor(ctx context.Context, donor domain.Identity) ([]*domain.Donation, error)
}

// Directory exposes read-only snapshots over the profile stores. It is
// advisory; no locking is involved since matching is best-effort, not
// a reservation.
type Directory interface {
	// VerifiedDonors lists verified, non-suspended donors of the given
	// group, excluding one identity (normally the requester).
	VerifiedDonors(ctx context.Context, group domain.BloodGroup, exclude domain.Identity) ([]domain.Candidate, error)
	// Organizations lists all organizations of one kind with a known
	// location.
	Organizations(ctx context.Context, kind domain.IdentityKind) ([]domain.Candidate, error)
	Contact(ctx context.Context, id domain.Identity) (domain.Contact, error)
	Location(ctx context.Context, id domain.Identity) (*geo.Point, error)
}

// Notifier delivers realtime events, best-effort.
type Notifier interface {
	Publish(ctx context.Context, event domain.Event) error
}

// DocumentClassifier pre-screens an uploaded supporting document.
type DocumentClassifier interface {
	// Classify reports whether the referenced document looks like a
	// medical document.
	Classify(ctx context.Context, ref string) (bool, error)
}
