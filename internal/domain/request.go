package domain

import (
	"fmt"
	"time"

	"github.com/bloodlink/bloodlink/internal/geo"
)

// Status is the lifecycle state of a blood request.
type Status string

const (
	StatusActive    Status = "active"
	StatusAccepted  Status = "accepted"
	StatusFulfilled Status = "fulfilled"
	StatusCancelled Status = "cancelled"
)

// BloodRequest is a plea for blood. It is created once and afterwards
// mutated only through the guarded transitions below; each transition
// either applies fully or returns a ConflictError without touching the
// request.
type BloodRequest struct {
	ID          string      `json:"id"`
	Requester   Identity    `json:"requester"`
	BloodGroup  BloodGroup  `json:"bloodGroup"`
	UnitsNeeded int         `json:"unitsNeeded"`
	Location    *geo.Point  `json:"location,omitempty"`
	Address     string      `json:"address"`
	Status      Status      `json:"status"`
	AcceptedBy  *Identity   `json:"acceptedBy,omitempty"`
	AcceptedAt  *time.Time  `json:"acceptedAt,omitempty"`
	DocumentRef string      `json:"documentRef,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// Coordinates implements geo.Located.
func (r *BloodRequest) Coordinates() *geo.Point {
	return r.Location
}

// Accept moves an active request to accepted on behalf of actor.
// A requester may never accept their own request.
func (r *BloodRequest) Accept(actor Identity, now time.Time) error {
	if r.Requester == actor {
		return ConflictError{Reason: "requester cannot accept their own request"}
	}
	if r.Status != StatusActive {
		return ConflictError{Reason: fmt.Sprintf("request is %s, not active", r.Status)}
	}
	r.Status = StatusAccepted
	r.AcceptedBy = &actor
	r.AcceptedAt = &now
	return nil
}

// ConfirmFulfilled is the requester confirming the accepted donation
// happened. AcceptedBy is retained historically on fulfilled requests.
func (r *BloodRequest) ConfirmFulfilled(caller Identity) error {
	if r.Requester != caller {
		return ConflictError{Reason: "only the requester may confirm fulfillment"}
	}
	if r.Status != StatusAccepted {
		return ConflictError{Reason: fmt.Sprintf("request is %s, not accepted", r.Status)}
	}
	r.Status = StatusFulfilled
	return nil
}

// ReportUnresponsive is the requester reporting that the accepter never
// followed through. The request returns to the active pool.
func (r *BloodRequest) ReportUnresponsive(caller Identity) error {
	if r.Requester != caller {
		return ConflictError{Reason: "only the requester may report an unresponsive accepter"}
	}
	if r.Status != StatusAccepted {
		return ConflictError{Reason: fmt.Sprintf("request is %s, not accepted", r.Status)}
	}
	r.reactivate()
	return nil
}

// CancelAccept is the accepter backing out of their acceptance.
func (r *BloodRequest) CancelAccept(caller Identity) error {
	if r.Status != StatusAccepted {
		return ConflictError{Reason: fmt.Sprintf("request is %s, not accepted", r.Status)}
	}
	if r.AcceptedBy == nil || *r.AcceptedBy != caller {
		return ConflictError{Reason: "only the accepter may cancel their acceptance"}
	}
	r.reactivate()
	return nil
}

// Cancel terminally cancels a request. Requester only; allowed from
// both active and accepted.
func (r *BloodRequest) Cancel(caller Identity) error {
	if r.Requester != caller {
		return ConflictError{Reason: "only the requester may cancel the request"}
	}
	if r.Status != StatusActive && r.Status != StatusAccepted {
		return ConflictError{Reason: fmt.Sprintf("request is %s, not cancellable", r.Status)}
	}
	// AcceptedBy is retained only on fulfilled requests.
	r.Status = StatusCancelled
	r.AcceptedBy = nil
	r.AcceptedAt = nil
	return nil
}

// reactivate returns the request to active. AcceptedBy must be cleared
// whenever a request leaves accepted for anything but fulfilled.
func (r *BloodRequest) reactivate() {
	r.Status = StatusActive
	r.AcceptedBy = nil
	r.AcceptedAt = nil
}
