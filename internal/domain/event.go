package domain

import "github.com/bloodlink/bloodlink/internal/geo"

// Event types pushed over the realtime channel.
const (
	EventNewRequest    = "new-request"
	EventStatusChanged = "status-changed"
)

// Event is one realtime push. Delivery is best-effort: identities
// without a live channel at publish time miss the event permanently.
type Event struct {
	Type      string        `json:"type"`
	RequestID string        `json:"requestId,omitempty"`
	Status    Status        `json:"status,omitempty"`
	Request   *BloodRequest `json:"request,omitempty"`

	// Targets narrows delivery to specific identities. Empty means
	// broadcast to every connected identity. It rides along on the
	// wire between instances but is stripped before client delivery.
	Targets []Identity `json:"targets,omitempty"`
}

// Candidate is one potential recipient of a fanout, produced by the
// recipient directory for a single matching pass. It is never
// persisted.
type Candidate struct {
	Identity Identity
	Location *geo.Point
}

// Coordinates implements geo.Located.
func (c Candidate) Coordinates() *geo.Point {
	return c.Location
}

// Contact carries the display fields joined onto request views so a
// counterpart can be reached. Which fields are set depends on the
// identity kind.
type Contact struct {
	Name       string     `json:"name,omitempty"`
	Phone      string     `json:"phone,omitempty"`
	Email      string     `json:"email,omitempty"`
	BloodGroup BloodGroup `json:"bloodGroup,omitempty"`
	Address    string     `json:"address,omitempty"`
}
