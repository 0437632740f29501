package domain

import "time"

// DonationSource tags how a donation entered the log.
type DonationSource string

const (
	// SourceRequest marks donations created by a confirmed request.
	SourceRequest DonationSource = "request"
	// SourceSelfReported marks donations a donor logged outside the
	// request flow.
	SourceSelfReported DonationSource = "self-reported"
)

// Donation is one append-only entry of the donation log. The log is
// the sole input to the eligibility cooldown.
type Donation struct {
	ID         string         `json:"id"`
	Donor      Identity       `json:"donor"`
	RequestID  *string        `json:"requestId,omitempty"`
	BloodGroup BloodGroup     `json:"bloodGroup"`
	Units      int            `json:"units"`
	DonatedAt  time.Time      `json:"donatedAt"`
	Source     DonationSource `json:"source"`
}

// CooldownDays is the minimum interval between successive donations by
// the same donor.
const CooldownDays = 90

// Eligibility is the outcome of the cooldown check for one identity.
type Eligibility struct {
	Eligible bool `json:"eligible"`
	// WaitDays is the number of whole days until the cooldown expires.
	// Zero when eligible.
	WaitDays int `json:"waitDays"`
}
