package domain

import "fmt"

// IdentityKind distinguishes the account kinds sharing the request flow.
type IdentityKind string

const (
	KindDonor IdentityKind = "donor"
	KindAdmin IdentityKind = "admin"
	KindNGO   IdentityKind = "ngo"
	KindBank  IdentityKind = "bank"
)

// ParseIdentityKind validates a kind string from the wire.
func ParseIdentityKind(s string) (IdentityKind, error) {
	switch IdentityKind(s) {
	case KindDonor, KindAdmin, KindNGO, KindBank:
		return IdentityKind(s), nil
	}
	return "", ValidationError{Reason: fmt.Sprintf("unknown identity kind %q", s)}
}

// Identity is a (kind, id) pair. Two identities are the same actor
// only when both fields match.
type Identity struct {
	Kind IdentityKind `json:"kind"`
	ID   string       `json:"id"`
}

func (i Identity) String() string {
	return string(i.Kind) + ":" + i.ID
}
