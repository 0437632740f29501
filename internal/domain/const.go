package domain

// Identity propagation between the authenticating edge and this core.
// Session validation happens upstream; the edge forwards the resolved
// identity in these headers.
const (
	IdentityKindHeader = "bl-identity-kind"
	IdentityIDHeader   = "bl-identity-id"
)

// IdentityCtxKey carries the caller's Identity on the request context.
const IdentityCtxKey = "bl-identity"
