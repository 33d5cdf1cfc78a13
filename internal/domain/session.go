package domain

// SessionPhase is the coarse authentication phase of the client process.
type SessionPhase string

const (
	// Unauthenticated means no identity is signed in.
	Unauthenticated SessionPhase = "unauthenticated"
	// Authenticating means a sign-in or sign-out is in flight.
	Authenticating SessionPhase = "authenticating"
	// Authenticated means an identity is signed in.
	Authenticated SessionPhase = "authenticated"
)

// SessionState is the tagged session variant: Unauthenticated,
// Authenticating, or Authenticated with its identity.
// Identity is non-nil only in the Authenticated phase.
type SessionState struct {
	Phase    SessionPhase `json:"phase"`
	Identity *Identity    `json:"identity,omitempty"`
}

// SignedIn reports whether the state carries an authenticated identity.
func (s SessionState) SignedIn() bool {
	return s.Phase == Authenticated && s.Identity != nil
}

// SameIdentity reports whether both states are authenticated as the
// same principal.
func (s SessionState) SameIdentity(other SessionState) bool {
	return s.SignedIn() && other.SignedIn() && s.Identity.ID == other.Identity.ID
}
