package domain

// Identity is the signed-in principal bookmarks belong to.
// At most one identity is active per client process at a time.
type Identity struct {
	// ID is the canonical unique identifier (UUID).
	ID string `json:"id"`

	// Email is the sign-in address.
	Email string `json:"email"`

	// Name is the display name shown in the UI.
	Name string `json:"name,omitempty"`

	// AvatarURL points at the profile picture, if any.
	AvatarURL string `json:"avatar_url,omitempty"`
}
