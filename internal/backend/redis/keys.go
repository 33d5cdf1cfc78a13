package redis

import (
	"fmt"
	"strings"
)

const (
	// KeyPrefixBookmark is the prefix for per-bookmark JSON values.
	KeyPrefixBookmark = "pinstack:bookmark:"
	// KeyPrefixOwnerSet is the prefix for the per-owner ZSET of bookmark IDs.
	KeyPrefixOwnerSet = "pinstack:bookmarks:"
	// KeyPrefixUser is the prefix for account records, keyed by email.
	KeyPrefixUser = "pinstack:user:"
	// KeyPrefixChanges is the prefix for per-owner pub/sub channels.
	KeyPrefixChanges = "pinstack:changes:"
)

// BookmarkKey returns the Redis key for a bookmark scoped to its owner.
// The owner is part of the key so a delete can never touch a foreign record.
func BookmarkKey(ownerID, id string) string {
	return fmt.Sprintf("%s%s:%s", KeyPrefixBookmark, ownerID, id)
}

// OwnerSetKey returns the key for an owner's ZSET of bookmark IDs,
// scored by creation time.
func OwnerSetKey(ownerID string) string {
	return KeyPrefixOwnerSet + ownerID
}

// UserKey returns the key for an account record. The email is
// normalized so provisioning and sign-in agree on the key no matter
// how the address was cased on either side.
func UserKey(email string) string {
	return KeyPrefixUser + strings.ToLower(strings.TrimSpace(email))
}

// ChangesChannel returns the pub/sub channel carrying change
// notifications for an owner's bookmarks.
func ChangesChannel(ownerID string) string {
	return KeyPrefixChanges + ownerID
}
