package redis

import "fmt"

const keyPrefix = "labrat"

// profileKey returns the Redis key of the profile hash for a user.
func profileKey(userID string) string {
	return fmt.Sprintf("%s:profile:%s", keyPrefix, userID)
}

// Hash fields.
const (
	fieldUsername  = "username"
	fieldEmail     = "email"
	fieldRole      = "user_type"
	fieldCreatedAt = "createdAt"
)
