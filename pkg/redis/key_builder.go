package redis

import "fmt"

// KeyBuilder provides environment-aware Redis key building so staging
// and production deployments can share one Redis instance.
type KeyBuilder struct {
	prefix string
}

// NewKeyBuilder creates a new key builder with environment-based prefix
func NewKeyBuilder(environment string) *KeyBuilder {
	prefix := "prod"
	if environment == "development" || environment == "staging" || environment == "test" {
		prefix = "staging"
	}

	return &KeyBuilder{prefix: prefix}
}

// BuildKey constructs a Redis key with the environment prefix
func (kb *KeyBuilder) BuildKey(key string) string {
	return fmt.Sprintf("%s:%s", kb.prefix, key)
}

// GetPrefix returns the current environment prefix
func (kb *KeyBuilder) GetPrefix() string {
	return kb.prefix
}

// KeyLeaderboard is the cache key for the full leaderboard
func (kb *KeyBuilder) KeyLeaderboard() string {
	return kb.BuildKey(KeyLeaderboard)
}

// KeyAvailability is the cache key for the availability report
func (kb *KeyBuilder) KeyAvailability() string {
	return kb.BuildKey(KeyAvailability)
}

// KeyUserPick is the cache key for one user's committed pick
func (kb *KeyBuilder) KeyUserPick(userID int64) string {
	return kb.BuildKey(fmt.Sprintf(KeyUserPick, userID))
}
