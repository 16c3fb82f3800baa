package cache

import (
	"context"
	"time"
)

const (
	ThreadKeyPrefix    = "thread:"
	UserKeyPrefix      = "user:"
	CommunityKeyPrefix = "community:"
)

const (
	ThreadTTL    = 2 * time.Minute
	UserTTL      = 5 * time.Minute
	CommunityTTL = 10 * time.Minute
)

// ThreadKey holds the populated thread view for id.
func ThreadKey(id string) string {
	return ThreadKeyPrefix + id
}

// UserKey holds the profile view for an external user id.
func UserKey(externalID string) string {
	return UserKeyPrefix + externalID
}

// CommunityKey holds the details view for an external community id.
func CommunityKey(externalID string) string {
	return CommunityKeyPrefix + externalID
}

// Invalidate deletes keys, ignoring a missing client or Redis errors.
func Invalidate(ctx context.Context, keys ...string) {
	if client == nil || len(keys) == 0 {
		return
	}
	client.Del(ctx, keys...)
}

// ThreadKeys maps thread ids to their cache keys.
func ThreadKeys(ids ...string) []string {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			keys = append(keys, ThreadKey(id))
		}
	}
	return keys
}
