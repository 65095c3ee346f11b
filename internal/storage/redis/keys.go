package redis

import (
	"fmt"

	"github.com/mcoot/rasync/internal/model"
)

// Key prefix for all achievements data
const keyPrefix = "rasync"

// Key generation functions for each entity type

// userAuthKey returns the Redis key for the stored credentials
func userAuthKey() string {
	return fmt.Sprintf("%s:user_auth", keyPrefix)
}

// pendingUnlockKey returns the Redis key for a PendingUnlock
func pendingUnlockKey(username string, id model.AchievementID) string {
	return fmt.Sprintf("%s:pending_unlock:%s:%s", keyPrefix, username, id)
}

// pendingUnlocksIndexKey returns the Redis key for the SET of pending unlocks of a user
func pendingUnlocksIndexKey(username string) string {
	return fmt.Sprintf("%s:idx:pending_unlocks:%s", keyPrefix, username)
}

// gameKey returns the Redis key for a cached Game
func gameKey(id model.GameID) string {
	return fmt.Sprintf("%s:game:%s", keyPrefix, id)
}

// userUnlocksKey returns the Redis key for the cached unlocks of a user in a game
func userUnlocksKey(gameID model.GameID, username string, hardcoreMode bool) string {
	mode := "softcore"
	if hardcoreMode {
		mode = "hardcore"
	}
	return fmt.Sprintf("%s:user_unlocks:%s:%s:%s", keyPrefix, gameID, username, mode)
}

// gameSetMetadataKey returns the Redis key for the cache metadata of a game
func gameSetMetadataKey(gameID model.GameID) string {
	return fmt.Sprintf("%s:game_metadata:%s", keyPrefix, gameID)
}

// hashLibraryKey returns the Redis key for the hash -> game id HASH
func hashLibraryKey() string {
	return fmt.Sprintf("%s:hash_library", keyPrefix)
}

// hashLibraryUpdatedKey returns the Redis key for the hash library refresh time
func hashLibraryUpdatedKey() string {
	return fmt.Sprintf("%s:hash_library:updated_at", keyPrefix)
}
