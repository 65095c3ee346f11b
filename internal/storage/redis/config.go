package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// TTL settings for cached definitions. Freshness is decided by the
	// synchronizer from metadata; these only bound how long stale entries
	// linger. Credentials and pending unlocks never expire.
	GameTTL        time.Duration
	UserUnlocksTTL time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:            "redis://localhost:6379",
		PoolSize:       10,
		MinIdleConns:   2,
		GameTTL:        30 * 24 * time.Hour,
		UserUnlocksTTL: 7 * 24 * time.Hour,
	}
}
