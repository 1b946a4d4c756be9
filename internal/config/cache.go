package config

import "time"

// ProfileCacheConfig defines settings for the Redis-backed profile cache.
// When Enabled is false or no Redis client is configured, profile reads go
// straight to the database.  TTL bounds how stale a cached profile may be;
// updates through PUT /me invalidate the entry immediately.
type ProfileCacheConfig struct {
	Enabled bool
	TTL     time.Duration
	Prefix  string
}

// LoadProfileCacheConfig reads the PROFILE_CACHE_* variables.
func LoadProfileCacheConfig() ProfileCacheConfig {
	c := ProfileCacheConfig{
		Enabled: envBool("PROFILE_CACHE_ENABLED", true),
		TTL:     envDur("PROFILE_CACHE_TTL", 5*time.Minute),
		Prefix:  envStr("PROFILE_CACHE_PREFIX", "profile"),
	}
	if c.TTL <= 0 {
		c.TTL = 5 * time.Minute
	}
	return c
}
