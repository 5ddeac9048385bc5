package config

import (
    "os"
    "strconv"
    "time"
)

// RateLimitConfig controls the token-bucket limiter applied to the
// purchase route.  Keys are built from the authenticated user so a
// single buyer cannot hammer the inventory while others shop.
type RateLimitConfig struct {
    Enabled        bool
    Capacity       int
    RefillTokens   int
    RefillInterval time.Duration
    TTL            time.Duration
    Prefix         string
}

// LoadRateLimitConfig reads environment variables to build a
// RateLimitConfig.  Defaults allow a short purchase burst refilled
// once per second.
func LoadRateLimitConfig() RateLimitConfig {
    return RateLimitConfig{
        Enabled:        envBool("RATE_LIMIT_ENABLED", true),
        Capacity:       envInt("RATE_LIMIT_CAPACITY", 5),
        RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
        RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
        TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
        Prefix:         getenv("RATE_LIMIT_PREFIX", "ratelimit"),
    }
}

func envBool(key string, def bool) bool {
    v := os.Getenv(key)
    if v == "" {
        return def
    }
    b, err := strconv.ParseBool(v)
    if err != nil {
        return def
    }
    return b
}

func envInt(key string, def int) int {
    v := os.Getenv(key)
    if v == "" {
        return def
    }
    n, err := strconv.Atoi(v)
    if err != nil || n < 1 {
        return def
    }
    return n
}

func envDur(key string, def time.Duration) time.Duration {
    v := os.Getenv(key)
    if v == "" {
        return def
    }
    d, err := time.ParseDuration(v)
    if err != nil || d <= 0 {
        return def
    }
    return d
}
