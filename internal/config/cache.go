package config

import (
    "strings"
    "time"
)

// CacheConfig defines settings for the catalog response cache.  Only
// catalog reads (genres, actors, plays, theaters, performances) are cached;
// entries are grouped per resource so that a successful write drops every
// cached page of the groups it affects when InvalidateOnWrite is set.
type CacheConfig struct {
    Enabled           bool
    Methods           map[string]bool
    TTL               time.Duration
    KeyStrategy       string // route | route_query | method_route_query
    Prefix            string
    MaxBodyBytes      int
    InvalidateOnWrite bool
}

// defaultCacheBody caps cached response bodies at 1 MiB.
const defaultCacheBody = 1 << 20

// LoadCacheConfig reads the CACHE_* variables.  Invalid values fall back to
// the defaults; method names are upper-cased.
func LoadCacheConfig() CacheConfig {
    cfg := CacheConfig{
        Enabled:           envBool("CACHE_ENABLED", true),
        Methods:           parseMethods(envStr("CACHE_METHODS", "GET")),
        TTL:               envDur("CACHE_TTL", 30*time.Second),
        KeyStrategy:       envStr("CACHE_KEY_STRATEGY", "route_query"),
        Prefix:            envStr("CACHE_PREFIX", "cache"),
        MaxBodyBytes:      envInt("CACHE_MAX_BODY_BYTES", defaultCacheBody),
        InvalidateOnWrite: envBool("CACHE_INVALIDATE_ON_WRITE", true),
    }
    if cfg.TTL <= 0 {
        cfg.TTL = 30 * time.Second
    }
    if cfg.MaxBodyBytes <= 0 {
        cfg.MaxBodyBytes = defaultCacheBody
    }
    return cfg
}

// parseMethods turns " get, head ," into {GET, HEAD}.
func parseMethods(s string) map[string]bool {
    m := make(map[string]bool)
    for _, f := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' }) {
        m[strings.ToUpper(f)] = true
    }
    return m
}
