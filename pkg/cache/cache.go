package cache

import "time"

// BytesCache is the byte-oriented cache used for admin API payloads.
// Implementations: in-process TTL map, or Redis.
type BytesCache interface {
	GetBytes(key string) ([]byte, bool, error)
	SetBytes(key string, value []byte, ttl time.Duration) error
}
