// Package cache memoizes risk assessments so repeated scoring of the same
// applicant against the same model set is free. A memory tier serves a single
// process; the disk tier survives across batch reruns.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache stores serialized assessments by key.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Clear() error
}

// Key derives a stable cache key from its parts (model identifier, applicant
// fields). Parts are hashed so keys stay filesystem-safe.
func Key(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return "underwriter:v1:" + hex.EncodeToString(sum[:])
}

// Memory is the in-process tier.
type Memory struct {
	store *gocache.Cache
}

// NewMemory creates a memory cache with the given default TTL.
func NewMemory(defaultTTL, cleanupInterval time.Duration) *Memory {
	return &Memory{store: gocache.New(defaultTTL, cleanupInterval)}
}

func (m *Memory) Get(key string) ([]byte, bool) {
	if v, ok := m.store.Get(key); ok {
		return v.([]byte), true
	}
	return nil, false
}

func (m *Memory) Set(key string, value []byte, ttl time.Duration) error {
	m.store.Set(key, value, ttl)
	return nil
}

func (m *Memory) Clear() error {
	m.store.Flush()
	return nil
}
