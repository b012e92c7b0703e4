package cache

import "time"

// Layered combines the memory and disk tiers: reads check memory first and
// promote disk hits, writes land in both.
type Layered struct {
	memory Cache
	disk   Cache
}

// NewLayered creates a layered cache with a disk tier rooted at dir. Both
// tiers share the same TTL.
func NewLayered(dir string, ttl time.Duration) *Layered {
	return &Layered{
		memory: NewMemory(ttl, 10*time.Minute),
		disk:   NewDisk(dir, ttl),
	}
}

func (c *Layered) Get(key string) ([]byte, bool) {
	if v, ok := c.memory.Get(key); ok {
		return v, true
	}
	if v, ok := c.disk.Get(key); ok {
		_ = c.memory.Set(key, v, 0)
		return v, true
	}
	return nil, false
}

func (c *Layered) Set(key string, value []byte, ttl time.Duration) error {
	if err := c.memory.Set(key, value, ttl); err != nil {
		return err
	}
	return c.disk.Set(key, value, ttl)
}

func (c *Layered) Clear() error {
	if err := c.memory.Clear(); err != nil {
		return err
	}
	return c.disk.Clear()
}
