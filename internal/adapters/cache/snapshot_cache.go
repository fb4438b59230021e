package cache

import (
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"

	"fundingarb/internal/domain"
)

const (
	freshKey = "snapshot:fresh"
	lastKey  = "snapshot:last"
)

// RistrettoSnapshotCache keeps the live snapshot under two keys: a TTL-bound
// entry that decides freshness for the pull path, and an unbound last-good
// entry that survives refresh failures. Replace writes both, so readers see
// either the previous complete snapshot or the new one, never a mix.
type RistrettoSnapshotCache struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

func NewSnapshotCache(ttl time.Duration) (*RistrettoSnapshotCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 64,
		MaxCost:     8,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create snapshot cache failed: %w", err)
	}
	return &RistrettoSnapshotCache{cache: c, ttl: ttl}, nil
}

func (c *RistrettoSnapshotCache) Fresh() (domain.Snapshot, bool) {
	return c.get(freshKey)
}

func (c *RistrettoSnapshotCache) Last() (domain.Snapshot, bool) {
	return c.get(lastKey)
}

func (c *RistrettoSnapshotCache) Replace(snapshot domain.Snapshot) {
	c.cache.SetWithTTL(freshKey, snapshot, 1, c.ttl)
	c.cache.Set(lastKey, snapshot, 1)
	// Ristretto applies writes asynchronously; waiting here keeps the
	// atomic-replace contract visible to the next reader.
	c.cache.Wait()
}

func (c *RistrettoSnapshotCache) Close() { c.cache.Close() }

func (c *RistrettoSnapshotCache) get(key string) (domain.Snapshot, bool) {
	v, ok := c.cache.Get(key)
	if !ok {
		return domain.Snapshot{}, false
	}
	snapshot, ok := v.(domain.Snapshot)
	return snapshot, ok
}
