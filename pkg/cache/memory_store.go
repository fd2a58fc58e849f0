package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore keeps entries in process memory. Default backend; suitable for
// a single instance.
type MemoryStore struct {
	cache *gocache.Cache
}

func NewMemoryStore() *MemoryStore {
	// expire slightly after the manager's soft TTL so reads near the
	// boundary still see the entry and apply the 24h policy themselves
	c := gocache.New(DefaultTTL+time.Hour, 1*time.Hour)
	return &MemoryStore{cache: c}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (*Entry, bool, error) {
	if x, found := s.cache.Get(key); found {
		return x.(*Entry), true, nil
	}
	return nil, false, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, entry *Entry) error {
	s.cache.Set(key, entry, gocache.DefaultExpiration)
	return nil
}
