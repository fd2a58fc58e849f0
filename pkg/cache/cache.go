package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"ai-slidegen-be/pkg/report"
)

// DefaultTTL is the soft expiry applied on read. Entries older than this are
// treated as absent; nothing sweeps them actively.
const DefaultTTL = 24 * time.Hour

// Entry is one cached pipeline result, written once and atomically after the
// full slide list is assembled.
type Entry struct {
	Payload   []report.Slide `json:"payload"`
	WrittenAt time.Time      `json:"written_at"`
}

// Store is the storage boundary of the cache. Implementations must make Set
// atomic: a concurrent reader never observes a half-written entry.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, bool, error)
	Set(ctx context.Context, key string, entry *Entry) error
}

// Fingerprint returns the deterministic content hash used as a cache key.
// json.Marshal of a struct emits fields in declaration order, which gives a
// stable canonical form for equal values.
func Fingerprint(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("fingerprint marshal: %w", err)
	}
	return fmt.Sprintf("%x", sha256.Sum256(data)), nil
}

// Manager applies the expiry and failure policy on top of a Store: storage
// read errors become cache misses, write errors are logged and swallowed so
// a computed result is still returned to the caller.
type Manager struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

func NewManager(store Store) *Manager {
	return &Manager{
		store: store,
		ttl:   DefaultTTL,
		now:   time.Now,
	}
}

// Get returns the cached payload for fp, or false on absence, expiry or
// storage failure.
func (m *Manager) Get(ctx context.Context, fp string) ([]report.Slide, bool) {
	entry, found, err := m.store.Get(ctx, fp)
	if err != nil {
		log.Printf("[WARN] cache read failed for %s, treating as miss: %v", fp, err)
		return nil, false
	}
	if !found {
		return nil, false
	}
	if m.now().Sub(entry.WrittenAt) > m.ttl {
		return nil, false
	}
	return entry.Payload, true
}

// Put writes the payload under fp, overwriting any prior entry. Storage
// failure is non-fatal.
func (m *Manager) Put(ctx context.Context, fp string, slides []report.Slide) {
	entry := &Entry{
		Payload:   slides,
		WrittenAt: m.now(),
	}
	if err := m.store.Set(ctx, fp, entry); err != nil {
		log.Printf("[WARN] cache write failed for %s: %v", fp, err)
	}
}
