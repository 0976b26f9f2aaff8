package usage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dogtribe/entitlement/pkg/catalog"
)

// counter is the in-memory state for one key. Each counter carries its own
// mutex so that operations on different keys never contend.
type counter struct {
	mu          sync.Mutex
	count       int64
	windowStart time.Time
	window      catalog.Window
	gone        bool // set under mu when the reaper or Purge removed the entry
}

// MemoryStore implements Store with in-process state. Suitable for tests and
// single-node deployments; use RedisStore when decisions must be shared
// across processes.
type MemoryStore struct {
	counters sync.Map // Key -> *counter

	reapInterval time.Duration
	stopReaper   chan struct{}
	stopOnce     sync.Once
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithReapInterval sets how often expired calendar-window counters are
// reclaimed. Set to 0 to disable the background reaper; expiry is still
// applied lazily on every read, the reaper only bounds memory growth.
func WithReapInterval(interval time.Duration) MemoryStoreOption {
	return func(ms *MemoryStore) {
		ms.reapInterval = interval
	}
}

// NewMemoryStore creates an in-memory usage store.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	ms := &MemoryStore{
		reapInterval: 10 * time.Minute,
		stopReaper:   make(chan struct{}),
	}

	for _, opt := range opts {
		opt(ms)
	}

	if ms.reapInterval > 0 {
		go ms.reap()
	}

	return ms
}

// acquire returns the counter for key with its mutex held, creating it if
// needed. Retries when a concurrent reap removed the entry between lookup
// and lock.
func (ms *MemoryStore) acquire(key Key) *counter {
	for {
		v, _ := ms.counters.LoadOrStore(key, &counter{})
		c := v.(*counter)
		c.mu.Lock()
		if !c.gone {
			return c
		}
		c.mu.Unlock()
	}
}

// Peek returns the stored counter state without mutating it.
func (ms *MemoryStore) Peek(ctx context.Context, key Key) (Snapshot, error) {
	v, ok := ms.counters.Load(key)
	if !ok {
		return Snapshot{}, nil
	}

	c := v.(*counter)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gone {
		return Snapshot{}, nil
	}
	return Snapshot{Count: c.count, WindowStart: c.windowStart}, nil
}

// TryIncrement atomically consumes one unit of quota for the key.
func (ms *MemoryStore) TryIncrement(ctx context.Context, key Key, limit int64, window catalog.Window, now time.Time) (bool, int64, error) {
	if limit < catalog.Unlimited {
		return false, 0, ErrInvalidLimit
	}
	if !window.Valid() {
		return false, 0, ErrInvalidWindow
	}

	c := ms.acquire(key)
	defer c.mu.Unlock()

	start := WindowStart(now, window)
	if window == catalog.WindowLifetime {
		// Lifetime counters record their first-use time; it is never
		// consulted for expiry.
		if c.windowStart.IsZero() {
			start = now.UTC()
		} else {
			start = c.windowStart
		}
	}

	if Expired(c.windowStart, now, window) {
		c.count = 0
	}
	c.windowStart = start
	c.window = window

	if limit != catalog.Unlimited && c.count+1 > limit {
		return false, c.count, nil
	}

	c.count++
	return true, c.count, nil
}

// Purge deletes all counters of the user for the given features.
func (ms *MemoryStore) Purge(ctx context.Context, userID uuid.UUID, features []catalog.Feature) error {
	for _, f := range features {
		ms.remove(Key{UserID: userID, Feature: f})
	}
	return nil
}

func (ms *MemoryStore) remove(key Key) {
	v, ok := ms.counters.Load(key)
	if !ok {
		return
	}
	c := v.(*counter)
	c.mu.Lock()
	c.gone = true
	c.mu.Unlock()
	ms.counters.Delete(key)
}

// reap periodically drops counters whose calendar window has elapsed.
// Lifetime counters are kept until the user is purged.
func (ms *MemoryStore) reap() {
	ticker := time.NewTicker(ms.reapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ms.removeExpired(time.Now())
		case <-ms.stopReaper:
			return
		}
	}
}

func (ms *MemoryStore) removeExpired(now time.Time) {
	ms.counters.Range(func(k, v any) bool {
		c := v.(*counter)
		c.mu.Lock()
		expired := c.window != catalog.WindowLifetime && c.window != "" &&
			Expired(c.windowStart, now, c.window)
		if expired {
			c.gone = true
			ms.counters.Delete(k)
		}
		c.mu.Unlock()
		return true
	})
}

// Close stops the background reaper. Safe to call multiple times.
func (ms *MemoryStore) Close() {
	ms.stopOnce.Do(func() {
		close(ms.stopReaper)
	})
}
