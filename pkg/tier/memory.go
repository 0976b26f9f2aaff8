package tier

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore implements Store with in-process state. Suitable for tests and
// single-node deployments.
type MemoryStore struct {
	mu          sync.RWMutex
	assignments map[uuid.UUID]Assignment
}

// NewMemoryStore creates an empty in-memory tier store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		assignments: make(map[uuid.UUID]Assignment),
	}
}

func (ms *MemoryStore) Get(ctx context.Context, userID uuid.UUID) (Assignment, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	a, ok := ms.assignments[userID]
	if !ok {
		return Assignment{}, fmt.Errorf("%w: %s", ErrTierNotFound, userID)
	}
	return a, nil
}

func (ms *MemoryStore) Set(ctx context.Context, a Assignment) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.assignments[a.UserID] = a
	return nil
}

func (ms *MemoryStore) Delete(ctx context.Context, userID uuid.UUID) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.assignments, userID)
	return nil
}
