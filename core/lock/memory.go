package lock

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryLocker serializes work inside a single process.
type MemoryLocker struct {
	mu   sync.Mutex
	held map[string]string
}

// NewMemoryLocker creates an empty in-process locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]string)}
}

// TryAcquire takes key if free, otherwise returns ErrNotObtained.
func (m *MemoryLocker) TryAcquire(_ context.Context, key string) (Lease, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, busy := m.held[key]; busy {
		return nil, ErrNotObtained
	}

	token := uuid.NewString()
	m.held[key] = token
	return &memoryLease{locker: m, key: key, token: token}, nil
}

type memoryLease struct {
	locker *MemoryLocker
	key    string
	token  string
	once   sync.Once
}

func (l *memoryLease) Release(context.Context) error {
	l.once.Do(func() {
		l.locker.mu.Lock()
		defer l.locker.mu.Unlock()
		// Only the owning token may free the key.
		if l.locker.held[l.key] == l.token {
			delete(l.locker.held, l.key)
		}
	})
	return nil
}
