package lock

import (
	"context"
	"fmt"
	"sync"
)

// MemoryLocker is a per-key mutex for a single process.
type MemoryLocker struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	sem  chan struct{}
	refs int
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{entries: make(map[string]*entry)}
}

func (m *MemoryLocker) Acquire(ctx context.Context, key string) (Lock, error) {
	m.mu.Lock()
	e, ok := m.entries[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		m.entries[key] = e
	}
	e.refs++
	m.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
		return &memoryLock{locker: m, key: key, entry: e}, nil
	case <-ctx.Done():
		m.unref(key, e)
		return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, ctx.Err())
	}
}

func (m *MemoryLocker) unref(key string, e *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(m.entries, key)
	}
}

// held reports the number of keys with waiters or holders.
func (m *MemoryLocker) held() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

type memoryLock struct {
	locker *MemoryLocker
	key    string
	entry  *entry
	once   sync.Once
}

func (l *memoryLock) Release(ctx context.Context) error {
	l.once.Do(func() {
		<-l.entry.sem
		l.locker.unref(l.key, l.entry)
	})
	return nil
}
