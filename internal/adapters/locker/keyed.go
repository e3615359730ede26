package locker

import (
	"context"
	"sync"

	"chunk-transfer/internal/core/domain"
	"chunk-transfer/internal/core/port"
)

type entry struct {
	held chan struct{}
	refs int
}

// KeyedLocker is an in-process mutex per upload key. Entries are dropped
// once nobody holds or waits for them.
type KeyedLocker struct {
	mu      sync.Mutex
	entries map[domain.UploadKey]*entry
}

var _ port.UploadLocker = (*KeyedLocker)(nil)

func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{entries: make(map[domain.UploadKey]*entry)}
}

func (l *KeyedLocker) acquire(key domain.UploadKey) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{held: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	return e
}

func (l *KeyedLocker) release(key domain.UploadKey, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

func (l *KeyedLocker) unlockFunc(key domain.UploadKey, e *entry) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.held
			l.release(key, e)
		})
	}
}

// Lock waits for the key or for ctx to be done
func (l *KeyedLocker) Lock(ctx context.Context, key domain.UploadKey) (func(), error) {
	e := l.acquire(key)
	select {
	case e.held <- struct{}{}:
		return l.unlockFunc(key, e), nil
	case <-ctx.Done():
		l.release(key, e)
		return nil, ctx.Err()
	}
}

// TryLock takes the key only if it is free
func (l *KeyedLocker) TryLock(key domain.UploadKey) (func(), bool) {
	e := l.acquire(key)
	select {
	case e.held <- struct{}{}:
		return l.unlockFunc(key, e), true
	default:
		l.release(key, e)
		return nil, false
	}
}

// Len returns the number of keys currently held or awaited
func (l *KeyedLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
