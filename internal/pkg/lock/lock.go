// Package lock provides keyed mutual exclusion for chat-scoped state.
// A KeyedLock hands out one independent lock per int64 key (a channel ID for
// game sessions, a player ID for score awards), so work on different keys
// never contends.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// keyMutex is a one-slot semaphore; waiters can give up on ctx cancellation.
// refs counts the holder plus every waiter; the entry is dropped at zero.
type keyMutex struct {
	sem  chan struct{}
	refs int
}

// KeyedLock provides per-key locking. Entries exist only while a key is held
// or waited on, so the map does not grow with every key ever seen.
type KeyedLock struct {
	mu    sync.Mutex
	locks map[int64]*keyMutex
	pool  sync.Pool
}

// NewKeyedLock creates a new KeyedLock instance.
func NewKeyedLock() *KeyedLock {
	return &KeyedLock{
		locks: make(map[int64]*keyMutex),
		pool: sync.Pool{
			New: func() any {
				return &keyMutex{sem: make(chan struct{}, 1)}
			},
		},
	}
}

// acquire returns the entry for key with a reference taken.
func (kl *KeyedLock) acquire(key int64) *keyMutex {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	m, ok := kl.locks[key]
	if !ok {
		m = kl.pool.Get().(*keyMutex)
		m.refs = 0
		kl.locks[key] = m
	}
	m.refs++
	return m
}

// release drops a reference and recycles the entry when it was the last.
// kl.mu must be held.
func (kl *KeyedLock) release(key int64, m *keyMutex) {
	m.refs--
	if m.refs == 0 {
		delete(kl.locks, key)
		kl.pool.Put(m)
	}
}

// Lock blocks until the lock for key is acquired.
func (kl *KeyedLock) Lock(key int64) {
	kl.acquire(key).sem <- struct{}{}
}

// Unlock releases the lock for key. Unlocking a key that is not held panics,
// mirroring sync.Mutex.
func (kl *KeyedLock) Unlock(key int64) {
	kl.mu.Lock()
	m, ok := kl.locks[key]
	if !ok || len(m.sem) == 0 {
		kl.mu.Unlock()
		panic("lock: unlock of unlocked key")
	}
	<-m.sem
	kl.release(key, m)
	kl.mu.Unlock()
}

// TryLock attempts to acquire the lock without blocking.
func (kl *KeyedLock) TryLock(key int64) bool {
	m := kl.acquire(key)
	select {
	case m.sem <- struct{}{}:
		return true
	default:
		kl.mu.Lock()
		kl.release(key, m)
		kl.mu.Unlock()
		return false
	}
}

// LockContext acquires the lock for key or returns when ctx is done.
func (kl *KeyedLock) LockContext(ctx context.Context, key int64) error {
	m := kl.acquire(key)
	select {
	case m.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		kl.mu.Lock()
		kl.release(key, m)
		kl.mu.Unlock()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrLockTimeout
		}
		return ctx.Err()
	}
}

// WithLock executes fn while holding the lock for key.
func (kl *KeyedLock) WithLock(key int64, fn func() error) error {
	kl.Lock(key)
	defer kl.Unlock(key)
	return fn()
}

// WithLockContext executes fn while holding the lock for key, giving up on
// acquisition after timeout or when ctx is cancelled.
func (kl *KeyedLock) WithLockContext(ctx context.Context, key int64, timeout time.Duration, fn func() error) error {
	lockCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := kl.LockContext(lockCtx, key); err != nil {
		return err
	}
	defer kl.Unlock(key)
	return fn()
}

// Len returns the number of keys currently held or waited on.
func (kl *KeyedLock) Len() int {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	return len(kl.locks)
}
