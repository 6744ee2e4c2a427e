package indexer

import "sync/atomic"

// IndexLock admits one indexing run at a time without blocking the others;
// a caller that loses the race gets ErrIndexingInProgress instead of waiting.
type IndexLock struct {
	held atomic.Bool
}

// TryAcquire takes the lock if it is free and reports whether it did
func (l *IndexLock) TryAcquire() bool {
	return l.held.CompareAndSwap(false, true)
}

// Release frees the lock. Only the holder may call it.
func (l *IndexLock) Release() {
	l.held.Store(false)
}

// Held reports whether a run is in progress
func (l *IndexLock) Held() bool {
	return l.held.Load()
}
