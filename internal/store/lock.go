package store

import (
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

// LockPath returns the advisory writer lock path for an index file.
func LockPath(indexPath string) string {
	return indexPath + ".lock"
}

// AcquireWriterLock takes the advisory writer lock for indexPath, polling
// until timeout elapses. The returned func releases the lock.
func AcquireWriterLock(indexPath string, timeout time.Duration) (func(), error) {
	lockPath := LockPath(indexPath)
	l := flock.New(lockPath)
	deadline := time.Now().Add(timeout)
	for {
		locked, err := l.TryLock()
		if err != nil {
			return func() {}, fmt.Errorf("cannot acquire writer lock: %w", err)
		}
		if locked {
			return func() { _ = l.Unlock() }, nil
		}
		if time.Now().After(deadline) {
			return func() {}, fmt.Errorf("another writer holds the index (lock: %s)", lockPath)
		}
		time.Sleep(100 * time.Millisecond)
	}
}
