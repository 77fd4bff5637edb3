package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	lserrors "github.com/Aman-CERP/litsearch/internal/errors"
)

// lockRetryDelay is how often a contended lock is re-tried.
const lockRetryDelay = 10 * time.Millisecond

// NamespaceLock is a cross-process lock guarding one namespace directory.
// Writers hold it exclusively, readers share it. A NamespaceLock is used for
// a single acquire/release pair and is not safe for concurrent use.
type NamespaceLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewNamespaceLock creates a lock backed by the file at path.
func NewNamespaceLock(path string) *NamespaceLock {
	return &NamespaceLock{
		path:  path,
		flock: flock.New(path),
	}
}

// Acquire takes the lock, waiting at most timeout. A timed-out wait returns a
// retryable ErrLockTimeout.
func (l *NamespaceLock) Acquire(ctx context.Context, exclusive bool, timeout time.Duration) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var acquired bool
	var err error
	if exclusive {
		acquired, err = l.flock.TryLockContext(ctx, lockRetryDelay)
	} else {
		acquired, err = l.flock.TryRLockContext(ctx, lockRetryDelay)
	}
	if !acquired {
		return lserrors.New(lserrors.ErrCodeLockTimeout,
			fmt.Sprintf("lock %s not acquired within %s", filepath.Base(l.path), timeout), err)
	}

	l.locked = true
	return nil
}

// Release drops the lock. It is safe to call on an unlocked NamespaceLock.
func (l *NamespaceLock) Release() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

// Path returns the lock file path.
func (l *NamespaceLock) Path() string {
	return l.path
}
