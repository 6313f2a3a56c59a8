package lock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gofrs/flock"
)

var (
	// ErrLockTimeout is returned when acquiring a lock times out.
	ErrLockTimeout = fmt.Errorf("timeout acquiring lock")
	// ErrFilenameRequired is returned when a filename is empty.
	ErrFilenameRequired = fmt.Errorf("filename is required")
	// ErrNilLock is returned when a nil lock handle is provided to ReleaseLock.
	ErrNilLock = fmt.Errorf("nil lock handle")
)

const (
	// shortPollInterval is the interval to sleep when polling for a lock.
	shortPollInterval = 10 * time.Millisecond
)

// FileLock represents a handle to an OS-level file lock.
type FileLock struct {
	FilePath string
	flock    *flock.Flock
}

// LockManagerInterface defines the methods a lock manager should implement.
// AcquireLock obtains an exclusive OS-level file lock and returns a handle
// which must be provided back to ReleaseLock.
type LockManagerInterface interface {
	AcquireLock(ctx context.Context, filePath string, timeout time.Duration) (*FileLock, error)
	ReleaseLock(lock *FileLock) error
}

// LockManager takes advisory flock(2) locks directly on the target file.
// The file is opened read-only and never created, so no side-car lock file
// is left next to it.
type LockManager struct {
	pollInterval time.Duration
}

var _ LockManagerInterface = (*LockManager)(nil)

// NewLockManager initializes and returns a new LockManager.
func NewLockManager() *LockManager {
	return &LockManager{pollInterval: shortPollInterval}
}

// AcquireLock attempts to acquire an exclusive OS-level lock for the given
// file, polling until timeout elapses or ctx is done.
func (lm *LockManager) AcquireLock(ctx context.Context, filename string, timeout time.Duration) (*FileLock, error) {
	if filename == "" {
		return nil, ErrFilenameRequired
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	fileLock := flock.New(filename, flock.SetFlag(os.O_RDONLY))
	locked, err := fileLock.TryLockContext(ctx, lm.pollInterval)
	if err != nil {
		_ = fileLock.Close()
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrLockTimeout
		}
		return nil, fmt.Errorf("error acquiring file lock for %s: %w", filename, err)
	}
	if !locked {
		_ = fileLock.Close()
		return nil, ErrLockTimeout
	}

	return &FileLock{FilePath: filename, flock: fileLock}, nil
}

// ReleaseLock releases the given OS-level lock and closes its descriptor.
func (lm *LockManager) ReleaseLock(lock *FileLock) error {
	if lock == nil {
		return ErrNilLock
	}
	if lock.flock == nil {
		return nil
	}
	if err := lock.flock.Close(); err != nil {
		return fmt.Errorf("error releasing file lock for %s: %w", lock.FilePath, err)
	}
	return nil
}

// NoopLockManager satisfies LockManagerInterface without locking anything.
type NoopLockManager struct{}

func (NoopLockManager) AcquireLock(_ context.Context, filePath string, _ time.Duration) (*FileLock, error) {
	if filePath == "" {
		return nil, ErrFilenameRequired
	}
	return &FileLock{FilePath: filePath}, nil
}

func (NoopLockManager) ReleaseLock(lock *FileLock) error {
	if lock == nil {
		return ErrNilLock
	}
	return nil
}
