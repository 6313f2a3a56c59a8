package truncate

import (
	"context"
	stdErrors "errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"time"

	"line-truncator/internal/errors"
	"line-truncator/internal/filesystem"
	"line-truncator/internal/lock"
)

const (
	// DefaultMaxLines is the retain cutoff when WithMaxLines is not given.
	DefaultMaxLines = 1153

	// SuccessMessage is written to the output after every successful run.
	SuccessMessage = "File truncated successfully."

	defaultLockTimeout = 10 * time.Second
)

// LineTruncator reduces a file to its leading lines.
type LineTruncator interface {
	Truncate(ctx context.Context, path string) (*Result, error)
}

// Result describes one completed truncation.
type Result struct {
	Path          string
	OriginalLines int
	RetainedLines int
	OriginalBytes int
	RetainedBytes int
	Atomic        bool
}

// Discarded returns how many lines were dropped.
func (r *Result) Discarded() int {
	return r.OriginalLines - r.RetainedLines
}

// Truncator is the default LineTruncator.
type Truncator struct {
	fsAdapter   filesystem.FileSystemAdapter
	lockManager lock.LockManagerInterface
	maxLines    int
	atomic      bool
	lockTimeout time.Duration
	maxFileSize int64 // in bytes, 0 means unlimited
	out         io.Writer
	logger      *log.Logger
}

var _ LineTruncator = (*Truncator)(nil)

// Option configures a Truncator.
type Option func(*Truncator)

// WithMaxLines sets the number of leading lines to keep.
func WithMaxLines(n int) Option {
	return func(t *Truncator) { t.maxLines = n }
}

// WithAtomicWrite makes the rewrite go through a temporary file and a rename.
func WithAtomicWrite(atomic bool) Option {
	return func(t *Truncator) { t.atomic = atomic }
}

// WithLockTimeout bounds how long Truncate waits for the file lock.
func WithLockTimeout(d time.Duration) Option {
	return func(t *Truncator) { t.lockTimeout = d }
}

// WithoutLock disables advisory locking.
func WithoutLock() Option {
	return func(t *Truncator) { t.lockManager = lock.NoopLockManager{} }
}

// WithMaxFileSize refuses files larger than n bytes. 0 disables the check.
func WithMaxFileSize(n int64) Option {
	return func(t *Truncator) { t.maxFileSize = n }
}

// WithOutput sets where the success message is written.
func WithOutput(w io.Writer) Option {
	return func(t *Truncator) { t.out = w }
}

// WithLogger sets the progress logger.
func WithLogger(l *log.Logger) Option {
	return func(t *Truncator) { t.logger = l }
}

// New creates a Truncator. fsAdapter and lm are required; lm is ignored when
// WithoutLock is given.
func New(fsAdapter filesystem.FileSystemAdapter, lm lock.LockManagerInterface, opts ...Option) (*Truncator, error) {
	if fsAdapter == nil {
		return nil, fmt.Errorf("filesystem adapter is required")
	}
	if lm == nil {
		return nil, fmt.Errorf("lock manager is required")
	}

	t := &Truncator{
		fsAdapter:   fsAdapter,
		lockManager: lm,
		maxLines:    DefaultMaxLines,
		lockTimeout: defaultLockTimeout,
		out:         io.Discard,
		logger:      log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(t)
	}

	if t.maxLines < 0 {
		return nil, errors.NewInvalidArgumentError(fmt.Sprintf("max lines must be 0 or greater, got %d", t.maxLines))
	}
	if t.maxFileSize < 0 {
		return nil, errors.NewInvalidArgumentError(fmt.Sprintf("max file size must be 0 or greater, got %d", t.maxFileSize))
	}
	if t.lockTimeout <= 0 {
		t.lockTimeout = defaultLockTimeout
	}
	return t, nil
}

// MaxLines returns the configured retain cutoff.
func (t *Truncator) MaxLines() int { return t.maxLines }

// Truncate rewrites the file at path so that it holds only its first
// MaxLines lines. The file must already exist; it is never created.
func (t *Truncator) Truncate(ctx context.Context, path string) (*Result, error) {
	resolved, err := t.fsAdapter.ResolvePath(path)
	if err != nil {
		return nil, err
	}
	// Rewrite the link target, not the link, so atomic mode keeps symlinks intact.
	target, err := t.fsAdapter.EvalSymlinks(resolved)
	if err != nil {
		return nil, err
	}

	stats, err := t.fsAdapter.Stat(target)
	if err != nil {
		return nil, err
	}
	if !stats.IsRegular {
		return nil, errors.NewNotFoundError(target, "stat", fmt.Errorf("not a regular file"))
	}
	if t.maxFileSize > 0 && stats.Size > t.maxFileSize {
		return nil, errors.NewFileTooLargeError(target, stats.Size, t.maxFileSize)
	}

	fileLock, err := t.lockManager.AcquireLock(ctx, target, t.lockTimeout)
	if err != nil {
		if stdErrors.Is(err, fs.ErrNotExist) {
			return nil, errors.NewNotFoundError(target, "lock", err)
		}
		if stdErrors.Is(err, fs.ErrPermission) {
			return nil, errors.NewPermissionDeniedError(target, "lock", err)
		}
		return nil, errors.NewLockFailedError(target, err)
	}
	defer func() {
		if errRelease := t.lockManager.ReleaseLock(fileLock); errRelease != nil {
			t.logger.Printf("WARN: releasing lock on %s: %v", target, errRelease)
		}
	}()

	content, err := t.fsAdapter.ReadFileBytes(target)
	if err != nil {
		return nil, err
	}
	if err := t.fsAdapter.ValidateUTF8(target, content); err != nil {
		return nil, err
	}

	retained, kept := Prefix(content, t.maxLines)
	res := &Result{
		Path:          target,
		OriginalLines: CountLines(content),
		RetainedLines: kept,
		OriginalBytes: len(content),
		RetainedBytes: len(retained),
		Atomic:        t.atomic,
	}
	t.logger.Printf("Read %s: %d lines, %d bytes; keeping %d lines, %d bytes",
		target, res.OriginalLines, res.OriginalBytes, res.RetainedLines, res.RetainedBytes)

	if err := t.write(target, retained, stats.Mode); err != nil {
		t.logger.Printf("ERROR: writing %s: %v", target, err)
		return nil, err
	}

	t.logger.Printf("Wrote %s (atomic=%t), discarded %d lines", target, t.atomic, res.Discarded())
	if _, err := fmt.Fprintln(t.out, SuccessMessage); err != nil {
		t.logger.Printf("WARN: writing success message: %v", err)
	}
	return res, nil
}

func (t *Truncator) write(target string, content []byte, perm fs.FileMode) error {
	if !t.atomic {
		return t.fsAdapter.WriteFileBytes(target, content)
	}
	// A rename would succeed on a read-only file in a writable directory.
	if err := t.fsAdapter.CheckWritable(target); err != nil {
		return err
	}
	return t.fsAdapter.WriteFileBytesAtomic(target, content, perm)
}
