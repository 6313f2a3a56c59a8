package lock

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const (
	testLockTimeout  = 200 * time.Millisecond
	testPollInterval = 10 * time.Millisecond
	veryShortTimeout = 30 * time.Millisecond
)

func newTestFile(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "testfile.txt")
	if err := os.WriteFile(p, []byte("a\n"), 0o644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	return p
}

func TestLockManager_AcquireReleaseBasic(t *testing.T) {
	lm := NewLockManager()
	filename := newTestFile(t)

	lock, err := lm.AcquireLock(context.Background(), filename, testLockTimeout)
	if err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}
	if lock.FilePath != filename {
		t.Errorf("expected FilePath %s, got %s", filename, lock.FilePath)
	}
	if !lock.flock.Locked() {
		t.Errorf("lock for %s not held after acquire", filename)
	}

	if err := lm.ReleaseLock(lock); err != nil {
		t.Fatalf("ReleaseLock failed: %v", err)
	}
	if lock.flock.Locked() {
		t.Errorf("lock for %s still held after release", filename)
	}
}

func TestLockManager_DoesNotCreateFiles(t *testing.T) {
	lm := NewLockManager()
	dir := t.TempDir()
	filename := filepath.Join(dir, "missing.txt")

	_, err := lm.AcquireLock(context.Background(), filename, testLockTimeout)
	if err == nil {
		t.Fatal("expected error locking a missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist cause, got %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("AcquireLock left %d entries behind", len(entries))
	}
}

func TestLockManager_AcquireEmptyFilename(t *testing.T) {
	lm := NewLockManager()
	_, err := lm.AcquireLock(context.Background(), "", testLockTimeout)
	if !errors.Is(err, ErrFilenameRequired) {
		t.Errorf("expected ErrFilenameRequired, got %v", err)
	}
}

func TestLockManager_ReleaseNilLock(t *testing.T) {
	lm := NewLockManager()
	if err := lm.ReleaseLock(nil); !errors.Is(err, ErrNilLock) {
		t.Errorf("expected ErrNilLock, got %v", err)
	}
}

func TestLockManager_LockTimeout(t *testing.T) {
	lm := NewLockManager()
	filename := newTestFile(t)

	// Acquire the lock first
	held, err := lm.AcquireLock(context.Background(), filename, testLockTimeout)
	if err != nil {
		t.Fatalf("Initial AcquireLock failed: %v", err)
	}

	// A second descriptor on the same file must wait and then time out.
	startTime := time.Now()
	_, err = lm.AcquireLock(context.Background(), filename, veryShortTimeout)
	duration := time.Since(startTime)

	if !errors.Is(err, ErrLockTimeout) {
		t.Errorf("expected ErrLockTimeout, got %v", err)
	}
	if duration < veryShortTimeout-testPollInterval {
		t.Errorf("second acquire returned too quickly, duration %v, expected around %v", duration, veryShortTimeout)
	}

	if err := lm.ReleaseLock(held); err != nil {
		t.Fatalf("ReleaseLock failed: %v", err)
	}

	// Once released it can be taken again.
	again, err := lm.AcquireLock(context.Background(), filename, testLockTimeout)
	if err != nil {
		t.Fatalf("AcquireLock after release failed: %v", err)
	}
	_ = lm.ReleaseLock(again)
}

func TestLockManager_ContextCancelled(t *testing.T) {
	lm := NewLockManager()
	filename := newTestFile(t)

	held, err := lm.AcquireLock(context.Background(), filename, testLockTimeout)
	if err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}
	defer lm.ReleaseLock(held)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = lm.AcquireLock(ctx, filename, testLockTimeout)
	if err == nil {
		t.Fatal("expected error with cancelled context")
	}
	if !errors.Is(err, context.Canceled) && !errors.Is(err, ErrLockTimeout) {
		t.Errorf("expected cancellation or timeout, got %v", err)
	}
}

func TestNoopLockManager(t *testing.T) {
	var lm NoopLockManager
	lock, err := lm.AcquireLock(context.Background(), "whatever.txt", time.Second)
	if err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}
	if err := lm.ReleaseLock(lock); err != nil {
		t.Errorf("ReleaseLock failed: %v", err)
	}
	if _, err := lm.AcquireLock(context.Background(), "", time.Second); !errors.Is(err, ErrFilenameRequired) {
		t.Errorf("expected ErrFilenameRequired, got %v", err)
	}
}
