package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"line-truncator/internal/errors"
)

// FileStats holds basic statistics about a file.
type FileStats struct {
	Size      int64
	IsRegular bool
	ModTime   time.Time
	Mode      os.FileMode // permission bits plus setuid, setgid and sticky
}

// FileSystemAdapter defines an interface for interacting with the file system.
// Every error it returns is an *errors.Error.
type FileSystemAdapter interface {
	Stat(filePath string) (*FileStats, error)
	ReadFileBytes(filePath string) ([]byte, error)
	ValidateUTF8(filePath string, content []byte) error
	WriteFileBytes(filePath string, content []byte) error
	WriteFileBytesAtomic(filePath string, content []byte, perm os.FileMode) error
	ResolvePath(path string) (string, error)
	EvalSymlinks(path string) (string, error)
	CheckWritable(filePath string) error
}

// DefaultFileSystemAdapter is the standard implementation of FileSystemAdapter using the os package.
type DefaultFileSystemAdapter struct {
	// WorkingDirectory anchors relative paths. Empty means os.Getwd at call time.
	WorkingDirectory string
}

// NewDefaultFileSystemAdapter creates a new DefaultFileSystemAdapter.
func NewDefaultFileSystemAdapter() *DefaultFileSystemAdapter {
	return &DefaultFileSystemAdapter{}
}

// Ensure DefaultFileSystemAdapter implements FileSystemAdapter
var _ FileSystemAdapter = (*DefaultFileSystemAdapter)(nil)

// Stat returns statistics for filePath, following symlinks.
func (fs *DefaultFileSystemAdapter) Stat(filePath string) (*FileStats, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, errors.FromOSError(filePath, "stat", err)
	}
	return &FileStats{
		Size:      info.Size(),
		IsRegular: info.Mode().IsRegular(),
		ModTime:   info.ModTime(),
		Mode:      info.Mode() & (os.ModePerm | os.ModeSetuid | os.ModeSetgid | os.ModeSticky),
	}, nil
}

// ReadFileBytes reads the entire file into a byte slice. The read handle is
// closed before it returns.
func (fs *DefaultFileSystemAdapter) ReadFileBytes(filePath string) ([]byte, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.FromOSError(filePath, "read", err)
	}
	return content, nil
}

// ValidateUTF8 checks content against the UTF-8 encoding without altering it.
func (fs *DefaultFileSystemAdapter) ValidateUTF8(filePath string, content []byte) error {
	_, n, err := transform.Bytes(encoding.UTF8Validator, content)
	if err != nil {
		return errors.NewEncodingError(filePath, n, err)
	}
	return nil
}

// CheckWritable opens filePath for writing without truncating it and closes
// it again.
func (fs *DefaultFileSystemAdapter) CheckWritable(filePath string) error {
	f, err := os.OpenFile(filePath, os.O_WRONLY, 0)
	if err != nil {
		return errors.FromOSError(filePath, "check_writable", err)
	}
	return f.Close()
}

// WriteFileBytes overwrites an existing file in place. The file is opened
// with O_TRUNC and never created; a failure after the open leaves it
// holding only the bytes written so far, reported as a partial write.
func (fs *DefaultFileSystemAdapter) WriteFileBytes(filePath string, content []byte) error {
	f, err := os.OpenFile(filePath, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return errors.FromOSError(filePath, "open_write", err)
	}

	n, errWrite := f.Write(content)
	errClose := f.Close()
	if errWrite != nil {
		return errors.NewPartialWriteError(filePath, n, len(content), errWrite)
	}
	if errClose != nil {
		return errors.NewPartialWriteError(filePath, n, len(content), errClose)
	}
	return nil
}

// WriteFileBytesAtomic writes content to a file atomically.
// It writes to a temporary file in the same directory, syncs it, applies
// finalPerm and renames it over the target.
func (fs *DefaultFileSystemAdapter) WriteFileBytesAtomic(filePath string, content []byte, finalPerm os.FileMode) error {
	dir := filepath.Dir(filePath)

	tempFile, err := os.CreateTemp(dir, "."+filepath.Base(filePath)+".tmp.*")
	if err != nil {
		return errors.FromOSError(dir, "create_temp", err)
	}
	// Harmless once the rename has happened.
	defer os.Remove(tempFile.Name())

	if _, errWrite := tempFile.Write(content); errWrite != nil {
		tempFile.Close()
		return errors.FromOSError(tempFile.Name(), "write_temp", errWrite)
	}
	if errSync := tempFile.Sync(); errSync != nil {
		tempFile.Close()
		return errors.FromOSError(tempFile.Name(), "sync_temp", errSync)
	}
	if errClose := tempFile.Close(); errClose != nil {
		return errors.FromOSError(tempFile.Name(), "close_temp", errClose)
	}

	// CreateTemp uses 0600; set the target mode before the file becomes visible.
	if errChmod := os.Chmod(tempFile.Name(), finalPerm); errChmod != nil {
		return errors.FromOSError(tempFile.Name(), "chmod_temp", errChmod)
	}

	if errRename := os.Rename(tempFile.Name(), filePath); errRename != nil {
		return errors.FromOSError(filePath, "rename", fmt.Errorf("rename %s: %w", tempFile.Name(), errRename))
	}
	return nil
}

// ResolvePath expands a leading "~", anchors relative paths to the working
// directory and cleans the result. If the path does not exist as given but
// its NFC or NFD form does, that form is returned.
func (fs *DefaultFileSystemAdapter) ResolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.NewInvalidArgumentError("path is required")
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home + path[1:]
		}
	}

	if !filepath.IsAbs(path) {
		wd := fs.WorkingDirectory
		if wd == "" {
			var err error
			wd, err = os.Getwd()
			if err != nil {
				return "", errors.FromOSError(path, "getwd", err)
			}
		}
		path = filepath.Join(wd, path)
	}
	path = filepath.Clean(path)

	if _, err := os.Lstat(path); err == nil {
		return path, nil
	}
	for _, variant := range []string{norm.NFC.String(path), norm.NFD.String(path)} {
		if variant == path {
			continue
		}
		if _, err := os.Lstat(variant); err == nil {
			return variant, nil
		}
	}
	return path, nil
}

// EvalSymlinks evaluates symbolic links for the given path.
func (fs *DefaultFileSystemAdapter) EvalSymlinks(path string) (string, error) {
	resolvedPath, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", errors.FromOSError(path, "eval_symlinks", err)
	}
	return resolvedPath, nil
}
