package errors

import (
	stdErrors "errors"
	"fmt"
	"io/fs"
)

// Error codes. They double as process exit codes (see MapErrorToExitCode).
const (
	CodeGeneric = 1

	// CodeNotFound means the path does not name an existing regular file.
	CodeNotFound = 2

	// CodePermissionDenied means the process may not read or write the file.
	CodePermissionDenied = 3

	// CodeEncoding means the content is not valid UTF-8.
	CodeEncoding = 4

	// CodePartialWrite means the file was truncated for writing but the
	// retained content could not be fully written back.
	CodePartialWrite = 5

	// CodeFileTooLarge indicates the file exceeds the configured size limit.
	CodeFileTooLarge = 6

	// CodeLockFailed means the advisory lock on the file could not be acquired.
	CodeLockFailed = 7

	// CodeInvalidArgument covers bad caller input such as an empty path.
	CodeInvalidArgument = 8
)

// Sentinel kinds, matched with errors.Is against any *Error.
var (
	ErrNotFound         = stdErrors.New("file not found")
	ErrPermissionDenied = stdErrors.New("permission denied")
	ErrEncoding         = stdErrors.New("invalid encoding")
	ErrPartialWrite     = stdErrors.New("partial write")
	ErrFileTooLarge     = stdErrors.New("file too large")
	ErrLockFailed       = stdErrors.New("lock failed")
	ErrInvalidArgument  = stdErrors.New("invalid argument")
	ErrFileSystem       = stdErrors.New("file system error")
)

var kindByCode = map[int]error{
	CodeNotFound:         ErrNotFound,
	CodePermissionDenied: ErrPermissionDenied,
	CodeEncoding:         ErrEncoding,
	CodePartialWrite:     ErrPartialWrite,
	CodeFileTooLarge:     ErrFileTooLarge,
	CodeLockFailed:       ErrLockFailed,
	CodeInvalidArgument:  ErrInvalidArgument,
	CodeGeneric:          ErrFileSystem,
}

// Error is the single error type returned by the truncation packages.
type Error struct {
	Code    int
	Message string
	Path    string
	Op      string
	Err     error // underlying cause, may be nil
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Path)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel kind matching e.Code.
func (e *Error) Is(target error) bool {
	kind, ok := kindByCode[e.Code]
	return ok && kind == target
}

// NewError creates a new Error.
func NewError(code int, message, path, op string, cause error) *Error {
	return &Error{Code: code, Message: message, Path: path, Op: op, Err: cause}
}

// NewNotFoundError creates an Error for a missing file or a path that is
// not a regular file.
func NewNotFoundError(path, op string, cause error) *Error {
	return NewError(CodeNotFound, "file not found", path, op, cause)
}

// NewPermissionDeniedError creates an Error for insufficient read or write access.
func NewPermissionDeniedError(path, op string, cause error) *Error {
	return NewError(CodePermissionDenied, "permission denied", path, op, cause)
}

// NewEncodingError creates an Error for content that fails UTF-8 validation.
// offset is the byte position of the first invalid sequence.
func NewEncodingError(path string, offset int, cause error) *Error {
	return NewError(CodeEncoding,
		fmt.Sprintf("content is not valid UTF-8 (first invalid byte at offset %d)", offset),
		path, "decode", cause)
}

// NewPartialWriteError creates an Error for a write that failed after the
// file had already been truncated. written is the number of bytes that made it.
func NewPartialWriteError(path string, written, want int, cause error) *Error {
	return NewError(CodePartialWrite,
		fmt.Sprintf("partial write, %d of %d bytes written", written, want),
		path, "write", cause)
}

// NewFileTooLargeError creates an Error for files exceeding size limits.
func NewFileTooLargeError(path string, size, maxSize int64) *Error {
	return NewError(CodeFileTooLarge,
		fmt.Sprintf("file size %d exceeds maximum allowed size of %d bytes", size, maxSize),
		path, "stat", nil)
}

// NewLockFailedError creates an Error for failures to acquire a lock.
func NewLockFailedError(path string, cause error) *Error {
	return NewError(CodeLockFailed, "could not acquire lock", path, "lock", cause)
}

// NewInvalidArgumentError creates an Error for rejected caller input.
func NewInvalidArgumentError(message string) *Error {
	return NewError(CodeInvalidArgument, message, "", "validate", nil)
}

// NewFileSystemError creates a generic file system Error.
func NewFileSystemError(path, op string, cause error) *Error {
	return NewError(CodeGeneric, "file system error", path, op, cause)
}

// FromOSError classifies an error returned by the os package into one of
// the kinds above.
func FromOSError(path, op string, err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if stdErrors.As(err, &e) {
		return e
	}
	switch {
	case stdErrors.Is(err, fs.ErrNotExist):
		return NewNotFoundError(path, op, err)
	case stdErrors.Is(err, fs.ErrPermission):
		return NewPermissionDeniedError(path, op, err)
	}
	return NewFileSystemError(path, op, err)
}

// MapErrorToExitCode maps an error to a process exit status. nil maps to 0.
func MapErrorToExitCode(err error) int {
	if err == nil {
		return 0
	}
	var e *Error
	if stdErrors.As(err, &e) {
		if _, known := kindByCode[e.Code]; known {
			return e.Code
		}
	}
	return CodeGeneric
}
