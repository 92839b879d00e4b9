// Package errors defines the logical error kinds the file system core can
// report, independent of any particular syscall errno set.
package errors

import "fmt"

// DriverError is the interface every error returned across a package
// boundary in this module satisfies. It lets callers attach additional
// context without losing the ability to compare against the sentinel
// values below via errors.Is.
type DriverError interface {
	error
	WithMessage(message string) DriverError
	WrapError(err error) DriverError
	Unwrap() error
}

// DiskoError is a sentinel error kind, one per logical failure mode from
// the error-handling design. Comparing an error against one of these with
// errors.Is tells the caller which kind of failure occurred regardless of
// how much context has been layered on top via WithMessage/WrapError.
type DiskoError string

func (e DiskoError) Error() string {
	return string(e)
}

func (e DiskoError) WithMessage(message string) DriverError {
	return wrappedError{
		message:  fmt.Sprintf("%s: %s", string(e), message),
		original: e,
	}
}

func (e DiskoError) WrapError(err error) DriverError {
	return wrappedError{
		message:  fmt.Sprintf("%s: %s", string(e), err.Error()),
		original: e,
	}
}

const (
	// ErrInvalidArgument covers a null handle, malformed path, a name that's
	// too long, an unrecognized seek whence, an unrecognized file type, or a
	// negative size.
	ErrInvalidArgument = DiskoError("invalid argument")
	// ErrNotFound means path resolution failed to find the named object.
	ErrNotFound = DiskoError("no such file or directory")
	// ErrExists means create/link/move's target name is already present.
	ErrExists = DiskoError("file exists")
	// ErrNotADirectory means an operation needed a directory inode and got
	// a regular file instead.
	ErrNotADirectory = DiskoError("not a directory")
	// ErrIsADirectory means an operation needed a regular file and got a
	// directory instead.
	ErrIsADirectory = DiskoError("is a directory")
	// ErrDirectoryNotEmpty means remove() was asked to delete a directory
	// that still has live entries.
	ErrDirectoryNotEmpty = DiskoError("directory not empty")
	// ErrDirectoryFull means a directory's 31 entry slots are all occupied.
	ErrDirectoryFull = DiskoError("directory full")
	// ErrOutOfBlocks means the free-block bitmap has no zero bits left.
	ErrOutOfBlocks = DiskoError("no space left on device")
	// ErrOutOfInodes means the inode allocation bitmap has no zero bits left.
	ErrOutOfInodes = DiskoError("out of inodes")
	// ErrOutOfDescriptors means the descriptor table is fully occupied.
	ErrOutOfDescriptors = DiskoError("too many open files")
	// ErrIOFailed means the block device rejected a read or write, e.g. an
	// out-of-range or unallocated block id.
	ErrIOFailed = DiskoError("input/output error")
)

// wrappedError is a DiskoError with extra context layered on. It unwraps to
// the original sentinel so errors.Is keeps working after WithMessage or
// WrapError has been called.
type wrappedError struct {
	message  string
	original error
}

func (e wrappedError) Error() string {
	return e.message
}

func (e wrappedError) WithMessage(message string) DriverError {
	return wrappedError{
		message:  fmt.Sprintf("%s: %s", e.message, message),
		original: e.original,
	}
}

func (e wrappedError) WrapError(err error) DriverError {
	return wrappedError{
		message:  fmt.Sprintf("%s: %s", e.message, err.Error()),
		original: e.original,
	}
}

func (e wrappedError) Unwrap() error {
	return e.original
}
