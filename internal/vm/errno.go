package vm

import (
	"errors"
	"io"
	"io/fs"

	"golang.org/x/sys/unix"
)

// IO error codes thrown by file/stream opcodes. The table is stable:
// bytecode handlers match on these integers, so OS errnos are never
// surfaced directly.
const (
	ioErrorOther int64 = iota
	ioErrorNotFound
	ioErrorPermissionDenied
	ioErrorAlreadyExists
	ioErrorInterrupted
	ioErrorInvalidInput
	ioErrorTimedOut
	ioErrorWouldBlock
	ioErrorBrokenPipe
	ioErrorUnexpectedEOF
	ioErrorIsDirectory
	ioErrorNoSpace
)

// ioErrorCode maps an OS-level error onto the stable code table.
func ioErrorCode(err error) int64 {
	if err == nil {
		return ioErrorOther
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ioErrorUnexpectedEOF
	}

	var errno unix.Errno
	if errors.As(err, &errno) {
		switch errno {
		case unix.ENOENT:
			return ioErrorNotFound
		case unix.EACCES, unix.EPERM:
			return ioErrorPermissionDenied
		case unix.EEXIST:
			return ioErrorAlreadyExists
		case unix.EINTR:
			return ioErrorInterrupted
		case unix.EINVAL:
			return ioErrorInvalidInput
		case unix.ETIMEDOUT:
			return ioErrorTimedOut
		case unix.EAGAIN:
			return ioErrorWouldBlock
		case unix.EPIPE:
			return ioErrorBrokenPipe
		case unix.EISDIR:
			return ioErrorIsDirectory
		case unix.ENOSPC:
			return ioErrorNoSpace
		}
		return ioErrorOther
	}

	// Wrapped fs errors without a reachable errno (e.g. from the
	// standard library's portable paths).
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ioErrorNotFound
	case errors.Is(err, fs.ErrPermission):
		return ioErrorPermissionDenied
	case errors.Is(err, fs.ErrExist):
		return ioErrorAlreadyExists
	}
	return ioErrorOther
}
