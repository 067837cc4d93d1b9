// Package filesystem provides the filesystem abstraction used by the
// reconciler and delivery loop, so both can be exercised in tests
// against temp directories without touching global process state.
package filesystem

import (
	"io"
	"io/fs"
)

// FS is the filesystem interface used throughout secretpipe
type FS interface {
	Stat(name string) (fs.FileInfo, error)
	Lstat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error
	Remove(name string) error
	Chmod(name string, mode fs.FileMode) error
	Mkfifo(name string, mode fs.FileMode) error
	// OpenWriter opens name write-only for streaming into a pipe.
	// For a FIFO this blocks until a reader has the other end open.
	OpenWriter(name string) (io.WriteCloser, error)
}
