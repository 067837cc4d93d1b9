package filesystem

import (
	"io"
	"io/fs"
	"os"

	"golang.org/x/sys/unix"
)

// osFS implements FS using the OS filesystem
type osFS struct{}

// NewOS creates a new OS filesystem implementation
func NewOS() FS {
	return &osFS{}
}

func (o *osFS) Stat(name string) (fs.FileInfo, error) {
	return os.Stat(name)
}

func (o *osFS) Lstat(name string) (fs.FileInfo, error) {
	return os.Lstat(name)
}

func (o *osFS) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

func (o *osFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	return os.WriteFile(name, data, perm)
}

func (o *osFS) Remove(name string) error {
	return os.Remove(name)
}

func (o *osFS) Chmod(name string, mode fs.FileMode) error {
	return os.Chmod(name, mode)
}

func (o *osFS) Mkfifo(name string, mode fs.FileMode) error {
	return unix.Mkfifo(name, uint32(mode.Perm()))
}

func (o *osFS) OpenWriter(name string) (io.WriteCloser, error) {
	return os.OpenFile(name, os.O_WRONLY, 0)
}
