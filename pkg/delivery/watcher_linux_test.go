//go:build linux

package delivery

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/sys/unix"
)

func TestInotifyWatcherFiresOnReaderClose(t *testing.T) {
	path := mkfifoT(t)

	w, err := NewInotifyWatcher(path)
	require.NoError(t, err)
	defer w.Close()

	// Open and close the read end; the close must wake the watcher.
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK, 0)
	require.NoError(t, err)
	require.NoError(t, unix.Close(fd))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.NoError(t, w.Wait(ctx))
}

func TestInotifyWatcherFiresOnDelete(t *testing.T) {
	path := mkfifoT(t)

	w, err := NewInotifyWatcher(path)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.Remove(path))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.NoError(t, w.Wait(ctx), "a deleted target must wake the loop for validation")
}

func TestInotifyWatcherStopsOnCancel(t *testing.T) {
	path := mkfifoT(t)

	w, err := NewInotifyWatcher(path)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Wait(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after cancellation")
	}
}
