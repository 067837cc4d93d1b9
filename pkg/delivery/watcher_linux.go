//go:build linux

package delivery

import (
	"context"
	"os"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	pipeerrors "github.com/arthur-debert/secretpipe/pkg/errors"
	"github.com/arthur-debert/secretpipe/pkg/logging"
)

// inotifyWatcher waits on the kernel's close notifications for the
// FIFO. IN_CLOSE_NOWRITE fires when a reader closes its end after
// reading; delete, move and attribute events are subscribed as well
// so the loop wakes promptly to validate (and fail) when an external
// actor tampers with the path.
type inotifyWatcher struct {
	path   string
	file   *os.File
	events chan uint32
	errs   chan error
	done   chan struct{}
}

const inotifyMask = unix.IN_CLOSE_NOWRITE | unix.IN_CLOSE_WRITE |
	unix.IN_DELETE_SELF | unix.IN_MOVE_SELF | unix.IN_ATTRIB

// NewInotifyWatcher creates a close-event watcher for the given path.
func NewInotifyWatcher(path string) (ReaderWatcher, error) {
	fd, err := unix.InotifyInit1(unix.IN_CLOEXEC | unix.IN_NONBLOCK)
	if err != nil {
		return nil, pipeerrors.Wrap(err, pipeerrors.ErrIOFailure, "cannot initialize inotify")
	}

	file := os.NewFile(uintptr(fd), "inotify")
	if _, err := unix.InotifyAddWatch(fd, path, inotifyMask); err != nil {
		_ = file.Close()
		return nil, pipeerrors.Wrapf(err, pipeerrors.ErrIOFailure, "cannot watch %s", path)
	}

	w := &inotifyWatcher{
		path:   path,
		file:   file,
		events: make(chan uint32, 16),
		errs:   make(chan error, 1),
		done:   make(chan struct{}),
	}
	go w.readEvents()
	return w, nil
}

// readEvents pumps raw inotify events into the events channel until
// the watcher is closed.
func (w *inotifyWatcher) readEvents() {
	defer close(w.events)
	buf := make([]byte, 64*(unix.SizeofInotifyEvent+unix.NAME_MAX+1))

	for {
		n, err := w.file.Read(buf)
		if err != nil {
			select {
			case <-w.done:
			default:
				w.errs <- pipeerrors.Wrap(err, pipeerrors.ErrIOFailure, "inotify read failed")
			}
			return
		}

		var offset int
		for offset+unix.SizeofInotifyEvent <= n {
			ev := (*unix.InotifyEvent)(unsafe.Pointer(&buf[offset]))
			if ev.Mask&inotifyMask != 0 {
				select {
				case w.events <- ev.Mask:
				default:
					// Channel full: the pending events already
					// guarantee a wake-up, bursts coalesce.
				}
			}
			offset += unix.SizeofInotifyEvent + int(ev.Len)
		}
	}
}

func (w *inotifyWatcher) Wait(ctx context.Context) error {
	log := logging.GetLogger("delivery.watcher")

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-w.errs:
		return err
	case mask, ok := <-w.events:
		if !ok {
			return pipeerrors.New(pipeerrors.ErrIOFailure, "inotify watcher closed unexpectedly")
		}
		log.Trace().Uint32("mask", mask).Str("path", w.path).Msg("Inotify event on target")
		w.drain()
		return nil
	}
}

// drain coalesces an event burst into a single wake-up.
func (w *inotifyWatcher) drain() {
	for {
		select {
		case <-w.events:
		default:
			return
		}
	}
}

func (w *inotifyWatcher) Close() error {
	close(w.done)
	return w.file.Close()
}

// NewReaderWatcher returns the platform's best watcher: kernel close
// notifications here, the polling fallback when inotify is
// unavailable or polling was requested.
func NewReaderWatcher(path string, poll bool, interval time.Duration) (ReaderWatcher, error) {
	if poll {
		return NewPollWatcher(path, interval), nil
	}
	w, err := NewInotifyWatcher(path)
	if err == nil {
		return w, nil
	}
	log := logging.GetLogger("delivery.watcher")
	log.Warn().Err(err).Msg("Inotify unavailable, falling back to polling")
	return NewPollWatcher(path, interval), nil
}
