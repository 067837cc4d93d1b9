package delivery

import (
	"context"
	"time"

	"golang.org/x/sys/unix"

	"github.com/arthur-debert/secretpipe/pkg/logging"
)

// ReaderWatcher is the suspension point of the delivery loop: Wait
// blocks until the reader that consumed the last delivery has closed
// the pipe, then returns so the next pass can run. Implementations
// must fire at least once per reader close and may coalesce bursts.
type ReaderWatcher interface {
	Wait(ctx context.Context) error
	Close() error
}

// DefaultPollInterval is the probe cadence of the polling fallback.
const DefaultPollInterval = 250 * time.Millisecond

// pollWatcher is the fallback for systems without a native close
// notification. Each tick it probes the FIFO with a non-blocking
// write-only open: ENXIO means no reader holds the read end, so any
// reader served by the previous pass has detached.
//
// A reader that starts its own open during the probe window is
// released with an empty stream; the inotify watcher has no such
// window and is preferred where available.
type pollWatcher struct {
	path     string
	interval time.Duration
}

// NewPollWatcher creates a polling watcher for the given path.
func NewPollWatcher(path string, interval time.Duration) ReaderWatcher {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &pollWatcher{path: path, interval: interval}
}

func (p *pollWatcher) Wait(ctx context.Context) error {
	log := logging.GetLogger("delivery.watcher")
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			fd, err := unix.Open(p.path, unix.O_WRONLY|unix.O_NONBLOCK, 0)
			if err == nil {
				// A reader is still attached; keep waiting.
				_ = unix.Close(fd)
				continue
			}
			if err == unix.ENXIO {
				log.Trace().Str("path", p.path).Msg("No reader attached, firing")
				return nil
			}
			// Missing or replaced path: wake the loop so
			// validation can classify the failure.
			log.Trace().Err(err).Str("path", p.path).Msg("Probe failed, firing for validation")
			return nil
		}
	}
}

func (p *pollWatcher) Close() error {
	return nil
}
