//go:build !linux

package delivery

import "time"

// NewReaderWatcher returns the polling watcher: platforms without
// inotify have no kernel close notification to subscribe to.
func NewReaderWatcher(path string, poll bool, interval time.Duration) (ReaderWatcher, error) {
	return NewPollWatcher(path, interval), nil
}
