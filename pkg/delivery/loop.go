// Package delivery serves rendered template bytes to consumers,
// either repeatedly through a FIFO (one full write per reader) or
// once to a regular file or stdout.
package delivery

import (
	"context"
	stderrors "errors"
	"io"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/secretpipe/pkg/errors"
	"github.com/arthur-debert/secretpipe/pkg/filesystem"
	"github.com/arthur-debert/secretpipe/pkg/logging"
	"github.com/arthur-debert/secretpipe/pkg/target"
)

// State names the delivery loop's phases.
type State int

const (
	// StateIdle waits for the next reader-close event.
	StateIdle State = iota
	// StateValidating re-checks the target's type and mode.
	StateValidating
	// StateWriting opens the pipe and writes the rendered bytes.
	StateWriting
	// StateStopped is terminal: one-shot completion or interrupt.
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateWriting:
		return "writing"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Loop delivers the same rendered bytes to every reader of a FIFO.
// The content is fixed at construction; the loop never re-renders.
type Loop struct {
	fs      filesystem.FS
	target  target.Target
	content []byte
	watcher ReaderWatcher
	oneShot bool
	log     zerolog.Logger
}

// NewLoop creates a delivery loop for an already-reconciled target.
func NewLoop(fs filesystem.FS, tgt target.Target, content []byte, watcher ReaderWatcher, oneShot bool) *Loop {
	return &Loop{
		fs:      fs,
		target:  tgt,
		content: content,
		watcher: watcher,
		oneShot: oneShot,
		log:     logging.GetLogger("delivery.loop"),
	}
}

// Run executes the state machine until a terminal condition. The
// first pass goes straight to Validating: a FIFO open blocks until a
// reader appears, so the initial delivery needs no prior event. After
// each write the loop parks in Idle until the watcher fires.
//
// Returns nil on clean stop (interrupt or one-shot completion); any
// other return is fatal and terminates the invocation.
func (l *Loop) Run(ctx context.Context) error {
	state := StateValidating

	for {
		if ctx.Err() != nil {
			l.transition(state, StateStopped)
			return nil
		}

		switch state {
		case StateIdle:
			if err := l.watcher.Wait(ctx); err != nil {
				if stderrors.Is(err, context.Canceled) {
					l.transition(state, StateStopped)
					return nil
				}
				return err
			}
			l.transition(state, StateValidating)
			state = StateValidating

		case StateValidating:
			if err := target.RevalidateFIFO(l.fs, l.target); err != nil {
				return err
			}
			l.transition(state, StateWriting)
			state = StateWriting

		case StateWriting:
			delivered, err := l.writeOnce(ctx)
			if err != nil {
				return err
			}
			if !delivered {
				// canceled while blocked waiting for a reader
				l.transition(state, StateStopped)
				return nil
			}
			if l.oneShot {
				l.log.Info().Msg("One-shot delivery complete")
				l.transition(state, StateStopped)
				return nil
			}
			l.transition(state, StateIdle)
			state = StateIdle
		}
	}
}

func (l *Loop) transition(from, to State) {
	l.log.Debug().Stringer("from", from).Stringer("to", to).Msg("State transition")
}

// writeOnce opens the target write-only, writes the full content, and
// closes the descriptor. The open blocks until a reader holds the
// other end, so it runs in a goroutine that cancellation can abandon;
// an abandoned descriptor is closed as soon as the open resolves.
//
// A broken pipe while writing or closing means the reader disappeared
// mid-delivery. That is the reader's prerogative, not a system
// failure: it is logged and the pass counts as delivered.
func (l *Loop) writeOnce(ctx context.Context) (delivered bool, err error) {
	type openResult struct {
		w   io.WriteCloser
		err error
	}
	opened := make(chan openResult, 1)
	go func() {
		w, err := l.fs.OpenWriter(l.target.Path)
		opened <- openResult{w, err}
	}()

	var res openResult
	select {
	case <-ctx.Done():
		go func() {
			if r := <-opened; r.w != nil {
				_ = r.w.Close()
			}
		}()
		return false, nil
	case res = <-opened:
	}

	if res.err != nil {
		return false, errors.Wrapf(res.err, errors.ErrIOFailure, "cannot open %s for writing", l.target.Path)
	}

	_, werr := res.w.Write(l.content)
	cerr := res.w.Close()

	if isBrokenPipe(werr) || isBrokenPipe(cerr) {
		l.log.Info().Str("path", l.target.Path).Msg("Reader went away mid-write, delivery abandoned")
		return true, nil
	}
	if werr != nil {
		return false, errors.Wrapf(werr, errors.ErrIOFailure, "cannot write to %s", l.target.Path)
	}
	if cerr != nil {
		return false, errors.Wrapf(cerr, errors.ErrIOFailure, "cannot close %s", l.target.Path)
	}

	l.log.Debug().Str("path", l.target.Path).Int("bytes", len(l.content)).Msg("Delivered content")
	return true, nil
}

func isBrokenPipe(err error) bool {
	return err != nil && stderrors.Is(err, syscall.EPIPE)
}
