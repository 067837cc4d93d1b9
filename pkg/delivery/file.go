package delivery

import (
	"io"

	"github.com/arthur-debert/secretpipe/pkg/errors"
	"github.com/arthur-debert/secretpipe/pkg/filesystem"
	"github.com/arthur-debert/secretpipe/pkg/logging"
	"github.com/arthur-debert/secretpipe/pkg/target"
)

// StdoutPath is the sentinel output path that selects stream delivery.
const StdoutPath = "-"

// ToFile reconciles the target and writes the content once. No loop,
// no event waiting; the regular-file kind is inherently single-shot.
func ToFile(fs filesystem.FS, tgt target.Target, content []byte) error {
	log := logging.GetLogger("delivery.file")

	if err := target.Reconcile(fs, tgt); err != nil {
		return err
	}
	if err := fs.WriteFile(tgt.Path, content, tgt.Mode.Perm()); err != nil {
		return errors.Wrapf(err, errors.ErrIOFailure, "cannot write %s", tgt.Path)
	}
	// WriteFile's creation mode is subject to the umask; pin the bits.
	if err := target.EnsureMode(fs, tgt); err != nil {
		return err
	}

	log.Debug().Str("path", tgt.Path).Int("bytes", len(content)).Msg("Wrote content to file")
	return nil
}

// ToStream writes the content to the given writer, used when the
// output path is the "-" sentinel.
func ToStream(w io.Writer, content []byte) error {
	if _, err := w.Write(content); err != nil {
		return errors.Wrap(err, errors.ErrIOFailure, "cannot write to stdout")
	}
	return nil
}
