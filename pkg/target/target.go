// Package target reconciles the output path with the configured
// delivery kind: the entry must exist, be of the right type, and carry
// the desired permission bits before any content is written through it.
package target

import (
	"io/fs"
	"os"

	"github.com/arthur-debert/secretpipe/pkg/errors"
	"github.com/arthur-debert/secretpipe/pkg/filesystem"
	"github.com/arthur-debert/secretpipe/pkg/logging"
)

// Kind selects how rendered content reaches the consumer.
type Kind int

const (
	// FIFO serves content through a named pipe, once per reader.
	FIFO Kind = iota
	// RegularFile writes content to a plain file exactly once.
	RegularFile
)

func (k Kind) String() string {
	switch k {
	case FIFO:
		return "fifo"
	case RegularFile:
		return "file"
	default:
		return "unknown"
	}
}

// Target describes the reconciled output path.
type Target struct {
	Path string
	Mode fs.FileMode
	Kind Kind
}

// Validate rejects configurations the consumer could never use. A
// mode without the owner-read bit would produce a pipe nobody may
// read, so it is refused before any filesystem side effect.
func (t Target) Validate() error {
	if t.Mode&0400 == 0 {
		return errors.Newf(errors.ErrModeUnreadable, "mode %04o is not user-readable", t.Mode.Perm())
	}
	return nil
}

// Reconcile brings the path's filesystem entry into the required
// state. An entry of the wrong type is deleted; a missing FIFO is
// created. Races in the expected direction (entry vanishing before a
// chmod, FIFO appearing before our create) are treated as success.
//
// FIFO creation does not trust the creation mode, which is subject to
// the process umask; the delivery loop re-applies the mode before
// every write instead.
func Reconcile(fsys filesystem.FS, t Target) error {
	log := logging.GetLogger("target")

	if err := t.Validate(); err != nil {
		return err
	}

	info, err := fsys.Lstat(t.Path)
	exists := err == nil
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, errors.ErrConfigInvalid, "cannot stat output path %s", t.Path)
	}

	switch t.Kind {
	case RegularFile:
		if exists && !info.Mode().IsRegular() {
			log.Debug().Str("path", t.Path).Msg("Removing non-regular entry in place of output file")
			if err := fsys.Remove(t.Path); err != nil && !os.IsNotExist(err) {
				return errors.Wrapf(err, errors.ErrConfigInvalid, "cannot remove %s", t.Path)
			}
			return nil
		}
		if exists && info.Mode().Perm() != t.Mode.Perm() {
			if err := fsys.Chmod(t.Path, t.Mode.Perm()); err != nil && !os.IsNotExist(err) {
				return errors.Wrapf(err, errors.ErrConfigInvalid, "cannot chmod %s", t.Path)
			}
		}
		return nil

	case FIFO:
		if exists && info.Mode()&fs.ModeNamedPipe == 0 {
			log.Debug().Str("path", t.Path).Msg("Removing non-FIFO entry in place of output pipe")
			if err := fsys.Remove(t.Path); err != nil && !os.IsNotExist(err) {
				return errors.Wrapf(err, errors.ErrConfigInvalid, "cannot remove %s", t.Path)
			}
			exists = false
		}
		if !exists {
			if err := fsys.Mkfifo(t.Path, t.Mode.Perm()); err != nil && !os.IsExist(err) {
				return errors.Wrapf(err, errors.ErrConfigInvalid, "cannot create FIFO at %s", t.Path)
			}
			log.Debug().Str("path", t.Path).Msg("Created FIFO")
		}
		return nil

	default:
		return errors.Newf(errors.ErrInternal, "unknown delivery kind %d", t.Kind)
	}
}

// EnsureMode re-applies the desired permission bits. A path that
// vanished since the last stat is a tolerated race, not a failure:
// the next delivery pass will surface the deletion through its own
// stat.
func EnsureMode(fsys filesystem.FS, t Target) error {
	if err := fsys.Chmod(t.Path, t.Mode.Perm()); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, errors.ErrIOFailure, "cannot chmod %s", t.Path)
	}
	return nil
}

// RevalidateFIFO confirms the entry is still the FIFO we created and
// restores its mode. The loop calls this before every write, since an
// external actor may delete or replace the path between passes.
func RevalidateFIFO(fsys filesystem.FS, t Target) error {
	info, err := fsys.Lstat(t.Path)
	if os.IsNotExist(err) {
		return errors.Newf(errors.ErrTargetMissing, "output path %s no longer exists", t.Path)
	}
	if err != nil {
		return errors.Wrapf(err, errors.ErrIOFailure, "cannot stat output path %s", t.Path)
	}
	if info.Mode()&fs.ModeNamedPipe == 0 {
		return errors.Newf(errors.ErrTargetTypeViolation, "output path %s is no longer a FIFO", t.Path)
	}
	return EnsureMode(fsys, t)
}
