package target

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/secretpipe/pkg/errors"
	"github.com/arthur-debert/secretpipe/pkg/filesystem"
)

func TestValidateRejectsUnreadableMode(t *testing.T) {
	tests := []struct {
		name    string
		mode    fs.FileMode
		wantErr bool
	}{
		{"owner-read-write accepted", 0600, false},
		{"world-readable accepted", 0644, false},
		{"odd but readable accepted", 0755, false},
		{"write-only rejected", 0200, true},
		{"group-only rejected", 0040, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Target{Path: "/tmp/x", Mode: tt.mode, Kind: FIFO}.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsErrorCode(err, errors.ErrModeUnreadable))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestReconcileCreatesFIFO(t *testing.T) {
	fsys := filesystem.NewOS()
	path := filepath.Join(t.TempDir(), "out.pipe")
	tgt := Target{Path: path, Mode: 0600, Kind: FIFO}

	require.NoError(t, Reconcile(fsys, tgt))

	info, err := os.Lstat(path)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&fs.ModeNamedPipe)
}

func TestReconcileReplacesRegularFileWithFIFO(t *testing.T) {
	fsys := filesystem.NewOS()
	path := filepath.Join(t.TempDir(), "out.pipe")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0644))

	tgt := Target{Path: path, Mode: 0600, Kind: FIFO}
	require.NoError(t, Reconcile(fsys, tgt))

	info, err := os.Lstat(path)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&fs.ModeNamedPipe, "regular file should be replaced by a FIFO")
}

func TestReconcileRemovesFIFOWhenFileRequested(t *testing.T) {
	fsys := filesystem.NewOS()
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	require.NoError(t, fsys.Mkfifo(path, 0600))

	tgt := Target{Path: path, Mode: 0600, Kind: RegularFile}
	require.NoError(t, Reconcile(fsys, tgt))

	_, err := os.Lstat(path)
	assert.True(t, os.IsNotExist(err), "FIFO should be removed so the file can be written fresh")
}

func TestReconcileChmodsExistingFile(t *testing.T) {
	fsys := filesystem.NewOS()
	path := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0644))

	tgt := Target{Path: path, Mode: 0600, Kind: RegularFile}
	require.NoError(t, Reconcile(fsys, tgt))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, fs.FileMode(0600), info.Mode().Perm())
}

func TestReconcileIdempotent(t *testing.T) {
	fsys := filesystem.NewOS()
	path := filepath.Join(t.TempDir(), "out.pipe")
	tgt := Target{Path: path, Mode: 0600, Kind: FIFO}

	require.NoError(t, Reconcile(fsys, tgt))
	require.NoError(t, EnsureMode(fsys, tgt))
	first, err := os.Lstat(path)
	require.NoError(t, err)

	require.NoError(t, Reconcile(fsys, tgt))
	second, err := os.Lstat(path)
	require.NoError(t, err)

	assert.Equal(t, first.Mode(), second.Mode())
	assert.NotZero(t, second.Mode()&fs.ModeNamedPipe)
}

func TestEnsureModeToleratesMissingPath(t *testing.T) {
	fsys := filesystem.NewOS()
	tgt := Target{Path: filepath.Join(t.TempDir(), "gone"), Mode: 0600, Kind: FIFO}

	assert.NoError(t, EnsureMode(fsys, tgt))
}

func TestRevalidateFIFO(t *testing.T) {
	fsys := filesystem.NewOS()
	dir := t.TempDir()

	t.Run("missing path is fatal", func(t *testing.T) {
		tgt := Target{Path: filepath.Join(dir, "missing"), Mode: 0600, Kind: FIFO}
		err := RevalidateFIFO(fsys, tgt)
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrTargetMissing))
	})

	t.Run("replaced by regular file is fatal", func(t *testing.T) {
		path := filepath.Join(dir, "swapped")
		require.NoError(t, os.WriteFile(path, []byte("untrusted"), 0600))
		tgt := Target{Path: path, Mode: 0600, Kind: FIFO}
		err := RevalidateFIFO(fsys, tgt)
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrTargetTypeViolation))
	})

	t.Run("healthy FIFO gets its mode restored", func(t *testing.T) {
		path := filepath.Join(dir, "ok.pipe")
		require.NoError(t, fsys.Mkfifo(path, 0600))
		require.NoError(t, os.Chmod(path, 0644))

		tgt := Target{Path: path, Mode: 0600, Kind: FIFO}
		require.NoError(t, RevalidateFIFO(fsys, tgt))

		info, err := os.Lstat(path)
		require.NoError(t, err)
		assert.Equal(t, fs.FileMode(0600), info.Mode().Perm())
	})
}
