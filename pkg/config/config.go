// Package config loads optional defaults for secretpipe from
// $XDG_CONFIG_HOME/secretpipe/config.toml and parses the
// operator-supplied permission mode. Command-line flags always win
// over file defaults.
package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/arthur-debert/secretpipe/pkg/errors"
	"github.com/arthur-debert/secretpipe/pkg/filesystem"
	"github.com/arthur-debert/secretpipe/pkg/logging"
)

// ConfigFileName is the defaults file under the XDG config dir.
const ConfigFileName = "config.toml"

// Defaults holds the file-configurable default values.
type Defaults struct {
	Mode         string `toml:"mode"`
	Pattern      string `toml:"pattern"`
	Encoding     string `toml:"encoding"`
	PollInterval string `toml:"poll_interval"`
}

// Path returns the location of the defaults file.
func Path() string {
	return filepath.Join(xdg.ConfigHome, "secretpipe", ConfigFileName)
}

// Load reads the defaults file. A missing file yields zero defaults,
// not an error; a malformed file is a configuration error.
func Load(fsys filesystem.FS) (Defaults, error) {
	return LoadFrom(fsys, Path())
}

// LoadFrom reads defaults from an explicit path.
func LoadFrom(fsys filesystem.FS, path string) (Defaults, error) {
	log := logging.GetLogger("config")

	var d Defaults
	data, err := fsys.ReadFile(path)
	if os.IsNotExist(err) {
		return d, nil
	}
	if err != nil {
		return d, errors.Wrapf(err, errors.ErrConfigInvalid, "cannot read config file %s", path)
	}

	if err := toml.Unmarshal(data, &d); err != nil {
		return d, errors.Wrapf(err, errors.ErrConfigInvalid, "cannot parse config file %s", path)
	}

	log.Debug().Str("path", path).Msg("Loaded config defaults")
	return d, nil
}

// ParseMode parses an octal permission string like "600" or "0644".
func ParseMode(s string) (fs.FileMode, error) {
	bits, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, errors.Wrapf(err, errors.ErrModeInvalid, "cannot parse mode %q as octal", s)
	}
	return fs.FileMode(bits), nil
}

// ParsePollInterval parses a duration string like "250ms".
func ParsePollInterval(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.Wrapf(err, errors.ErrConfigInvalid, "cannot parse poll interval %q", s)
	}
	if d < 0 {
		return 0, errors.Newf(errors.ErrConfigInvalid, "poll interval %q must not be negative", s)
	}
	return d, nil
}
