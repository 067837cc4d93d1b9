package cli

import (
	"context"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arthur-debert/secretpipe/pkg/config"
	"github.com/arthur-debert/secretpipe/pkg/delivery"
	"github.com/arthur-debert/secretpipe/pkg/errors"
	"github.com/arthur-debert/secretpipe/pkg/filesystem"
	"github.com/arthur-debert/secretpipe/pkg/logging"
	"github.com/arthur-debert/secretpipe/pkg/prompt"
	"github.com/arthur-debert/secretpipe/pkg/target"
	"github.com/arthur-debert/secretpipe/pkg/template"
)

// Deps are Run's collaborators, swappable in tests.
type Deps struct {
	FS     filesystem.FS
	Driver prompt.Driver
	Stdout io.Writer
	// ConfigPath overrides the XDG defaults file location; empty
	// means the standard path.
	ConfigPath string
}

// DefaultDeps wires the real filesystem, terminal and stdout.
func DefaultDeps() Deps {
	return Deps{
		FS:     filesystem.NewOS(),
		Driver: prompt.NewSurveyDriver(),
		Stdout: os.Stdout,
	}
}

// Run executes one secretpipe invocation: resolve configuration,
// render the template, then deliver. It returns nil on clean
// termination (one-shot completion, operator interrupt, or a
// completed file write); every error is fatal to the invocation.
func Run(opts Options, deps Deps) error {
	log := logging.GetLogger("cli")

	settings, err := effectiveSettings(opts, deps)
	if err != nil {
		return err
	}

	// Reject unusable configuration before any prompt or filesystem
	// side effect. Stdout delivery has no on-disk entry to validate.
	tgt := target.Target{Path: opts.OutputPath, Mode: settings.mode, Kind: settings.kind}
	toStdout := opts.ToFile && opts.OutputPath == delivery.StdoutPath
	if !toStdout {
		if err := tgt.Validate(); err != nil {
			return err
		}
	}

	re, err := template.CompilePattern(settings.pattern)
	if err != nil {
		return err
	}

	raw, err := deps.FS.ReadFile(opts.TemplatePath)
	if err != nil {
		return errors.Wrapf(err, errors.ErrTemplateRead, "cannot read template %s", opts.TemplatePath)
	}

	placeholders, err := template.Extract(string(raw), re)
	if err != nil {
		return err
	}
	log.Debug().Int("placeholders", len(placeholders)).Msg("Extracted placeholders")

	reps, err := prompt.Resolve(placeholders, deps.Driver)
	if err != nil {
		return err
	}

	rendered := template.Render(string(raw), reps)
	content, err := template.EncodeFor(rendered, settings.encoding)
	if err != nil {
		return err
	}

	if opts.ToFile {
		if opts.OutputPath == delivery.StdoutPath {
			return delivery.ToStream(deps.Stdout, content)
		}
		return delivery.ToFile(deps.FS, tgt, content)
	}

	return serveFIFO(tgt, content, settings, deps)
}

func serveFIFO(tgt target.Target, content []byte, settings resolved, deps Deps) error {
	if err := target.Reconcile(deps.FS, tgt); err != nil {
		return err
	}

	watcher, err := delivery.NewReaderWatcher(tgt.Path, settings.poll > 0, settings.poll)
	if err != nil {
		return err
	}
	defer watcher.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loop := delivery.NewLoop(deps.FS, tgt, content, watcher, settings.oneShot)
	return loop.Run(ctx)
}

// resolved holds configuration after merging flags over file defaults.
type resolved struct {
	mode     fs.FileMode
	pattern  string
	encoding string
	poll     time.Duration
	oneShot  bool
	kind     target.Kind
}

// effectiveSettings merges command-line flags over the optional
// config-file defaults. A flag the operator set always wins; file
// values fill in the rest; built-in defaults cover the remainder.
func effectiveSettings(opts Options, deps Deps) (resolved, error) {
	var defaults config.Defaults
	var err error
	if deps.ConfigPath != "" {
		defaults, err = config.LoadFrom(deps.FS, deps.ConfigPath)
	} else {
		defaults, err = config.Load(deps.FS)
	}
	if err != nil {
		return resolved{}, err
	}

	s := resolved{
		pattern:  opts.Pattern,
		encoding: opts.Encoding,
		poll:     opts.Poll,
		oneShot:  opts.OneShot,
		kind:     target.FIFO,
	}
	if opts.ToFile {
		s.kind = target.RegularFile
	}

	modeStr := opts.Mode
	if !opts.ModeChanged && defaults.Mode != "" {
		modeStr = defaults.Mode
	}
	s.mode, err = config.ParseMode(modeStr)
	if err != nil {
		return resolved{}, err
	}

	if !opts.PatternChanged && defaults.Pattern != "" {
		s.pattern = defaults.Pattern
	}
	if !opts.EncodingChanged && defaults.Encoding != "" {
		s.encoding = defaults.Encoding
	}
	if !opts.PollChanged && defaults.PollInterval != "" {
		s.poll, err = config.ParsePollInterval(defaults.PollInterval)
		if err != nil {
			return resolved{}, err
		}
	}

	return s, nil
}
