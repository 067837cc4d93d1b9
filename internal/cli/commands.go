// Package cli builds the secretpipe command tree.
package cli

import (
	"embed"
	"fmt"
	"io/fs"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/secretpipe/internal/version"
	"github.com/arthur-debert/secretpipe/pkg/cobrax/topics"
	"github.com/arthur-debert/secretpipe/pkg/logging"
	"github.com/arthur-debert/secretpipe/pkg/template"
)

//go:embed help
var helpFS embed.FS

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	var (
		verbosity int
		opts      Options
	)

	rootCmd := &cobra.Command{
		Use:   "secretpipe <output> <template>",
		Short: "Serve a filled-in template through a named pipe",
		Long: `secretpipe reads a template, prompts once for every distinct
placeholder in it (hidden input for <%*secret%> placeholders, visible
input for <%plain%> ones), and serves the rendered text through a named
pipe at <output>. Every process that opens and drains the pipe receives
a fresh copy; the rendered secret never rests readably on disk.

With --to-file the rendered text is written once to a regular file
instead, or to stdout when <output> is "-".`,
		Example: `  secretpipe /run/app/creds.pipe config.tmpl
  secretpipe --oneshot /run/app/creds.pipe config.tmpl
  secretpipe --to-file - config.tmpl`,
		Version: version.Version,
		Args:    cobra.ExactArgs(2),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.OutputPath = args[0]
			opts.TemplatePath = args[1]
			opts.ModeChanged = cmd.Flags().Changed("mode")
			opts.PatternChanged = cmd.Flags().Changed("regex")
			opts.EncodingChanged = cmd.Flags().Changed("encoding")
			opts.PollChanged = cmd.Flags().Changed("poll")
			return Run(opts, DefaultDeps())
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		DisableAutoGenTag: true,
	}

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")
	rootCmd.Flags().BoolVar(&opts.ToFile, "to-file", false, "Write to a regular file (or stdout for \"-\") instead of a FIFO")
	rootCmd.Flags().StringVarP(&opts.Mode, "mode", "m", "600", "Octal permission bits for the output entry")
	rootCmd.Flags().StringVarP(&opts.Pattern, "regex", "r", template.DefaultPattern, "Two-group placeholder pattern (silent marker, prompt)")
	rootCmd.Flags().BoolVarP(&opts.OneShot, "oneshot", "o", false, "Stop after the first successful delivery")
	rootCmd.Flags().StringVar(&opts.Encoding, "encoding", "", "IANA charset for the delivered bytes (default UTF-8)")
	rootCmd.Flags().DurationVar(&opts.Poll, "poll", 0, "Use a polling reader watcher at this interval instead of inotify")

	rootCmd.AddCommand(newVersionCmd())

	if tm, err := topics.NewFromFS(mustSub(helpFS, "help"), topics.Options{
		Renderer: topics.NewGlamourRenderer(),
	}); err == nil {
		tm.Attach(rootCmd)
	}

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("secretpipe version %s\n", version.Version)
			fmt.Printf("  commit: %s\n", version.Commit)
			fmt.Printf("  built:  %s\n", version.Date)
		},
	}
}

func mustSub(fsys embed.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

// Options carries the effective command-line configuration into Run.
type Options struct {
	OutputPath   string
	TemplatePath string
	ToFile       bool
	Mode         string
	Pattern      string
	OneShot      bool
	Encoding     string
	Poll         time.Duration

	// Changed flags win over config-file defaults.
	ModeChanged     bool
	PatternChanged  bool
	EncodingChanged bool
	PollChanged     bool
}
