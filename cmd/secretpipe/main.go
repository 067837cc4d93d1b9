package main

import (
	"fmt"
	"os"

	"github.com/arthur-debert/secretpipe/internal/cli"
	"github.com/arthur-debert/secretpipe/pkg/ui"
	"github.com/arthur-debert/secretpipe/pkg/ui/styles"
)

func main() {
	rootCmd := cli.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		msg := fmt.Sprintf("Error: %v", err)
		if ui.DetectFormat(os.Stderr) == ui.FormatTerminal {
			msg = styles.GetStyle("Error").Render(msg)
		}
		fmt.Fprintln(os.Stderr, msg)
		os.Exit(1)
	}
}
