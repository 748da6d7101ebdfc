// Package main provides the pagegen CLI: the verb site server and a one-shot
// page composition command.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

// Build info set via ldflags at release time.
var (
	version = "dev"
	commit  = "none"
)

func buildVersion() string {
	if commit == "none" {
		return version
	}
	short := commit
	if len(short) > 7 {
		short = short[:7]
	}
	return fmt.Sprintf("%s (%s)", version, short)
}

func main() {
	cmd := newRootCmd()
	if err := fang.Execute(context.Background(), cmd, fang.WithVersion(buildVersion())); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pagegen",
		Short: "Verb site server and page composer",
		Long: `pagegen serves the verb-conjugation site and composes its pages.

The serve command runs the HTTP server: the analysis proxy with its response
cache, CRUD over the verb file, and the composed site page. The compose
command stitches fragment files into a template from the command line.`,
		Version:       buildVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newComposeCmd())
	return cmd
}
