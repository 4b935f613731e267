// Package main is the tunestream command line.
//
// Build:
//
//	go build -o build/tunestream ./cmd
//
// Run:
//
//	./build/tunestream play --album <id>
package main

import (
	"fmt"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/spf13/cobra"

	"github.com/tunestream/tunestream/cmd/play"
	"github.com/tunestream/tunestream/cmd/seed"
	"github.com/tunestream/tunestream/cmd/tracks"
	"github.com/tunestream/tunestream/cmd/window"
	"github.com/tunestream/tunestream/internal/app"
)

func main() {
	boa.CmdT[boa.NoParams]{
		Use:     "tunestream",
		Short:   "Stream and play a music catalog",
		Version: app.GetVersionInfo().Version,
		SubCmds: []*cobra.Command{
			play.Cmd(),
			window.Cmd(),
			tracks.Cmd(),
			seed.Cmd(),
			versionCmd(),
		},
	}.Run()
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), app.GetVersionInfo().FullString())
		},
	}
}
