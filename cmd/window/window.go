package window

import (
	"context"
	"fmt"
	"io"
	"os"

	fyneapp "fyne.io/fyne/v2/app"
	"github.com/GiGurra/boa/pkg/boa"
	"github.com/spf13/cobra"

	"github.com/tunestream/tunestream/cmd/common"
	fyneui "github.com/tunestream/tunestream/internal/adapter/ui/fyne"
	"github.com/tunestream/tunestream/internal/adapter/ui/presenter"
)

const appID = "io.tunestream.player"

type Params struct {
	Config string `short:"c" optional:"true" help:"Config file read after the default locations."`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:         "window",
		Aliases:     []string{"gui"},
		Short:       "Open the desktop player",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			exitCode := Run(params, os.Stderr)
			if exitCode != 0 {
				os.Exit(exitCode)
			}
		},
	}.ToCobra()
}

// Run blocks until the window is closed.
func Run(params *Params, stderr io.Writer) int {
	application, err := common.OpenApp(params.Config)
	if err != nil {
		return common.Fail(stderr, "window", err)
	}
	defer func() {
		if err := application.Shutdown(); err != nil {
			fmt.Fprintf(stderr, "window: shutdown: %v\n", err)
		}
	}()

	if err := application.Start(context.Background()); err != nil {
		return common.Fail(stderr, "window", err)
	}

	log := application.Logger()
	session := application.Session()
	window := fyneui.NewPlayerWindow(log, fyneapp.NewWithID(appID), session)
	p := presenter.New(log, session, application.EventBus(), window)
	defer p.Shutdown()

	window.ShowAndRun()
	return 0
}
