package tracks

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/tunestream/tunestream/cmd/common"
	"github.com/tunestream/tunestream/internal/app"
	"github.com/tunestream/tunestream/internal/domain"
)

type Params struct {
	Config   string `short:"c" optional:"true" help:"Config file read after the default locations."`
	Album    string `long:"album" optional:"true" help:"List the songs of this album, in track order."`
	Genre    string `long:"genre" optional:"true" help:"List the songs of this genre, in track order."`
	Artist   string `long:"artist" optional:"true" help:"List the songs of this artist, newest first."`
	Playlist string `long:"playlist" optional:"true" help:"List the songs of this playlist, in playlist order."`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:         "tracks",
		Aliases:     []string{"ls"},
		Short:       "List the catalog as it would be queued",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			application, err := common.OpenApp(params.Config)
			if err != nil {
				os.Exit(common.Fail(os.Stderr, "tracks", err))
			}
			exitCode := Run(cmd.Context(), application, params, os.Stdout, os.Stderr)
			if err := application.Shutdown(); err != nil && exitCode == 0 {
				exitCode = common.Fail(os.Stderr, "tracks", err)
			}
			if exitCode != 0 {
				os.Exit(exitCode)
			}
		},
	}.ToCobra()
}

func Run(ctx context.Context, application *app.Application, params *Params, stdout, stderr io.Writer) int {
	if ctx == nil {
		ctx = context.Background()
	}

	kind, id, isSet, err := common.TrackSet(params.Album, params.Genre, params.Artist, params.Playlist)
	if err != nil {
		return common.Fail(stderr, "tracks", err)
	}

	var tracks []domain.Track
	if isSet {
		tracks = application.Loader().LoadSet(ctx, kind, id)
	} else {
		tracks = application.Loader().Load(ctx)
	}

	RenderTable(stdout, tracks)
	return 0
}

// RenderTable writes tracks as a table. Unplayable tracks have no source.
func RenderTable(stdout io.Writer, tracks []domain.Track) {
	t := table.NewWriter()
	t.SetOutputMirror(stdout)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"#", "Title", "Artist", "Source"})
	for i, track := range tracks {
		src := track.Src
		if !track.Playable() {
			src = "(none)"
		}
		t.AppendRow(table.Row{i + 1, track.Title, track.Artist, src})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d tracks", len(tracks)), "", ""})
	t.Render()
}
