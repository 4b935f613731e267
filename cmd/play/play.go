package play

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tunestream/tunestream/cmd/common"
	"github.com/tunestream/tunestream/internal/adapter/ui/presenter"
	"github.com/tunestream/tunestream/internal/adapter/ui/terminal"
	"github.com/tunestream/tunestream/internal/app"
	"github.com/tunestream/tunestream/internal/domain"
)

type Params struct {
	Config   string `short:"c" optional:"true" help:"Config file read after the default locations."`
	Shuffle  bool   `short:"s" optional:"true" help:"Start with shuffle mode on."`
	Repeat   string `short:"r" optional:"true" help:"Repeat mode: off, all or one."`
	Album    string `long:"album" optional:"true" help:"Play this album instead of the whole catalog."`
	Genre    string `long:"genre" optional:"true" help:"Play this genre instead of the whole catalog."`
	Artist   string `long:"artist" optional:"true" help:"Play this artist instead of the whole catalog."`
	Playlist string `long:"playlist" optional:"true" help:"Play this playlist instead of the whole catalog."`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:         "play",
		Short:       "Play the catalog in the terminal",
		Long:        "Plays the catalog, or one album, genre, artist or playlist, with a status line. Keys: space play/pause, right next, left previous, s shuffle, r repeat, m mini view, q quit.",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			exitCode := Run(params, os.Stdin, os.Stdout, os.Stderr)
			if exitCode != 0 {
				os.Exit(exitCode)
			}
		},
	}.ToCobra()
}

func Run(params *Params, stdin, stdout *os.File, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := common.LoadConfig(params.Config)
	if err != nil {
		return common.Fail(stderr, "play", err)
	}
	// the status line owns the terminal, so logs go to a file
	log, closeLog, err := common.LogFile(cfg)
	if err != nil {
		return common.Fail(stderr, "play", err)
	}
	defer closeLog()

	application, err := app.NewApplication(cfg, app.WithLogger(log))
	if err != nil {
		return common.Fail(stderr, "play", err)
	}
	defer func() {
		if err := application.Shutdown(); err != nil {
			fmt.Fprintf(stderr, "play: shutdown: %v\n", err)
		}
	}()

	if err := application.Start(ctx); err != nil {
		return common.Fail(stderr, "play", err)
	}
	startedSet, err := Prepare(ctx, application, params)
	if err != nil {
		return common.Fail(stderr, "play", err)
	}

	restore, err := terminal.MakeRaw(stdin)
	if err != nil {
		return common.Fail(stderr, "play", err)
	}
	defer restore()

	color := term.IsTerminal(int(stdout.Fd()))
	view := terminal.NewStatusLine(stdout, terminal.Width(stdout, 80), color)
	session := application.Session()
	p := presenter.New(log, session, application.EventBus(), view)
	defer func() {
		p.Shutdown()
		fmt.Fprint(stdout, "\r\n")
	}()

	if !startedSet {
		session.TogglePlay()
	}

	if err := terminal.RunKeys(ctx, log, stdin, session); err != nil {
		log.Error("reading keys failed", slog.Any("error", err))
		return 1
	}
	return 0
}

// Prepare applies the playback flags to a started application. It reports
// whether a track set was queued, which starts playback on its own.
func Prepare(ctx context.Context, application *app.Application, params *Params) (bool, error) {
	kind, id, isSet, err := common.TrackSet(params.Album, params.Genre, params.Artist, params.Playlist)
	if err != nil {
		return false, err
	}

	session := application.Session()
	if isSet && !session.PlayTrackSet(ctx, kind, id) {
		return false, fmt.Errorf("%s %q: %w", kind, id, domain.ErrQueueEmpty)
	}
	if len(session.Queue()) == 0 {
		return false, fmt.Errorf("nothing to play: %w", domain.ErrQueueEmpty)
	}

	if params.Repeat != "" {
		mode, err := parseRepeat(params.Repeat)
		if err != nil {
			return false, err
		}
		session.SetRepeatMode(mode)
	}
	if params.Shuffle {
		session.ToggleShuffleMode()
	}
	return isSet, nil
}

func parseRepeat(s string) (domain.RepeatMode, error) {
	switch s {
	case "off", "all", "one":
		return domain.ParseRepeatMode(s), nil
	default:
		return domain.RepeatOff, fmt.Errorf("unknown repeat mode %q", s)
	}
}
