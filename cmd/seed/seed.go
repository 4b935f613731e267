package seed

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/spf13/cobra"

	"github.com/tunestream/tunestream/cmd/common"
	"github.com/tunestream/tunestream/internal/adapter/catalog/sqlite"
	"github.com/tunestream/tunestream/internal/config"
	"github.com/tunestream/tunestream/internal/logger"
)

type Params struct {
	File   string `pos:"true" required:"true" help:"TOML file with artists, albums, genres, songs and playlists."`
	Config string `short:"c" optional:"true" help:"Config file read after the default locations."`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:         "seed",
		Short:       "Import a TOML file into the local catalog",
		Long:        "Upserts the rows of a TOML seed file into the SQLite catalog. Playlists in the file replace their stored song lists.",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			exitCode := Run(params, os.Stdout, os.Stderr)
			if exitCode != 0 {
				os.Exit(exitCode)
			}
		},
	}.ToCobra()
}

func Run(params *Params, stdout, stderr io.Writer) int {
	cfg, err := common.LoadConfig(params.Config)
	if err != nil {
		return common.Fail(stderr, "seed", err)
	}
	if cfg.Catalog.Backend != config.BackendSQLite {
		return common.Fail(stderr, "seed", fmt.Errorf("catalog backend is %q, only %q can be seeded",
			cfg.Catalog.Backend, config.BackendSQLite))
	}

	data, err := sqlite.ReadSeed(params.File)
	if err != nil {
		return common.Fail(stderr, "seed", err)
	}

	store, err := sqlite.Open(cfg.Catalog.Path, logger.NewLogger(cfg.LoggerConfig()))
	if err != nil {
		return common.Fail(stderr, "seed", err)
	}
	defer store.Close()

	if err := store.Import(context.Background(), data); err != nil {
		return common.Fail(stderr, "seed", err)
	}

	fmt.Fprintf(stdout, "imported %d songs, %d artists, %d albums, %d genres, %d playlists into %s\n",
		len(data.Songs), len(data.Artists), len(data.Albums), len(data.Genres), len(data.Playlists),
		cfg.Catalog.Path)
	return 0
}
