package cli

import (
	"os"

	"github.com/rs/zerolog"

	"voxelexport.ai/internal/blockstate"
	"voxelexport.ai/internal/config"
	"voxelexport.ai/internal/model"
	"voxelexport.ai/internal/resourcepack"
)

func loadPack(dir string, cfg config.Config, neighbors blockstate.NeighborTester, log zerolog.Logger) (*resourcepack.Pack, error) {
	if dir == "" {
		return nil, NewExitError(ExitCommandError, "resource pack directory is required")
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, WrapExitError(ExitCommandError, "resource pack not found", err)
	}
	fsys := os.DirFS(dir)
	p, err := resourcepack.Load(fsys, resourcepack.Options{
		DoubleSided: cfg.DoubleSided,
		Deps: blockstate.Deps{
			Models:    model.NewRegistry(fsys, log.With().Str("component", "models").Logger()),
			Neighbors: neighbors,
			Strict:    cfg.StrictConditions,
		},
		Log: log,
	})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load resource pack", err)
	}
	return p, nil
}
