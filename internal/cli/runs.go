package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"voxelexport.ai/internal/indexdb"
	"voxelexport.ai/internal/logging"
)

func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List export runs recorded in the index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := rootOpts.setup(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("index-db") {
				cfg.IndexDB = dbPath
			}
			if cfg.IndexDB == "" {
				return NewExitError(ExitCommandError, "index database is required")
			}
			if _, err := os.Stat(cfg.IndexDB); err != nil {
				return WrapExitError(ExitCommandError, "index database not found", err)
			}
			idx, err := indexdb.OpenSQLite(cfg.IndexDB, logging.Get("indexdb"))
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open index", err)
			}
			defer idx.Close()

			runs, err := idx.Runs(cmd.Context())
			if err != nil {
				return WrapExitError(ExitFailure, "failed to list runs", err)
			}
			out := cmd.OutOrStdout()
			if rootOpts.Format == "json" {
				if runs == nil {
					runs = []indexdb.Run{}
				}
				return writeJSON(out, runs)
			}
			for _, r := range runs {
				fmt.Fprintf(out, "%s  %s  %s  blocks=%d matched=%d unmatched=%d unknown=%d\n",
					r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), r.World, r.Blocks, r.Matched, r.Unmatched, r.Unknown)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "index-db", "", "SQLite run index")
	return cmd
}
